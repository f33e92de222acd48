package publishers

import (
	"time"

	"github.com/samvad-hq/blogmeta/internal/domain"
)

// Change event types.
const (
	EventBlogCreated = "blog.created"
	EventBlogUpdated = "blog.updated"
	EventBlogDeleted = "blog.deleted"
)

// Event is the payload published downstream whenever a blog reference changes.
type Event struct {
	Type        string         `json:"type"`
	Blog        domain.BlogRef `json:"blog"`
	ExternalURL *string        `json:"external_url"`
	OccurredAt  time.Time      `json:"occurred_at"`
}

// NewEvent constructs an Event for the given change type.
func NewEvent(typ string, view domain.BlogView) Event {
	return Event{
		Type:        typ,
		Blog:        view.BlogRef,
		ExternalURL: view.ExternalURL,
		OccurredAt:  time.Now().UTC(),
	}
}

// attributes are attached as message attributes/headers by queue publishers.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_type": e.Type,
		"blog_id":    e.Blog.ID,
		"provider":   e.Blog.Provider,
	}
}
