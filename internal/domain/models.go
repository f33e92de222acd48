package domain

import "time"

// Domain contains core models shared by the extractor, storage and API layers.

// Metadata is the normalized result of scraping a blog post page. Every
// field is always populated (empty string when unresolved) and Tags is never nil.
type Metadata struct {
	Title   string   `json:"title"`
	Excerpt string   `json:"excerpt"`
	Image   string   `json:"image"`
	Author  string   `json:"author"`
	Date    string   `json:"date"`
	Tags    []string `json:"tags"`
}

// BlogRef is a stored reference to a post published on an external platform.
// ExternalID may be a full URL, a bare slug/handle or provider shorthand.
type BlogRef struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Provider   string    `json:"provider"`
	Title      string    `json:"title"`
	Excerpt    string    `json:"excerpt"`
	Image      string    `json:"image"`
	Author     string    `json:"author"`
	Date       string    `json:"date"`
	Slug       string    `json:"slug"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BlogView is a BlogRef decorated with its resolved external link.
// ExternalURL is nil when no canonical link can be derived.
type BlogView struct {
	BlogRef
	ExternalURL *string `json:"external_url"`
}
