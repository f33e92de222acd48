package blog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/blogmeta/internal/domain"
	"github.com/samvad-hq/blogmeta/internal/extractor"
	"github.com/samvad-hq/blogmeta/internal/logger"
	"github.com/samvad-hq/blogmeta/internal/storage"
	"github.com/samvad-hq/blogmeta/pkg/providers"
	"github.com/samvad-hq/blogmeta/pkg/publishers"
	"github.com/samvad-hq/blogmeta/pkg/resolver"
)

// Extractor pulls metadata from a post URL.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (domain.Metadata, error)
}

// EventPublisher receives blog change events. *publishers.Fanout satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Service manages stored blog references and their metadata.
type Service struct {
	store        storage.Store
	extractor    Extractor
	registry     *providers.Registry
	publisher    EventPublisher
	log          logger.Logger
	defaultImage string
	now          func() time.Time
	newID        func() string
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sets the change event sink.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.log = logger.Ensure(l) }
}

// WithDefaultImage overrides DefaultImage.
func WithDefaultImage(img string) Option {
	return func(s *Service) {
		if img != "" {
			s.defaultImage = img
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides uuid-based id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService wires a Service. A nil registry falls back to the built-in providers.
func NewService(store storage.Store, ext Extractor, reg *providers.Registry, opts ...Option) *Service {
	if reg == nil {
		reg = providers.Default()
	}
	s := &Service{
		store:        store,
		extractor:    ext,
		registry:     reg,
		log:          logger.NopLogger{},
		defaultImage: DefaultImage,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Preview normalizes rawURL, detects its provider and extracts its metadata.
// On fetch or parse failure the returned draft still carries the URL and
// provider so callers can continue with manual entry.
func (s *Service) Preview(ctx context.Context, rawURL string) (Draft, error) {
	normalized := resolver.NormalizeInput(rawURL)
	if normalized == "" {
		return Draft{}, &extractor.ValidationError{Reason: "url is required"}
	}

	draft := Draft{ExternalID: normalized, Provider: providers.External, Metadata: emptyMetadata()}
	u, err := url.Parse(normalized)
	if err != nil || u.Hostname() == "" {
		return draft, &extractor.ValidationError{URL: normalized, Reason: "invalid URL"}
	}
	draft.Provider = s.registry.Detect(u.Hostname())

	md, err := s.metadata(ctx, normalized)
	if err != nil {
		return draft, err
	}
	draft.Metadata = md
	draft.Slug = GenerateSlug(md.Title)
	return draft, nil
}

// Create validates in and stores it as a new blog reference.
func (s *Service) Create(ctx context.Context, in Input) (domain.BlogView, error) {
	ref, err := s.buildRef(in)
	if err != nil {
		return domain.BlogView{}, err
	}
	now := s.now().UTC()
	ref.ID = s.newID()
	ref.CreatedAt = now
	ref.UpdatedAt = now

	if err := s.store.SaveBlog(ctx, ref); err != nil {
		return domain.BlogView{}, fmt.Errorf("save blog: %w", err)
	}
	view := s.View(ref)
	s.emit(ctx, publishers.EventBlogCreated, view)
	return view, nil
}

// Update replaces the editable fields of an existing blog reference.
func (s *Service) Update(ctx context.Context, id string, in Input) (domain.BlogView, error) {
	existing, err := s.store.GetBlog(ctx, id)
	if err != nil {
		return domain.BlogView{}, err
	}
	ref, err := s.buildRef(in)
	if err != nil {
		return domain.BlogView{}, err
	}
	ref.ID = existing.ID
	ref.CreatedAt = existing.CreatedAt
	ref.UpdatedAt = s.now().UTC()

	if err := s.store.SaveBlog(ctx, ref); err != nil {
		return domain.BlogView{}, fmt.Errorf("save blog: %w", err)
	}
	view := s.View(ref)
	s.emit(ctx, publishers.EventBlogUpdated, view)
	return view, nil
}

// Delete removes a blog reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.store.GetBlog(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBlog(ctx, id); err != nil {
		return err
	}
	s.emit(ctx, publishers.EventBlogDeleted, s.View(existing))
	return nil
}

// Get returns a single blog view.
func (s *Service) Get(ctx context.Context, id string) (domain.BlogView, error) {
	ref, err := s.store.GetBlog(ctx, id)
	if err != nil {
		return domain.BlogView{}, err
	}
	return s.View(ref), nil
}

// List returns every stored blog, newest first.
func (s *Service) List(ctx context.Context) ([]domain.BlogView, error) {
	refs, err := s.store.ListBlogs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	views := make([]domain.BlogView, 0, len(refs))
	for _, ref := range refs {
		views = append(views, s.View(ref))
	}
	return views, nil
}

// Refresh re-extracts metadata for a stored blog and merges the non-empty
// fields over the stored ones. The metadata cache is bypassed.
func (s *Service) Refresh(ctx context.Context, id string) (domain.BlogView, error) {
	ref, err := s.store.GetBlog(ctx, id)
	if err != nil {
		return domain.BlogView{}, err
	}
	target, ok := resolver.Resolve(ref.ExternalID, ref.Provider, ref.Author)
	if !ok {
		return domain.BlogView{}, &ValidationError{Fields: []string{"external_id"}, Reason: "no resolvable URL"}
	}

	md, err := s.extractor.Extract(ctx, target)
	if err != nil {
		return domain.BlogView{}, err
	}
	s.cache(ctx, target, md)

	merged := MergeMetadata(ref, md)
	merged.UpdatedAt = s.now().UTC()
	if err := s.store.SaveBlog(ctx, merged); err != nil {
		return domain.BlogView{}, fmt.Errorf("save blog: %w", err)
	}
	view := s.View(merged)
	s.emit(ctx, publishers.EventBlogUpdated, view)
	return view, nil
}

// View decorates ref with its resolved external URL.
func (s *Service) View(ref domain.BlogRef) domain.BlogView {
	view := domain.BlogView{BlogRef: ref}
	if link, ok := resolver.Resolve(ref.ExternalID, ref.Provider, ref.Author); ok {
		view.ExternalURL = &link
	}
	return view
}

// metadata serves md from the cache when fresh, otherwise extracts and caches it.
func (s *Service) metadata(ctx context.Context, target string) (domain.Metadata, error) {
	md, ok, err := s.store.CachedMetadata(ctx, target)
	if err != nil {
		s.log.WarnObj("metadata cache read failed", "metadata_cache_error", map[string]any{
			"url":   target,
			"error": err.Error(),
		})
	}
	if ok {
		return md, nil
	}

	md, err = s.extractor.Extract(ctx, target)
	if err != nil {
		return emptyMetadata(), err
	}
	s.cache(ctx, target, md)
	return md, nil
}

func (s *Service) cache(ctx context.Context, target string, md domain.Metadata) {
	if err := s.store.CacheMetadata(ctx, target, md); err != nil {
		s.log.WarnObj("metadata cache write failed", "metadata_cache_error", map[string]any{
			"url":   target,
			"error": err.Error(),
		})
	}
}

// emit publishes a change event. Delivery failures are logged only.
func (s *Service) emit(ctx context.Context, typ string, view domain.BlogView) {
	if s.publisher == nil {
		return
	}
	delivered, err := s.publisher.Publish(ctx, publishers.NewEvent(typ, view))
	if err != nil {
		s.log.ErrorObj("blog event publish failed", "blog_event_error", map[string]any{
			"event_type": typ,
			"blog_id":    view.ID,
			"delivered":  delivered,
			"error":      err.Error(),
		})
		return
	}
	s.log.DebugObj("blog event published", "blog_event", map[string]any{
		"event_type": typ,
		"blog_id":    view.ID,
		"delivered":  delivered,
	})
}

// IsNotFound reports whether err means the blog does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func emptyMetadata() domain.Metadata {
	return domain.Metadata{Tags: []string{}}
}
