package storage

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/samvad-hq/blogmeta/internal/domain"
)

type cachedEntry struct {
	md      domain.Metadata
	expires time.Time
}

// memoryStore keeps everything in process memory; used for tests and ephemeral runs.
type memoryStore struct {
	mu    sync.RWMutex
	blogs map[string]domain.BlogRef
	cache map[string]cachedEntry
	ttl   time.Duration
	now   func() time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{
		blogs: make(map[string]domain.BlogRef),
		cache: make(map[string]cachedEntry),
		ttl:   opts.MetadataTTL,
		now:   time.Now,
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) SaveBlog(_ context.Context, ref domain.BlogRef) error {
	if err := validateID(ref.ID); err != nil {
		return err
	}
	ref.Tags = slices.Clone(ref.Tags)

	m.mu.Lock()
	m.blogs[ref.ID] = ref
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) GetBlog(_ context.Context, id string) (domain.BlogRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ref, ok := m.blogs[id]
	if !ok {
		return domain.BlogRef{}, ErrNotFound
	}
	ref.Tags = slices.Clone(ref.Tags)
	return ref, nil
}

func (m *memoryStore) DeleteBlog(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blogs[id]; !ok {
		return ErrNotFound
	}
	delete(m.blogs, id)
	return nil
}

func (m *memoryStore) ListBlogs(_ context.Context) ([]domain.BlogRef, error) {
	m.mu.RLock()
	out := make([]domain.BlogRef, 0, len(m.blogs))
	for _, ref := range m.blogs {
		ref.Tags = slices.Clone(ref.Tags)
		out = append(out, ref)
	}
	m.mu.RUnlock()

	sortBlogs(out)
	return out, nil
}

func (m *memoryStore) CachedMetadata(_ context.Context, url string) (domain.Metadata, bool, error) {
	if m.ttl <= 0 {
		return domain.Metadata{}, false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.cache[url]
	if !ok {
		return domain.Metadata{}, false, nil
	}
	if !entry.expires.After(m.now()) {
		delete(m.cache, url)
		return domain.Metadata{}, false, nil
	}
	md := entry.md
	md.Tags = slices.Clone(md.Tags)
	return md, true, nil
}

func (m *memoryStore) CacheMetadata(_ context.Context, url string, md domain.Metadata) error {
	if m.ttl <= 0 {
		return nil
	}
	md.Tags = slices.Clone(md.Tags)

	m.mu.Lock()
	m.cache[url] = cachedEntry{md: md, expires: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}
