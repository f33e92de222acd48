// Package storage persists blog references and caches extracted metadata.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samvad-hq/blogmeta/internal/domain"
)

// ErrNotFound is returned when a blog reference does not exist.
var ErrNotFound = errors.New("blog not found")

// Store persists blog references and a short-lived metadata cache.
type Store interface {
	Close() error

	SaveBlog(ctx context.Context, ref domain.BlogRef) error
	GetBlog(ctx context.Context, id string) (domain.BlogRef, error)
	DeleteBlog(ctx context.Context, id string) error
	ListBlogs(ctx context.Context) ([]domain.BlogRef, error)

	CachedMetadata(ctx context.Context, url string) (domain.Metadata, bool, error)
	CacheMetadata(ctx context.Context, url string, md domain.Metadata) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	// MetadataTTL of zero disables the metadata cache.
	MetadataTTL     time.Duration
	CleanupInterval time.Duration
}

const defaultCleanupInterval = 12 * time.Hour

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "memory":
		return newMemoryStore(opts), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	case "sqlite":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("sqlite storage requires a path")
		}
		return openSQLite(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.MetadataTTL < 0 {
		opts.MetadataTTL = 0
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("blog id is required")
	}
	return nil
}

// sortBlogs orders newest first, ties broken by id for stable output.
func sortBlogs(refs []domain.BlogRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
