package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/samvad-hq/blogmeta/internal/domain"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS blogs (
	id          TEXT PRIMARY KEY,
	external_id TEXT NOT NULL DEFAULT '',
	provider    TEXT NOT NULL DEFAULT 'external',
	title       TEXT NOT NULL DEFAULT '',
	excerpt     TEXT NOT NULL DEFAULT '',
	image       TEXT NOT NULL DEFAULT '',
	author      TEXT NOT NULL DEFAULT '',
	date        TEXT NOT NULL DEFAULT '',
	slug        TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS metadata_cache (
	url        TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS metadata_cache_expires ON metadata_cache(expires_at);
`

// sqliteStore implements a Store on top of modernc.org/sqlite.
type sqliteStore struct {
	db              *sql.DB
	metadataTTL     time.Duration
	cleanupInterval time.Duration
	lastCleanup     atomic.Int64
}

func openSQLite(path string, opts Options) (Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	store := &sqliteStore{
		db:              db,
		metadataTTL:     opts.MetadataTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) SaveBlog(ctx context.Context, ref domain.BlogRef) error {
	if err := validateID(ref.ID); err != nil {
		return err
	}
	tags, err := json.Marshal(nonNilTags(ref.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO blogs (id, external_id, provider, title, excerpt, image, author, date, slug, tags, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	external_id = excluded.external_id,
	provider    = excluded.provider,
	title       = excluded.title,
	excerpt     = excluded.excerpt,
	image       = excluded.image,
	author      = excluded.author,
	date        = excluded.date,
	slug        = excluded.slug,
	tags        = excluded.tags,
	updated_at  = excluded.updated_at`,
		ref.ID, ref.ExternalID, ref.Provider, ref.Title, ref.Excerpt, ref.Image, ref.Author,
		ref.Date, ref.Slug, string(tags), ref.CreatedAt.UnixNano(), ref.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("upsert blog %s: %w", ref.ID, err)
	}
	return nil
}

const blogColumns = `id, external_id, provider, title, excerpt, image, author, date, slug, tags, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlog(row rowScanner) (domain.BlogRef, error) {
	var (
		ref              domain.BlogRef
		tags             string
		created, updated int64
	)
	if err := row.Scan(&ref.ID, &ref.ExternalID, &ref.Provider, &ref.Title, &ref.Excerpt, &ref.Image,
		&ref.Author, &ref.Date, &ref.Slug, &tags, &created, &updated); err != nil {
		return domain.BlogRef{}, err
	}
	if err := json.Unmarshal([]byte(tags), &ref.Tags); err != nil {
		return domain.BlogRef{}, fmt.Errorf("decode tags for %s: %w", ref.ID, err)
	}
	ref.CreatedAt = time.Unix(0, created).UTC()
	ref.UpdatedAt = time.Unix(0, updated).UTC()
	return ref, nil
}

func (s *sqliteStore) GetBlog(ctx context.Context, id string) (domain.BlogRef, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = ?`, id)
	ref, err := scanBlog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BlogRef{}, ErrNotFound
	}
	if err != nil {
		return domain.BlogRef{}, fmt.Errorf("get blog %s: %w", id, err)
	}
	return ref, nil
}

func (s *sqliteStore) DeleteBlog(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete blog %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete blog %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) ListBlogs(ctx context.Context) ([]domain.BlogRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+blogColumns+` FROM blogs`)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	defer rows.Close()

	var out []domain.BlogRef
	for rows.Next() {
		ref, err := scanBlog(rows)
		if err != nil {
			return nil, fmt.Errorf("list blogs: %w", err)
		}
		out = append(out, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	sortBlogs(out)
	return out, nil
}

func (s *sqliteStore) CachedMetadata(ctx context.Context, url string) (domain.Metadata, bool, error) {
	if s.metadataTTL <= 0 {
		return domain.Metadata{}, false, nil
	}
	now := time.Now()
	if err := s.maybeCleanupExpired(ctx, now); err != nil {
		return domain.Metadata{}, false, err
	}

	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM metadata_cache WHERE url = ? AND expires_at > ?`, url, now.Unix()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Metadata{}, false, nil
	}
	if err != nil {
		return domain.Metadata{}, false, fmt.Errorf("read metadata cache: %w", err)
	}

	var md domain.Metadata
	if err := json.Unmarshal([]byte(payload), &md); err != nil {
		return domain.Metadata{}, false, nil
	}
	return md, true, nil
}

func (s *sqliteStore) CacheMetadata(ctx context.Context, url string, md domain.Metadata) error {
	if s.metadataTTL <= 0 {
		return nil
	}
	payload, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO metadata_cache (url, payload, expires_at) VALUES (?, ?, ?)
ON CONFLICT(url) DO UPDATE SET payload = excluded.payload, expires_at = excluded.expires_at`,
		url, string(payload), time.Now().Add(s.metadataTTL).Unix())
	if err != nil {
		return fmt.Errorf("write metadata cache: %w", err)
	}
	return nil
}

// maybeCleanupExpired purges stale cache rows at most once per cleanup interval.
func (s *sqliteStore) maybeCleanupExpired(ctx context.Context, now time.Time) error {
	if now.Sub(time.Unix(s.lastCleanup.Load(), 0)) < s.cleanupInterval {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata_cache WHERE expires_at <= ?`, now.Unix()); err != nil {
		return fmt.Errorf("purge metadata cache: %w", err)
	}
	s.lastCleanup.Store(now.Unix())
	return nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
