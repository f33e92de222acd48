package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/samvad-hq/blogmeta/internal/domain"
)

const (
	blogBucket       = "blogs"
	metadataBucket   = "metadata_cache"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	metadataTTL     time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{blogBucket, metadataBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init buckets: %w", err)
	}

	store := &boltStore{
		db:              db,
		metadataTTL:     opts.MetadataTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *boltStore) SaveBlog(_ context.Context, ref domain.BlogRef) error {
	if err := validateID(ref.ID); err != nil {
		return err
	}
	payload, err := json.Marshal(ref)
	if err != nil {
		return fmt.Errorf("encode blog: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, blogBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(ref.ID), payload)
	})
}

func (b *boltStore) GetBlog(_ context.Context, id string) (domain.BlogRef, error) {
	var ref domain.BlogRef
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, blogBucket)
		if err != nil {
			return err
		}
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &ref)
	})
	return ref, err
}

func (b *boltStore) DeleteBlog(_ context.Context, id string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, blogBucket)
		if err != nil {
			return err
		}
		key := []byte(id)
		if bucket.Get(key) == nil {
			return ErrNotFound
		}
		return bucket.Delete(key)
	})
}

func (b *boltStore) ListBlogs(_ context.Context) ([]domain.BlogRef, error) {
	var out []domain.BlogRef
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, blogBucket)
		if err != nil {
			return err
		}
		return bucket.ForEach(func(k, v []byte) error {
			var ref domain.BlogRef
			if err := json.Unmarshal(v, &ref); err != nil {
				return fmt.Errorf("decode blog %s: %w", k, err)
			}
			out = append(out, ref)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortBlogs(out)
	return out, nil
}

// CachedMetadata returns a fresh cache entry for url; expired entries are dropped on read.
func (b *boltStore) CachedMetadata(_ context.Context, url string) (domain.Metadata, bool, error) {
	if b.metadataTTL <= 0 {
		return domain.Metadata{}, false, nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return domain.Metadata{}, false, err
	}

	var (
		md    domain.Metadata
		found bool
	)
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, metadataBucket)
		if err != nil {
			return err
		}

		key := []byte(url)
		value := bucket.Get(key)
		if value == nil {
			return nil
		}

		expiry, ok := decodeExpiry(value)
		if !ok || !expiry.After(now) {
			return bucket.Delete(key)
		}
		if err := json.Unmarshal(value[expiryValueBytes:], &md); err != nil {
			return bucket.Delete(key)
		}
		found = true
		return nil
	})
	return md, found, err
}

// CacheMetadata stores md for url until the configured TTL elapses.
func (b *boltStore) CacheMetadata(_ context.Context, url string, md domain.Metadata) error {
	if b.metadataTTL <= 0 {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, metadataBucket)
		if err != nil {
			return err
		}
		buf := make([]byte, expiryValueBytes, expiryValueBytes+len(payload))
		binary.BigEndian.PutUint64(buf, uint64(now.Add(b.metadataTTL).Unix()))
		return bucket.Put([]byte(url), append(buf, payload...))
	})
}

// maybeCleanupExpired removes expired cache entries on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket, err := bucketOf(tx, metadataBucket)
		if err != nil {
			return err
		}

		// Deleting under a live cursor skips the following key, so collect first.
		var expired [][]byte
		err = bucket.ForEach(func(k, v []byte) error {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func bucketOf(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	bucket := tx.Bucket([]byte(name))
	if bucket == nil {
		return nil, fmt.Errorf("%s bucket missing", name)
	}
	return bucket, nil
}

// decodeExpiry decodes the expiry prefix of a cache value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
