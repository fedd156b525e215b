// Package store persists the built event database between runs using BBolt.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/nstehr/trackside/trackside-core/model"
)

// ErrCacheMiss is returned when no snapshot exists for the requested key.
var ErrCacheMiss = errors.New("cache miss")

// Bucket names
var (
	bucketEvents = []byte("events")
	bucketMeta   = []byte("meta")

	keyHash    = []byte("config_hash")
	keyBuiltAt = []byte("built_at")
)

// BoltCache holds a single event database snapshot plus the hash of the
// configuration it was built for. Saving a new hash replaces everything.
type BoltCache struct {
	db *bolt.DB
	mu sync.RWMutex
}

// NewBoltCache opens (or creates) the cache file at path.
func NewBoltCache(path string) (*BoltCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketEvents, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltCache{db: db}, nil
}

// Load returns the stored pools when the stored hash equals key.
func (c *BoltCache) Load(key string) (map[model.Category][]model.EventRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	pools := make(map[model.Category][]model.EventRecord)
	err := c.db.View(func(tx *bolt.Tx) error {
		stored := tx.Bucket(bucketMeta).Get(keyHash)
		if stored == nil || string(stored) != key {
			return ErrCacheMiss
		}
		return tx.Bucket(bucketEvents).ForEach(func(k, v []byte) error {
			cat := model.Category(k)
			if !cat.Valid() {
				return fmt.Errorf("%w: unknown category %q", model.ErrCacheCorrupt, k)
			}
			var recs []model.EventRecord
			if err := json.Unmarshal(v, &recs); err != nil {
				return fmt.Errorf("%w: category %s: %w", model.ErrCacheCorrupt, k, err)
			}
			pools[cat] = recs
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return pools, nil
}

// Save replaces the snapshot with pools built for key.
func (c *BoltCache) Save(key string, pools map[model.Category][]model.EventRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketEvents); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("failed to clear events: %w", err)
		}
		events, err := tx.CreateBucket(bucketEvents)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketEvents, err)
		}
		for cat, recs := range pools {
			data, err := json.Marshal(recs)
			if err != nil {
				return fmt.Errorf("failed to marshal %s: %w", cat, err)
			}
			if err := events.Put([]byte(cat), data); err != nil {
				return fmt.Errorf("failed to store %s: %w", cat, err)
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyHash, []byte(key)); err != nil {
			return fmt.Errorf("failed to store config hash: %w", err)
		}
		builtAt, _ := time.Now().UTC().MarshalText()
		return meta.Put(keyBuiltAt, builtAt)
	})
}

// BuiltAt reports when the current snapshot was saved.
func (c *BoltCache) BuiltAt() (time.Time, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var t time.Time
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketMeta).Get(keyBuiltAt)
		if v == nil {
			return ErrCacheMiss
		}
		return t.UnmarshalText(v)
	})
	return t, err
}

// Invalidate drops the stored hash so the next Load misses.
func (c *BoltCache) Invalidate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMeta).Delete(keyHash)
	})
}

// Close releases the database file.
func (c *BoltCache) Close() error {
	return c.db.Close()
}
