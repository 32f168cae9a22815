package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"football-data-cache/pkg/models"
)

var (
	entriesBucket = []byte("entries")
	metaBucket    = []byte("metadata")
)

// BoltStore persists cache entries in a local bbolt file. This is the
// default backend: single-process, no external service, survives restarts.
type BoltStore struct {
	db     *bolt.DB
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewBoltStore opens (or creates) the database file at path
func NewBoltStore(path string, ttl time.Duration, logger *zap.Logger) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{entriesBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{
		db:     db,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}, nil
}

// WithClock overrides the store's clock, used in tests
func (s *BoltStore) WithClock(now func() time.Time) *BoltStore {
	s.now = now
	return s
}

// Get returns the entry for key, or (nil, nil) on a miss
func (s *BoltStore) Get(_ context.Context, key string) (*models.CacheEntry, error) {
	var entry models.CacheEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(entriesBucket).Get([]byte(key))
		if data == nil {
			return errNotFound
		}
		return json.Unmarshal(data, &entry)
	})
	if err == errNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %q: %w", key, err)
	}

	if !entry.Valid() {
		s.logger.Debug("cache entry has stale schema version, treating as miss",
			zap.String("key", key),
			zap.Int("entry_version", entry.SchemaVersion),
			zap.Int("current_version", models.CacheSchemaVersion))
		return nil, nil
	}
	return &entry, nil
}

// Set overwrites the entry for key, stamping the current time
func (s *BoltStore) Set(_ context.Context, key string, payload json.RawMessage) error {
	entry := models.NewCacheEntry(key, payload, s.ttl, s.now())
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry %q: %w", key, err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("writing cache entry %q: %w", key, err)
	}

	s.logger.Debug("cache entry written",
		zap.String("key", key),
		zap.Duration("ttl", s.ttl))
	return nil
}

// IsValid reports whether a fresh entry exists for key
func (s *BoltStore) IsValid(ctx context.Context, key string) bool {
	entry, err := s.Get(ctx, key)
	if err != nil || entry == nil {
		return false
	}
	return entry.Fresh(s.now())
}

// Keys lists all cached dataset keys
func (s *BoltStore) Keys(_ context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing cache keys: %w", err)
	}
	return keys, nil
}

// Clear drops every cache entry. The metadata bucket survives so the
// update log outlives a cache wipe.
func (s *BoltStore) Clear(_ context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(entriesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(entriesBucket)
		return err
	})
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	s.logger.Info("cache cleared")
	return nil
}

// GetMeta reads a metadata value, nil if absent
func (s *BoltStore) GetMeta(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(metaBucket).Get([]byte(key))
		if data != nil {
			out = append([]byte(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading metadata %q: %w", key, err)
	}
	return out, nil
}

// SetMeta writes a metadata value
func (s *BoltStore) SetMeta(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("writing metadata %q: %w", key, err)
	}
	return nil
}

// Sweep removes entries last fetched more than olderThan ago. bbolt has no
// native expiry, so the retention sweep is how abandoned dataset keys
// eventually leave the file.
func (s *BoltStore) Sweep(_ context.Context, olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	removed := 0

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(entriesBucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var entry models.CacheEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				// Undecodable entries are garbage, sweep them too
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
				continue
			}
			if entry.FetchedAt.Before(cutoff) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("sweeping cache: %w", err)
	}

	if removed > 0 {
		s.logger.Info("swept expired cache entries", zap.Int("removed", removed))
	}
	return removed, nil
}

// Close closes the underlying database file
func (s *BoltStore) Close() error {
	return s.db.Close()
}

var errNotFound = fmt.Errorf("not found")
