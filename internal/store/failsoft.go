package store

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"football-data-cache/pkg/models"
)

// FailSoft wraps a Store so that backend errors never reach the fetch path.
// Reads degrade to cache misses, writes are dropped with a log line. The
// upstream-facing code treats the cache as best-effort; a broken disk or a
// dead redis must not take the data path down with it.
type FailSoft struct {
	inner  Store
	logger *zap.Logger
}

// NewFailSoft wraps inner with fail-soft semantics
func NewFailSoft(inner Store, logger *zap.Logger) *FailSoft {
	return &FailSoft{inner: inner, logger: logger}
}

// Get returns the entry for key, treating any backend error as a miss
func (f *FailSoft) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	entry, err := f.inner.Get(ctx, key)
	if err != nil {
		f.logger.Warn("cache read failed, treating as miss",
			zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return entry, nil
}

// Set writes through, dropping the write on backend error
func (f *FailSoft) Set(ctx context.Context, key string, payload json.RawMessage) error {
	if err := f.inner.Set(ctx, key, payload); err != nil {
		f.logger.Warn("cache write failed, dropping entry",
			zap.String("key", key), zap.Error(err))
	}
	return nil
}

// IsValid reports freshness, false on any backend error
func (f *FailSoft) IsValid(ctx context.Context, key string) bool {
	return f.inner.IsValid(ctx, key)
}

// Keys lists cached keys, empty on backend error
func (f *FailSoft) Keys(ctx context.Context) ([]string, error) {
	keys, err := f.inner.Keys(ctx)
	if err != nil {
		f.logger.Warn("cache key listing failed", zap.Error(err))
		return nil, nil
	}
	return keys, nil
}

// Clear clears the cache, swallowing backend errors
func (f *FailSoft) Clear(ctx context.Context) error {
	if err := f.inner.Clear(ctx); err != nil {
		f.logger.Warn("cache clear failed", zap.Error(err))
	}
	return nil
}

// GetMeta reads metadata, nil on backend error
func (f *FailSoft) GetMeta(ctx context.Context, key string) ([]byte, error) {
	data, err := f.inner.GetMeta(ctx, key)
	if err != nil {
		f.logger.Warn("metadata read failed",
			zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return data, nil
}

// SetMeta writes metadata, dropping the write on backend error
func (f *FailSoft) SetMeta(ctx context.Context, key string, value []byte) error {
	if err := f.inner.SetMeta(ctx, key, value); err != nil {
		f.logger.Warn("metadata write failed",
			zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Sweep delegates to the backend and logs failures
func (f *FailSoft) Sweep(ctx context.Context, olderThan time.Duration) (int, error) {
	removed, err := f.inner.Sweep(ctx, olderThan)
	if err != nil {
		f.logger.Warn("cache sweep failed", zap.Error(err))
		return removed, nil
	}
	return removed, nil
}

// Close closes the underlying store
func (f *FailSoft) Close() error {
	return f.inner.Close()
}
