package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"football-data-cache/pkg/models"
)

const (
	cachePrefix = "football:cache:"
	metaPrefix  = "football:meta:"
)

// RedisStore implements Store on redis, for deployments where several
// instances should share one cache. Entries are written with the retention
// window as the redis expiry, not the freshness TTL: a stale entry has to
// stay readable so it can be served when every provider is down.
type RedisStore struct {
	client    redis.UniversalClient
	ttl       time.Duration
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewRedisStore connects to redis and verifies the connection
func NewRedisStore(cfg *RedisConfig, ttl, retention time.Duration, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addresses,
		Password:     cfg.Password,
		DB:           cfg.Database,
		MaxRetries:   cfg.MaxRetries,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client:    client,
		ttl:       ttl,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Get returns the entry for key, or (nil, nil) on a miss
func (s *RedisStore) Get(ctx context.Context, key string) (*models.CacheEntry, error) {
	data, err := s.client.Get(ctx, cachePrefix+key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache entry %q: %w", key, err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("unmarshaling cache entry %q: %w", key, err)
	}

	if !entry.Valid() {
		s.logger.Debug("cache entry has stale schema version, treating as miss",
			zap.String("key", key),
			zap.Int("entry_version", entry.SchemaVersion))
		return nil, nil
	}
	return &entry, nil
}

// Set overwrites the entry for key, stamping the current time
func (s *RedisStore) Set(ctx context.Context, key string, payload json.RawMessage) error {
	entry := models.NewCacheEntry(key, payload, s.ttl, s.now())
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry %q: %w", key, err)
	}

	if err := s.client.Set(ctx, cachePrefix+key, data, s.retention).Err(); err != nil {
		return fmt.Errorf("writing cache entry %q: %w", key, err)
	}

	s.logger.Debug("cache entry written",
		zap.String("key", key),
		zap.Duration("ttl", s.ttl))
	return nil
}

// IsValid reports whether a fresh entry exists for key
func (s *RedisStore) IsValid(ctx context.Context, key string) bool {
	entry, err := s.Get(ctx, key)
	if err != nil || entry == nil {
		return false
	}
	return entry.Fresh(s.now())
}

// Keys lists all cached dataset keys under this application's namespace
func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	raw, err := s.client.Keys(ctx, cachePrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("listing cache keys: %w", err)
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, cachePrefix))
	}
	return keys, nil
}

// Clear removes every cache entry under this application's namespace.
// Metadata keys survive. Deliberately not FlushDB: the database may be
// shared.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.client.Keys(ctx, cachePrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("listing cache keys for clear: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	s.logger.Info("cache cleared", zap.Int("removed", len(keys)))
	return nil
}

// GetMeta reads a metadata value, nil if absent
func (s *RedisStore) GetMeta(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, metaPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("reading metadata %q: %w", key, err)
	}
	return data, nil
}

// SetMeta writes a metadata value with no expiry
func (s *RedisStore) SetMeta(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, metaPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("writing metadata %q: %w", key, err)
	}
	return nil
}

// Sweep is a no-op: redis expires entries natively via the retention window
func (s *RedisStore) Sweep(_ context.Context, _ time.Duration) (int, error) {
	return 0, nil
}

// Close closes the redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
