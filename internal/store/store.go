package store

import (
	"context"
	"encoding/json"
	"time"

	"football-data-cache/pkg/models"
)

// Store is the persistent cache layer behind the API client. It holds the
// last-fetched payload per dataset key plus freshness metadata, and a small
// metadata namespace for things that must not expire (the update log).
//
// Entries are kept past their freshness window on purpose: a stale payload
// is still the fallback of last resort when every provider is down. Removal
// only happens through Clear or the retention sweep.
type Store interface {
	// Get returns the entry for key, or (nil, nil) on a miss. Entries with
	// a stale schema version count as misses.
	Get(ctx context.Context, key string) (*models.CacheEntry, error)

	// Set overwrites the entry for key with payload and the current time
	Set(ctx context.Context, key string, payload json.RawMessage) error

	// IsValid reports whether a fresh entry exists for key, without
	// returning the payload
	IsValid(ctx context.Context, key string) bool

	// Keys lists all cached dataset keys
	Keys(ctx context.Context) ([]string, error)

	// Clear removes every cache entry in this application's namespace.
	// Metadata (the update log) survives.
	Clear(ctx context.Context) error

	// GetMeta and SetMeta read/write the non-expiring metadata namespace
	GetMeta(ctx context.Context, key string) ([]byte, error)
	SetMeta(ctx context.Context, key string, value []byte) error

	// Sweep removes entries whose last fetch is older than olderThan and
	// returns how many were removed. Backends with native expiry may no-op.
	Sweep(ctx context.Context, olderThan time.Duration) (int, error)

	Close() error
}

// Config selects and tunes the store backend
type Config struct {
	Backend   string        `mapstructure:"backend"` // "bolt" or "redis"
	Path      string        `mapstructure:"path"`    // bolt database file
	TTL       time.Duration `mapstructure:"ttl"`
	Retention time.Duration `mapstructure:"retention"`
	Redis     RedisConfig   `mapstructure:"redis"`
}

// RedisConfig tunes the redis backend
type RedisConfig struct {
	Addresses    []string      `mapstructure:"addresses"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns the default store configuration
func DefaultConfig() *Config {
	return &Config{
		Backend:   "bolt",
		Path:      "football-data.db",
		TTL:       12 * time.Hour,
		Retention: 30 * 24 * time.Hour,
		Redis: RedisConfig{
			Addresses:    []string{"localhost:6379"},
			Database:     0,
			MaxRetries:   3,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}
