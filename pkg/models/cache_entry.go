package models

import (
	"encoding/json"
	"time"
)

// CacheSchemaVersion is stamped into every cache entry. Bump it whenever the
// serialized payload shape of a dataset changes; entries carrying an older
// version are treated as cache misses instead of deserializing into the
// wrong shape.
const CacheSchemaVersion = 1

// CacheEntry represents one cached dataset payload with its freshness window
type CacheEntry struct {
	Key           string          `json:"key"`
	Payload       json.RawMessage `json:"payload"`
	FetchedAt     time.Time       `json:"fetched_at"`
	TTL           time.Duration   `json:"ttl"`
	SchemaVersion int             `json:"schema_version"`
}

// NewCacheEntry creates an entry stamped with the current schema version
func NewCacheEntry(key string, payload json.RawMessage, ttl time.Duration, fetchedAt time.Time) *CacheEntry {
	return &CacheEntry{
		Key:           key,
		Payload:       payload,
		FetchedAt:     fetchedAt,
		TTL:           ttl,
		SchemaVersion: CacheSchemaVersion,
	}
}

// Fresh reports whether the payload is still inside its validity window.
// The boundary is exclusive: an entry is stale exactly at FetchedAt+TTL.
func (e *CacheEntry) Fresh(now time.Time) bool {
	return now.Sub(e.FetchedAt) < e.TTL
}

// RemainingTTL returns the time left until the entry goes stale
func (e *CacheEntry) RemainingTTL(now time.Time) time.Duration {
	if !e.Fresh(now) {
		return 0
	}
	return e.FetchedAt.Add(e.TTL).Sub(now)
}

// Valid reports whether the entry can be deserialized by the current code
func (e *CacheEntry) Valid() bool {
	return e.SchemaVersion == CacheSchemaVersion
}
