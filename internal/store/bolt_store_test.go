package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap/zaptest"

	"football-data-cache/pkg/models"
)

func setupTestStore(t *testing.T) *BoltStore {
	logger := zaptest.NewLogger(t)
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := NewBoltStore(path, 12*time.Hour, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestBoltStore_SetAndGet(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	payload := json.RawMessage(`{"matches":[]}`)
	err := s.Set(ctx, "live_matches", payload)
	assert.NoError(t, err)

	entry, err := s.Get(ctx, "live_matches")
	assert.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "live_matches", entry.Key)
	assert.JSONEq(t, string(payload), string(entry.Payload))
	assert.Equal(t, models.CacheSchemaVersion, entry.SchemaVersion)
}

func TestBoltStore_GetNonExistent(t *testing.T) {
	s := setupTestStore(t)

	entry, err := s.Get(context.Background(), "no_such_key")
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestBoltStore_IsValid(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.WithClock(func() time.Time { return now })

	require.NoError(t, s.Set(ctx, "teams", json.RawMessage(`[]`)))
	assert.True(t, s.IsValid(ctx, "teams"))

	// Inside the window the entry stays fresh
	now = base.Add(11 * time.Hour)
	assert.True(t, s.IsValid(ctx, "teams"))

	// Past the TTL the entry is stale but still retrievable
	now = base.Add(13 * time.Hour)
	assert.False(t, s.IsValid(ctx, "teams"))

	entry, err := s.Get(ctx, "teams")
	assert.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestBoltStore_StaleSchemaVersionIsMiss(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	old := models.NewCacheEntry("leagues", json.RawMessage(`[]`), time.Hour, time.Now())
	old.SchemaVersion = models.CacheSchemaVersion + 1
	data, err := json.Marshal(old)
	require.NoError(t, err)

	// Plant an entry written by a different code version
	require.NoError(t, s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put([]byte("leagues"), data)
	}))

	entry, err := s.Get(ctx, "leagues")
	assert.NoError(t, err)
	assert.Nil(t, entry)
}

func TestBoltStore_Keys(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"live_matches", "teams", "players"} {
		require.NoError(t, s.Set(ctx, key, json.RawMessage(`[]`)))
	}

	keys, err := s.Keys(ctx)
	assert.NoError(t, err)
	assert.ElementsMatch(t, []string{"live_matches", "teams", "players"}, keys)
}

func TestBoltStore_ClearPreservesMetadata(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "teams", json.RawMessage(`[]`)))
	require.NoError(t, s.SetMeta(ctx, "football_update_logs", []byte(`[{"success":true}]`)))

	require.NoError(t, s.Clear(ctx))

	entry, err := s.Get(ctx, "teams")
	assert.NoError(t, err)
	assert.Nil(t, entry)

	// The update log survives a cache wipe
	meta, err := s.GetMeta(ctx, "football_update_logs")
	assert.NoError(t, err)
	assert.NotNil(t, meta)
}

func TestBoltStore_Sweep(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.WithClock(func() time.Time { return now })

	require.NoError(t, s.Set(ctx, "old_key", json.RawMessage(`[]`)))

	now = base.Add(40 * 24 * time.Hour)
	require.NoError(t, s.Set(ctx, "new_key", json.RawMessage(`[]`)))

	removed, err := s.Sweep(ctx, 30*24*time.Hour)
	assert.NoError(t, err)
	assert.Equal(t, 1, removed)

	entry, err := s.Get(ctx, "old_key")
	assert.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = s.Get(ctx, "new_key")
	assert.NoError(t, err)
	assert.NotNil(t, entry)
}
