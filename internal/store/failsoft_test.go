package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"football-data-cache/pkg/models"
)

var errBackendDown = errors.New("backend down")

// brokenStore fails every operation, standing in for a dead disk or redis
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*models.CacheEntry, error) {
	return nil, errBackendDown
}
func (brokenStore) Set(context.Context, string, json.RawMessage) error { return errBackendDown }
func (brokenStore) IsValid(context.Context, string) bool               { return false }
func (brokenStore) Keys(context.Context) ([]string, error)             { return nil, errBackendDown }
func (brokenStore) Clear(context.Context) error                        { return errBackendDown }
func (brokenStore) GetMeta(context.Context, string) ([]byte, error)    { return nil, errBackendDown }
func (brokenStore) SetMeta(context.Context, string, []byte) error      { return errBackendDown }
func (brokenStore) Sweep(context.Context, time.Duration) (int, error)  { return 0, errBackendDown }
func (brokenStore) Close() error                                       { return nil }

func TestFailSoft_ReadsDegradeToMisses(t *testing.T) {
	fs := NewFailSoft(brokenStore{}, zaptest.NewLogger(t))
	ctx := context.Background()

	entry, err := fs.Get(ctx, "teams")
	assert.NoError(t, err)
	assert.Nil(t, entry)

	keys, err := fs.Keys(ctx)
	assert.NoError(t, err)
	assert.Empty(t, keys)

	meta, err := fs.GetMeta(ctx, "football_update_logs")
	assert.NoError(t, err)
	assert.Nil(t, meta)
}

func TestFailSoft_WritesNeverError(t *testing.T) {
	fs := NewFailSoft(brokenStore{}, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.NoError(t, fs.Set(ctx, "teams", json.RawMessage(`[]`)))
	assert.NoError(t, fs.SetMeta(ctx, "football_update_logs", []byte(`[]`)))
	assert.NoError(t, fs.Clear(ctx))

	removed, err := fs.Sweep(ctx, time.Hour)
	assert.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFailSoft_PassesThroughHealthyBackend(t *testing.T) {
	inner := setupTestStore(t)
	fs := NewFailSoft(inner, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.NoError(t, fs.Set(ctx, "leagues", json.RawMessage(`[1,2]`)))

	entry, err := fs.Get(ctx, "leagues")
	assert.NoError(t, err)
	assert.NotNil(t, entry)
	assert.True(t, fs.IsValid(ctx, "leagues"))
}
