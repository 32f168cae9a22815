package client

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"football-data-cache/internal/providers"
	"football-data-cache/internal/store"
	"football-data-cache/pkg/models"
)

// fakeProvider is a programmable in-memory provider
type fakeProvider struct {
	name       string
	configured bool
	err        error
	calls      int32

	matches []models.Match
	players []models.Player
	teams   []models.Team
	leagues []models.League
}

func (f *fakeProvider) Name() string     { return f.name }
func (f *fakeProvider) Configured() bool { return f.configured }

func (f *fakeProvider) callCount() int { return int(atomic.LoadInt32(&f.calls)) }

func (f *fakeProvider) record() error {
	atomic.AddInt32(&f.calls, 1)
	return f.err
}

func (f *fakeProvider) LiveMatches(context.Context) ([]models.Match, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return f.matches, nil
}

func (f *fakeProvider) MatchesByDate(context.Context, string) ([]models.Match, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return f.matches, nil
}

func (f *fakeProvider) MatchesByLeague(context.Context, int, int) ([]models.Match, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return f.matches, nil
}

func (f *fakeProvider) Standings(_ context.Context, leagueID, _ int) (*models.LeagueStandings, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return &models.LeagueStandings{League: models.League{ID: leagueID}}, nil
}

func (f *fakeProvider) Players(context.Context) ([]models.Player, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return f.players, nil
}

func (f *fakeProvider) Teams(context.Context) ([]models.Team, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return f.teams, nil
}

func (f *fakeProvider) Leagues(context.Context) ([]models.League, error) {
	if err := f.record(); err != nil {
		return nil, err
	}
	return f.leagues, nil
}

func newTestStore(t *testing.T) *store.BoltStore {
	s, err := store.NewBoltStore(filepath.Join(t.TempDir(), "cache.db"), 12*time.Hour, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestClient(t *testing.T, provs ...providers.Provider) (*Client, *Registry) {
	logger := zaptest.NewLogger(t)
	registry := NewRegistry(provs, logger)
	c := New(registry, newTestStore(t), 2025, []int{39}, logger)
	return c, registry
}

// newTestClientWithClock shares one fake clock between the client, the
// registry and the store, so entry timestamps age together with freshness
// checks.
func newTestClientWithClock(t *testing.T, clock func() time.Time, provs ...providers.Provider) (*Client, *Registry) {
	logger := zaptest.NewLogger(t)
	registry := NewRegistry(provs, logger).WithClock(clock)
	st := newTestStore(t).WithClock(clock)
	c := New(registry, st, 2025, []int{39}, logger).WithClock(clock)
	return c, registry
}

func TestClient_CacheFirstSkipsNetwork(t *testing.T) {
	primary := &fakeProvider{
		name:       "primary",
		configured: true,
		matches:    []models.Match{{ID: 1}},
	}
	c, _ := newTestClient(t, primary)
	ctx := context.Background()

	// The first fetch hits the provider and fills the cache
	matches, src, err := c.LiveMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, src)
	assert.Len(t, matches, 1)
	assert.Equal(t, 1, primary.callCount())

	// The second fetch is served entirely from cache
	matches, src, err = c.LiveMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourceCached, src)
	assert.Len(t, matches, 1)
	assert.Equal(t, 1, primary.callCount())
}

func TestClient_FallsBackToSecondProvider(t *testing.T) {
	primary := &fakeProvider{name: "primary", configured: true, err: errors.New("upstream 500")}
	secondary := &fakeProvider{
		name:       "secondary",
		configured: true,
		teams:      []models.Team{{ID: 42, Name: "Arsenal"}},
	}
	c, registry := newTestClient(t, primary, secondary)
	ctx := context.Background()

	teams, src, err := c.Teams(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, src)
	require.Len(t, teams, 1)
	assert.Equal(t, "Arsenal", teams[0].Name)

	// The failed primary is benched until an explicit reset
	assert.False(t, registry.Usable(primary))
	assert.True(t, registry.Usable(secondary))

	// Next uncached fetch goes straight to the secondary
	_, _, err = c.Leagues(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, primary.callCount())
}

func TestClient_UnconfiguredProviderSkippedSilently(t *testing.T) {
	unconfigured := &fakeProvider{name: "primary", configured: false}
	secondary := &fakeProvider{name: "secondary", configured: true, leagues: []models.League{{ID: 39}}}
	c, registry := newTestClient(t, unconfigured, secondary)

	leagues, src, err := c.Leagues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, src)
	assert.Len(t, leagues, 1)
	assert.Zero(t, unconfigured.callCount())

	// Being unconfigured is not a failure
	status := registry.Status()
	assert.Empty(t, status.FailedAPIs)
	assert.Equal(t, "secondary", status.CurrentAPI)
}

func TestClient_RateLimitBenchesForCooldown(t *testing.T) {
	limited := &fakeProvider{name: "primary", configured: true, err: providers.ErrRateLimited}
	backup := &fakeProvider{name: "secondary", configured: true, players: []models.Player{{ID: 7}}}
	c, registry := newTestClient(t, limited, backup)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	registry.WithClock(func() time.Time { return now })

	_, src, err := c.Players(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, src)
	assert.False(t, registry.Usable(limited))

	status := registry.Status()
	assert.Contains(t, status.RateLimitedAPIs, "primary")

	// Inside the cool-down window the provider stays benched
	now = base.Add(RateLimitCooldown - time.Minute)
	assert.False(t, registry.Usable(limited))

	// After the window it becomes selectable again
	now = base.Add(RateLimitCooldown + time.Minute)
	assert.True(t, registry.Usable(limited))
}

func TestClient_ExhaustionFallsBackToMock(t *testing.T) {
	broken := &fakeProvider{name: "primary", configured: true, err: errors.New("timeout")}
	c, _ := newTestClient(t, broken)

	leagues, src, err := c.Leagues(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, models.SourceMock, src)
	assert.NotEmpty(t, leagues)
}

func TestClient_StaleCacheBeatsMock(t *testing.T) {
	healthy := &fakeProvider{name: "primary", configured: true, teams: []models.Team{{ID: 1, Name: "Cached FC"}}}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c, _ := newTestClientWithClock(t, func() time.Time { return now }, healthy)
	ctx := context.Background()

	_, src, err := c.Teams(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, src)

	// The entry ages past its TTL and the provider dies
	now = base.Add(24 * time.Hour)
	healthy.err = errors.New("upstream gone")

	teams, src, err := c.Teams(ctx)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, models.SourceStale, src)
	require.Len(t, teams, 1)
	assert.Equal(t, "Cached FC", teams[0].Name)
}

func TestClient_StaleEntryAgesOutOfFreshness(t *testing.T) {
	provider := &fakeProvider{name: "primary", configured: true, matches: []models.Match{{ID: 5}}}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c, _ := newTestClientWithClock(t, func() time.Time { return now }, provider)
	ctx := context.Background()

	_, _, err := c.LiveMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.callCount())

	// Still fresh just inside the window
	now = base.Add(11 * time.Hour)
	_, src, err := c.LiveMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourceCached, src)
	assert.Equal(t, 1, provider.callCount())

	// Past the TTL the provider is consulted again
	now = base.Add(13 * time.Hour)
	_, src, err = c.LiveMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, src)
	assert.Equal(t, 2, provider.callCount())
}

func TestClient_ResetFailuresRestoresProvider(t *testing.T) {
	flaky := &fakeProvider{name: "primary", configured: true, err: errors.New("boom")}
	c, registry := newTestClient(t, flaky)
	ctx := context.Background()

	_, _, err := c.Leagues(ctx)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.False(t, registry.Usable(flaky))

	flaky.err = nil
	flaky.leagues = []models.League{{ID: 39}}

	// Still benched until the operator resets
	_, src, _ := c.Teams(ctx)
	assert.Equal(t, models.SourceMock, src)

	c.ResetFailures()
	assert.True(t, registry.Usable(flaky))

	_, src, err = c.Leagues(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, src)
}

func TestClient_ForceRefreshReport(t *testing.T) {
	healthy := &fakeProvider{
		name:       "primary",
		configured: true,
		matches:    []models.Match{{ID: 1}},
		players:    []models.Player{{ID: 1}},
		teams:      []models.Team{{ID: 1}},
		leagues:    []models.League{{ID: 39}},
	}
	c, _ := newTestClient(t, healthy)

	report := c.ForceRefresh(context.Background())

	// live_matches, leagues, teams, players plus one standings per main league
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 5, report.Refreshed)
	assert.Zero(t, report.Failed)
	assert.True(t, report.Success())
	assert.True(t, report.Datasets["live_matches"])
	assert.True(t, report.Datasets["standings_39"])
}

func TestClient_ForceRefreshCountsDegradedAsFailed(t *testing.T) {
	broken := &fakeProvider{name: "primary", configured: true, err: errors.New("down")}
	c, _ := newTestClient(t, broken)

	report := c.ForceRefresh(context.Background())

	assert.Equal(t, 5, report.Total)
	assert.Zero(t, report.Refreshed)
	assert.Equal(t, 5, report.Failed)
	assert.False(t, report.Success())
}

func TestClient_ForceRefreshBypassesFreshCache(t *testing.T) {
	provider := &fakeProvider{name: "primary", configured: true, teams: []models.Team{{ID: 1}}}
	c, _ := newTestClient(t, provider)
	ctx := context.Background()

	_, _, err := c.Teams(ctx)
	require.NoError(t, err)
	before := provider.callCount()

	c.ForceRefresh(ctx)
	assert.Greater(t, provider.callCount(), before)
}

func TestClient_ForceRefreshIsRepeatable(t *testing.T) {
	provider := &fakeProvider{
		name:       "primary",
		configured: true,
		matches:    []models.Match{{ID: 1}},
		players:    []models.Player{{ID: 1}},
		teams:      []models.Team{{ID: 1}},
		leagues:    []models.League{{ID: 39}},
	}
	c, _ := newTestClient(t, provider)
	ctx := context.Background()

	first := c.ForceRefresh(ctx)
	second := c.ForceRefresh(ctx)

	assert.True(t, first.Success())
	assert.True(t, second.Success())
	assert.Equal(t, first.Total, second.Total)
	assert.Equal(t, first.Refreshed, second.Refreshed)
}

func TestClient_CacheStatus(t *testing.T) {
	provider := &fakeProvider{name: "primary", configured: true, teams: []models.Team{{ID: 1}}}
	c, _ := newTestClient(t, provider)
	ctx := context.Background()

	_, _, err := c.Teams(ctx)
	require.NoError(t, err)

	status := c.CacheStatus(ctx)
	assert.True(t, status["teams"])

	require.NoError(t, c.ClearCache(ctx))
	assert.Empty(t, c.CacheStatus(ctx))
}

func TestClient_UndecodableCachedPayloadRefetches(t *testing.T) {
	provider := &fakeProvider{name: "primary", configured: true, leagues: []models.League{{ID: 39}}}
	logger := zaptest.NewLogger(t)
	registry := NewRegistry([]providers.Provider{provider}, logger)
	st := newTestStore(t)
	c := New(registry, st, 2025, []int{39}, logger)
	ctx := context.Background()

	// Plant a payload the league type cannot absorb
	require.NoError(t, st.Set(ctx, "leagues", json.RawMessage(`{"not":"a list"}`)))

	leagues, src, err := c.Leagues(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SourceLive, src)
	assert.Len(t, leagues, 1)
	assert.Equal(t, 1, provider.callCount())
}
