package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"football-data-cache/internal/providers"
	"football-data-cache/internal/store"
	"football-data-cache/pkg/models"
)

// ErrExhausted is returned (alongside a degraded payload) when every
// provider was skipped or failed for a fetch
var ErrExhausted = errors.New("all providers exhausted")

// Dataset keys. Renaming one invalidates its cached history, which is the
// intended way to migrate when a payload shape changes together with a
// CacheSchemaVersion bump.
const (
	keyLiveMatches = "live_matches"
	keyPlayers     = "players"
	keyTeams       = "teams"
	keyLeagues     = "leagues"
)

func standingsKey(leagueID int) string {
	return fmt.Sprintf("standings_%d", leagueID)
}

func matchesByDateKey(date string) string {
	return "matches_date_" + date
}

func matchesByLeagueKey(leagueID, season int) string {
	return fmt.Sprintf("matches_league_%d_%d", leagueID, season)
}

// Client hides provider plurality and instability behind one call surface.
// Every fetch goes cache-first, then walks the provider list in priority
// order, and finally degrades to stale cache or mock data rather than
// returning an error the UI would have to handle.
//
// Providers are tried sequentially, not in parallel: the monthly quota is
// the scarce resource here, not latency.
type Client struct {
	registry    *Registry
	store       store.Store
	logger      *zap.Logger
	season      int
	mainLeagues []int
	now         func() time.Time
}

// New creates the client
func New(registry *Registry, st store.Store, season int, mainLeagues []int, logger *zap.Logger) *Client {
	return &Client{
		registry:    registry,
		store:       st,
		logger:      logger,
		season:      season,
		mainLeagues: mainLeagues,
		now:         time.Now,
	}
}

// WithClock overrides the client's clock, used in tests
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

// fetch is the cache-first read path: fresh cache entry wins without any
// network traffic, otherwise the provider chain runs.
func fetch[T any](ctx context.Context, c *Client, key string, call func(context.Context, providers.Provider) (T, error), mock func() T) (T, models.DataSource, error) {
	if entry, _ := c.store.Get(ctx, key); entry != nil && entry.Fresh(c.now()) {
		var cached T
		if err := json.Unmarshal(entry.Payload, &cached); err == nil {
			return cached, models.SourceCached, nil
		}
		c.logger.Warn("cached payload undecodable, refetching", zap.String("key", key))
	}
	return fetchFresh(ctx, c, key, call, mock)
}

// fetchFresh bypasses the freshness check and always runs the provider
// chain; the forced-refresh path enters here directly.
func fetchFresh[T any](ctx context.Context, c *Client, key string, call func(context.Context, providers.Provider) (T, error), mock func() T) (T, models.DataSource, error) {
	result, err := callProviders(ctx, c, key, call)
	if err == nil {
		if payload, mErr := json.Marshal(result); mErr == nil {
			_ = c.store.Set(ctx, key, payload)
		}
		return result, models.SourceLive, nil
	}

	// Degraded path: a stale entry beats mock data beats nothing
	if entry, _ := c.store.Get(ctx, key); entry != nil {
		var stale T
		if uErr := json.Unmarshal(entry.Payload, &stale); uErr == nil {
			c.logger.Warn("serving stale cache entry",
				zap.String("key", key),
				zap.Time("fetched_at", entry.FetchedAt),
				zap.Error(err))
			return stale, models.SourceStale, err
		}
	}

	c.logger.Warn("serving mock dataset", zap.String("key", key), zap.Error(err))
	return mock(), models.SourceMock, err
}

// callProviders walks the provider list in priority order, one at a time
func callProviders[T any](ctx context.Context, c *Client, key string, call func(context.Context, providers.Provider) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for _, p := range c.registry.Providers() {
		name := p.Name()
		if !c.registry.Usable(p) {
			continue
		}

		raw, err := c.registry.Execute(name, func() (interface{}, error) {
			return call(ctx, p)
		})
		if err == nil {
			c.registry.MarkSuccess(name)
			c.logger.Debug("dataset fetched",
				zap.String("key", key),
				zap.String("provider", name))
			return raw.(T), nil
		}

		lastErr = err
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			// breaker refused the call; nothing new to record
		case errors.Is(err, providers.ErrRateLimited):
			c.registry.MarkRateLimited(name)
		default:
			c.registry.MarkFailed(name)
		}
		c.logger.Warn("provider call failed, trying next",
			zap.String("key", key),
			zap.String("provider", name),
			zap.Error(err))
	}

	if lastErr == nil {
		return zero, ErrExhausted
	}
	return zero, fmt.Errorf("%w: %v", ErrExhausted, lastErr)
}

// LiveMatches returns all fixtures currently in play
func (c *Client) LiveMatches(ctx context.Context) ([]models.Match, models.DataSource, error) {
	return fetch(ctx, c, keyLiveMatches,
		func(ctx context.Context, p providers.Provider) ([]models.Match, error) {
			return p.LiveMatches(ctx)
		},
		providers.MockLiveMatches)
}

// MatchesByDate returns all fixtures on a YYYY-MM-DD date
func (c *Client) MatchesByDate(ctx context.Context, date string) ([]models.Match, models.DataSource, error) {
	return fetch(ctx, c, matchesByDateKey(date),
		func(ctx context.Context, p providers.Provider) ([]models.Match, error) {
			return p.MatchesByDate(ctx, date)
		},
		providers.MockMatches)
}

// MatchesByLeague returns a league's fixtures for a season
func (c *Client) MatchesByLeague(ctx context.Context, leagueID, season int) ([]models.Match, models.DataSource, error) {
	if season == 0 {
		season = c.season
	}
	return fetch(ctx, c, matchesByLeagueKey(leagueID, season),
		func(ctx context.Context, p providers.Provider) ([]models.Match, error) {
			return p.MatchesByLeague(ctx, leagueID, season)
		},
		providers.MockMatches)
}

// Standings returns a league table for the configured season
func (c *Client) Standings(ctx context.Context, leagueID int) (*models.LeagueStandings, models.DataSource, error) {
	return fetch(ctx, c, standingsKey(leagueID),
		func(ctx context.Context, p providers.Provider) (*models.LeagueStandings, error) {
			return p.Standings(ctx, leagueID, c.season)
		},
		func() *models.LeagueStandings { return providers.MockStandings(leagueID) })
}

// Players returns the full top-flight player list
func (c *Client) Players(ctx context.Context) ([]models.Player, models.DataSource, error) {
	return fetch(ctx, c, keyPlayers,
		func(ctx context.Context, p providers.Provider) ([]models.Player, error) {
			return p.Players(ctx)
		},
		providers.MockPlayers)
}

// Teams returns the full top-flight team list
func (c *Client) Teams(ctx context.Context) ([]models.Team, models.DataSource, error) {
	return fetch(ctx, c, keyTeams,
		func(ctx context.Context, p providers.Provider) ([]models.Team, error) {
			return p.Teams(ctx)
		},
		providers.MockTeams)
}

// Leagues returns the full competition list
func (c *Client) Leagues(ctx context.Context) ([]models.League, models.DataSource, error) {
	return fetch(ctx, c, keyLeagues,
		func(ctx context.Context, p providers.Provider) ([]models.League, error) {
			return p.Leagues(ctx)
		},
		providers.MockLeagues)
}

// MainLeagues returns the league IDs whose standings the forced refresh
// keeps warm
func (c *Client) MainLeagues() []int {
	out := make([]int, len(c.mainLeagues))
	copy(out, c.mainLeagues)
	return out
}

// Status returns the synchronous provider-pool status. Never errors, never
// touches the network.
func (c *Client) Status() models.APIStatus {
	return c.registry.Status()
}

// ResetFailures clears all provider failure state
func (c *Client) ResetFailures() {
	c.registry.ResetFailures()
}

// CacheStatus reports per-dataset freshness without payloads
func (c *Client) CacheStatus(ctx context.Context) map[string]bool {
	status := make(map[string]bool)
	keys, _ := c.store.Keys(ctx)
	for _, key := range keys {
		status[key] = c.store.IsValid(ctx, key)
	}
	return status
}

// ClearCache removes every cached dataset
func (c *Client) ClearCache(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// ForceRefresh unconditionally refetches the known dataset set, fanning the
// datasets out concurrently and settling all branches regardless of
// individual outcomes. A dataset counts as refreshed only when it came back
// live; stale/mock fallbacks count as failures in the report.
func (c *Client) ForceRefresh(ctx context.Context) models.RefreshReport {
	start := c.now()

	type refreshTask struct {
		key string
		run func() models.DataSource
	}

	tasks := []refreshTask{
		{keyLiveMatches, func() models.DataSource {
			_, src, _ := fetchFresh(ctx, c, keyLiveMatches,
				func(ctx context.Context, p providers.Provider) ([]models.Match, error) {
					return p.LiveMatches(ctx)
				},
				providers.MockLiveMatches)
			return src
		}},
		{keyLeagues, func() models.DataSource {
			_, src, _ := fetchFresh(ctx, c, keyLeagues,
				func(ctx context.Context, p providers.Provider) ([]models.League, error) {
					return p.Leagues(ctx)
				},
				providers.MockLeagues)
			return src
		}},
		{keyTeams, func() models.DataSource {
			_, src, _ := fetchFresh(ctx, c, keyTeams,
				func(ctx context.Context, p providers.Provider) ([]models.Team, error) {
					return p.Teams(ctx)
				},
				providers.MockTeams)
			return src
		}},
		{keyPlayers, func() models.DataSource {
			_, src, _ := fetchFresh(ctx, c, keyPlayers,
				func(ctx context.Context, p providers.Provider) ([]models.Player, error) {
					return p.Players(ctx)
				},
				providers.MockPlayers)
			return src
		}},
	}
	for _, leagueID := range c.mainLeagues {
		leagueID := leagueID
		key := standingsKey(leagueID)
		tasks = append(tasks, refreshTask{key, func() models.DataSource {
			_, src, _ := fetchFresh(ctx, c, key,
				func(ctx context.Context, p providers.Provider) (*models.LeagueStandings, error) {
					return p.Standings(ctx, leagueID, c.season)
				},
				func() *models.LeagueStandings { return providers.MockStandings(leagueID) })
			return src
		}})
	}

	report := models.RefreshReport{
		StartedAt: start,
		Total:     len(tasks),
		Datasets:  make(map[string]bool, len(tasks)),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, task := range tasks {
		task := task
		wg.Add(1)
		go func() {
			defer wg.Done()
			src := task.run()
			mu.Lock()
			defer mu.Unlock()
			if src == models.SourceLive {
				report.Refreshed++
				report.Datasets[task.key] = true
			} else {
				report.Failed++
				report.Datasets[task.key] = false
			}
		}()
	}
	wg.Wait()

	report.Duration = c.now().Sub(start)
	c.logger.Info("forced cache refresh completed",
		zap.Int("total", report.Total),
		zap.Int("refreshed", report.Refreshed),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration))
	return report
}
