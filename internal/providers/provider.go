package providers

import (
	"context"
	"errors"

	"football-data-cache/pkg/models"
)

// ErrRateLimited is returned when an upstream answers HTTP 429. The client
// benches the provider for the cool-down window instead of marking it
// failed.
var ErrRateLimited = errors.New("provider rate limited")

// ErrNotConfigured is returned when a provider is called without credentials
var ErrNotConfigured = errors.New("provider not configured")

// Provider is a single upstream football-data API. Implementations are thin
// HTTP clients: they map the upstream's JSON shapes onto the shared models
// and classify failures, nothing more. Caching, fallback and quota policy
// all live in the client layer.
type Provider interface {
	Name() string

	// Configured reports whether credentials are present. Unconfigured
	// providers are skipped silently, never counted as failures.
	Configured() bool

	LiveMatches(ctx context.Context) ([]models.Match, error)
	MatchesByDate(ctx context.Context, date string) ([]models.Match, error)
	MatchesByLeague(ctx context.Context, leagueID, season int) ([]models.Match, error)
	Standings(ctx context.Context, leagueID, season int) (*models.LeagueStandings, error)

	// Players and Teams return the full top-flight lists; search is a
	// client-side filter over them so one cached fetch serves every query.
	Players(ctx context.Context) ([]models.Player, error)
	Teams(ctx context.Context) ([]models.Team, error)
	Leagues(ctx context.Context) ([]models.League, error)
}
