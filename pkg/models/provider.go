package models

import "time"

// DataSource tags where a fetch result came from, so callers can tell a
// degraded response apart from a real one instead of inferring it from the
// absence of errors.
type DataSource string

const (
	// SourceLive means the payload was just fetched from a provider
	SourceLive DataSource = "live"
	// SourceCached means a fresh cache entry was served without a network call
	SourceCached DataSource = "cached"
	// SourceStale means every provider was unusable and a stale cache entry
	// was served as a fallback
	SourceStale DataSource = "stale"
	// SourceMock means every provider was unusable and no cache entry
	// existed, so a static mock dataset was served
	SourceMock DataSource = "mock"
)

// ProviderStatus is the introspectable state of one upstream provider
type ProviderStatus struct {
	Name             string     `json:"name"`
	Configured       bool       `json:"configured"`
	Failed           bool       `json:"failed"`
	RateLimitedUntil *time.Time `json:"rate_limited_until,omitempty"`
	BreakerState     string     `json:"breaker_state"`
}

// APIStatus is the synchronous, non-throwing status surface for the whole
// provider pool
type APIStatus struct {
	CurrentAPI      string               `json:"current_api"`
	AvailableAPIs   []ProviderStatus     `json:"available_apis"`
	RateLimitedAPIs map[string]time.Time `json:"rate_limited_apis"`
	FailedAPIs      []string             `json:"failed_apis"`
}

// RefreshReport aggregates the outcome of a forced cache refresh across the
// known dataset set
type RefreshReport struct {
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Total     int             `json:"total"`
	Refreshed int             `json:"refreshed"`
	Failed    int             `json:"failed"`
	Datasets  map[string]bool `json:"datasets"`
}

// Success reports whether every dataset in the refresh was fetched live
func (r RefreshReport) Success() bool {
	return r.Failed == 0 && r.Total > 0
}
