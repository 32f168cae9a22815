package client

import (
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"football-data-cache/internal/providers"
	"football-data-cache/pkg/models"
)

// RateLimitCooldown is how long a provider stays benched after a 429
const RateLimitCooldown = 60 * time.Minute

type providerState struct {
	failed           bool
	rateLimitedUntil time.Time
}

// Registry tracks the health of every provider in priority order. A
// provider is selectable when it is configured, not explicitly failed, not
// inside its rate-limit cool-down, and its circuit breaker is not open.
//
// The explicit failed flag and the breaker overlap on purpose: the flag is
// the operator-visible "this provider is broken until someone resets it"
// state from the product, the breaker additionally sheds load during
// transient flapping without operator involvement.
type Registry struct {
	mu        sync.Mutex
	providers []providers.Provider
	state     map[string]*providerState
	breakers  map[string]*gobreaker.CircuitBreaker
	logger    *zap.Logger
	now       func() time.Time
}

// NewRegistry builds the registry; list order is fallback priority order
func NewRegistry(provs []providers.Provider, logger *zap.Logger) *Registry {
	r := &Registry{
		providers: provs,
		state:     make(map[string]*providerState),
		breakers:  make(map[string]*gobreaker.CircuitBreaker),
		logger:    logger,
		now:       time.Now,
	}
	for _, p := range provs {
		r.state[p.Name()] = &providerState{}
		r.breakers[p.Name()] = r.newBreaker(p.Name())
	}
	return r
}

// WithClock overrides the registry's clock, used in tests
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

func (r *Registry) newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Info("provider circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// Providers returns the provider list in priority order
func (r *Registry) Providers() []providers.Provider {
	return r.providers
}

// Usable reports whether a provider may be tried right now
func (r *Registry) Usable(p providers.Provider) bool {
	if !p.Configured() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usableLocked(p.Name())
}

func (r *Registry) usableLocked(name string) bool {
	st := r.state[name]
	if st == nil {
		return false
	}
	if st.failed {
		return false
	}
	if !st.rateLimitedUntil.IsZero() && r.now().Before(st.rateLimitedUntil) {
		return false
	}
	if r.breakers[name].State() == gobreaker.StateOpen {
		return false
	}
	return true
}

// Execute runs fn through the provider's circuit breaker
func (r *Registry) Execute(name string, fn func() (interface{}, error)) (interface{}, error) {
	r.mu.Lock()
	breaker := r.breakers[name]
	r.mu.Unlock()
	return breaker.Execute(fn)
}

// MarkSuccess clears a provider's failure and rate-limit flags
func (r *Registry) MarkSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.state[name]; st != nil {
		st.failed = false
		st.rateLimitedUntil = time.Time{}
	}
}

// MarkRateLimited benches a provider for the cool-down window
func (r *Registry) MarkRateLimited(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.state[name]; st != nil {
		st.rateLimitedUntil = r.now().Add(RateLimitCooldown)
		r.logger.Warn("provider rate limited",
			zap.String("provider", name),
			zap.Time("until", st.rateLimitedUntil))
	}
}

// MarkFailed marks a provider unusable until an explicit reset
func (r *Registry) MarkFailed(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st := r.state[name]; st != nil && !st.failed {
		st.failed = true
		r.logger.Warn("provider marked failed", zap.String("provider", name))
	}
}

// ResetFailures clears every failure and rate-limit flag and replaces the
// circuit breakers with fresh ones. Operator escape hatch.
func (r *Registry) ResetFailures() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, st := range r.state {
		st.failed = false
		st.rateLimitedUntil = time.Time{}
		r.breakers[name] = r.newBreaker(name)
	}
	r.logger.Info("provider failure state reset")
}

// Status assembles the synchronous introspection surface. No network calls.
func (r *Registry) Status() models.APIStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := models.APIStatus{
		CurrentAPI:      "none",
		RateLimitedAPIs: make(map[string]time.Time),
		FailedAPIs:      []string{},
	}
	for _, p := range r.providers {
		name := p.Name()
		st := r.state[name]

		ps := models.ProviderStatus{
			Name:         name,
			Configured:   p.Configured(),
			Failed:       st.failed,
			BreakerState: r.breakers[name].State().String(),
		}
		if !st.rateLimitedUntil.IsZero() && r.now().Before(st.rateLimitedUntil) {
			until := st.rateLimitedUntil
			ps.RateLimitedUntil = &until
			status.RateLimitedAPIs[name] = until
		}
		if st.failed {
			status.FailedAPIs = append(status.FailedAPIs, name)
		}
		status.AvailableAPIs = append(status.AvailableAPIs, ps)

		if status.CurrentAPI == "none" && p.Configured() && r.usableLocked(name) {
			status.CurrentAPI = name
		}
	}
	return status
}
