// Package resolver walks an ordered provider chain for each symbol and
// falls back to the synthetic generator when every provider fails, so a
// resolution always produces a quote.
package resolver

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"quotedesk/internal/market"
	"quotedesk/internal/provider"
	"quotedesk/internal/provider/synthetic"
)

// Health labels reported per provider.
const (
	HealthUnknown  = "unknown"
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
	HealthFailed   = "failed"
)

// failedThreshold is the consecutive-failure count at which a provider is
// reported as failed rather than degraded.
const failedThreshold = 3

// AdapterStatus is one provider's configuration and recent behavior, as
// surfaced on /health and /markets/status.
type AdapterStatus struct {
	Name        string    `json:"name"`
	Enabled     bool      `json:"enabled"`
	Health      string    `json:"health"`
	Attempts    int64     `json:"attempts"`
	Successes   int64     `json:"successes"`
	Failures    int64     `json:"failures"`
	LastError   string    `json:"lastError,omitempty"`
	LastSuccess time.Time `json:"lastSuccess,omitzero"`
}

type stats struct {
	attempts    int64
	successes   int64
	failures    int64
	consecutive int
	lastError   string
	lastSuccess time.Time
}

// Resolver tries providers in strict priority order, short-circuiting on
// the first success. Concurrent resolutions of the same symbol coalesce
// into one chain walk.
type Resolver struct {
	providers []provider.Provider
	generator *synthetic.Generator
	sf        singleflight.Group
	log       zerolog.Logger

	mu    sync.Mutex
	stats map[string]*stats
}

func New(providers []provider.Provider, generator *synthetic.Generator) *Resolver {
	st := make(map[string]*stats, len(providers))
	for _, p := range providers {
		st[p.Name()] = &stats{}
	}
	return &Resolver{
		providers: providers,
		generator: generator,
		log:       log.With().Str("component", "resolver").Logger(),
		stats:     st,
	}
}

// Resolve returns a quote for symbol. The returned error is always nil:
// when every provider fails or none is enabled, the synthetic generator
// supplies the quote.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (provider.Quote, error) {
	key := market.Normalize(symbol)
	v, _, _ := r.sf.Do(key, func() (any, error) {
		return r.walk(ctx, key), nil
	})
	return v.(provider.Quote), nil
}

func (r *Resolver) walk(ctx context.Context, symbol string) provider.Quote {
	for _, p := range r.providers {
		if !p.Enabled() {
			r.log.Debug().Str("provider", p.Name()).Str("symbol", symbol).Msg("provider disabled, skipping")
			continue
		}
		r.recordAttempt(p.Name())
		q, err := p.Fetch(ctx, symbol)
		if err != nil {
			r.recordFailure(p.Name(), err)
			r.log.Warn().Err(err).Str("provider", p.Name()).Str("symbol", symbol).Msg("provider failed, trying next")
			continue
		}
		r.recordSuccess(p.Name())
		r.log.Debug().Str("provider", p.Name()).Str("symbol", symbol).Float64("price", q.Price).Msg("quote resolved")
		return q
	}
	r.log.Info().Str("symbol", symbol).Msg("no provider produced a quote, serving synthetic")
	return r.generator.Generate(symbol)
}

// Adapters reports per-provider status in chain order.
func (r *Resolver) Adapters() []AdapterStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]AdapterStatus, 0, len(r.providers))
	for _, p := range r.providers {
		s := r.stats[p.Name()]
		out = append(out, AdapterStatus{
			Name:        p.Name(),
			Enabled:     p.Enabled(),
			Health:      healthOf(s),
			Attempts:    s.attempts,
			Successes:   s.successes,
			Failures:    s.failures,
			LastError:   s.lastError,
			LastSuccess: s.lastSuccess,
		})
	}
	return out
}

func healthOf(s *stats) string {
	switch {
	case s.attempts == 0:
		return HealthUnknown
	case s.consecutive == 0:
		return HealthHealthy
	case s.consecutive < failedThreshold:
		return HealthDegraded
	default:
		return HealthFailed
	}
}

func (r *Resolver) recordAttempt(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[name].attempts++
}

func (r *Resolver) recordSuccess(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats[name]
	s.successes++
	s.consecutive = 0
	s.lastSuccess = time.Now()
}

func (r *Resolver) recordFailure(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stats[name]
	s.failures++
	s.consecutive++
	s.lastError = err.Error()
}
