// Package aggregate builds the multi-symbol ticker, single-symbol detail
// and search payloads on top of the resolver and the TTL cache.
package aggregate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"quotedesk/internal/cache"
	"quotedesk/internal/market"
	"quotedesk/internal/provider"
)

// DefaultLimit is applied when a request carries no usable limit.
const DefaultLimit = 10

// QuoteResolver resolves one symbol to a quote. Satisfied by
// *resolver.Resolver, which never returns an error; the error slot
// exists for test doubles that simulate total resolution failure.
type QuoteResolver interface {
	Resolve(ctx context.Context, symbol string) (provider.Quote, error)
}

// Config sets the cache TTL classes.
type Config struct {
	QuoteTTL  time.Duration // ticker and detail entries
	SearchTTL time.Duration // search entries
}

// Service is the aggregation layer behind the HTTP handlers.
type Service struct {
	cache *cache.Store
	res   QuoteResolver
	cfg   Config
	log   zerolog.Logger
	now   func() time.Time
}

func New(store *cache.Store, res QuoteResolver, cfg Config) *Service {
	if cfg.QuoteTTL <= 0 {
		cfg.QuoteTTL = 60 * time.Second
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = 300 * time.Second
	}
	return &Service{
		cache: store,
		res:   res,
		cfg:   cfg,
		log:   log.With().Str("component", "aggregate").Logger(),
		now:   time.Now,
	}
}

// Params selects the ticker slice.
type Params struct {
	Indian bool
	Global bool
	Limit  int
}

// Summary describes the quotes in one ticker response.
type Summary struct {
	Total        int             `json:"total"`
	Indian       int             `json:"indian"`
	Global       int             `json:"global"`
	Sources      []string        `json:"sources"`
	Mock         int             `json:"mock"`
	Errors       int             `json:"errors"`
	MarketStatus map[string]bool `json:"marketStatus"`
}

// Response is the aggregated ticker payload.
type Response struct {
	Summary   Summary          `json:"summary"`
	Data      []provider.Quote `json:"data"`
	Errors    []string         `json:"errors,omitempty"`
	Cached    bool             `json:"cached"`
	CacheAge  int              `json:"cacheAge"`
	Timestamp time.Time        `json:"timestamp"`
}

// Ticker returns quotes for up to Limit symbols across the requested
// markets. An identical request within the short TTL is served from
// cache with cached=true, its age in whole seconds, and a fresh
// timestamp.
func (s *Service) Ticker(ctx context.Context, p Params) Response {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	key := tickerKey(p)
	if v, age, ok := s.cache.Get(key); ok {
		resp := v.(Response)
		resp.Cached = true
		resp.CacheAge = int(age / time.Second)
		resp.Timestamp = s.now().UTC()
		return resp
	}

	symbols := selectSymbols(p)
	quotes := make([]provider.Quote, len(symbols))
	failed := make([]bool, len(symbols))

	var mu sync.Mutex
	var errs []string

	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		g.Go(func() error {
			q, err := s.res.Resolve(gctx, sym)
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Sprintf("%s: %v", sym, err))
				mu.Unlock()
				failed[i] = true
				return nil
			}
			quotes[i] = q
			return nil
		})
	}
	// Workers never return errors; per-symbol failures land in errs.
	_ = g.Wait()

	data := make([]provider.Quote, 0, len(quotes))
	for i, q := range quotes {
		if !failed[i] {
			data = append(data, q)
		}
	}

	now := s.now().UTC()
	sortQuotes(data, now)
	if len(data) > p.Limit {
		data = data[:p.Limit]
	}

	resp := Response{
		Summary:   summarize(data, len(errs), now),
		Data:      data,
		Errors:    errs,
		Timestamp: now,
	}
	s.cache.Set(key, resp, s.cfg.QuoteTTL)
	s.log.Debug().Int("symbols", len(symbols)).Int("returned", len(data)).Int("errors", len(errs)).Msg("ticker aggregated")
	return resp
}

// selectSymbols picks up to Limit symbols in table order. When both
// markets are wanted the split is 60% Indian (rounded up) and the rest
// global, each side backfilling from the other when its list runs short.
func selectSymbols(p Params) []string {
	indian := market.IndianSymbols()
	global := market.GlobalSymbols()

	var nIndian, nGlobal int
	switch {
	case p.Indian && p.Global:
		nIndian = (p.Limit*6 + 9) / 10
		nGlobal = p.Limit - nIndian
		if nIndian > len(indian) {
			nGlobal += nIndian - len(indian)
			nIndian = len(indian)
		}
		if nGlobal > len(global) {
			nIndian = min(nIndian+nGlobal-len(global), len(indian))
			nGlobal = len(global)
		}
	case p.Indian:
		nIndian = min(p.Limit, len(indian))
	case p.Global:
		nGlobal = min(p.Limit, len(global))
	}

	out := make([]string, 0, nIndian+nGlobal)
	for _, m := range indian[:nIndian] {
		out = append(out, m.Symbol)
	}
	for _, m := range global[:nGlobal] {
		out = append(out, m.Symbol)
	}
	return out
}

// sortQuotes orders quotes whose currency belongs to a currently open
// market first, then by descending |changePercent|.
func sortQuotes(quotes []provider.Quote, now time.Time) {
	indianOpen := market.IsOpen(market.Indian, now)
	globalOpen := market.IsOpen(market.Global, now)
	priority := func(q provider.Quote) int {
		if (q.Currency == "INR" && indianOpen) || (q.Currency == "USD" && globalOpen) {
			return 0
		}
		return 1
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		pi, pj := priority(quotes[i]), priority(quotes[j])
		if pi != pj {
			return pi < pj
		}
		return math.Abs(quotes[i].ChangePercent) > math.Abs(quotes[j].ChangePercent)
	})
}

func summarize(data []provider.Quote, errCount int, now time.Time) Summary {
	sum := Summary{
		Total:   len(data),
		Sources: []string{},
		Errors:  errCount,
		MarketStatus: map[string]bool{
			market.Indian: market.IsOpen(market.Indian, now),
			market.Global: market.IsOpen(market.Global, now),
		},
	}
	seen := map[string]struct{}{}
	for _, q := range data {
		if market.MarketOfExchange(q.Exchange) == market.Indian {
			sum.Indian++
		} else {
			sum.Global++
		}
		if q.Mock {
			sum.Mock++
		}
		if _, ok := seen[q.Source]; !ok {
			seen[q.Source] = struct{}{}
			sum.Sources = append(sum.Sources, q.Source)
		}
	}
	sort.Strings(sum.Sources)
	return sum
}

func tickerKey(p Params) string {
	return fmt.Sprintf("ticker|in=%d|gl=%d|limit=%d", boolBit(p.Indian), boolBit(p.Global), p.Limit)
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
