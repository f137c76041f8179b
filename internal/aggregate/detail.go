package aggregate

import (
	"context"
	"time"

	"quotedesk/internal/market"
	"quotedesk/internal/provider"
)

// Trend labels derived from changePercent.
const (
	TrendStrongUp   = "STRONG_UPTREND"
	TrendUp         = "UPTREND"
	TrendSideways   = "SIDEWAYS"
	TrendDown       = "DOWNTREND"
	TrendStrongDown = "STRONG_DOWNTREND"
)

// Volatility labels derived from the (high-low)/price spread.
const (
	VolatilityHigh   = "HIGH"
	VolatilityNormal = "NORMAL"
	VolatilityLow    = "LOW"
)

// Liquidity labels derived from traded value against market cap.
const (
	LiquidityHigh     = "HIGH"
	LiquidityModerate = "MODERATE"
	LiquidityLow      = "LOW"
	LiquidityUnknown  = "UNKNOWN"
)

// Analytics are derived labels for one quote, pure functions of its
// fields.
type Analytics struct {
	Trend      string  `json:"trend"`
	Volatility string  `json:"volatility"`
	Liquidity  string  `json:"liquidity"`
	Support    float64 `json:"support"`
	Resistance float64 `json:"resistance"`
}

// DetailResponse is the single-symbol payload: the quote plus derived
// analytics.
type DetailResponse struct {
	Quote     provider.Quote `json:"quote"`
	Analytics Analytics      `json:"analytics"`
	Cached    bool           `json:"cached"`
	CacheAge  int            `json:"cacheAge"`
	Timestamp time.Time      `json:"timestamp"`
}

// Detail resolves one symbol and augments it with analytics, cached
// under the short TTL. The error path only fires when the resolver
// breaks its never-fails contract.
func (s *Service) Detail(ctx context.Context, symbol string) (DetailResponse, error) {
	canonical := market.Normalize(symbol)
	key := "detail|" + canonical
	if v, age, ok := s.cache.Get(key); ok {
		resp := v.(DetailResponse)
		resp.Cached = true
		resp.CacheAge = int(age / time.Second)
		resp.Timestamp = s.now().UTC()
		return resp, nil
	}

	quote, err := s.res.Resolve(ctx, canonical)
	if err != nil {
		s.log.Error().Str("symbol", canonical).Err(err).Msg("resolution failed")
		return DetailResponse{}, err
	}

	resp := DetailResponse{
		Quote:     quote,
		Analytics: Analyze(quote),
		Timestamp: s.now().UTC(),
	}
	s.cache.Set(key, resp, s.cfg.QuoteTTL)
	return resp, nil
}

// Analyze derives the detail analytics from one quote.
func Analyze(q provider.Quote) Analytics {
	return Analytics{
		Trend:      trendLabel(q.ChangePercent),
		Volatility: volatilityLabel(q.High, q.Low, q.Price),
		Liquidity:  liquidityLabel(q.Price, q.Volume, q.MarketCap),
		Support:    provider.Round2(q.Low * 0.98),
		Resistance: provider.Round2(q.High * 1.02),
	}
}

func trendLabel(changePercent float64) string {
	switch {
	case changePercent >= 2:
		return TrendStrongUp
	case changePercent >= 0.5:
		return TrendUp
	case changePercent <= -2:
		return TrendStrongDown
	case changePercent <= -0.5:
		return TrendDown
	default:
		return TrendSideways
	}
}

func volatilityLabel(high, low, price float64) string {
	if price <= 0 {
		return VolatilityNormal
	}
	spread := (high - low) / price
	switch {
	case spread >= 0.04:
		return VolatilityHigh
	case spread <= 0.01:
		return VolatilityLow
	default:
		return VolatilityNormal
	}
}

func liquidityLabel(price float64, volume int64, marketCap float64) string {
	if marketCap <= 0 {
		return LiquidityUnknown
	}
	ratio := price * float64(volume) / marketCap
	switch {
	case ratio >= 0.001:
		return LiquidityHigh
	case ratio >= 0.0001:
		return LiquidityModerate
	default:
		return LiquidityLow
	}
}
