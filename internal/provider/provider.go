package provider

import (
	"context"
	"math"
	"time"

	"quotedesk/internal/market"
)

// SourceSynthetic tags quotes produced by the synthetic generator.
const SourceSynthetic = "synthetic"

// PlaceholderCredential is the documented placeholder API key. A provider
// configured with it is treated as disabled, not attempted.
const PlaceholderCredential = "demo"

// Quote is the normalized shape returned by all providers. Every field is
// populated regardless of which upstream produced it; Finalize fills gaps
// from the symbol metadata table and derived values.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Sector        string    `json:"sector"`
	Exchange      string    `json:"exchange"`
	Currency      string    `json:"currency"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	PreviousClose float64   `json:"previousClose"`
	Volume        int64     `json:"volume"`
	MarketCap     float64   `json:"marketCap"`
	MarketOpen    bool      `json:"marketOpen"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	Mock          bool      `json:"mock"`
}

// Provider fetches one symbol from one upstream. Enabled reports whether
// the provider is configured well enough to be worth trying; the chain
// skips disabled providers instead of attempting and failing.
type Provider interface {
	Name() string
	Enabled() bool
	Fetch(ctx context.Context, symbol string) (Quote, error)
}

// Round2 rounds to 2 decimal places, the precision of every price-like
// field on a Quote.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Finalize completes a partially filled Quote in place: metadata gaps are
// filled from the symbol table, change/changePercent/high/low/marketCap
// are derived where the upstream omitted them, price-like fields are
// rounded, and marketOpen is computed from the wall clock in the
// exchange's timezone.
func Finalize(q *Quote, now time.Time) {
	meta := market.LookupOrDefault(q.Symbol)
	q.Symbol = meta.Symbol
	if q.Name == "" {
		q.Name = meta.Name
	}
	if q.Sector == "" {
		q.Sector = meta.Sector
	}
	if q.Exchange == "" {
		q.Exchange = meta.Exchange
	}
	if q.Currency == "" {
		q.Currency = meta.Currency
	}

	if q.PreviousClose == 0 && q.Change != 0 {
		q.PreviousClose = q.Price - q.Change
	}
	if q.Change == 0 && q.PreviousClose > 0 && q.Price != q.PreviousClose {
		q.Change = q.Price - q.PreviousClose
	}
	if q.ChangePercent == 0 && q.Change != 0 && q.PreviousClose > 0 {
		q.ChangePercent = q.Change / q.PreviousClose * 100
	}
	if q.High == 0 {
		q.High = math.Max(q.Price, q.PreviousClose)
	}
	if q.Low == 0 {
		q.Low = math.Min(q.Price, q.PreviousClose)
		if q.Low <= 0 {
			q.Low = q.Price
		}
	}
	if q.MarketCap == 0 && meta.SharesOutstanding > 0 {
		q.MarketCap = q.Price * meta.SharesOutstanding
	}

	q.Price = Round2(q.Price)
	q.Change = Round2(q.Change)
	q.ChangePercent = Round2(q.ChangePercent)
	q.High = Round2(q.High)
	q.Low = Round2(q.Low)
	q.PreviousClose = Round2(q.PreviousClose)
	q.MarketCap = Round2(q.MarketCap)

	q.MarketOpen = market.ExchangeOpen(q.Exchange, now)
	if q.Timestamp.IsZero() {
		q.Timestamp = now
	}
}
