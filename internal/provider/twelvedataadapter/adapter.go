// Package twelvedataadapter exposes the Twelve Data API as a quote provider.
package twelvedataadapter

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quotedesk/internal/market"
	"quotedesk/internal/provider"
	"quotedesk/internal/provider/twelvedata"
)

// Config holds the adapter settings.
type Config struct {
	Name    string // display name, default: twelvedata
	Enabled bool
	APIKey  string
}

// Adapter wraps the Twelve Data API client behind the provider interface.
type Adapter struct {
	cfg    Config
	client *twelvedata.TwelveDataAPIClient
	log    zerolog.Logger
}

// New creates a Twelve Data adapter. A nil client leaves the adapter
// permanently disabled.
func New(cfg Config, client *twelvedata.TwelveDataAPIClient) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "twelvedata"
	}
	return &Adapter{
		cfg:    cfg,
		client: client,
		log:    log.With().Str("component", cfg.Name).Logger(),
	}
}

func (a *Adapter) Name() string { return a.cfg.Name }

// Enabled reports whether the adapter holds a usable credential.
func (a *Adapter) Enabled() bool {
	return a.cfg.Enabled && a.client != nil &&
		a.cfg.APIKey != "" && a.cfg.APIKey != provider.PlaceholderCredential
}

// Fetch retrieves a live quote for symbol from Twelve Data.
func (a *Adapter) Fetch(ctx context.Context, symbol string) (provider.Quote, error) {
	canonical := market.Normalize(symbol)
	if !a.Enabled() {
		return provider.Quote{}, &provider.Error{Provider: a.cfg.Name, Symbol: canonical, Reason: provider.ReasonNoCredential}
	}

	res, err := a.client.GetQuote(ctx, canonical)
	if err != nil {
		perr := &provider.Error{Provider: a.cfg.Name, Symbol: canonical, Reason: reasonFor(err), Err: err}
		a.log.Warn().Str("symbol", canonical).Str("reason", perr.Reason).Err(err).Msg("fetch failed")
		return provider.Quote{}, perr
	}
	if res.Close <= 0 {
		perr := &provider.Error{Provider: a.cfg.Name, Symbol: canonical, Reason: provider.ReasonBadPayload}
		a.log.Warn().Str("symbol", canonical).Str("reason", perr.Reason).Msg("fetch failed")
		return provider.Quote{}, perr
	}

	quote := provider.Quote{
		Symbol:        canonical,
		Name:          res.Name,
		Exchange:      res.Exchange,
		Currency:      res.Currency,
		Price:         res.Close,
		Change:        res.Change,
		ChangePercent: res.PercentChange,
		High:          res.High,
		Low:           res.Low,
		PreviousClose: res.PreviousClose,
		Volume:        res.Volume,
		Timestamp:     res.Timestamp,
		Source:        a.cfg.Name,
	}
	provider.Finalize(&quote, time.Now().UTC())
	a.log.Debug().Str("symbol", canonical).Float64("price", quote.Price).Msg("fetch ok")
	return quote, nil
}

// reasonFor maps client errors onto provider failure reasons.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, twelvedata.ErrSymbolNotFound):
		return provider.ReasonNotFound
	case errors.Is(err, twelvedata.ErrRateLimited):
		return provider.ReasonThrottled
	case errors.Is(err, twelvedata.ErrUnauthorized):
		return provider.ReasonUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return provider.ReasonTimeout
	default:
		return provider.ReasonUpstream
	}
}
