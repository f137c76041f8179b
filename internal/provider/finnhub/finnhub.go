// Package finnhub fetches quotes from the Finnhub /quote endpoint.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quotedesk/internal/httpx"
	"quotedesk/internal/market"
	"quotedesk/internal/provider"
)

type Config struct {
	Name    string // display name, default: finnhub
	BaseURL string // default: https://finnhub.io/api/v1
	Enabled bool
	Token   string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	log    zerolog.Logger
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "finnhub"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://finnhub.io/api/v1"
	}
	return &Provider{cfg: cfg, client: hc, log: log.With().Str("component", cfg.Name).Logger()}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Enabled reports whether the provider holds a usable token.
func (p *Provider) Enabled() bool {
	return p.cfg.Enabled && p.client != nil &&
		p.cfg.Token != "" && p.cfg.Token != provider.PlaceholderCredential
}

// Fetch retrieves a live quote for symbol from Finnhub. The endpoint
// carries no volume figure; Volume stays zero.
func (p *Provider) Fetch(ctx context.Context, symbol string) (provider.Quote, error) {
	canonical := market.Normalize(symbol)
	if !p.Enabled() {
		return provider.Quote{}, &provider.Error{Provider: p.cfg.Name, Symbol: canonical, Reason: provider.ReasonNoCredential}
	}

	u := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		p.cfg.BaseURL, url.QueryEscape(upstreamSymbol(canonical)), url.QueryEscape(p.cfg.Token))
	body, err := p.client.GetBody(ctx, u, nil)
	if err != nil {
		perr := &provider.Error{Provider: p.cfg.Name, Symbol: canonical, Reason: reasonFor(err), Err: err}
		p.log.Warn().Str("symbol", canonical).Str("reason", perr.Reason).Err(err).Msg("fetch failed")
		return provider.Quote{}, perr
	}

	var res quoteResponse
	if err := json.Unmarshal(body, &res); err != nil {
		perr := &provider.Error{Provider: p.cfg.Name, Symbol: canonical, Reason: provider.ReasonBadPayload, Err: err}
		p.log.Warn().Str("symbol", canonical).Str("reason", perr.Reason).Err(err).Msg("fetch failed")
		return provider.Quote{}, perr
	}
	if res.Current == 0 && res.Timestamp == 0 {
		perr := &provider.Error{Provider: p.cfg.Name, Symbol: canonical, Reason: provider.ReasonNotFound}
		p.log.Warn().Str("symbol", canonical).Str("reason", perr.Reason).Msg("fetch failed")
		return provider.Quote{}, perr
	}

	quote := provider.Quote{
		Symbol:        canonical,
		Price:         res.Current,
		Change:        res.Change,
		ChangePercent: res.ChangePercent,
		High:          res.High,
		Low:           res.Low,
		PreviousClose: res.PreviousClose,
		Source:        p.cfg.Name,
	}
	if res.Timestamp > 0 {
		quote.Timestamp = time.Unix(res.Timestamp, 0).UTC()
	}
	provider.Finalize(&quote, time.Now().UTC())
	p.log.Debug().Str("symbol", canonical).Float64("price", quote.Price).Msg("fetch ok")
	return quote, nil
}

// quoteResponse is the /quote payload. The d and dp fields arrive as null
// for unknown symbols, which json leaves at zero.
type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// upstreamSymbol maps a canonical symbol to the Finnhub form. Indian
// listings are addressed with exchange suffixes.
func upstreamSymbol(canonical string) string {
	switch market.LookupOrDefault(canonical).Exchange {
	case market.ExchangeNSE:
		return canonical + ".NS"
	case market.ExchangeBSE:
		return canonical + ".BO"
	}
	return canonical
}

func reasonFor(err error) string {
	var statusErr *httpx.StatusError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests:
		return provider.ReasonThrottled
	case errors.As(err, &statusErr):
		return provider.ReasonUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return provider.ReasonTimeout
	default:
		return provider.ReasonUpstream
	}
}
