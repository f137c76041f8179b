// Package yahoo fetches quotes from the Yahoo Finance v8 chart API. The
// endpoint needs no credential, but it rejects non-browser user agents,
// so requests go out with browser-like headers.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"quotedesk/internal/httpx"
	"quotedesk/internal/market"
	"quotedesk/internal/provider"
)

type Config struct {
	Name    string // display name, default: yahoo
	BaseURL string // default: https://query1.finance.yahoo.com
	Enabled bool
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	log    zerolog.Logger
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	return &Provider{cfg: cfg, client: hc, log: log.With().Str("component", cfg.Name).Logger()}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Enabled ignores credentials; the chart API is keyless.
func (p *Provider) Enabled() bool {
	return p.cfg.Enabled && p.client != nil
}

// Fetch retrieves a live quote for symbol from the chart API.
func (p *Provider) Fetch(ctx context.Context, symbol string) (provider.Quote, error) {
	canonical := market.Normalize(symbol)
	if !p.Enabled() {
		// No credential is involved here; the chart API is keyless and
		// only the config flag can turn this adapter off.
		return provider.Quote{}, &provider.Error{Provider: p.cfg.Name, Symbol: canonical, Reason: provider.ReasonDisabled}
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d",
		p.cfg.BaseURL, url.PathEscape(upstreamSymbol(canonical)))
	body, err := p.client.GetBody(ctx, u, browserHeaders)
	if err != nil {
		perr := &provider.Error{Provider: p.cfg.Name, Symbol: canonical, Reason: reasonFor(err), Err: err}
		p.log.Warn().Str("symbol", canonical).Str("reason", perr.Reason).Err(err).Msg("fetch failed")
		return provider.Quote{}, perr
	}

	quote, perr := parseChartGJSON(body, canonical)
	if perr != nil {
		perr.Provider = p.cfg.Name
		p.log.Warn().Str("symbol", canonical).Str("reason", perr.Reason).Msg("fetch failed")
		return provider.Quote{}, perr
	}

	quote.Source = p.cfg.Name
	provider.Finalize(&quote, time.Now().UTC())
	p.log.Debug().Str("symbol", canonical).Float64("price", quote.Price).Msg("fetch ok")
	return quote, nil
}

// browserHeaders make the request look like a regular browser tab.
var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Accept":     "application/json, text/plain, */*",
}

// parseChartGJSON maps the chart payload's regular-market meta block onto
// a Quote. Change and changePercent are absent from the meta and get
// derived downstream from previousClose.
func parseChartGJSON(body []byte, canonical string) (provider.Quote, *provider.Error) {
	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() {
		return provider.Quote{}, &provider.Error{Symbol: canonical, Reason: provider.ReasonNotFound, Err: errors.New(desc.String())}
	}

	meta := gjson.GetBytes(body, "chart.result.0.meta")
	if !meta.Exists() {
		return provider.Quote{}, &provider.Error{Symbol: canonical, Reason: provider.ReasonBadPayload}
	}
	price := meta.Get("regularMarketPrice").Float()
	if price <= 0 {
		return provider.Quote{}, &provider.Error{Symbol: canonical, Reason: provider.ReasonBadPayload}
	}

	previousClose := meta.Get("chartPreviousClose").Float()
	if v := meta.Get("previousClose").Float(); v > 0 {
		previousClose = v
	}

	quote := provider.Quote{
		Symbol:        canonical,
		Currency:      meta.Get("currency").String(),
		Price:         price,
		High:          meta.Get("regularMarketDayHigh").Float(),
		Low:           meta.Get("regularMarketDayLow").Float(),
		PreviousClose: previousClose,
		Volume:        meta.Get("regularMarketVolume").Int(),
	}
	if ts := meta.Get("regularMarketTime").Int(); ts > 0 {
		quote.Timestamp = time.Unix(ts, 0).UTC()
	}
	return quote, nil
}

// upstreamSymbol maps a canonical symbol to the Yahoo form. Indian
// listings carry the NSE suffix.
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
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return provider.ReasonNotFound
	case errors.As(err, &statusErr):
		return provider.ReasonUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return provider.ReasonTimeout
	default:
		return provider.ReasonUpstream
	}
}
