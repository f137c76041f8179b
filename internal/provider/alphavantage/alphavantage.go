// Package alphavantage fetches quotes from the Alpha Vantage GLOBAL_QUOTE
// endpoint. Payload keys carry numbered prefixes ("05. price"), so fields
// are pulled with gjson paths instead of struct tags.
package alphavantage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"quotedesk/internal/httpx"
	"quotedesk/internal/market"
	"quotedesk/internal/provider"
)

type Config struct {
	Name    string // display name, default: alphavantage
	BaseURL string // default: https://www.alphavantage.co
	Enabled bool
	APIKey  string
}

type Provider struct {
	cfg    Config
	client *httpx.Client
	log    zerolog.Logger
}

func New(cfg Config, hc *httpx.Client) *Provider {
	if cfg.Name == "" {
		cfg.Name = "alphavantage"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.alphavantage.co"
	}
	return &Provider{cfg: cfg, client: hc, log: log.With().Str("component", cfg.Name).Logger()}
}

func (p *Provider) Name() string { return p.cfg.Name }

// Enabled reports whether the provider holds a usable key. The Alpha
// Vantage docs hand out "demo" as a sample key; it only works for their
// documented examples, so it counts as no credential.
func (p *Provider) Enabled() bool {
	return p.cfg.Enabled && p.client != nil &&
		p.cfg.APIKey != "" && p.cfg.APIKey != provider.PlaceholderCredential
}

// Fetch retrieves a live quote for symbol from Alpha Vantage.
func (p *Provider) Fetch(ctx context.Context, symbol string) (provider.Quote, error) {
	canonical := market.Normalize(symbol)
	if !p.Enabled() {
		return provider.Quote{}, &provider.Error{Provider: p.cfg.Name, Symbol: canonical, Reason: provider.ReasonNoCredential}
	}

	u := fmt.Sprintf("%s/query?function=GLOBAL_QUOTE&symbol=%s&apikey=%s",
		p.cfg.BaseURL, url.QueryEscape(upstreamSymbol(canonical)), url.QueryEscape(p.cfg.APIKey))
	body, err := p.client.GetBody(ctx, u, nil)
	if err != nil {
		perr := &provider.Error{Provider: p.cfg.Name, Symbol: canonical, Reason: reasonFor(err), Err: err}
		p.log.Warn().Str("symbol", canonical).Str("reason", perr.Reason).Err(err).Msg("fetch failed")
		return provider.Quote{}, perr
	}

	quote, perr := parseQuoteGJSON(body, canonical)
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

// parseQuoteGJSON maps the GLOBAL_QUOTE payload onto a Quote. Alpha
// Vantage reports throttling and bad symbols inside an HTTP 200 body.
func parseQuoteGJSON(body []byte, canonical string) (provider.Quote, *provider.Error) {
	if gjson.GetBytes(body, "Note").Exists() || gjson.GetBytes(body, "Information").Exists() {
		return provider.Quote{}, &provider.Error{Symbol: canonical, Reason: provider.ReasonThrottled}
	}
	if gjson.GetBytes(body, "Error Message").Exists() {
		return provider.Quote{}, &provider.Error{Symbol: canonical, Reason: provider.ReasonNotFound}
	}

	priceRes := gjson.GetBytes(body, `Global Quote.05\. price`)
	if !priceRes.Exists() {
		// An unknown symbol comes back as an empty Global Quote object.
		return provider.Quote{}, &provider.Error{Symbol: canonical, Reason: provider.ReasonNotFound}
	}
	price := priceRes.Float()
	if price <= 0 {
		return provider.Quote{}, &provider.Error{Symbol: canonical, Reason: provider.ReasonBadPayload}
	}

	changePercent := 0.0
	if s := strings.TrimSuffix(gjson.GetBytes(body, `Global Quote.10\. change percent`).String(), "%"); s != "" {
		changePercent, _ = strconv.ParseFloat(s, 64)
	}

	return provider.Quote{
		Symbol:        canonical,
		Price:         price,
		Change:        gjson.GetBytes(body, `Global Quote.09\. change`).Float(),
		ChangePercent: changePercent,
		High:          gjson.GetBytes(body, `Global Quote.03\. high`).Float(),
		Low:           gjson.GetBytes(body, `Global Quote.04\. low`).Float(),
		PreviousClose: gjson.GetBytes(body, `Global Quote.08\. previous close`).Float(),
		Volume:        gjson.GetBytes(body, `Global Quote.06\. volume`).Int(),
	}, nil
}

// upstreamSymbol maps a canonical symbol to the Alpha Vantage form.
// Indian listings are served from the BSE feed.
func upstreamSymbol(canonical string) string {
	switch market.LookupOrDefault(canonical).Exchange {
	case market.ExchangeNSE, market.ExchangeBSE:
		return canonical + ".BSE"
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
