package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quotedesk/internal/httpx"
	"quotedesk/internal/provider"
)

const chartBody = `{
	"chart": {
		"result": [
			{
				"meta": {
					"currency": "USD",
					"symbol": "AAPL",
					"exchangeName": "NMS",
					"regularMarketPrice": 232.13,
					"chartPreviousClose": 231.09,
					"previousClose": 231.09,
					"regularMarketDayHigh": 232.97,
					"regularMarketDayLow": 229.22,
					"regularMarketVolume": 67903927,
					"regularMarketTime": 1755850200
				},
				"timestamp": [1755850200],
				"indicators": {"quote": [{}]}
			}
		],
		"error": null
	}
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Enabled: true}, httpx.New(httpx.Options{}))
}

func TestFetchMapsPayload(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL") {
			t.Errorf("path = %q, want /v8/finance/chart/AAPL", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval query = %q, want 1d", got)
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("User-Agent = %q, want a browser-like value", ua)
		}
		w.Write([]byte(chartBody))
	})

	quote, err := p.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if quote.Price != 232.13 {
		t.Errorf("Price = %v, want 232.13", quote.Price)
	}
	if quote.PreviousClose != 231.09 {
		t.Errorf("PreviousClose = %v, want 231.09", quote.PreviousClose)
	}
	if quote.Change != 1.04 {
		t.Errorf("Change = %v, want 1.04 derived from previousClose", quote.Change)
	}
	if quote.ChangePercent != 0.45 {
		t.Errorf("ChangePercent = %v, want 0.45", quote.ChangePercent)
	}
	if quote.Volume != 67903927 {
		t.Errorf("Volume = %d, want 67903927", quote.Volume)
	}
	if quote.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", quote.Currency)
	}
	if quote.Exchange != "NASDAQ" {
		t.Errorf("Exchange = %q, want NASDAQ from the metadata table", quote.Exchange)
	}
	if quote.Source != "yahoo" {
		t.Errorf("Source = %q, want yahoo", quote.Source)
	}
}

func TestFetchIndianSymbolSuffix(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "INFY.NS") {
			t.Errorf("path = %q, want the INFY.NS suffix form", r.URL.Path)
		}
		w.Write([]byte(`{"chart":{"result":[{"meta":{"currency":"INR","regularMarketPrice":1520.55,"chartPreviousClose":1510.00}}],"error":null}}`))
	})

	quote, err := p.Fetch(context.Background(), "INFY")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if quote.Symbol != "INFY" {
		t.Errorf("Symbol = %q, want canonical INFY", quote.Symbol)
	}
	if quote.Price != 1520.55 {
		t.Errorf("Price = %v, want 1520.55", quote.Price)
	}
}

func TestFetchChartErrorIsNotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
	})

	_, err := p.Fetch(context.Background(), "DELISTED")
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *provider.Error", err)
	}
	if perr.Reason != provider.ReasonNotFound {
		t.Errorf("Reason = %q, want %q", perr.Reason, provider.ReasonNotFound)
	}
}

func TestFetchMissingMetaIsBadPayload(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	_, err := p.Fetch(context.Background(), "AAPL")
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *provider.Error", err)
	}
	if perr.Reason != provider.ReasonBadPayload {
		t.Errorf("Reason = %q, want %q", perr.Reason, provider.ReasonBadPayload)
	}
}

func TestFetchDisabledReportsConfigReason(t *testing.T) {
	p := New(Config{Enabled: false}, httpx.New(httpx.Options{}))

	_, err := p.Fetch(context.Background(), "AAPL")
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *provider.Error", err)
	}
	if perr.Reason != provider.ReasonDisabled {
		t.Errorf("Reason = %q, want %q for a keyless adapter", perr.Reason, provider.ReasonDisabled)
	}
}

func TestEnabledNeedsNoCredential(t *testing.T) {
	if !New(Config{Enabled: true}, httpx.New(httpx.Options{})).Enabled() {
		t.Error("Enabled() = false for a configured keyless provider, want true")
	}
	if New(Config{Enabled: false}, httpx.New(httpx.Options{})).Enabled() {
		t.Error("Enabled() = true with the flag off, want false")
	}
	if New(Config{Enabled: true}, nil).Enabled() {
		t.Error("Enabled() = true with a nil client, want false")
	}
}
