package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quotedesk/internal/httpx"
	"quotedesk/internal/provider"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Enabled: true, Token: "test-token"}, httpx.New(httpx.Options{}))
}

func TestFetchMapsPayload(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("symbol query = %q, want AAPL", got)
		}
		if got := r.URL.Query().Get("token"); got != "test-token" {
			t.Errorf("token query = %q, want test-token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"c":261.74,"d":1.26,"dp":0.4836,"h":263.31,"l":260.68,"o":261.07,"pc":260.48,"t":1582641000}`))
	})

	quote, err := p.Fetch(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if quote.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", quote.Symbol)
	}
	if quote.Price != 261.74 {
		t.Errorf("Price = %v, want 261.74", quote.Price)
	}
	if quote.Change != 1.26 {
		t.Errorf("Change = %v, want 1.26", quote.Change)
	}
	if quote.ChangePercent != 0.48 {
		t.Errorf("ChangePercent = %v, want 0.48", quote.ChangePercent)
	}
	if quote.PreviousClose != 260.48 {
		t.Errorf("PreviousClose = %v, want 260.48", quote.PreviousClose)
	}
	if quote.Name != "Apple" {
		t.Errorf("Name = %q, want Apple from the metadata table", quote.Name)
	}
	if quote.Source != "finnhub" {
		t.Errorf("Source = %q, want finnhub", quote.Source)
	}
	if quote.Mock {
		t.Error("Mock = true, want false")
	}
	want := time.Unix(1582641000, 0).UTC()
	if !quote.Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", quote.Timestamp, want)
	}
}

func TestFetchIndianSymbolSuffix(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "RELIANCE.NS" {
			t.Errorf("symbol query = %q, want RELIANCE.NS", got)
		}
		w.Write([]byte(`{"c":2456.78,"d":16.78,"dp":0.69,"h":2465.5,"l":2433.25,"o":2441,"pc":2440,"t":1582641000}`))
	})

	quote, err := p.Fetch(context.Background(), "RELIANCE")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if quote.Symbol != "RELIANCE" {
		t.Errorf("Symbol = %q, want canonical RELIANCE", quote.Symbol)
	}
	if quote.Currency != "INR" {
		t.Errorf("Currency = %q, want INR", quote.Currency)
	}
}

func TestFetchAllZeroPayloadIsNotFound(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"c":0,"d":null,"dp":null,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	})

	_, err := p.Fetch(context.Background(), "NOPE")
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *provider.Error", err)
	}
	if perr.Reason != provider.ReasonNotFound {
		t.Errorf("Reason = %q, want %q", perr.Reason, provider.ReasonNotFound)
	}
}

func TestFetchForbidden(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := p.Fetch(context.Background(), "AAPL")
	var perr *provider.Error
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *provider.Error", err)
	}
	if perr.Reason != provider.ReasonUpstream {
		t.Errorf("Reason = %q, want %q", perr.Reason, provider.ReasonUpstream)
	}
}

func TestFetchBadPayload(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
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

func TestEnabled(t *testing.T) {
	hc := httpx.New(httpx.Options{})

	cases := []struct {
		name   string
		cfg    Config
		client *httpx.Client
		want   bool
	}{
		{"configured", Config{Enabled: true, Token: "tok"}, hc, true},
		{"disabled flag", Config{Enabled: false, Token: "tok"}, hc, false},
		{"empty token", Config{Enabled: true, Token: ""}, hc, false},
		{"placeholder token", Config{Enabled: true, Token: "demo"}, hc, false},
		{"nil client", Config{Enabled: true, Token: "tok"}, nil, false},
	}
	for _, tc := range cases {
		if got := New(tc.cfg, tc.client).Enabled(); got != tc.want {
			t.Errorf("%s: Enabled() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
