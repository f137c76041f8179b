package market

import "testing"

func TestLookupStripsExchangeSuffix(t *testing.T) {
	for _, sym := range []string{"RELIANCE", "RELIANCE.NS", "RELIANCE.BO", " reliance.ns "} {
		m, ok := Lookup(sym)
		if !ok {
			t.Fatalf("Lookup(%q): not found", sym)
		}
		if m.Symbol != "RELIANCE" {
			t.Fatalf("Lookup(%q): symbol = %q, want RELIANCE", sym, m.Symbol)
		}
		if m.Exchange != ExchangeNSE || m.Currency != "INR" {
			t.Fatalf("Lookup(%q): exchange/currency = %s/%s", sym, m.Exchange, m.Currency)
		}
	}
}

func TestLookupOrDefaultUnknownSymbol(t *testing.T) {
	m := LookupOrDefault("ZZZTOP")
	if m.Symbol != "ZZZTOP" || m.Name != "ZZZTOP" {
		t.Fatalf("unexpected identity fields: %+v", m)
	}
	if m.Baseline != DefaultBaseline || m.Volatility != DefaultVolatility {
		t.Fatalf("unexpected defaults: baseline=%v volatility=%v", m.Baseline, m.Volatility)
	}
	if m.Currency != "USD" {
		t.Fatalf("unknown bare symbol should default to USD, got %s", m.Currency)
	}

	in := LookupOrDefault("ZZZTOP.NS")
	if in.Exchange != ExchangeNSE || in.Currency != "INR" {
		t.Fatalf("suffix inference failed: %+v", in)
	}
	if in.Symbol != "ZZZTOP" {
		t.Fatalf("suffix not stripped: %q", in.Symbol)
	}
}

func TestMarketOfExchange(t *testing.T) {
	cases := map[string]string{
		ExchangeNSE:    Indian,
		ExchangeBSE:    Indian,
		ExchangeNYSE:   Global,
		ExchangeNASDAQ: Global,
		"LSE":          Global,
	}
	for exchange, want := range cases {
		if got := MarketOfExchange(exchange); got != want {
			t.Fatalf("MarketOfExchange(%s) = %s, want %s", exchange, got, want)
		}
	}
}

func TestSymbolListsDisjointAndIndexed(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range append(append([]Meta{}, IndianSymbols()...), GlobalSymbols()...) {
		if seen[m.Symbol] {
			t.Fatalf("duplicate symbol in tables: %s", m.Symbol)
		}
		seen[m.Symbol] = true
		got, ok := Lookup(m.Symbol)
		if !ok || got.Name != m.Name {
			t.Fatalf("index out of sync for %s", m.Symbol)
		}
		if m.Baseline <= 0 || m.Volatility <= 0 {
			t.Fatalf("%s: non-positive baseline/volatility", m.Symbol)
		}
	}
}

func TestSearchByNameAndSymbol(t *testing.T) {
	res := Search("reliance", "")
	if len(res) != 1 || res[0].Symbol != "RELIANCE" {
		t.Fatalf("Search(reliance) = %+v", res)
	}
	if res[0].Market != Indian {
		t.Fatalf("RELIANCE market = %s", res[0].Market)
	}

	res = Search("bank", "")
	if len(res) < 2 {
		t.Fatalf("Search(bank) too few results: %+v", res)
	}
}

func TestSearchMarketFilter(t *testing.T) {
	res := Search("a", Global)
	if len(res) == 0 {
		t.Fatal("expected global matches for 'a'")
	}
	for _, r := range res {
		if r.Market != Global {
			t.Fatalf("market filter leaked %s (%s)", r.Symbol, r.Market)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	if res := Search("  ", ""); len(res) != 0 {
		t.Fatalf("blank query should match nothing, got %d", len(res))
	}
}
