package market

import "strings"

// Market labels used across the service and the HTTP surface.
const (
	Indian = "indian"
	Global = "global"
)

// Exchange identifiers as recorded on quotes.
const (
	ExchangeNSE    = "NSE"
	ExchangeBSE    = "BSE"
	ExchangeNYSE   = "NYSE"
	ExchangeNASDAQ = "NASDAQ"
)

// Defaults applied when a symbol is missing from the table.
const (
	DefaultBaseline   = 100.0
	DefaultVolatility = 0.02
	DefaultSector     = "Diversified"
)

// Meta is one row of the symbol metadata table: display fields plus the
// baselines the synthetic generator works from. SharesOutstanding is the
// absolute share count used for market-cap estimation.
type Meta struct {
	Symbol            string
	Name              string
	Sector            string
	Exchange          string
	Currency          string
	SharesOutstanding float64
	Baseline          float64
	Volatility        float64
}

// Market reports which market a row belongs to, derived from its exchange.
func (m Meta) Market() string {
	return MarketOfExchange(m.Exchange)
}

// MarketOfExchange maps an exchange identifier to its market label.
// Unknown exchanges count as global.
func MarketOfExchange(exchange string) string {
	switch exchange {
	case ExchangeNSE, ExchangeBSE:
		return Indian
	default:
		return Global
	}
}

// The one canonical table. Selection order for aggregation is list order,
// so the most liquid names come first. Never mutated after init.
var indianSymbols = []Meta{
	{Symbol: "RELIANCE", Name: "Reliance Industries", Sector: "Energy", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 6.766e9, Baseline: 2450.00, Volatility: 0.020},
	{Symbol: "TCS", Name: "Tata Consultancy Services", Sector: "Information Technology", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 3.62e9, Baseline: 3890.00, Volatility: 0.015},
	{Symbol: "HDFCBANK", Name: "HDFC Bank", Sector: "Financial Services", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 7.60e9, Baseline: 1650.00, Volatility: 0.018},
	{Symbol: "INFY", Name: "Infosys", Sector: "Information Technology", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 4.14e9, Baseline: 1520.00, Volatility: 0.020},
	{Symbol: "ICICIBANK", Name: "ICICI Bank", Sector: "Financial Services", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 7.02e9, Baseline: 1180.00, Volatility: 0.019},
	{Symbol: "BHARTIARTL", Name: "Bharti Airtel", Sector: "Telecommunications", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 5.70e9, Baseline: 1540.00, Volatility: 0.021},
	{Symbol: "SBIN", Name: "State Bank of India", Sector: "Financial Services", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 8.92e9, Baseline: 820.00, Volatility: 0.024},
	{Symbol: "LT", Name: "Larsen & Toubro", Sector: "Industrials", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 1.37e9, Baseline: 3600.00, Volatility: 0.018},
	{Symbol: "ITC", Name: "ITC", Sector: "Consumer Goods", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 12.49e9, Baseline: 430.00, Volatility: 0.014},
	{Symbol: "HINDUNILVR", Name: "Hindustan Unilever", Sector: "Consumer Goods", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 2.35e9, Baseline: 2380.00, Volatility: 0.013},
	{Symbol: "BAJFINANCE", Name: "Bajaj Finance", Sector: "Financial Services", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 6.19e8, Baseline: 6900.00, Volatility: 0.027},
	{Symbol: "ASIANPAINT", Name: "Asian Paints", Sector: "Materials", Exchange: ExchangeNSE, Currency: "INR", SharesOutstanding: 9.59e8, Baseline: 2310.00, Volatility: 0.016},
}

var globalSymbols = []Meta{
	{Symbol: "AAPL", Name: "Apple", Sector: "Technology", Exchange: ExchangeNASDAQ, Currency: "USD", SharesOutstanding: 15.2e9, Baseline: 232.00, Volatility: 0.016},
	{Symbol: "MSFT", Name: "Microsoft", Sector: "Technology", Exchange: ExchangeNASDAQ, Currency: "USD", SharesOutstanding: 7.43e9, Baseline: 420.00, Volatility: 0.015},
	{Symbol: "GOOGL", Name: "Alphabet", Sector: "Communication Services", Exchange: ExchangeNASDAQ, Currency: "USD", SharesOutstanding: 12.3e9, Baseline: 178.00, Volatility: 0.018},
	{Symbol: "AMZN", Name: "Amazon", Sector: "Consumer Discretionary", Exchange: ExchangeNASDAQ, Currency: "USD", SharesOutstanding: 10.5e9, Baseline: 205.00, Volatility: 0.021},
	{Symbol: "NVDA", Name: "NVIDIA", Sector: "Technology", Exchange: ExchangeNASDAQ, Currency: "USD", SharesOutstanding: 24.6e9, Baseline: 128.00, Volatility: 0.034},
	{Symbol: "META", Name: "Meta Platforms", Sector: "Communication Services", Exchange: ExchangeNASDAQ, Currency: "USD", SharesOutstanding: 2.53e9, Baseline: 560.00, Volatility: 0.024},
	{Symbol: "TSLA", Name: "Tesla", Sector: "Consumer Discretionary", Exchange: ExchangeNASDAQ, Currency: "USD", SharesOutstanding: 3.19e9, Baseline: 250.00, Volatility: 0.038},
	{Symbol: "JPM", Name: "JPMorgan Chase", Sector: "Financial Services", Exchange: ExchangeNYSE, Currency: "USD", SharesOutstanding: 2.87e9, Baseline: 235.00, Volatility: 0.015},
	{Symbol: "V", Name: "Visa", Sector: "Financial Services", Exchange: ExchangeNYSE, Currency: "USD", SharesOutstanding: 1.63e9, Baseline: 290.00, Volatility: 0.013},
	{Symbol: "NFLX", Name: "Netflix", Sector: "Communication Services", Exchange: ExchangeNASDAQ, Currency: "USD", SharesOutstanding: 4.29e8, Baseline: 690.00, Volatility: 0.026},
}

var bySymbol = func() map[string]Meta {
	m := make(map[string]Meta, len(indianSymbols)+len(globalSymbols))
	for _, row := range indianSymbols {
		m[row.Symbol] = row
	}
	for _, row := range globalSymbols {
		m[row.Symbol] = row
	}
	return m
}()

// IndianSymbols returns the Indian rows in selection order. Callers must
// treat the slice as read-only.
func IndianSymbols() []Meta { return indianSymbols }

// GlobalSymbols returns the global rows in selection order. Callers must
// treat the slice as read-only.
func GlobalSymbols() []Meta { return globalSymbols }

// Normalize canonicalizes a symbol: trimmed, uppercased, exchange suffix
// (.NS/.BO) stripped. The exchange itself is carried on Meta, not the key.
func Normalize(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	s = strings.TrimSuffix(s, ".NS")
	s = strings.TrimSuffix(s, ".BO")
	return s
}

// Lookup finds the metadata row for a bare or exchange-suffixed symbol.
func Lookup(symbol string) (Meta, bool) {
	m, ok := bySymbol[Normalize(symbol)]
	return m, ok
}

// LookupOrDefault always returns a usable row. Unknown symbols get the
// default baseline and volatility, with exchange and currency inferred
// from any suffix on the raw input.
func LookupOrDefault(symbol string) Meta {
	if m, ok := Lookup(symbol); ok {
		return m
	}
	raw := strings.ToUpper(strings.TrimSpace(symbol))
	exchange := ExchangeNASDAQ
	currency := "USD"
	if strings.HasSuffix(raw, ".NS") {
		exchange, currency = ExchangeNSE, "INR"
	} else if strings.HasSuffix(raw, ".BO") {
		exchange, currency = ExchangeBSE, "INR"
	}
	return Meta{
		Symbol:     Normalize(symbol),
		Name:       Normalize(symbol),
		Sector:     DefaultSector,
		Exchange:   exchange,
		Currency:   currency,
		Baseline:   DefaultBaseline,
		Volatility: DefaultVolatility,
	}
}
