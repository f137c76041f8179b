package market

import "strings"

// SearchResult is one symbol search hit, shaped for the HTTP surface.
type SearchResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Exchange string `json:"exchange"`
	Currency string `json:"currency"`
	Market   string `json:"market"`
}

// Search matches query as a case-insensitive substring of symbol or name
// over the metadata table. marketFilter narrows to one market; empty means
// both. Results keep table order, Indian rows first.
func Search(query, marketFilter string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]SearchResult, 0, 8)
	if q == "" {
		return out
	}
	appendMatches := func(rows []Meta) {
		for _, m := range rows {
			if marketFilter != "" && m.Market() != marketFilter {
				continue
			}
			if !strings.Contains(strings.ToLower(m.Symbol), q) && !strings.Contains(strings.ToLower(m.Name), q) {
				continue
			}
			out = append(out, SearchResult{
				Symbol:   m.Symbol,
				Name:     m.Name,
				Sector:   m.Sector,
				Exchange: m.Exchange,
				Currency: m.Currency,
				Market:   m.Market(),
			})
		}
	}
	appendMatches(indianSymbols)
	appendMatches(globalSymbols)
	return out
}
