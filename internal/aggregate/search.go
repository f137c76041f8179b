package aggregate

import (
	"context"
	"strings"
	"time"

	"quotedesk/internal/market"
)

// SearchResponse is the symbol search payload.
type SearchResponse struct {
	Query     string                `json:"query"`
	Market    string                `json:"market,omitempty"`
	Count     int                   `json:"count"`
	Results   []market.SearchResult `json:"results"`
	Cached    bool                  `json:"cached"`
	CacheAge  int                   `json:"cacheAge"`
	Timestamp time.Time             `json:"timestamp"`
}

// Search matches query against the symbol table. Results sit under the
// long TTL since the table only changes with releases.
func (s *Service) Search(ctx context.Context, query, marketFilter string) SearchResponse {
	key := searchKey(query, marketFilter)
	if v, age, ok := s.cache.Get(key); ok {
		resp := v.(SearchResponse)
		resp.Cached = true
		resp.CacheAge = int(age / time.Second)
		resp.Timestamp = s.now().UTC()
		return resp
	}

	results := market.Search(query, marketFilter)
	resp := SearchResponse{
		Query:     query,
		Market:    marketFilter,
		Count:     len(results),
		Results:   results,
		Timestamp: s.now().UTC(),
	}
	s.cache.Set(key, resp, s.cfg.SearchTTL)
	return resp
}

func searchKey(query, marketFilter string) string {
	scope := marketFilter
	if scope == "" {
		scope = "all"
	}
	return "search|" + strings.ToLower(query) + "|" + scope
}
