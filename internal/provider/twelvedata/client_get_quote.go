package twelvedata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrUnauthorized is returned when the API key is missing, invalid or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited is returned when the API credit budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrSymbolNotFound is returned when the API does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Quote represents a quote from the Twelve Data API.
type Quote struct {
	Symbol        string
	Name          string
	Exchange      string
	Currency      string
	Open          float64
	High          float64
	Low           float64
	Close         float64
	Volume        int64
	PreviousClose float64
	Change        float64
	PercentChange float64
	MarketOpen    bool
	Timestamp     time.Time
}

// quoteResponse is the wire form of a quote. Numeric fields are encoded as
// strings. The code, status and message fields form the error envelope that
// Twelve Data returns with HTTP 200 when a request fails.
type quoteResponse struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Exchange      string `json:"exchange"`
	Currency      string `json:"currency"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Close         string `json:"close"`
	Volume        string `json:"volume"`
	PreviousClose string `json:"previous_close"`
	Change        string `json:"change"`
	PercentChange string `json:"percent_change"`
	IsMarketOpen  bool   `json:"is_market_open"`
	Timestamp     int64  `json:"timestamp"`

	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// GetQuote retrieves the latest quote for a symbol from the Twelve Data API.
func (c *TwelveDataAPIClient) GetQuote(ctx context.Context, symbol string, opts ...TwelveDataAPIClientOption) (*Quote, error) {
	var override = &TwelveDataAPIClient{
		baseURL:    c.baseURL,
		httpClient: c.httpClient,
		header:     c.header.Clone(),
		query:      c.query,
	}
	for _, opt := range opts {
		opt(override)
	}

	query := maps.Clone(override.query)
	query.Add("symbol", symbol)

	url := fmt.Sprintf("%s/quote?%s", override.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = override.header

	res, err := override.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		break

	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized

	case http.StatusTooManyRequests:
		return nil, ErrRateLimited

	default:
		return nil, fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}

	var body quoteResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding quote response: %w", err)
	}

	if body.Status == "error" {
		switch body.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return nil, ErrUnauthorized

		case http.StatusNotFound:
			return nil, ErrSymbolNotFound

		case http.StatusTooManyRequests:
			return nil, ErrRateLimited

		default:
			return nil, fmt.Errorf("api error %d: %s", body.Code, body.Message)
		}
	}

	open, err := parsePrice("open", body.Open)
	if err != nil {
		return nil, err
	}

	high, err := parsePrice("high", body.High)
	if err != nil {
		return nil, err
	}

	low, err := parsePrice("low", body.Low)
	if err != nil {
		return nil, err
	}

	closePrice, err := parsePrice("close", body.Close)
	if err != nil {
		return nil, err
	}

	previousClose, err := parsePrice("previous_close", body.PreviousClose)
	if err != nil {
		return nil, err
	}

	change, err := parsePrice("change", body.Change)
	if err != nil {
		return nil, err
	}

	percentChange, err := parsePrice("percent_change", body.PercentChange)
	if err != nil {
		return nil, err
	}

	volume, err := parseVolume(body.Volume)
	if err != nil {
		return nil, err
	}

	var timestamp time.Time
	if body.Timestamp > 0 {
		timestamp = time.Unix(body.Timestamp, 0).UTC()
	}

	return &Quote{
		Symbol:        body.Symbol,
		Name:          body.Name,
		Exchange:      body.Exchange,
		Currency:      body.Currency,
		Open:          open,
		High:          high,
		Low:           low,
		Close:         closePrice,
		Volume:        volume,
		PreviousClose: previousClose,
		Change:        change,
		PercentChange: percentChange,
		MarketOpen:    body.IsMarketOpen,
		Timestamp:     timestamp,
	}, nil
}

// parsePrice is a helper function to parse a numeric field that the API
// encodes as a string. An absent field decodes to zero.
func parsePrice(field, value string) (float64, error) {
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", field, err)
	}
	return f, nil
}

// parseVolume is a helper function to parse the volume field.
func parseVolume(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decoding volume: %w", err)
	}
	return v, nil
}
