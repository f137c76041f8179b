package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Environment names are derived from the field path (SERVER_PORT,
// TWELVEDATA_API_KEY), never from a bare alt tag: envconfig also
// matches an alt tag without its section prefix, which would let one
// generic API_KEY or ENABLED variable bleed into every section.

type Server struct {
	Port string `json:"port"`
	Mode string `json:"mode"`
}

type Log struct {
	Level  string `json:"level"`
	Pretty bool   `json:"pretty"`
}

type Cache struct {
	MaxEntries   int `json:"max_entries" split_words:"true"`
	QuoteTTLSec  int `json:"quote_ttl_sec" split_words:"true"`
	SearchTTLSec int `json:"search_ttl_sec" split_words:"true"`
}

type HTTP struct {
	TimeoutSec         int `json:"timeout_sec" split_words:"true"`
	RequestsPerSec     int `json:"requests_per_sec" split_words:"true"`
	RetryMaxElapsedSec int `json:"retry_max_elapsed_sec" split_words:"true"`
}

type Providers struct {
	Order []string `json:"order"`
}

// Upstream is the shared per-provider section. Credentials come from
// the environment in practice (TWELVEDATA_API_KEY and friends); the
// JSON file is for the non-secret knobs.
type Upstream struct {
	Enabled bool   `json:"enabled"`
	APIKey  string `json:"api_key" split_words:"true"`
	BaseURL string `json:"base_url" split_words:"true"`
}

type Config struct {
	Server       Server    `json:"server"`
	Log          Log       `json:"log"`
	Cache        Cache     `json:"cache"`
	HTTP         HTTP      `json:"http"`
	Providers    Providers `json:"providers"`
	TwelveData   Upstream  `json:"twelvedata"`
	Finnhub      Upstream  `json:"finnhub"`
	AlphaVantage Upstream  `json:"alphavantage"`
	Yahoo        Upstream  `json:"yahoo"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", Mode: "release"},
		Log:    Log{Level: "info"},
		Cache: Cache{
			MaxEntries:   256,
			QuoteTTLSec:  60,
			SearchTTLSec: 300,
		},
		HTTP: HTTP{
			TimeoutSec:         8,
			RequestsPerSec:     5,
			RetryMaxElapsedSec: 6,
		},
		Providers: Providers{
			Order: []string{"twelvedata", "finnhub", "alphavantage", "yahoo"},
		},
		TwelveData:   Upstream{Enabled: true},
		Finnhub:      Upstream{Enabled: true},
		AlphaVantage: Upstream{Enabled: true},
		Yahoo:        Upstream{Enabled: true},
	}
}

// Load layers configuration: defaults, then an optional JSON file, then
// a .env file if present, then process environment variables. If path
// is empty, config.json in the working directory is used when it
// exists. Base URLs left empty fall back to each adapter's default.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	_ = godotenv.Load()
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}
	return cfg, nil
}
