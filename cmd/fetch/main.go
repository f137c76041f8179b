// Command fetch resolves quotes for a set of symbols once and prints
// them as JSON. Useful for checking provider credentials and the
// fallback chain without starting the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"quotedesk/internal/config"
	"quotedesk/internal/httpx"
	"quotedesk/internal/provider"
	"quotedesk/internal/provider/alphavantage"
	"quotedesk/internal/provider/finnhub"
	"quotedesk/internal/provider/synthetic"
	twelvedata "quotedesk/internal/provider/twelvedata"
	"quotedesk/internal/provider/twelvedataadapter"
	"quotedesk/internal/provider/yahoo"
	"quotedesk/internal/resolver"
)

func main() {
	var (
		symbolsCSV   string
		configPath   string
		providerName string
		timeoutSec   int
		pretty       bool
	)
	flag.StringVar(&symbolsCSV, "symbols", getenv("SYMBOLS", "RELIANCE,AAPL"), "comma-separated symbols")
	flag.StringVar(&configPath, "config", getenv("CONFIG_FILE", ""), "path to config.json (optional)")
	flag.StringVar(&providerName, "provider", getenv("PROVIDER", ""), "restrict the chain to one adapter (e.g. yahoo)")
	flag.IntVar(&timeoutSec, "timeout", getenvInt("FETCH_TIMEOUT_SEC", 15), "overall timeout in seconds")
	flag.BoolVar(&pretty, "pretty", false, "human-readable logs on stderr")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	setupLogging(cfg.Log, pretty)

	symbols := splitCSV(symbolsCSV)
	if len(symbols) == 0 {
		log.Fatal().Msg("no symbols provided")
	}

	httpClient := httpx.New(httpx.Options{
		Timeout:         time.Duration(cfg.HTTP.TimeoutSec) * time.Second,
		RequestsPerSec:  cfg.HTTP.RequestsPerSec,
		RetryMaxElapsed: time.Duration(cfg.HTTP.RetryMaxElapsedSec) * time.Second,
	})

	providers := buildProviders(cfg, httpClient)
	if providerName != "" {
		providers = filterProviders(providers, providerName)
		if len(providers) == 0 {
			log.Fatal().Str("provider", providerName).Msg("no such adapter in the configured order")
		}
	}
	res := resolver.New(providers, synthetic.New())

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	quotes := make([]provider.Quote, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range symbols {
		g.Go(func() error {
			q, err := res.Resolve(gctx, sym)
			if err != nil {
				return err
			}
			quotes[i] = q
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("resolve")
	}

	out := struct {
		Quotes []provider.Quote `json:"quotes"`
	}{Quotes: quotes}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("encode")
	}
	fmt.Println(string(b))
}

func setupLogging(cfg config.Log, pretty bool) {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	logger := log.Logger
	if pretty || cfg.Pretty {
		logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger.Level(lvl)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func filterProviders(providers []provider.Provider, name string) []provider.Provider {
	var out []provider.Provider
	for _, p := range providers {
		if p.Name() == name {
			out = append(out, p)
		}
	}
	return out
}

// buildProviders mirrors the assembly in cmd/server without the
// missing-credential warnings; a keyless adapter simply reports
// itself disabled and the resolver skips it.
func buildProviders(cfg config.Config, hc *httpx.Client) []provider.Provider {
	var providers []provider.Provider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "twelvedata":
			opts := []twelvedata.TwelveDataAPIClientOption{twelvedata.WithHTTPClient(hc.HTTP)}
			if cfg.TwelveData.BaseURL != "" {
				opts = append(opts, twelvedata.WithBaseURL(cfg.TwelveData.BaseURL))
			}
			client, err := twelvedata.NewTwelveDataAPIClient(cfg.TwelveData.APIKey, opts...)
			if err != nil {
				log.Error().Err(err).Msg("twelvedata client")
				continue
			}
			providers = append(providers, twelvedataadapter.New(twelvedataadapter.Config{
				Enabled: cfg.TwelveData.Enabled,
				APIKey:  cfg.TwelveData.APIKey,
			}, client))
		case "finnhub":
			providers = append(providers, finnhub.New(finnhub.Config{
				BaseURL: cfg.Finnhub.BaseURL,
				Enabled: cfg.Finnhub.Enabled,
				Token:   cfg.Finnhub.APIKey,
			}, hc))
		case "alphavantage":
			providers = append(providers, alphavantage.New(alphavantage.Config{
				BaseURL: cfg.AlphaVantage.BaseURL,
				Enabled: cfg.AlphaVantage.Enabled,
				APIKey:  cfg.AlphaVantage.APIKey,
			}, hc))
		case "yahoo":
			providers = append(providers, yahoo.New(yahoo.Config{
				BaseURL: cfg.Yahoo.BaseURL,
				Enabled: cfg.Yahoo.Enabled,
			}, hc))
		default:
			log.Warn().Str("provider", name).Msg("unknown provider in order, skipping")
		}
	}
	return providers
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if x, err := strconv.Atoi(v); err == nil && x > 0 {
			return x
		}
	}
	return def
}
