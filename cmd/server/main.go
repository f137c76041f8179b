package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quotedesk/internal/aggregate"
	"quotedesk/internal/cache"
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
	"quotedesk/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	setupLogging(cfg.Log)
	if cfg.Server.Mode != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpClient := httpx.New(httpx.Options{
		Timeout:         time.Duration(cfg.HTTP.TimeoutSec) * time.Second,
		RequestsPerSec:  cfg.HTTP.RequestsPerSec,
		RetryMaxElapsed: time.Duration(cfg.HTTP.RetryMaxElapsedSec) * time.Second,
	})

	providers := buildProviders(cfg, httpClient)
	res := resolver.New(providers, synthetic.New())
	store := cache.New(cfg.Cache.MaxEntries)
	svc := aggregate.New(store, res, aggregate.Config{
		QuoteTTL:  time.Duration(cfg.Cache.QuoteTTLSec) * time.Second,
		SearchTTL: time.Duration(cfg.Cache.SearchTTLSec) * time.Second,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.New(svc, res, store).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func setupLogging(cfg config.Log) {
	lvl, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	logger := log.Logger
	if cfg.Pretty {
		logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	log.Logger = logger.Level(lvl)
}

// buildProviders assembles the adapter chain in the configured order.
// Adapters without a usable credential are still constructed so the
// health endpoints can report them; they disable themselves.
func buildProviders(cfg config.Config, hc *httpx.Client) []provider.Provider {
	var providers []provider.Provider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "twelvedata":
			warnMissingKey(cfg.TwelveData, "twelvedata", "TWELVEDATA_API_KEY")
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
			warnMissingKey(cfg.Finnhub, "finnhub", "FINNHUB_API_KEY")
			providers = append(providers, finnhub.New(finnhub.Config{
				BaseURL: cfg.Finnhub.BaseURL,
				Enabled: cfg.Finnhub.Enabled,
				Token:   cfg.Finnhub.APIKey,
			}, hc))
		case "alphavantage":
			warnMissingKey(cfg.AlphaVantage, "alphavantage", "ALPHAVANTAGE_API_KEY")
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

func warnMissingKey(up config.Upstream, name, envVar string) {
	if up.Enabled && (up.APIKey == "" || up.APIKey == provider.PlaceholderCredential) {
		log.Warn().Str("provider", name).Msgf("enabled but %s not set; adapter stays disabled", envVar)
	}
}
