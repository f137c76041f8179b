// Command yahoo_dump downloads raw Yahoo chart payloads for a list of
// symbols and writes them to a single JSON file keyed by upstream
// symbol. Handy for refreshing the fixtures used by the yahoo provider
// tests without hand-editing JSON.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"quotedesk/internal/config"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

type httpStatusErr struct {
	code int
	body string
}

func (e *httpStatusErr) Error() string { return fmt.Sprintf("http %d: %s", e.code, e.body) }

func main() {
	var (
		symbolsCSV  string
		symbolsFile string
		outPath     string
		cfgPath     string
		concurrency int
		timeoutSec  int
		maxRetries  int
		rpm         int
	)
	flag.StringVar(&symbolsCSV, "symbols", "RELIANCE.NS,TCS.NS,AAPL,MSFT", "comma-separated Yahoo symbols")
	flag.StringVar(&symbolsFile, "symbols-file", "", "file with one symbol per line (overrides -symbols)")
	flag.StringVar(&outPath, "out", "yahoo_charts.json", "output JSON file path")
	flag.StringVar(&cfgPath, "config", "", "path to config.json (optional)")
	flag.IntVar(&concurrency, "concurrency", 2, "number of parallel requests")
	flag.IntVar(&timeoutSec, "timeout", 20, "HTTP timeout seconds")
	flag.IntVar(&maxRetries, "retries", 3, "max retries on 429/5xx")
	flag.IntVar(&rpm, "rpm", 0, "max requests per minute (0 = unlimited)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	base := strings.TrimRight(cfg.Yahoo.BaseURL, "/")
	if base == "" {
		base = "https://query1.finance.yahoo.com"
	}

	symbols, err := loadSymbols(symbolsCSV, symbolsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read symbols")
	}
	if len(symbols) == 0 {
		log.Fatal().Msg("no symbols to dump")
	}
	log.Info().Int("symbols", len(symbols)).Str("out", outPath).Msg("dumping charts")

	hc := &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}

	outFile, err := os.Create(outPath)
	if err != nil {
		log.Fatal().Err(err).Msg("create out")
	}
	defer outFile.Close()
	bw := bufio.NewWriterSize(outFile, 1<<20)
	defer bw.Flush()

	_, _ = bw.WriteString("{")
	first := true
	var writeMu sync.Mutex

	// Gate requests by RPM when asked; Yahoo throttles bursts quickly.
	var tokenCh <-chan time.Time
	if rpm > 0 {
		t := time.NewTicker(time.Minute / time.Duration(rpm))
		defer t.Stop()
		tokenCh = t.C
	}

	fetchOne := func(ctx context.Context, symbol string) (json.RawMessage, error) {
		attempt := 0
		for {
			if tokenCh != nil {
				<-tokenCh
			}
			raw, err := doReq(ctx, hc, base, symbol)
			if err == nil {
				return raw, nil
			}
			var hs *httpStatusErr
			if errors.As(err, &hs) && (hs.code == http.StatusTooManyRequests || hs.code >= 500) && attempt < maxRetries {
				time.Sleep(time.Duration(250*(1<<attempt)) * time.Millisecond)
				attempt++
				continue
			}
			return nil, err
		}
	}

	jobs := make(chan string, concurrency*2)
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
				raw, err := fetchOne(ctx, symbol)
				cancel()
				if err != nil {
					log.Error().Err(err).Str("symbol", symbol).Msg("chart fetch failed, skipping")
					continue
				}
				key, _ := json.Marshal(symbol)
				writeMu.Lock()
				if !first {
					_, _ = bw.WriteString(",")
				}
				first = false
				_, _ = bw.Write(key)
				_, _ = bw.WriteString(":")
				_, _ = bw.Write(raw)
				writeMu.Unlock()
			}
		}()
	}

	for _, s := range symbols {
		jobs <- s
	}
	close(jobs)
	wg.Wait()

	_, _ = bw.WriteString("}")
	if err := bw.Flush(); err != nil {
		log.Fatal().Err(err).Msg("flush")
	}
	log.Info().Str("out", outPath).Msg("done")
}

func doReq(ctx context.Context, hc *http.Client, base, symbol string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", base, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > 2<<10 {
			body = body[:2<<10]
		}
		return nil, &httpStatusErr{code: resp.StatusCode, body: string(body)}
	}
	return json.RawMessage(body), nil
}

func loadSymbols(csv, file string) ([]string, error) {
	if file != "" {
		return readLines(file)
	}
	var out []string
	for _, p := range strings.Split(csv, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}
