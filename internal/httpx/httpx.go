package httpx

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client is a small wrapper around http.Client with sane defaults, shared
// by every provider adapter. It rate-limits outbound calls and retries
// transient upstream failures with exponential backoff.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Headers   map[string]string
	Limiter   *rate.Limiter

	// Retry tuning for GetBody. Zero values fall back to the Options
	// defaults.
	RetryInitialInterval time.Duration
	RetryMaxElapsed      time.Duration
}

// Options configures New. Zero fields get defaults.
type Options struct {
	Timeout         time.Duration // per-request client timeout
	RequestsPerSec  int           // outbound rate across all adapters
	RetryMaxElapsed time.Duration // total budget for retrying one request
}

func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.RetryMaxElapsed == 0 {
		opts.RetryMaxElapsed = 6 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 3 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   100,
		MaxConnsPerHost:       100,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 5 * time.Second,
	}
	return &Client{
		HTTP:                 &http.Client{Timeout: opts.Timeout, Transport: transport},
		UserAgent:            "quotedesk/1.0",
		Limiter:              rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		RetryInitialInterval: 250 * time.Millisecond,
		RetryMaxElapsed:      opts.RetryMaxElapsed,
	}
}

// Do sends one request with the client's default headers applied. No
// rate limiting or retries; callers that want those use GetBody.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	if c.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, v := range c.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	return c.HTTP.Do(req)
}

// GetBody issues a GET against url and returns the response body. The
// call waits on the rate limiter, then retries network errors, 429s and
// 5xx responses with exponential backoff until RetryMaxElapsed or the
// context expires. Other non-2xx statuses fail immediately as a
// *StatusError.
func (c *Client) GetBody(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := c.Do(ctx, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return &StatusError{StatusCode: resp.StatusCode}
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode})
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return err
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	if c.RetryInitialInterval > 0 {
		strategy.InitialInterval = c.RetryInitialInterval
	}
	strategy.MaxElapsedTime = c.RetryMaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}

// StatusError reports an unexpected HTTP status from an upstream.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
