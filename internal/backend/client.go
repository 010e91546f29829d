// Package backend is the HTTP client for the sales backend REST service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 4 << 20

// LookupCache caches GET responses and is invalidated after writes.
type LookupCache interface {
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
	Bump(ctx context.Context) error
}

// RequestObserver records backend calls, e.g. for metrics.
type RequestObserver interface {
	ObserveBackendRequest(op string, status int)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64
	Burst      int
	HTTPClient *http.Client
	Cache      LookupCache
	Logger     *slog.Logger
	Observer   RequestObserver
}

// Client talks to the backend over JSON/HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	lookups    singleflight.Group
	cache      LookupCache
	logger     *slog.Logger
	observer   RequestObserver
}

// NewClient constructs a backend client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 10
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		limiter:    rate.NewLimiter(limit, burst),
		cache:      opts.Cache,
		logger:     logger,
		observer:   opts.Observer,
	}
}

// Ping checks that the backend answers on the transactions endpoint.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, "ping", http.MethodGet, "/sales/code", nil, nil)
	return err
}

// lookup performs a GET whose result may be cached and is shared between
// concurrent callers asking for the same path. The shared request runs
// detached from any single caller and is bounded by the client timeout;
// each caller still gives up on its own context.
func (c *Client) lookup(ctx context.Context, op, path string, dest any) error {
	fetch := func(ctx context.Context) (json.RawMessage, error) {
		ch := c.lookups.DoChan(path, func() (any, error) {
			shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
			defer cancel()
			return c.do(shared, op, http.MethodGet, path, nil, nil)
		})
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("backend %s: %w", op, ctx.Err())
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			return res.Val.(json.RawMessage), nil
		}
	}
	if c.cache != nil {
		return c.cache.FetchJSON(ctx, "backend:"+path, dest, func(ctx context.Context) (any, error) {
			return fetch(ctx)
		})
	}
	raw, err := fetch(ctx)
	if err != nil {
		return err
	}
	return decode(op, raw, dest)
}

// mutate performs a write and invalidates cached lookups on success.
func (c *Client) mutate(ctx context.Context, op, method, path string, body any, dest any, header http.Header) error {
	raw, err := c.do(ctx, op, method, path, body, header)
	if err != nil {
		return err
	}
	if c.cache != nil {
		if err := c.cache.Bump(ctx); err != nil {
			c.logger.Warn("bump lookup cache", slog.String("op", op), slog.Any("error", err))
		}
	}
	if dest == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	// A 2xx is the acknowledgement; the body is best effort.
	if err := decode(op, raw, dest); err != nil {
		c.logger.Warn("undecodable write response", slog.String("op", op), slog.Any("error", err))
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, header http.Header) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("backend %s: %w", op, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend %s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("backend %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(op, 0)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("backend %s: %w", op, ctxErr)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.observe(op, resp.StatusCode)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("backend %s: read body: %w", op, err)
	}
	c.logger.Debug("backend call",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Op: op, Status: resp.StatusCode, Message: parseErrorMessage(data)}
	}
	return json.RawMessage(data), nil
}

func (c *Client) observe(op string, status int) {
	if c.observer != nil {
		c.observer.ObserveBackendRequest(op, status)
	}
}

func decode(op string, raw json.RawMessage, dest any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("backend %s: decode: %w", op, err)
	}
	return nil
}

func withQuery(path, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return path
	}
	return path + "?" + url.Values{"query": {query}}.Encode()
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
