package integrations

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/topogram/topokit/pkg/cache"
	"github.com/topogram/topokit/pkg/observability"
)

// Sentinels for failed fetches. Source clients translate them into coded
// errors.
var (
	ErrNotFound = errors.New("resource not found")
	ErrNetwork  = errors.New("network error")
)

// requestTimeout bounds a single GET. Packages indexes for the large
// components run to tens of megabytes.
const requestTimeout = 2 * time.Minute

// Client is the HTTP plumbing shared by metadata sources: cached bodies,
// retries on transient failures and fixed request headers.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	prefix  string
	ttl     time.Duration
	headers map[string]string
}

// NewClient creates a Client backed by c. Cache keys are prefixed with
// prefix and stored for ttl. Headers are applied to every request; pass
// nil if none are needed.
func NewClient(c cache.Cache, prefix string, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:    &http.Client{Timeout: requestTimeout},
		cache:   c,
		prefix:  prefix,
		ttl:     ttl,
		headers: headers,
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) { c.http = h }

// Cached returns the cached value for key, or runs fetch (with retries)
// and caches what it returns. With refresh set the cache is not read but
// is still written.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, fetch func() ([]byte, error)) ([]byte, bool, error) {
	key = c.prefix + key
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			return data, true, nil
		}
	}

	var data []byte
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = fetch()
		return err
	})
	if err != nil {
		return nil, false, err
	}
	_ = c.cache.Set(ctx, key, data, c.ttl)
	return data, false, nil
}

// GetBytes performs an HTTP GET and returns the raw response body.
func (c *Client) GetBytes(ctx context.Context, url string) ([]byte, error) {
	body, err := c.doRequest(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, cache.Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, cache.Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

// StatusError carries the HTTP status of a failed request.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("status %d", e.Code) }

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, &StatusError{Code: code})
	case code >= 500:
		return cache.Retryable(fmt.Errorf("%w: %w", ErrNetwork, &StatusError{Code: code}))
	default:
		return fmt.Errorf("%w: %w", ErrNetwork, &StatusError{Code: code})
	}
}
