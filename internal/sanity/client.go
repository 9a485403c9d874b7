// Package sanity is the HTTP client for the headless content store. It
// exposes the store's query endpoint (GROQ with bound parameters), the
// mutation endpoint for document creation, and the image CDN URL builder.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"folio/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const userAgent = "folio-api/1.0"

// Config holds connection settings for the content store.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string // e.g. "2024-01-01"
	Token      string
	UseCDN     bool
	BaseURL    string // overrides the derived API host; used in tests
}

// HTTPError captures an unexpected status code and response body from
// the content store.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// userAgentRoundTripper adds a User-Agent header to every request.
type userAgentRoundTripper struct {
	wrapped http.RoundTripper
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", userAgent)
	return rt.wrapped.RoundTrip(clone)
}

// Client talks to one dataset of the content store.
type Client struct {
	cfg     Config
	http    *http.Client
	baseURL string
	sleep   func(context.Context, time.Duration) error
	metrics *observability.StoreMetrics
}

// NewClient returns a Client for the configured dataset. base may be nil,
// in which case a default client with a 10s timeout is used.
func NewClient(cfg Config, base *http.Client) *Client {
	if base == nil {
		base = &http.Client{}
	}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	base.Transport = &userAgentRoundTripper{wrapped: base.Transport}
	if base.Timeout == 0 {
		base.Timeout = 10 * time.Second
	}

	host := fmt.Sprintf("https://%s.api.sanity.io", cfg.ProjectID)
	// The CDN host serves cached reads but cannot authenticate, so a
	// configured token forces the live API host.
	if cfg.UseCDN && cfg.Token == "" {
		host = fmt.Sprintf("https://%s.apicdn.sanity.io", cfg.ProjectID)
	}
	if cfg.BaseURL != "" {
		host = cfg.BaseURL
	}

	return &Client{
		cfg:     cfg,
		http:    base,
		baseURL: host,
		sleep:   sleepContext,
		metrics: observability.NewStoreMetrics(),
	}
}

// Retry behavior for transient store failures.
const (
	maxRetries = 3
	baseDelay  = 250 * time.Millisecond
	maxDelay   = 4 * time.Second
)

// Fetch runs a GROQ query with bound parameters and returns the raw
// result. Parameter values are JSON-encoded and passed as $name query
// arguments, never interpolated into the query text.
func (c *Client) Fetch(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	ctx, span := observability.StartSpan(ctx, "sanity.fetch",
		attribute.String("store.dataset", c.cfg.Dataset),
	)
	raw, err := c.fetch(ctx, query, params)
	if err != nil {
		c.metrics.RecordError("query")
	}
	observability.EndSpan(span, err)
	return raw, err
}

func (c *Client) fetch(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	done := c.metrics.TrackRequest("query")
	defer done()

	values := url.Values{}
	values.Set("query", query)
	for name, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode query param %q: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?%s",
		c.baseURL, c.cfg.APIVersion, c.cfg.Dataset, values.Encode())

	body, err := c.doWithRetry(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return envelope.Result, nil
}

// Create inserts a new document via the store's mutation endpoint.
func (c *Client) Create(ctx context.Context, doc map[string]any) error {
	ctx, span := observability.StartSpan(ctx, "sanity.create",
		attribute.String("store.dataset", c.cfg.Dataset),
	)
	err := c.create(ctx, doc)
	if err != nil {
		c.metrics.RecordError("mutate")
	}
	observability.EndSpan(span, err)
	return err
}

func (c *Client) create(ctx context.Context, doc map[string]any) error {
	done := c.metrics.TrackRequest("mutate")
	defer done()

	payload, err := json.Marshal(map[string]any{
		"mutations": []map[string]any{{"create": doc}},
	})
	if err != nil {
		return fmt.Errorf("encode mutation: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v%s/data/mutate/%s",
		c.baseURL, c.cfg.APIVersion, c.cfg.Dataset)

	// Mutations are not retried: a timed-out create may still have been
	// applied, and a duplicate insert is worse than a surfaced error.
	_, err = c.do(ctx, http.MethodPost, endpoint, payload)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// doWithRetry retries transient 5xx responses with exponential backoff
// and jitter. Reads are idempotent so replaying them is safe.
func (c *Client) doWithRetry(ctx context.Context, method, endpoint string, payload []byte) ([]byte, error) {
	var body []byte
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxRetries; attempt++ {
		body, err = c.do(ctx, method, endpoint, payload)
		if err == nil {
			return body, nil
		}

		var httpErr *HTTPError
		if !errors.As(err, &httpErr) || !retryableStatus(httpErr.StatusCode) {
			break
		}
		if attempt == maxRetries-1 {
			break
		}

		jitter := time.Duration(rand.Int63n(int64(delay)))
		if serr := c.sleep(ctx, delay+jitter); serr != nil {
			return nil, serr
		}

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return nil, err
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// sleepContext waits for d, aborting early when ctx is canceled so an
// abandoned request never holds a backoff window open.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetSleepForTest replaces the backoff sleep function in tests.
func (c *Client) SetSleepForTest(sleep func(context.Context, time.Duration) error) {
	c.sleep = sleep
}
