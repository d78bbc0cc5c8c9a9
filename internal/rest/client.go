package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ratthapon/talad/internal/catalog"
	"github.com/ratthapon/talad/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// TokenSource supplies the bearer token attached to backend requests.
// An empty string means no Authorization header is sent.
type TokenSource interface {
	BearerToken() string
}

// StaticToken is a fixed TokenSource, mostly for tests and one-off calls.
type StaticToken string

func (s StaticToken) BearerToken() string { return string(s) }

// Client talks to the marketplace REST backend. It holds no listing state;
// callers own their caches.
type Client struct {
	base    *url.URL
	hc      *http.Client
	tokens  TokenSource
	limiter *rate.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// Options configures a Client beyond its base URL.
type Options struct {
	HTTPClient        *http.Client
	Tokens            TokenSource
	RequestsPerSecond float64
	Metrics           *metrics.Metrics
	Logger            *zap.Logger
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, opts Options) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), int(opts.RequestsPerSecond)+1)
	}
	return &Client{
		base:    base,
		hc:      hc,
		tokens:  tokens,
		limiter: limiter,
		metrics: opts.Metrics,
		logger:  logger,
	}, nil
}

// do issues one request and decodes a JSON response body into out when out
// is non-nil. Non-2xx responses become *StatusError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	u := c.base.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.tokens.BearerToken(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.observe(method, path, "transport_error")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.observe(method, path, "status_error")
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	c.observe(method, path, "ok")
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeJSON(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) observe(method, path, outcome string) {
	if c.metrics != nil {
		c.metrics.ObserveRequest(method, path, outcome)
	}
}

// FetchAll lists every listing in a kind's collection.
func FetchAll[T any](ctx context.Context, c *Client, kind catalog.Kind) ([]T, error) {
	var items []T
	if err := c.do(ctx, http.MethodGet, kind.CollectionPath(), nil, "", &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FetchOne fetches a single listing by id.
func FetchOne[T any](ctx context.Context, c *Client, kind catalog.Kind, id catalog.ID) (T, error) {
	var item T
	if err := c.do(ctx, http.MethodGet, kind.ItemPath(id), nil, "", &item); err != nil {
		return item, err
	}
	return item, nil
}

// Create posts a new listing and returns the server-assigned record.
// Payloads carrying data-URI media are sent as multipart form data with the
// media decoded into binary parts; text-only payloads are plain JSON.
func Create[T any](ctx context.Context, c *Client, kind catalog.Kind, payload map[string]any) (T, error) {
	var item T
	body, contentType, err := encodePayload(payload)
	if err != nil {
		return item, err
	}
	if err := c.do(ctx, http.MethodPost, kind.CollectionPath(), body, contentType, &item); err != nil {
		return item, err
	}
	return item, nil
}

// Update puts partial fields and returns the updated record.
func Update[T any](ctx context.Context, c *Client, kind catalog.Kind, id catalog.ID, payload map[string]any) (T, error) {
	var item T
	body, contentType, err := encodePayload(payload)
	if err != nil {
		return item, err
	}
	if err := c.do(ctx, http.MethodPut, kind.ItemPath(id), body, contentType, &item); err != nil {
		return item, err
	}
	return item, nil
}

// Remove deletes a listing. The backend returns no body.
func (c *Client) Remove(ctx context.Context, kind catalog.Kind, id catalog.ID) error {
	return c.do(ctx, http.MethodDelete, kind.ItemPath(id), nil, "", nil)
}

// Collection binds the client to one kind with a concrete record type, the
// shape controllers consume. Controllers receive it as an interface so tests
// can substitute a fake.
type Collection[T any] struct {
	client *Client
	kind   catalog.Kind
}

// NewCollection creates the typed binding for one resource kind.
func NewCollection[T any](c *Client, kind catalog.Kind) *Collection[T] {
	return &Collection[T]{client: c, kind: kind}
}

func (c *Collection[T]) FetchAll(ctx context.Context) ([]T, error) {
	return FetchAll[T](ctx, c.client, c.kind)
}

func (c *Collection[T]) FetchOne(ctx context.Context, id catalog.ID) (T, error) {
	return FetchOne[T](ctx, c.client, c.kind, id)
}

func (c *Collection[T]) Create(ctx context.Context, payload map[string]any) (T, error) {
	return Create[T](ctx, c.client, c.kind, payload)
}

func (c *Collection[T]) Update(ctx context.Context, id catalog.ID, payload map[string]any) (T, error) {
	return Update[T](ctx, c.client, c.kind, id, payload)
}

func (c *Collection[T]) Remove(ctx context.Context, id catalog.ID) error {
	return c.client.Remove(ctx, c.kind, id)
}
