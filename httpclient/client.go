// Package httpclient implements apisvc.Transport on top of net/http.
package httpclient

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stayops/apisvc"
)

const (
	defaultTimeout = 30 * time.Second

	// maxResponseBody caps how much of a response body is read.
	maxResponseBody = 10 << 20

	// RequestIDHeader carries a per-request identifier for log correlation.
	RequestIDHeader = "X-Request-ID"
)

// Client is an HTTP transport bound to one backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration // zero keeps the supplied client's own timeout
	token      string // optional bearer token
	header     http.Header
	requestIDs bool
	logger     *slog.Logger
}

var _ apisvc.Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout. It applies regardless of option order and
// never modifies a client passed to WithHTTPClient.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithToken sets the bearer token sent in the Authorization header.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHeader adds a default header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header.Add(key, value)
	}
}

// WithHTTPClient replaces the underlying http.Client, e.g. to set a cookie jar
// for session credentials. Its own timeout is kept unless WithTimeout is given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestIDs toggles the X-Request-ID header. Enabled by default.
func WithRequestIDs(enabled bool) Option {
	return func(c *Client) {
		c.requestIDs = enabled
	}
}

// WithLogger sets a custom logger. If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a transport for the backend at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		header:     make(http.Header),
		requestIDs: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	switch {
	case c.httpClient == nil:
		c.httpClient = &http.Client{Timeout: cmp.Or(c.timeout, defaultTimeout)}
	case c.timeout > 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do implements apisvc.Transport.
//
// A non-2xx answer returns the response together with an *apisvc.StatusError.
// Failures without a response (dial, TLS, timeout, cancellation) return the
// underlying error.
func (c *Client) Do(ctx context.Context, r *apisvc.Request) (*apisvc.Response, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	res := &apisvc.Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}
	if !res.Success() {
		c.logger.DebugContext(ctx, "request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.Redacted()),
			slog.Int("status", resp.StatusCode),
			slog.String("request_id", req.Header.Get(RequestIDHeader)))
		return res, &apisvc.StatusError{
			Response: res,
			Message:  fmt.Sprintf("request failed with status code %d", resp.StatusCode),
		}
	}
	return res, nil
}

func (c *Client) newRequest(ctx context.Context, r *apisvc.Request) (*http.Request, error) {
	target := c.baseURL + r.Path
	query, err := r.Query.Encode()
	if err != nil {
		return nil, err
	}
	if query != "" {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, err
	}

	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, vs := range r.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.requestIDs && req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}
	return req, nil
}
