// Package http is a small JSON-first HTTP helper for the adapters that
// speak to plain REST upstreams (the spam-database service). It buffers
// response bodies for repeatable decoding and accepts any Doer, so
// ratelimit.RateLimitedHTTPClient slots in without the adapter knowing.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"strings"
	"time"
)

// Doer abstracts the underlying transport; *net/http.Client satisfies it.
type Doer interface {
	Do(req *stdhttp.Request) (*stdhttp.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// Client issues JSON requests against one upstream.
type Client struct {
	doer      Doer
	baseURL   string
	userAgent string
	bearer    string
}

// Response wraps an HTTP response with a buffered body.
type Response struct {
	StatusCode int
	Headers    stdhttp.Header
	body       []byte
}

// WithDoer replaces the transport, e.g. with a rate-limited wrapper.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.doer = d }
}

// WithTimeout sets the default transport's timeout. Ignored when WithDoer
// installed a custom transport first; pass options in the right order.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if hc, ok := c.doer.(*stdhttp.Client); ok {
			hc.Timeout = timeout
		}
	}
}

// WithBaseURL sets the base for relative request URLs.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) { c.userAgent = userAgent }
}

// WithBearerToken sets Authorization: Bearer <token>.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearer = token }
}

// NewClient constructs a Client. The default transport is a plain
// net/http.Client with a 30s timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{doer: &stdhttp.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Post sends payload as a JSON POST and returns the buffered response.
func (c *Client) Post(ctx context.Context, url string, payload any) (*Response, error) {
	reqURL, err := c.resolveURL(url)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	return c.do(req)
}

// Get sends a GET and returns the buffered response.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	reqURL, err := c.resolveURL(url)
	if err != nil {
		return nil, err
	}
	req, err := stdhttp.NewRequestWithContext(ctx, stdhttp.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	return c.do(req)
}

func (c *Client) setHeaders(req *stdhttp.Request) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
}

func (c *Client) do(req *stdhttp.Request) (*Response, error) {
	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody := new(bytes.Buffer)
	if _, err := respBody.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		body:       respBody.Bytes(),
	}, nil
}

// JSON decodes the buffered body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.body, v)
}

func (c *Client) resolveURL(url string) (string, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url, nil
	}
	if c.baseURL == "" {
		return "", fmt.Errorf("relative URL %q requires base URL", url)
	}
	if strings.HasPrefix(url, "/") {
		return c.baseURL + url, nil
	}
	return c.baseURL + "/" + url, nil
}
