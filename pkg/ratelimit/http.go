package ratelimit

import "net/http"

// HTTPDoer is satisfied by *http.Client and by RateLimitedHTTPClient
// itself, so wrapping composes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RateLimitedHTTPClient paces requests to an upstream API through a token
// bucket — the spam-database adapter uses it so a burst of messages never
// turns into a burst of lookups the upstream throttles.
type RateLimitedHTTPClient struct {
	inner   HTTPDoer
	limiter *Limiter
}

// NewRateLimitedHTTPClient wraps inner. A nil limiter passes requests
// through unpaced.
func NewRateLimitedHTTPClient(inner HTTPDoer, limiter *Limiter) *RateLimitedHTTPClient {
	return &RateLimitedHTTPClient{inner: inner, limiter: limiter}
}

// Do blocks for a token, then delegates. Cancellation of the request
// context ends the wait.
func (c *RateLimitedHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}
	return c.inner.Do(req)
}
