// Package remote implements ports.SpamDatabase against the spam-intelligence
// REST service named in SpamDBConfig.Endpoint. Requests go through the
// shared JSON client with a token-bucket pace so a message burst never
// becomes an upstream lookup burst; response codes are translated into the
// ports error classification the circuit breaker and retry policy key on.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	libhttp "github.com/nauanbek/saqshy/pkg/lib/http"
	"github.com/nauanbek/saqshy/pkg/ports"
	"github.com/nauanbek/saqshy/pkg/ratelimit"
)

// DefaultRequestsPerSecond paces lookups to the upstream. The pipeline's
// spam_db circuit breaker handles outages; this handles sustained load.
const DefaultRequestsPerSecond = 50

// DB talks to the remote spam-database service.
type DB struct {
	client *libhttp.Client
}

// Options configures New beyond the required endpoint.
type Options struct {
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// New builds a remote DB for the service at endpoint.
func New(endpoint string, opts Options) (*DB, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("spamdb remote: endpoint is required")
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	limiter := ratelimit.NewLimiter(rps, rps)
	inner := &http.Client{Timeout: timeout}
	clientOpts := []libhttp.Option{
		libhttp.WithDoer(ratelimit.NewRateLimitedHTTPClient(inner, limiter)),
		libhttp.WithBaseURL(endpoint),
		libhttp.WithUserAgent("saqshy-spamdb-client"),
	}
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, libhttp.WithBearerToken(opts.APIKey))
	}
	return &DB{client: libhttp.NewClient(clientOpts...)}, nil
}

type checkRequest struct {
	Text string `json:"text"`
}

type checkResponse struct {
	Similarity float64 `json:"similarity"`
	Pattern    string  `json:"pattern"`
}

// Similarity asks the upstream how closely text matches known spam.
// Empty input short-circuits to (0, "") without a network call.
func (d *DB) Similarity(ctx context.Context, text string) (float64, string, error) {
	if text == "" {
		return 0, "", nil
	}

	resp, err := d.client.Post(ctx, "/v1/check", checkRequest{Text: text})
	if err != nil {
		return 0, "", &ports.ClassifiedError{Class: ports.ErrClassNetwork, Err: err}
	}
	if err := classifyStatus(resp); err != nil {
		return 0, "", err
	}

	var body checkResponse
	if err := resp.JSON(&body); err != nil {
		return 0, "", &ports.ClassifiedError{Class: ports.ErrClassAPI, Err: fmt.Errorf("decode check response: %w", err)}
	}
	if body.Similarity < 0 || body.Similarity > 1 {
		return 0, "", &ports.ClassifiedError{Class: ports.ErrClassAPI, Err: fmt.Errorf("similarity %v out of range", body.Similarity)}
	}
	return body.Similarity, body.Pattern, nil
}

type userStatusResponse struct {
	Blocked     bool `json:"blocked"`
	Whitelisted bool `json:"whitelisted"`
}

func (d *DB) IsGlobalBlocked(ctx context.Context, userID int64) (bool, error) {
	status, err := d.userStatus(ctx, userID)
	if err != nil {
		return false, err
	}
	return status.Blocked, nil
}

func (d *DB) IsGlobalWhitelisted(ctx context.Context, userID int64) (bool, error) {
	status, err := d.userStatus(ctx, userID)
	if err != nil {
		return false, err
	}
	return status.Whitelisted, nil
}

func (d *DB) userStatus(ctx context.Context, userID int64) (userStatusResponse, error) {
	resp, err := d.client.Get(ctx, "/v1/users/"+strconv.FormatInt(userID, 10)+"/status")
	if err != nil {
		return userStatusResponse{}, &ports.ClassifiedError{Class: ports.ErrClassNetwork, Err: err}
	}
	if err := classifyStatus(resp); err != nil {
		return userStatusResponse{}, err
	}

	var body userStatusResponse
	if err := resp.JSON(&body); err != nil {
		return userStatusResponse{}, &ports.ClassifiedError{Class: ports.ErrClassAPI, Err: fmt.Errorf("decode user status: %w", err)}
	}
	return body, nil
}

// classifyStatus maps a non-2xx response to the error taxonomy.
func classifyStatus(resp *libhttp.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == 429:
		retryAfter := time.Second
		if v := resp.Headers.Get("Retry-After"); v != "" {
			if secs, err := strconv.Atoi(v); err == nil {
				retryAfter = time.Duration(secs) * time.Second
			}
		}
		return &ports.ClassifiedError{
			Class:      ports.ErrClassRateLimit,
			RetryAfter: retryAfter,
			Err:        fmt.Errorf("spamdb remote: rate limited"),
		}
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return &ports.ClassifiedError{Class: ports.ErrClassForbidden, Err: fmt.Errorf("spamdb remote: status %d", resp.StatusCode)}
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &ports.ClassifiedError{Class: ports.ErrClassBadRequest, Err: fmt.Errorf("spamdb remote: status %d", resp.StatusCode)}
	default:
		return &ports.ClassifiedError{Class: ports.ErrClassAPI, Err: fmt.Errorf("spamdb remote: status %d", resp.StatusCode)}
	}
}

var _ ports.SpamDatabase = (*DB)(nil)
