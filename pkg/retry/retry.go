// Package retry implements the bounded, jittered retry policy of the
// error-handling design: transient failures get one or two more attempts
// with exponential backoff, everything else surfaces immediately. Callers
// decide retryability; TransientOnly understands the ports error
// classification so adapters don't have to.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/nauanbek/saqshy/pkg/ports"
)

// Config bounds one retryable call.
type Config struct {
	// MaxAttempts counts the initial attempt too; 0 is treated as 1.
	MaxAttempts int

	// InitialDelay is the backoff before the first retry; each subsequent
	// delay is multiplied by Multiplier and capped at MaxDelay.
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Jitter is the ± fraction of randomness applied to each delay,
	// in [0,1]. Zero disables jitter.
	Jitter float64

	// RetryableFunc gates retries per error; nil retries everything.
	RetryableFunc func(error) bool
}

// DefaultConfig is the in-component policy the error taxonomy prescribes:
// one retry with jitter, short backoff, transient errors only.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   2,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      time.Second,
		Multiplier:    2.0,
		Jitter:        0.3,
		RetryableFunc: TransientOnly,
	}
}

// TransientOnly retries network-classified and unclassified errors and
// refuses everything the platform said is permanent: forbidden,
// bad_request, api, and rate_limit (a rate limit is not hammered by a
// retry loop).
func TransientOnly(err error) bool {
	switch ports.Classify(err) {
	case ports.ErrClassNetwork, ports.ErrClassUnknown:
		return true
	default:
		return false
	}
}

// Do runs fn until it succeeds, the attempt budget runs out, ctx is
// cancelled, or RetryableFunc rejects the error. The last error is
// returned on exhaustion.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if cfg.RetryableFunc != nil && !cfg.RetryableFunc(err) {
			return err
		}
		if attempt >= maxAttempts {
			return err
		}

		wait := delay
		if cfg.Jitter > 0 {
			factor := 1.0 + (rand.Float64()*2.0-1.0)*cfg.Jitter
			wait = time.Duration(float64(wait) * factor)
		}
		if wait > cfg.MaxDelay {
			wait = cfg.MaxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
	}

	return lastErr
}
