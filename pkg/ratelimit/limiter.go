// Package ratelimit is the process-local token bucket behind two throttles
// the decision core owns: the 1/minute-per-group admin-notification cap in
// pkg/action, and pacing of outbound calls to rate-limited upstream APIs
// (see RateLimitedHTTPClient). Cross-instance, per-user rate limiting is a
// different concern and lives in pkg/cache's fixed-window counters.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a mutex-guarded token bucket, refilled lazily on each
// acquire rather than by a background goroutine.
type Limiter struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewLimiter builds a bucket holding up to maxTokens, refilled at
// refillRate tokens per second. Burst capacity is the bucket size.
func NewLimiter(maxTokens, refillRate float64) *Limiter {
	return &Limiter{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// PerMinute builds a burst-1 limiter releasing n tokens per minute — the
// shape the admin-notification cap wants.
func PerMinute(n float64) *Limiter {
	return NewLimiter(1, n/60.0)
}

// Wait blocks until a token is available or ctx ends.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		l.refillLocked()
		if l.tokens >= 1.0 {
			l.tokens -= 1.0
			l.mu.Unlock()
			return nil
		}
		needed := 1.0 - l.tokens
		wait := time.Duration(needed / l.refillRate * float64(time.Second))
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// TryAcquire takes a token if one is available, without blocking.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refillLocked()
	if l.tokens >= 1.0 {
		l.tokens -= 1.0
		return true
	}
	return false
}

func (l *Limiter) refillLocked() {
	now := time.Now()
	l.tokens += now.Sub(l.lastRefill).Seconds() * l.refillRate
	if l.tokens > l.maxTokens {
		l.tokens = l.maxTokens
	}
	l.lastRefill = now
}
