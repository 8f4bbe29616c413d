// Package breaker provides a named circuit-breaker registry guarding every
// external dependency the decision core calls through pkg/ports: the spam
// database, the LLM adjudicator, the channel-subscription checker, and the
// messaging client. Breaker state is process-local and
// observable so the audit trail can stamp a degraded flag on decisions
// made while a dependency is unavailable.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned instead of calling through when a breaker is
// open. Callers MUST treat this as a degraded-default signal, never as a
// verdict change.
var ErrCircuitOpen = errors.New("breaker: circuit open, call short-circuited")

// Settings configures every breaker constructed by a Registry.
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens a
	// breaker (default 5).
	FailureThreshold uint32
	// OpenTimeout is how long a breaker stays open before allowing a
	// half-open probe (default 30s).
	OpenTimeout time.Duration
}

// DefaultSettings is five consecutive failures, thirty seconds open.
func DefaultSettings() Settings {
	return Settings{FailureThreshold: 5, OpenTimeout: 30 * time.Second}
}

// Registry holds one named gobreaker.CircuitBreaker per external
// dependency ("spam_db", "llm", "subscription_checker", "messaging_client"),
// created lazily on first use and guarded by a mutex.
type Registry struct {
	mu       sync.Mutex
	settings Settings
	breakers map[string]*gobreaker.CircuitBreaker
	onTrip   func(name string)
}

// NewRegistry builds a breaker registry. onTrip, if non-nil, is invoked
// every time a named breaker transitions to the open state, and is the
// hook the pipeline uses to tick pkg/ports.MetricsSink.IncCircuitOpen.
func NewRegistry(settings Settings, onTrip func(name string)) *Registry {
	return &Registry{
		settings: settings,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		onTrip:   onTrip,
	}
}

func (r *Registry) breaker(name string) *gobreaker.CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[name]; ok {
		return b
	}

	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: r.settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.settings.FailureThreshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen && from != gobreaker.StateOpen && r.onTrip != nil {
				r.onTrip(name)
			}
		},
	})
	r.breakers[name] = b
	return b
}

// Do runs fn through the named breaker. While open, Do returns
// ErrCircuitOpen without invoking fn.
func (r *Registry) Do(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	b := r.breaker(name)
	_, err := b.Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State reports the current state of a named breaker ("closed", "open",
// "half-open"), creating it in the closed state if it does not exist yet.
func (r *Registry) State(name string) string {
	return r.breaker(name).State().String()
}
