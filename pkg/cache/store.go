package cache

import "context"

// Store is the façade every rate-limiting, caching, and idempotency call
// site in the decision core goes through. Implementations
// MUST be fail-open: a backend error returns a permissive default (allowed
// = true, found = false) rather than propagating.
// MemoryStore is the only implementation in this module; the redis adapter
// in internal/adapters/kv/redis implements ports.KV, not Store.
type Store interface {
	// IncrementRate implements the fixed-window counter behind admission
	// control and per-user/per-group rate limiting. It increments the
	// counter for key within the current windowSeconds bucket and reports
	// whether the post-increment count is still within limit. The count
	// resets when a new window starts; it is not a sliding window.
	IncrementRate(ctx context.Context, key string, windowSeconds int64, limit int) (count int, allowed bool, err error)

	// GetString/SetString back the decision/subscription/admin caches,
	// whose values are small scalar strings or JSON blobs.
	GetString(ctx context.Context, key string) (value string, found bool, err error)
	SetString(ctx context.Context, key, value string, ttlSeconds int64) error

	// CheckAndSetIdempotent atomically checks whether actionKey has already
	// been recorded and, if not, records it with ttlSeconds. alreadyDone is
	// true when a previous call already performed the side effect — the
	// caller MUST skip the side effect in that case.
	CheckAndSetIdempotent(ctx context.Context, actionKey string, ttlSeconds int64) (alreadyDone bool, err error)

	// RecordMessageTimestamp appends unixMs to the sliding set of a user's
	// message times in a chat, backing the behavior analyzer's windows.
	RecordMessageTimestamp(ctx context.Context, chatID, userID int64, unixMs int64) error

	// CountMessagesInWindow counts timestamps recorded within the trailing
	// windowSeconds, pruning older entries as a side effect
	// (ZREMRANGEBYSCORE semantics).
	CountMessagesInWindow(ctx context.Context, chatID, userID int64, windowSeconds int64) (int, error)
}
