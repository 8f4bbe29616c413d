package ports

import "context"

// IdempotencyStore records that an idempotency key has fired; it is the
// store behind Idempotent, which pkg/action routes every dispatched action
// through. pkg/trust does not use it: its writes rely on versioned
// compare-and-swap through ports.KV instead.
type IdempotencyStore interface {
	CheckAndSetIdempotent(ctx context.Context, key string, ttlSeconds int64) (alreadyDone bool, err error)
}

// Idempotent checks key against store and, if it has not fired yet, runs fn
// and reports skipped=false. If key has already fired, fn is not called and
// skipped=true.
func Idempotent(ctx context.Context, store IdempotencyStore, key string, ttlSeconds int64, fn func() error) (skipped bool, err error) {
	alreadyDone, err := store.CheckAndSetIdempotent(ctx, key, ttlSeconds)
	if err != nil {
		return false, err
	}
	if alreadyDone {
		return true, nil
	}
	return false, fn()
}
