package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nauanbek/saqshy/pkg/cache"
)

func clock(seconds ...int64) func() int64 {
	i := -1
	return func() int64 {
		if i < len(seconds)-1 {
			i++
		}
		return seconds[i]
	}
}

func TestKeyBuilders_IncludeNamespaceAndIdentifiers(t *testing.T) {
	assert.Equal(t, "saqshy:msg_ts:10:20", cache.MsgTSKey(10, 20))
	assert.Equal(t, "saqshy:rate:10:20", cache.RateKey(10, 20))
	assert.Equal(t, "saqshy:rate:10", cache.GroupRateKey(10))
	assert.Equal(t, "saqshy:decision_cache:abc123", cache.DecisionCacheKey("abc123"))
	assert.Equal(t, "saqshy:idempotency:deadbeef", cache.IdempotencyKey("deadbeef"))
	assert.Equal(t, "saqshy:sandbox:10:20", cache.SandboxKey(10, 20))
	assert.Equal(t, "saqshy:softwatch:10:20", cache.SoftWatchKey(10, 20))
}

func TestMemoryStore_IncrementRate_AllowsWithinLimitAndBlocksOverLimit(t *testing.T) {
	store := cache.NewMemoryStore(clock(0, 0, 0, 0))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		count, allowed, err := store.IncrementRate(ctx, "u1", 60, 3)
		require.NoError(t, err)
		assert.Equal(t, i, count)
		assert.True(t, allowed)
	}

	count, allowed, err := store.IncrementRate(ctx, "u1", 60, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.False(t, allowed)
}

func TestMemoryStore_IncrementRate_ResetsAfterWindowElapses(t *testing.T) {
	store := cache.NewMemoryStore(clock(0, 0, 61))
	ctx := context.Background()

	_, allowed, _ := store.IncrementRate(ctx, "u1", 60, 1)
	assert.True(t, allowed)
	_, allowed, _ = store.IncrementRate(ctx, "u1", 60, 1)
	assert.False(t, allowed)

	count, allowed, _ := store.IncrementRate(ctx, "u1", 60, 1)
	assert.Equal(t, 1, count)
	assert.True(t, allowed)
}

func TestMemoryStore_StringGetSet_HonorsTTL(t *testing.T) {
	store := cache.NewMemoryStore(clock(0, 0, 100))
	ctx := context.Background()

	require.NoError(t, store.SetString(ctx, "k", "v", 50))

	_, found, err := store.GetString(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	_, found, err = store.GetString(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found, "expired entries must not be returned")
}

func TestMemoryStore_StringGetSet_ZeroTTLNeverExpires(t *testing.T) {
	store := cache.NewMemoryStore(clock(0, 1_000_000_000))
	ctx := context.Background()

	require.NoError(t, store.SetString(ctx, "k", "v", 0))
	value, found, err := store.GetString(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", value)
}

func TestMemoryStore_CheckAndSetIdempotent_FiresOnceOnly(t *testing.T) {
	store := cache.NewMemoryStore(clock(0))
	ctx := context.Background()

	alreadyDone, err := store.CheckAndSetIdempotent(ctx, "action-1", 86400)
	require.NoError(t, err)
	assert.False(t, alreadyDone)

	alreadyDone, err = store.CheckAndSetIdempotent(ctx, "action-1", 86400)
	require.NoError(t, err)
	assert.True(t, alreadyDone, "a repeated action key must report already-done")

	alreadyDone, err = store.CheckAndSetIdempotent(ctx, "action-2", 86400)
	require.NoError(t, err)
	assert.False(t, alreadyDone, "distinct action keys are independent")
}

func TestMemoryStore_MessageTimestamps_CountsWithinWindowAndPrunesStale(t *testing.T) {
	store := cache.NewMemoryStore(clock(0, 30))
	ctx := context.Background()

	require.NoError(t, store.RecordMessageTimestamp(ctx, 1, 2, 0))
	require.NoError(t, store.RecordMessageTimestamp(ctx, 1, 2, 5000))

	count, err := store.CountMessagesInWindow(ctx, 1, 2, 60)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountMessagesInWindow(ctx, 1, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "both timestamps are older than a 10s window at t=30s")
}

var _ cache.Store = (*cache.MemoryStore)(nil)
