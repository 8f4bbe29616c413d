// Package redis implements pkg/ports.KV against a real Redis instance via
// redis/go-redis/v9.
// Version numbers are tracked in a companion "<key>:ver" counter, and the
// compare-and-swap write is done with a Lua script so the read-compare-write
// is atomic server-side instead of relying on client-side WATCH/MULTI,
// which would require a dedicated connection per operation.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nauanbek/saqshy/pkg/ports"
)

// casScript atomically compares the stored version against the caller's
// expectation and, on match, writes the new value and bumps the version.
// KEYS[1] is the data key, KEYS[2] is its version counter.
// ARGV[1] is the expected version ("" means "key must not exist yet"),
// ARGV[2] is the new value, ARGV[3] is the TTL in seconds (0 = no expiry).
var casScript = goredis.NewScript(`
local current = redis.call("GET", KEYS[2])
if current == false then current = "" end
if current ~= ARGV[1] then
	return redis.error_reply("version_mismatch")
end
local newVersion = redis.call("INCR", KEYS[2])
redis.call("SET", KEYS[1], ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call("EXPIRE", KEYS[1], ARGV[3])
	redis.call("EXPIRE", KEYS[2], ARGV[3])
end
return tostring(newVersion)
`)

// ErrVersionMismatch is returned by Set when expectedVersion no longer
// matches the stored version.
var ErrVersionMismatch = errors.New("redis: version mismatch")

// KV wraps a goredis.UniversalClient, which both *goredis.Client
// (production) and a miniredis-backed client (tests) satisfy.
type KV struct {
	client goredis.UniversalClient
}

// New wraps an existing redis client.
func New(client goredis.UniversalClient) *KV {
	return &KV{client: client}
}

func versionKey(key string) string { return key + ":ver" }

func (k *KV) Get(ctx context.Context, key string) ([]byte, string, bool, error) {
	val, err := k.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("redis: get %s: %w", key, err)
	}

	version, err := k.client.Get(ctx, versionKey(key)).Result()
	if errors.Is(err, goredis.Nil) {
		version = ""
	} else if err != nil {
		return nil, "", false, fmt.Errorf("redis: get version %s: %w", key, err)
	}
	return val, version, true, nil
}

func (k *KV) Set(ctx context.Context, key string, value []byte, ttlSeconds int64, expectedVersion string) (string, error) {
	res, err := casScript.Run(ctx, k.client, []string{key, versionKey(key)}, expectedVersion, value, ttlSeconds).Result()
	if err != nil {
		if strings.Contains(err.Error(), "version_mismatch") {
			return "", ErrVersionMismatch
		}
		return "", fmt.Errorf("redis: cas set %s: %w", key, err)
	}
	newVersion, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("redis: cas set %s: unexpected script result %v", key, res)
	}
	return newVersion, nil
}

func (k *KV) Incr(ctx context.Context, key string, by int64, ttlSeconds int64) (int64, error) {
	n, err := k.client.IncrBy(ctx, key, by).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: incr %s: %w", key, err)
	}
	if ttlSeconds > 0 {
		k.client.Expire(ctx, key, time.Duration(ttlSeconds)*time.Second)
	}
	return n, nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.client.Del(ctx, key, versionKey(key)).Err(); err != nil {
		return fmt.Errorf("redis: delete %s: %w", key, err)
	}
	return nil
}

var _ ports.KV = (*KV)(nil)
