package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "ratelimit:"

// incrementScript performs the whole increment-with-expiry protocol in
// one atomic step on the Redis side: bump the counter, attach the TTL
// when this is the first hit of a window, and repair a missing TTL if a
// previous PEXPIRE was lost.
var incrementScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// RedisStore counts against a shared cache so the limit holds across
// all application instances. Every call is bounded by a short timeout;
// callers are expected to wrap this store in a FallbackStore so a slow
// or down cache degrades instead of blocking or denying.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisStore creates a shared-cache counter backend. A zero timeout
// defaults to 500ms.
func NewRedisStore(client *redis.Client, timeout time.Duration) *RedisStore {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &RedisStore{client: client, timeout: timeout}
}

// Increment atomically bumps the shared counter for key. Redis owns the
// window: ResetAt is derived from the key's remaining TTL.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Window, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := incrementScript.Run(ctx, s.client, []string{redisKeyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Window{}, fmt.Errorf("redis increment: %w", err)
	}
	if len(res) != 2 {
		return Window{}, fmt.Errorf("redis increment: unexpected script reply of length %d", len(res))
	}

	return Window{
		Count:   res[0],
		ResetAt: time.Now().Add(time.Duration(res[1]) * time.Millisecond),
	}, nil
}

// Ping reports shared-cache reachability for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}
