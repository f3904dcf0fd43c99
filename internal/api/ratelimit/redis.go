package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills and consumes atomically. Bucket state lives in a hash that
// expires slightly after one window of inactivity.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refillRate = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
local windowSeconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'lastRefill')
local tokens = tonumber(state[1]) or capacity
local lastRefill = tonumber(state[2]) or now

local elapsed = (now - lastRefill) / 1000000000
if elapsed > 0 then
	tokens = math.min(capacity, tokens + elapsed * refillRate)
end

local allowed = 0
if tokens >= cost then
	tokens = tokens - cost
	allowed = 1
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'lastRefill', tostring(now))
redis.call('EXPIRE', key, math.ceil(windowSeconds * 1.1))
return allowed
`)

// RedisStorage shares buckets across server instances.
type RedisStorage struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStorage uses keyPrefix, or "projecthub:rate_limit:" when empty.
func NewRedisStorage(client *redis.Client, keyPrefix string) *RedisStorage {
	if keyPrefix == "" {
		keyPrefix = "projecthub:rate_limit:"
	}
	return &RedisStorage{client: client, keyPrefix: keyPrefix}
}

func (r *RedisStorage) Allow(ctx context.Context, key string, rule Rule) (bool, error) {
	window, err := ParseUnit(rule.Unit)
	if err != nil {
		return false, err
	}

	capacity := float64(rule.Limit)
	result, err := tokenBucketScript.Run(ctx, r.client, []string{bucketKey(r.keyPrefix, key, rule.Unit)},
		capacity,
		capacity/window.Seconds(),
		time.Now().UnixNano(),
		1,
		window.Seconds(),
	).Int64()
	if err != nil {
		return false, fmt.Errorf("redis rate limit check failed: %w", err)
	}
	return result == 1, nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
