package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/projecthub/internal/config"
)

func TestTokenBucket_RefillsOverTime(t *testing.T) {
	start := time.Now()
	tb := newTokenBucket(2, time.Minute, start)

	assert.True(t, tb.consume(1, start))
	assert.True(t, tb.consume(1, start))
	assert.False(t, tb.consume(1, start))

	assert.False(t, tb.consume(1, start.Add(10*time.Second)))
	assert.True(t, tb.consume(1, start.Add(40*time.Second)))
}

func TestMemoryStorage_PerKey(t *testing.T) {
	s := NewMemoryStorage()
	t.Cleanup(func() { _ = s.Close() })
	frozen := time.Now()
	s.now = func() time.Time { return frozen }

	l := NewLimiter(s, Rule{Limit: 1, Unit: "1min"})
	ctx := context.Background()

	ok, err := l.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Allow(ctx, "user:1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "user:2")
	assert.True(t, ok, "buckets are independent per key")
}

func TestMemoryStorage_RemovesIdleBuckets(t *testing.T) {
	s := NewMemoryStorage()
	t.Cleanup(func() { _ = s.Close() })
	now := time.Now()
	s.now = func() time.Time { return now }

	_, err := s.Allow(context.Background(), "ip:10.0.0.1", Rule{Limit: 5, Unit: "1s"})
	require.NoError(t, err)

	now = now.Add(3 * time.Second)
	s.removeIdle()
	assert.Empty(t, s.buckets)
}

func TestLimiter_NilAllowsEverything(t *testing.T) {
	var l *Limiter
	ok, err := l.Allow(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.Close())
}

func TestNew(t *testing.T) {
	l, err := New(&config.Config{RATE_LIMIT: 0})
	require.NoError(t, err)
	assert.Nil(t, l)

	_, err = New(&config.Config{RATE_LIMIT: 10, RATE_LIMIT_UNIT: "fortnight"})
	assert.Error(t, err)

	l, err = New(&config.Config{RATE_LIMIT: 10, RATE_LIMIT_UNIT: "1min"})
	require.NoError(t, err)
	_, isMemory := l.storage.(*MemoryStorage)
	assert.True(t, isMemory)
	require.NoError(t, l.Close())

	_, err = New(&config.Config{RATE_LIMIT: 10, RATE_LIMIT_UNIT: "1min", REDIS_URL: "not a url"})
	assert.Error(t, err)
}

func TestRedisStorage_UnreachableIsAnError(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	s := NewRedisStorage(client, "")
	t.Cleanup(func() { _ = s.Close() })

	_, err := s.Allow(context.Background(), "user:1", Rule{Limit: 1, Unit: "1min"})
	assert.Error(t, err)
}
