// Package ratelimit throttles requests per caller with token buckets kept in memory or Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/curaious/projecthub/internal/config"
)

// Rule allows Limit requests per Unit window. Limit 0 disables limiting.
type Rule struct {
	Limit int
	Unit  string
}

// Storage consumes one token from the bucket identified by key.
type Storage interface {
	Allow(ctx context.Context, key string, rule Rule) (bool, error)
}

type Limiter struct {
	storage Storage
	rule    Rule
}

func NewLimiter(storage Storage, rule Rule) *Limiter {
	return &Limiter{storage: storage, rule: rule}
}

// New builds the limiter configured by RATE_LIMIT, RATE_LIMIT_UNIT and REDIS_URL. It returns
// nil when limiting is disabled.
func New(conf *config.Config) (*Limiter, error) {
	if conf.RATE_LIMIT <= 0 {
		return nil, nil
	}
	if _, err := ParseUnit(conf.RATE_LIMIT_UNIT); err != nil {
		return nil, err
	}
	rule := Rule{Limit: conf.RATE_LIMIT, Unit: conf.RATE_LIMIT_UNIT}

	if conf.REDIS_URL == "" {
		return NewLimiter(NewMemoryStorage(), rule), nil
	}

	opts, err := redis.ParseURL(conf.REDIS_URL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	return NewLimiter(NewRedisStorage(redis.NewClient(opts), ""), rule), nil
}

// Allow reports whether the caller identified by key may proceed.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rule.Limit <= 0 {
		return true, nil
	}
	return l.storage.Allow(ctx, key, l.rule)
}

// Close releases the storage when it holds resources.
func (l *Limiter) Close() error {
	if l == nil {
		return nil
	}
	if c, ok := l.storage.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// ParseUnit converts a window unit to a duration.
// Supported units: 1s, 1min, 1h, 6h, 12h, 1d.
func ParseUnit(unit string) (time.Duration, error) {
	switch unit {
	case "1s":
		return time.Second, nil
	case "1min":
		return time.Minute, nil
	case "1h":
		return time.Hour, nil
	case "6h":
		return 6 * time.Hour, nil
	case "12h":
		return 12 * time.Hour, nil
	case "1d":
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported rate limit unit: %s", unit)
	}
}

func bucketKey(prefix, key, unit string) string {
	return fmt.Sprintf("%s%s:%s", prefix, key, unit)
}
