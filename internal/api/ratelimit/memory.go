package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStorage keeps buckets in process. Buckets idle for two windows are swept.
type MemoryStorage struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	now     func() time.Time

	sweep *time.Ticker
	stop  chan struct{}
	once  sync.Once
}

func NewMemoryStorage() *MemoryStorage {
	s := &MemoryStorage{
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
		sweep:   time.NewTicker(5 * time.Minute),
		stop:    make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *MemoryStorage) Allow(_ context.Context, key string, rule Rule) (bool, error) {
	window, err := ParseUnit(rule.Unit)
	if err != nil {
		return false, err
	}

	now := s.now()
	k := bucketKey("", key, rule.Unit)

	s.mu.Lock()
	bucket, ok := s.buckets[k]
	if !ok {
		bucket = newTokenBucket(float64(rule.Limit), window, now)
		s.buckets[k] = bucket
	}
	s.mu.Unlock()

	return bucket.consume(1, now), nil
}

// Close stops the sweeper.
func (s *MemoryStorage) Close() error {
	s.once.Do(func() {
		s.sweep.Stop()
		close(s.stop)
	})
	return nil
}

func (s *MemoryStorage) sweepLoop() {
	for {
		select {
		case <-s.sweep.C:
			s.removeIdle()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStorage) removeIdle() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, bucket := range s.buckets {
		if bucket.idleSince(now) > 2*bucket.window {
			delete(s.buckets, key)
		}
	}
}
