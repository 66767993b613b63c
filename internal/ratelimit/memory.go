package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type window struct {
	count   int64
	resetAt time.Time
}

// MemoryStore keeps fixed-window counters in process memory.
//
// The number of tracked clients is bounded: when the cache is full the least recently
// seen client is evicted, which resets its counter.
type MemoryStore struct {
	mu      sync.Mutex
	windows *lru.Cache[string, *window]
	now     func() time.Time
}

type MemoryStoreOption func(*MemoryStore)

// WithClock replaces time.Now, used by tests to move between windows.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates a store tracking at most maxClients keys.
func NewMemoryStore(maxClients int, opts ...MemoryStoreOption) (*MemoryStore, error) {
	cache, err := lru.New[string, *window](maxClients)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit cache: %w", err)
	}

	s := &MemoryStore{
		windows: cache,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Increment implements Store.
func (s *MemoryStore) Increment(_ context.Context, key string, d time.Duration) (int64, time.Time, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows.Get(key)
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(d)}
		s.windows.Add(key, w)
	}
	w.count++

	return w.count, w.resetAt, nil
}

// Len returns the number of tracked clients.
func (s *MemoryStore) Len() int {
	return s.windows.Len()
}
