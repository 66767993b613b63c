package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store increments the counter for key within a fixed window.
//
// Implementations must open a new window (count 1) when the key is unknown or its
// previous window has elapsed, and return the time at which the current window resets.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (count int64, resetAt time.Time, err error)
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// RetryAfter returns the time left in the current window, rounded up to the second.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	left := d.ResetAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return left.Truncate(time.Second) + time.Second
}

// Limiter applies Limit requests per Window to each key.
type Limiter struct {
	store  Store
	limit  int64
	window time.Duration
}

// NewLimiter returns a limiter backed by store.
func NewLimiter(store Store, limit int64, window time.Duration) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("rate limit store is required")
	}
	if limit < 1 {
		return nil, fmt.Errorf("rate limit must be at least 1, got %d", limit)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be greater than 0, got %s", window)
	}
	return &Limiter{store: store, limit: limit, window: window}, nil
}

func (l *Limiter) Limit() int64          { return l.limit }
func (l *Limiter) Window() time.Duration { return l.window }

// Allow counts one request for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	count, resetAt, err := l.store.Increment(ctx, key, l.window)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}
