package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a per-key token bucket kept in process memory. It is used
// when no shared Redis instance is available.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	every    rate.Limit
	burst    int
}

// NewRateLimiter allows requestsPerMinute sustained plus burst extra requests
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    requestsPerMinute + burst,
	}
}

// Allow returns (allowed, remaining, resetTime, error), matching the Redis limiter
func (r *RateLimiter) Allow(_ context.Context, key string) (bool, int, time.Time, error) {
	r.mu.Lock()
	l, ok := r.limiters[key]
	if !ok {
		l = rate.NewLimiter(r.every, r.burst)
		r.limiters[key] = l
	}
	r.mu.Unlock()

	now := time.Now()
	allowed := l.AllowN(now, 1)
	remaining := int(l.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}

	reset := now
	if r.every > 0 && remaining < r.burst {
		missing := float64(r.burst) - l.TokensAt(now)
		reset = now.Add(time.Duration(missing / float64(r.every) * float64(time.Second)))
	}

	return allowed, remaining, reset, nil
}

// Reset forgets the bucket for key
func (r *RateLimiter) Reset(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.limiters, key)
	r.mu.Unlock()
	return nil
}
