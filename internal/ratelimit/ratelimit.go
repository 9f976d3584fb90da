// Package ratelimit paces outbound requests with one token bucket per
// destination. Waiting delays a request; it never drops one.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter manages per-key token buckets. A nil *Limiter never limits.
type Limiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// New creates a limiter allowing limit events per second per key with the
// given burst.
func New(limit rate.Limit, burst int) *Limiter {
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

// PerMinute creates a limiter admitting n requests per minute per key, with a
// burst of one. It returns nil when n is not positive.
func PerMinute(n int) *Limiter {
	if n <= 0 {
		return nil
	}
	return New(rate.Every(time.Minute/time.Duration(n)), 1)
}

// Wait blocks until a request for key is allowed or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l == nil {
		return nil
	}
	return l.get(key).Wait(ctx)
}

func (l *Limiter) get(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[key]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok = l.limiters[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.limit, l.burst)
	l.limiters[key] = limiter
	return limiter
}
