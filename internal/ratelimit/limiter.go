package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces actions per key, one token bucket per key.
type Limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewLimiter allows perMinute actions per minute for each key. A
// non-positive perMinute disables pacing.
func NewLimiter(perMinute float64, burst int) *Limiter {
	r := rate.Inf
	if perMinute > 0 {
		r = rate.Limit(perMinute / 60.0)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

func (l *Limiter) forKey(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[key] = limiter
	}

	return limiter
}

// Wait blocks until key may act again or ctx is done.
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.forKey(key).Wait(ctx)
}

// Tokens reports how many actions key may take right now without waiting.
func (l *Limiter) Tokens(key string) float64 {
	return l.forKey(key).Tokens()
}
