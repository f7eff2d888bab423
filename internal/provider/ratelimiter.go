package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket: up to burst calls at once, then one more
// call per refill interval.
type RateLimiter struct {
	mu     sync.Mutex
	tokens int
	burst  int
	every  time.Duration
	last   time.Time
	now    func() time.Time
}

// NewRateLimiter returns a full bucket of burst tokens refilled one at a
// time every interval.
func NewRateLimiter(burst int, every time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		tokens: burst,
		burst:  burst,
		every:  every,
		last:   time.Now(),
		now:    time.Now,
	}
}

// Wait takes a token, sleeping until one is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		wait := r.take()
		if wait == 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes a token and returns 0, or returns how long until the next
// token is due.
func (r *RateLimiter) take() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.every > 0 {
		if n := int(now.Sub(r.last) / r.every); n > 0 {
			r.tokens = min(r.burst, r.tokens+n)
			r.last = r.last.Add(time.Duration(n) * r.every)
		}
	} else {
		r.tokens = r.burst
	}
	if r.tokens > 0 {
		r.tokens--
		return 0
	}
	return max(r.last.Add(r.every).Sub(now), time.Millisecond)
}
