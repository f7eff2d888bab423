package provider

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterBurst(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := limiter.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Fatal("burst waits should return immediately")
	}
}

func TestRateLimiterRefillsFromClock(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, time.Second)
	limiter.last = now
	limiter.now = func() time.Time { return now }

	if wait := limiter.take(); wait != 0 {
		t.Fatalf("expected a token, got wait %s", wait)
	}
	now = now.Add(400 * time.Millisecond)
	if wait := limiter.take(); wait != 600*time.Millisecond {
		t.Fatalf("expected 600ms wait, got %s", wait)
	}
	now = now.Add(5 * time.Second)
	if wait := limiter.take(); wait != 0 {
		t.Fatalf("expected refilled token, got wait %s", wait)
	}
	if wait := limiter.take(); wait == 0 {
		t.Fatal("refill must not exceed the burst size")
	}
}

func TestRateLimiterHonorsContext(t *testing.T) {
	limiter := NewRateLimiter(1, time.Hour)
	_ = limiter.Wait(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := limiter.Wait(ctx); err == nil {
		t.Fatal("expected context deadline error")
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatal("wait should stop after context cancellation")
	}
}
