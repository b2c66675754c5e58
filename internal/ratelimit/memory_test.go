package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiterAllow(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Window: time.Minute, MaxRequests: 3})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !allowed {
			t.Errorf("request %d: allowed = false, want true", i)
		}
	}

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if allowed {
		t.Error("request 4: allowed = true, want false")
	}

	// A different client has its own budget.
	allowed, err = limiter.Allow(ctx, "10.0.0.2")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !allowed {
		t.Error("other client: allowed = false, want true")
	}
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Window: 10 * time.Millisecond, MaxRequests: 1})
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "client"); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "client"); allowed {
		t.Fatal("second request within window should be denied")
	}

	time.Sleep(20 * time.Millisecond)

	if allowed, _ := limiter.Allow(ctx, "client"); !allowed {
		t.Error("request after window reset should be allowed")
	}
}

func TestMemoryLimiterCleanup(t *testing.T) {
	limiter := NewMemoryLimiter(Config{Window: time.Millisecond, MaxRequests: 1})

	_, _ = limiter.Allow(context.Background(), "client")
	time.Sleep(5 * time.Millisecond)
	limiter.cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.windows) != 0 {
		t.Errorf("windows remaining after cleanup = %d, want 0", len(limiter.windows))
	}
}
