// Package ratelimit provides fixed-window request rate limiting for the
// API surface, with local and Redis-backed counters.
package ratelimit

import (
	"context"
	"time"
)

// Limiter counts requests per key over a fixed window.
type Limiter interface {
	// Allow records one request for the key and reports whether it is
	// still within the window's budget.
	Allow(ctx context.Context, key string) (bool, error)
}

// Config holds the window shape shared by all limiter implementations.
type Config struct {
	// Window is the fixed counting window.
	Window time.Duration

	// MaxRequests is the per-key ceiling within one window.
	MaxRequests int
}
