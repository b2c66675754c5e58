package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter implements Limiter using in-memory counters.
// This is suitable for single-node deployments. The counters are NOT shared
// across process restarts or multiple instances.
type MemoryLimiter struct {
	cfg     Config
	mu      sync.Mutex
	windows map[string]*window
}

// window is one key's counter for the current fixed window.
type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryLimiter creates a new in-memory limiter.
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	ml := &MemoryLimiter{
		cfg:     cfg,
		windows: make(map[string]*window),
	}

	// Start a background goroutine to clean up expired windows.
	go ml.cleanupLoop()

	return ml
}

// cleanupLoop periodically removes expired windows.
func (m *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.cleanup()
	}
}

// cleanup removes expired windows.
func (m *MemoryLimiter) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for key, w := range m.windows {
		if now.After(w.resetAt) {
			delete(m.windows, key)
		}
	}
}

// Allow records one request for the key and reports whether it fits.
func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	w, exists := m.windows[key]
	if !exists || now.After(w.resetAt) {
		m.windows[key] = &window{count: 1, resetAt: now.Add(m.cfg.Window)}
		return true, nil
	}

	w.count++
	return w.count <= m.cfg.MaxRequests, nil
}
