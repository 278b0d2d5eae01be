package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryRateLimiter implements RateLimiter with in-process fixed windows.
// Used when Redis is unavailable; budgets then apply per process.
type MemoryRateLimiter struct {
	config  *Config
	stats   Stats
	windows map[string]*window
	mu      sync.Mutex
}

type window struct {
	count   int
	resetAt time.Time
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &MemoryRateLimiter{
		config:  config,
		windows: make(map[string]*window),
	}
}

// Allow checks whether the client still has budget in the current window.
func (m *MemoryRateLimiter) Allow(clientID string, category string) (bool, time.Duration, error) {
	if !m.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&m.stats.TotalRequests, 1)

	limit := m.config.LimitFor(category)
	key := fmt.Sprintf("%s:%s", clientID, category)
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		m.windows[key] = &window{count: 1, resetAt: now.Add(limit.Window)}
		return true, 0, nil
	}

	w.count++
	if w.count > limit.Requests {
		atomic.AddInt64(&m.stats.BlockedRequests, 1)
		return false, time.Until(w.resetAt), nil
	}

	return true, 0, nil
}

// GetStats returns current rate limiter statistics
func (m *MemoryRateLimiter) GetStats() Stats {
	return Stats{
		TotalRequests:   atomic.LoadInt64(&m.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&m.stats.BlockedRequests),
	}
}
