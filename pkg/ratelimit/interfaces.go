package ratelimit

import "time"

// RateLimiter bounds how often a client may hit an endpoint category.
type RateLimiter interface {
	Allow(clientID string, category string) (
		allowed bool, retryAfter time.Duration, err error)
	GetStats() Stats
}

// Limit is a fixed-window request budget.
type Limit struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
}

// Stats provides statistics about rate limiting
type Stats struct {
	TotalRequests   int64 `json:"totalRequests"`
	BlockedRequests int64 `json:"blockedRequests"`
}
