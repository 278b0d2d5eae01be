package ratelimit

import (
	"strings"
	"time"
)

// Config holds the per-category request budgets.
type Config struct {
	Limits         map[string]Limit `json:"limits"`
	RedisKeyPrefix string           `json:"redisKeyPrefix"`
	Enabled        bool             `json:"enabled"`
}

// DefaultConfig returns the production budgets. Telemetry has to absorb two
// tablets per vehicle polling every few seconds; the archive trigger is an
// admin action and tightly capped.
func DefaultConfig() *Config {
	return &Config{
		Limits: map[string]Limit{
			"telemetry": {Requests: 600, Window: time.Minute},
			"route":     {Requests: 120, Window: time.Minute},
			"archive":   {Requests: 10, Window: time.Minute},
			"default":   {Requests: 60, Window: time.Minute},
		},
		RedisKeyPrefix: "ratelimit:",
		Enabled:        true,
	}
}

// CategoryFor maps a request path to its budget category.
func (c *Config) CategoryFor(path string) string {
	switch {
	case strings.Contains(path, "/tracking/archive"):
		return "archive"
	case strings.Contains(path, "/tracking/route"):
		return "route"
	case strings.Contains(path, "/tracking/"):
		return "telemetry"
	default:
		return "default"
	}
}

// LimitFor returns the budget for a category, falling back to default.
func (c *Config) LimitFor(category string) Limit {
	if limit, ok := c.Limits[category]; ok {
		return limit
	}
	return c.Limits["default"]
}
