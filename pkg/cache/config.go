package cache

import "time"

// CacheConfig holds configuration for cache TTL values and key layout
type CacheConfig struct {
	DeviceTTL time.Duration `json:"deviceTTL"` // registry mappings change rarely
	KeyPrefix string        `json:"keyPrefix"` // prefix for all cache keys
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DeviceTTL: 10 * time.Minute,
		KeyPrefix: "adfleet:",
	}
}
