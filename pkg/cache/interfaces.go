package cache

import (
	"time"

	"adfleet-backend/internal/models"
)

// RegistryCache caches device-registry lookups. The device→vehicle mapping
// changes rarely but is read on every ingestion call, so entries live until
// the TTL lapses or the admin platform invalidates them explicitly.
type RegistryCache interface {
	GetDevice(deviceID string) (*models.DeviceRegistration, error)
	SetDevice(deviceID string, registration *models.DeviceRegistration, ttl time.Duration) error
	InvalidateDevice(deviceID string) error

	// Generic operations
	Get(key string, dest interface{}) error
	Set(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error

	// Statistics and health
	GetCacheStats() CacheStats
	HealthCheck() error
	Close() error
}

// CacheStats provides cache performance metrics
type CacheStats struct {
	HitRate     float64 `json:"hitRate"`
	MissRate    float64 `json:"missRate"`
	TotalHits   int64   `json:"totalHits"`
	TotalMisses int64   `json:"totalMisses"`
}
