package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"adfleet-backend/internal/models"

	redisClient "github.com/redis/go-redis/v9"
)

// RedisRegistryCache implements RegistryCache using Redis
type RedisRegistryCache struct {
	client *redisClient.Client
	config CacheConfig
	stats  *cacheStats
	ctx    context.Context
}

// cacheStats tracks cache performance metrics
type cacheStats struct {
	mu          sync.RWMutex
	totalHits   int64
	totalMisses int64
}

// NewRedisRegistryCache creates a new Redis-backed registry cache
func NewRedisRegistryCache(client *redisClient.Client, config CacheConfig) *RedisRegistryCache {
	return &RedisRegistryCache{
		client: client,
		config: config,
		stats:  &cacheStats{},
		ctx:    context.Background(),
	}
}

// GetDevice retrieves a device registration from cache. A miss returns
// (nil, nil), not an error.
func (r *RedisRegistryCache) GetDevice(deviceID string) (*models.DeviceRegistration, error) {
	key := r.buildKey("device", deviceID)

	data, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get device from cache: %w", err)
	}

	var registration models.DeviceRegistration
	if err := json.Unmarshal([]byte(data), &registration); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device data: %w", err)
	}

	r.recordHit()
	return &registration, nil
}

// SetDevice stores a device registration in cache with TTL
func (r *RedisRegistryCache) SetDevice(deviceID string, registration *models.DeviceRegistration, ttl time.Duration) error {
	key := r.buildKey("device", deviceID)

	data, err := json.Marshal(registration)
	if err != nil {
		return fmt.Errorf("failed to marshal device data: %w", err)
	}

	if err := r.client.Set(r.ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set device in cache: %w", err)
	}

	return nil
}

// InvalidateDevice removes a specific device registration from cache
func (r *RedisRegistryCache) InvalidateDevice(deviceID string) error {
	return r.Delete(r.buildKey("device", deviceID))
}

// Get retrieves a generic value from cache into dest
func (r *RedisRegistryCache) Get(key string, dest interface{}) error {
	data, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		if err == redisClient.Nil {
			r.recordMiss()
			return nil
		}
		return fmt.Errorf("failed to get key %s from cache: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached data for %s: %w", key, err)
	}

	r.recordHit()
	return nil
}

// Set stores a generic value in cache with TTL
func (r *RedisRegistryCache) Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal data for %s: %w", key, err)
	}

	return r.client.Set(r.ctx, key, data, ttl).Err()
}

// Delete removes a key from cache
func (r *RedisRegistryCache) Delete(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

// GetCacheStats returns current cache performance metrics
func (r *RedisRegistryCache) GetCacheStats() CacheStats {
	r.stats.mu.RLock()
	defer r.stats.mu.RUnlock()

	stats := CacheStats{
		TotalHits:   r.stats.totalHits,
		TotalMisses: r.stats.totalMisses,
	}

	total := stats.TotalHits + stats.TotalMisses
	if total > 0 {
		stats.HitRate = float64(stats.TotalHits) / float64(total)
		stats.MissRate = float64(stats.TotalMisses) / float64(total)
	}

	return stats
}

// HealthCheck verifies the Redis connection
func (r *RedisRegistryCache) HealthCheck() error {
	ctx, cancel := context.WithTimeout(r.ctx, 5*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client
func (r *RedisRegistryCache) Close() error {
	return r.client.Close()
}

func (r *RedisRegistryCache) buildKey(dataType, id string) string {
	return fmt.Sprintf("%s%s:%s", r.config.KeyPrefix, dataType, id)
}

func (r *RedisRegistryCache) recordHit() {
	r.stats.mu.Lock()
	r.stats.totalHits++
	r.stats.mu.Unlock()
}

func (r *RedisRegistryCache) recordMiss() {
	r.stats.mu.Lock()
	r.stats.totalMisses++
	r.stats.mu.Unlock()
}
