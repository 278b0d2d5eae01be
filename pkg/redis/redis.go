package redis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"adfleet-backend/internal/config"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	client      *redis.Client
	config      config.RedisConfig
	mu          sync.RWMutex
	isConnected bool
}

type HealthStatus struct {
	IsConnected    bool          `json:"isConnected"`
	LastPing       time.Time     `json:"lastPing"`
	ResponseTime   time.Duration `json:"responseTime"`
	ConnectionInfo string        `json:"connectionInfo"`
	Error          string        `json:"error,omitempty"`
}

// NewClient creates a new Redis client with connection pooling
func NewClient(cfg config.RedisConfig) *Client {
	c := &Client{config: cfg}

	if cfg.URL != "" {
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			log.Printf("Failed to parse Redis URL: %v, falling back to host:port", err)
			c.client = redis.NewClient(c.hostPortOptions())
		} else {
			c.client = redis.NewClient(opt)
		}
	} else {
		c.client = redis.NewClient(c.hostPortOptions())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection test failed: %v", err)
	} else {
		c.mu.Lock()
		c.isConnected = true
		c.mu.Unlock()
	}

	return c
}

func (c *Client) hostPortOptions() *redis.Options {
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", c.config.Host, c.config.Port),
		Password: c.config.Password,
		DB:       c.config.DB,
	}
}

// GetClient returns the Redis client instance
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// IsConnected returns the connection status seen by the last health check
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// HealthCheck performs a ping and returns detailed status
func (c *Client) HealthCheck() HealthStatus {
	status := HealthStatus{
		ConnectionInfo: fmt.Sprintf("%s:%s", c.config.Host, c.config.Port),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := c.client.Ping(ctx).Err()
	status.ResponseTime = time.Since(start)
	status.LastPing = time.Now()

	c.mu.Lock()
	c.isConnected = (err == nil)
	c.mu.Unlock()

	status.IsConnected = (err == nil)
	if err != nil {
		status.Error = err.Error()
	}

	return status
}

// GetConnectionStats returns connection pool statistics
func (c *Client) GetConnectionStats() map[string]interface{} {
	stats := c.client.PoolStats()
	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"totalConns":  stats.TotalConns,
		"idleConns":   stats.IdleConns,
		"staleConns":  stats.StaleConns,
		"isConnected": c.IsConnected(),
	}
}

// Close shuts down the Redis client
func (c *Client) Close() error {
	return c.client.Close()
}
