package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"adfleet-backend/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware enforces the per-category request budgets. Tablets
// identify themselves by deviceId; everything else falls back to client IP.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, config *ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := getClientID(c)
		category := config.CategoryFor(c.Request.URL.Path)

		allowed, retryAfter, err := limiter.Allow(clientID, category)
		if err != nil {
			// Never block ingestion on a limiter outage.
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}

		limit := config.LimitFor(category)
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"message":    fmt.Sprintf("Too many requests. Try again in %v", retryAfter),
				"retryAfter": int(retryAfter.Seconds()),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getClientID(c *gin.Context) string {
	if deviceID := c.GetHeader("X-Device-ID"); deviceID != "" {
		return deviceID
	}
	return c.ClientIP()
}
