package handlers

import (
	"net/http"
	"time"

	"adfleet-backend/pkg/database"
	"adfleet-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthHandler struct {
	db          *mongo.Database
	redisClient *redis.Client
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

func NewHealthHandler(db *mongo.Database, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		db:          db,
		redisClient: redisClient,
	}
}

// HealthCheck reports MongoDB and Redis connectivity. Redis is optional
// infrastructure, so a missing client degrades the report without failing it.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  make(map[string]interface{}),
	}

	healthy := true

	mongoStatus := map[string]interface{}{"healthy": false}
	if h.db == nil {
		mongoStatus["error"] = "database client not initialized"
		healthy = false
	} else if err := database.Health(h.db); err != nil {
		mongoStatus["error"] = err.Error()
		healthy = false
	} else {
		mongoStatus["healthy"] = true
	}
	response.Services["mongodb"] = mongoStatus

	redisStatus := map[string]interface{}{"healthy": false}
	if h.redisClient == nil {
		redisStatus["error"] = "not configured"
	} else {
		hs := h.redisClient.HealthCheck()
		redisStatus["healthy"] = hs.IsConnected
		redisStatus["connectionInfo"] = hs.ConnectionInfo
		redisStatus["responseTime"] = hs.ResponseTime.String()
		if hs.Error != "" {
			redisStatus["error"] = hs.Error
		}
		redisStatus["connectionStats"] = h.redisClient.GetConnectionStats()
	}
	response.Services["redis"] = redisStatus

	if healthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
		return
	}

	response.Status = "unhealthy"
	c.JSON(http.StatusServiceUnavailable, response)
}
