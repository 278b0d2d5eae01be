package routes

import (
	"adfleet-backend/internal/api/handlers"
	"adfleet-backend/internal/api/middleware"
	"adfleet-backend/internal/config"
	"adfleet-backend/internal/registry"
	"adfleet-backend/internal/repository"
	"adfleet-backend/internal/services"
	"adfleet-backend/pkg/cache"
	"adfleet-backend/pkg/ratelimit"
	"adfleet-backend/pkg/redis"
	"adfleet-backend/pkg/telemetry"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRoutes wires repositories, services, and handlers onto the router.
// The archive service is returned so the caller can hand it to the scheduler.
func SetupRoutes(router *gin.Engine, db *mongo.Database, redisClient *redis.Client, cfg *config.Config) *services.ArchiveService {
	// Initialize repositories
	trackingRepo := repository.NewTrackingRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	// Initialize the device registry with a Redis read-through cache when
	// Redis is reachable; lookups fall back to MongoDB either way.
	registryService := registry.NewService(deviceRepo)
	if redisClient != nil && redisClient.IsConnected() {
		cacheConfig := cache.DefaultCacheConfig()
		registryService.SetCache(cache.NewRedisRegistryCache(redisClient.GetClient(), cacheConfig))
		registryService.SetCacheConfig(cacheConfig)
	}

	// Initialize services
	ingestService := services.NewIngestService(trackingRepo, registryService, telemetry.LoadConfig(), cfg.TargetHours)
	archiveService := services.NewArchiveService(trackingRepo, historyRepo)
	routeService := services.NewRouteService(trackingRepo, historyRepo, registryService)

	// Initialize handlers
	trackingHandler := handlers.NewTrackingHandler(ingestService)
	routeHandler := handlers.NewRouteHandler(routeService)
	archiveHandler := handlers.NewArchiveHandler(archiveService)
	healthHandler := handlers.NewHealthHandler(db, redisClient)

	// Rate limiting shares the Redis instance across replicas and falls back
	// to per-process windows when Redis is down.
	rateLimitConfig := ratelimit.DefaultConfig()
	var limiter ratelimit.RateLimiter
	if redisClient != nil && redisClient.IsConnected() {
		limiter = ratelimit.NewRedisRateLimiter(redisClient.GetClient(), rateLimitConfig)
	} else {
		limiter = ratelimit.NewMemoryRateLimiter(rateLimitConfig)
	}

	router.GET("/health", healthHandler.HealthCheck)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(limiter, rateLimitConfig))

	tracking := api.Group("/tracking")
	{
		tracking.POST("/location", trackingHandler.UpdateLocation)
		tracking.POST("/status", trackingHandler.UpdateStatus)
		tracking.POST("/ad-playback", trackingHandler.RecordAdPlayback)
		tracking.POST("/qr-scan", trackingHandler.RecordQRScan)

		tracking.GET("/route/:deviceId", routeHandler.GetRoute)
		tracking.GET("/status/:materialId", trackingHandler.GetVehicleStatus)

		// Archive administration
		admin := tracking.Group("/archive")
		admin.Use(middleware.AuthMiddleware(), middleware.RequireAdmin())
		{
			admin.POST("", archiveHandler.TriggerArchive)
			admin.GET("/status", archiveHandler.GetArchiveStatus)
		}
	}

	return archiveService
}
