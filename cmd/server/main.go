package main

import (
	"log"

	"adfleet-backend/internal/api/routes"
	"adfleet-backend/internal/config"
	"adfleet-backend/internal/repository"
	"adfleet-backend/pkg/database"
	"adfleet-backend/pkg/redis"
	"adfleet-backend/pkg/scheduler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to MongoDB
	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Disconnect(db.Client())

	// Ensure collection indexes, including the unique (material_id, date)
	// keys that archival idempotency relies on
	if err := repository.NewTrackingRepository(db).CreateIndexes(); err != nil {
		log.Printf("Warning: failed to create tracking indexes: %v", err)
	}
	if err := repository.NewHistoryRepository(db).CreateIndexes(); err != nil {
		log.Printf("Warning: failed to create history indexes: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(cfg.Redis)
	defer redisClient.Close()

	healthStatus := redisClient.HealthCheck()
	if healthStatus.IsConnected {
		log.Printf("Redis connected successfully at %s", healthStatus.ConnectionInfo)
	} else {
		log.Printf("Redis connection failed: %s (caching and shared rate limits disabled)", healthStatus.Error)
	}

	// Setup Gin router
	router := gin.Default()

	// CORS middleware
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Device-ID"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false // Cannot use credentials with AllowAllOrigins
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}

	router.Use(cors.New(corsConfig))

	// Setup routes
	archiveService := routes.SetupRoutes(router, db, redisClient, cfg)

	// Background archival of closed days
	archiveScheduler := scheduler.New(scheduler.JobFunc(func() error {
		result, err := archiveService.Run()
		if err != nil {
			return err
		}
		if result.Archived > 0 || result.Skipped > 0 {
			log.Printf("Archival pass: %d archived, %d skipped", result.Archived, result.Skipped)
		}
		return nil
	}), cfg.ArchiveInterval)
	go archiveScheduler.Start()
	defer archiveScheduler.Stop()

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(router.Run(":" + cfg.Port))
}
