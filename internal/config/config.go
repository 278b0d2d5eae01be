package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	MongoURI        string
	Redis           RedisConfig
	JWTSecret       string
	JWTExpiry       string
	AllowedOrigins  []string
	ArchiveInterval time.Duration
	TargetHours     float64
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

func Load() *Config {
	// load .env variables when present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173"
	}

	archiveInterval := time.Hour
	if val := os.Getenv("ARCHIVE_INTERVAL"); val != "" {
		if interval, err := time.ParseDuration(val); err == nil && interval > 0 {
			archiveInterval = interval
		}
	}

	targetHours := 8.0
	if val := os.Getenv("COMPLIANCE_TARGET_HOURS"); val != "" {
		if hours, err := strconv.ParseFloat(val, 64); err == nil && hours > 0 {
			targetHours = hours
		}
	}

	return &Config{
		Port:            port,
		MongoURI:        mongoURI,
		Redis:           loadRedisConfig(),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		JWTExpiry:       os.Getenv("JWT_EXPIRY"),
		AllowedOrigins:  strings.Split(allowedOrigins, ","),
		ArchiveInterval: archiveInterval,
		TargetHours:     targetHours,
	}
}

func loadRedisConfig() RedisConfig {
	cfg := RedisConfig{
		URL:      os.Getenv("REDIS_URL"),
		Host:     os.Getenv("REDIS_HOST"),
		Port:     os.Getenv("REDIS_PORT"),
		Password: os.Getenv("REDIS_PASSWORD"),
	}

	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == "" {
		cfg.Port = "6379"
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.DB = db
		}
	}

	return cfg
}
