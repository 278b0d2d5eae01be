package telemetry

import (
	"os"
	"strconv"
	"time"
)

// Config bundles the tunable telemetry policies so deployments can adjust
// thresholds without code changes.
type Config struct {
	Acceptance AcceptancePolicy
	Retention  RetentionPolicy
}

// LoadConfig loads telemetry policies from environment variables, falling
// back to the production defaults.
func LoadConfig() Config {
	config := Config{
		Acceptance: DefaultAcceptancePolicy(),
		Retention:  DefaultRetentionPolicy(),
	}

	if val := os.Getenv("TELEMETRY_MIN_INTERVAL"); val != "" {
		if interval, err := time.ParseDuration(val); err == nil && interval > 0 {
			config.Acceptance.MinInterval = interval
		}
	}

	if val := os.Getenv("TELEMETRY_MIN_DISTANCE_METERS"); val != "" {
		if meters, err := strconv.ParseFloat(val, 64); err == nil && meters > 0 {
			config.Acceptance.MinDistanceMeters = meters
		}
	}

	if val := os.Getenv("TELEMETRY_AD_PLAYBACK_CAP"); val != "" {
		if cap, err := strconv.Atoi(val); err == nil && cap > 0 {
			config.Retention.AdPlaybackCap = cap
		}
	}

	if val := os.Getenv("TELEMETRY_QR_SCAN_CAP"); val != "" {
		if cap, err := strconv.Atoi(val); err == nil && cap > 0 {
			config.Retention.QRScanCap = cap
		}
	}

	return config
}
