package telemetry

import (
	"time"

	"adfleet-backend/internal/models"
	"adfleet-backend/pkg/geo"
)

// AcceptancePolicy decides whether an incoming GPS fix is worth persisting.
// Low-cost receivers emit jittery, occasionally degraded fixes; storing every
// one of them bloats the per-day document and produces jagged routes. A fix
// is kept when it is better, meaningfully newer, or meaningfully different
// than the current one.
type AcceptancePolicy struct {
	MinInterval       time.Duration // refresh even without movement
	MinDistanceMeters float64       // genuine movement always recorded
}

// DefaultAcceptancePolicy returns the thresholds used in production.
func DefaultAcceptancePolicy() AcceptancePolicy {
	return AcceptancePolicy{
		MinInterval:       30 * time.Second,
		MinDistanceMeters: 10.0,
	}
}

// ShouldStore reports whether incoming supersedes current. It never errors;
// a rejected fix is a silent no-op and the next poll brings a fresh one.
func (p AcceptancePolicy) ShouldStore(current, incoming *models.LocationPoint) bool {
	if current == nil {
		return true
	}

	// A strictly more precise fix supersedes a noisier one regardless of time.
	if incoming.Accuracy < current.Accuracy {
		return true
	}

	elapsed := incoming.Timestamp.Sub(current.Timestamp)
	if elapsed > p.MinInterval {
		return true
	}

	moved := geo.DistanceMeters(current.Lat(), current.Lng(), incoming.Lat(), incoming.Lng())
	return moved > p.MinDistanceMeters
}
