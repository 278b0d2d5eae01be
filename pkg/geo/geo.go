package geo

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates
// in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceMeters returns the same distance in meters.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return HaversineKm(lat1, lng1, lat2, lng2) * 1000
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RouteMetrics holds derived figures for a reconstructed route.
type RouteMetrics struct {
	TotalDistanceKm float64 `json:"totalDistance"`
	DurationSeconds float64 `json:"totalDuration"`
	AverageSpeedKmh float64 `json:"averageSpeed"`
	PointCount      int     `json:"pointCount"`
}

// ComputeRouteMetrics derives duration and average speed for a set of
// time-ordered points. Distance is supplied by the caller (summed from the
// per-day records) rather than re-integrated from the points. Duration and
// speed are zero when fewer than two points exist.
func ComputeRouteMetrics(totalDistanceKm float64, first, last time.Time, pointCount int) RouteMetrics {
	m := RouteMetrics{
		TotalDistanceKm: totalDistanceKm,
		PointCount:      pointCount,
	}

	if pointCount < 2 {
		return m
	}

	m.DurationSeconds = last.Sub(first).Seconds()
	if m.DurationSeconds > 0 {
		m.AverageSpeedKmh = totalDistanceKm / m.DurationSeconds * 3600
	}

	return m
}
