package services

import (
	"errors"
	"sort"
	"time"

	"adfleet-backend/internal/models"
	"adfleet-backend/internal/repository"
	"adfleet-backend/pkg/geo"
)

// RouteService reconstructs multi-day routes from the history collection
// plus the still-open today record.
type RouteService struct {
	tracking TrackingStore
	history  HistoryStore
	resolver DeviceResolver
	now      func() time.Time
}

func NewRouteService(tracking TrackingStore, history HistoryStore, resolver DeviceResolver) *RouteService {
	return &RouteService{
		tracking: tracking,
		history:  history,
		resolver: resolver,
		now:      time.Now,
	}
}

// SetClock overrides the time source for tests.
func (s *RouteService) SetClock(now func() time.Time) {
	s.now = now
}

// RoutePoint is the public {lat, lng} shape; storage keeps [lng, lat].
type RoutePoint struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Timestamp time.Time `json:"timestamp"`
	Speed     float64   `json:"speed"`
	Heading   float64   `json:"heading"`
	Accuracy  float64   `json:"accuracy"`
	Address   string    `json:"address,omitempty"`
}

type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type RouteSummary struct {
	geo.RouteMetrics
	TotalAdPlays     int       `json:"totalAdPlays"`
	TotalQRScans     int       `json:"totalQRScans"`
	TotalHoursOnline float64   `json:"totalHoursOnline"`
	RecordCount      int       `json:"recordCount"`
	DateRange        DateRange `json:"dateRange"`
}

type RouteResponse struct {
	DeviceID   string       `json:"deviceId"`
	MaterialID string       `json:"materialId"`
	CarGroupID string       `json:"carGroupId"`
	Route      []RoutePoint `json:"route"`
	Metrics    RouteSummary `json:"metrics"`
}

// dayRecord is the slice of one day's data the reconstruction needs,
// regardless of whether it came from history or the open record.
type dayRecord struct {
	date        time.Time
	points      []models.LocationPoint
	distanceKm  float64
	adPlays     int
	qrScans     int
	hoursOnline float64
}

// Reconstruct builds the route for a device's vehicle-group over [from, to].
// Records may have been archived out of order, so the combined points are
// re-sorted by timestamp. limit > 0 trims the returned polyline to the most
// recent points; the metrics still cover the whole range.
func (s *RouteService) Reconstruct(deviceID string, from, to time.Time, limit int) (*RouteResponse, error) {
	registration, err := s.resolver.Resolve(deviceID)
	if err != nil {
		return nil, err
	}

	from = models.DayOf(from)
	if to.IsZero() {
		to = s.now()
	}
	to = models.DayOf(to)

	var days []dayRecord

	histories, err := s.history.FindRange(registration.MaterialID, from, to)
	if err != nil {
		return nil, err
	}
	for _, h := range histories {
		days = append(days, dayRecord{
			date:        h.Date,
			points:      h.LocationHistory,
			distanceKm:  h.TotalDistanceTraveled,
			adPlays:     h.TotalAdPlays,
			qrScans:     h.TotalQRScans,
			hoursOnline: h.Session.TotalHoursOnline,
		})
	}

	today := models.DayOf(s.now())
	if !today.Before(from) && !today.After(to) {
		open, err := s.tracking.FindOpenByMaterial(registration.MaterialID, today)
		if err == nil {
			days = append(days, dayRecord{
				date:        open.Date,
				points:      open.LocationHistory,
				distanceKm:  open.TotalDistanceTraveled,
				adPlays:     open.TotalAdPlays,
				qrScans:     open.TotalQRScans,
				hoursOnline: open.CurrentSession.TotalHoursOnline,
			})
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	// Callers distinguish "no history" from an empty route.
	if len(days) == 0 {
		return nil, ErrNoData
	}

	summary := RouteSummary{RecordCount: len(days)}
	summary.DateRange = DateRange{From: days[0].date, To: days[0].date}

	var points []models.LocationPoint
	for _, day := range days {
		points = append(points, day.points...)
		summary.TotalDistanceKm += day.distanceKm
		summary.TotalAdPlays += day.adPlays
		summary.TotalQRScans += day.qrScans
		summary.TotalHoursOnline += day.hoursOnline

		if day.date.Before(summary.DateRange.From) {
			summary.DateRange.From = day.date
		}
		if day.date.After(summary.DateRange.To) {
			summary.DateRange.To = day.date
		}
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	var first, last time.Time
	if len(points) > 0 {
		first = points[0].Timestamp
		last = points[len(points)-1].Timestamp
	}
	summary.RouteMetrics = geo.ComputeRouteMetrics(summary.TotalDistanceKm, first, last, len(points))

	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}

	route := make([]RoutePoint, 0, len(points))
	for i := range points {
		p := &points[i]
		route = append(route, RoutePoint{
			Lat:       p.Lat(),
			Lng:       p.Lng(),
			Timestamp: p.Timestamp,
			Speed:     p.Speed,
			Heading:   p.Heading,
			Accuracy:  p.Accuracy,
			Address:   p.Address,
		})
	}

	return &RouteResponse{
		DeviceID:   registration.DeviceID,
		MaterialID: registration.MaterialID,
		CarGroupID: registration.CarGroupID,
		Route:      route,
		Metrics:    summary,
	}, nil
}
