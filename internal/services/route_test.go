package services

import (
	"testing"
	"time"

	"adfleet-backend/internal/models"
	"adfleet-backend/internal/registry"
	"adfleet-backend/internal/repository"

	"github.com/stretchr/testify/assert"
)

func newTestRouteService(tracking *MockTrackingStore, history *MockHistoryStore, resolver *MockDeviceResolver) *RouteService {
	service := NewRouteService(tracking, history, resolver)
	service.SetClock(func() time.Time { return testNow })
	return service
}

func historyFor(materialID string, day time.Time, points []models.LocationPoint, distanceKm float64) *models.TrackingHistory {
	return &models.TrackingHistory{
		MaterialID:            materialID,
		CarGroupID:            "GROUP-7",
		Date:                  day,
		LocationHistory:       points,
		TotalDistanceTraveled: distanceKm,
		TotalAdPlays:          5,
		TotalQRScans:          2,
		Session:               models.DailySession{TotalHoursOnline: 7.5},
	}
}

func pointAt(lng, lat float64, ts time.Time) models.LocationPoint {
	return models.LocationPoint{Coordinates: []float64{lng, lat}, Timestamp: ts}
}

func TestReconstruct_MergesAndSortsAcrossDays(t *testing.T) {
	tracking := new(MockTrackingStore)
	history := new(MockHistoryStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()

	dayOne := models.DayOf(testNow).Add(-72 * time.Hour)
	dayTwo := models.DayOf(testNow).Add(-48 * time.Hour)
	from := dayOne
	to := dayTwo

	// Day two was archived before day one; the merged polyline must still
	// come out in timestamp order.
	histories := []*models.TrackingHistory{
		historyFor(registration.MaterialID, dayTwo, []models.LocationPoint{
			pointAt(120.99, 14.61, dayTwo.Add(8*time.Hour)),
			pointAt(121.00, 14.62, dayTwo.Add(9*time.Hour)),
		}, 3.0),
		historyFor(registration.MaterialID, dayOne, []models.LocationPoint{
			pointAt(120.98, 14.60, dayOne.Add(8*time.Hour)),
		}, 2.0),
	}

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	history.On("FindRange", registration.MaterialID, from, to).Return(histories, nil)

	service := newTestRouteService(tracking, history, resolver)
	result, err := service.Reconstruct(registration.DeviceID, from, to, 0)

	assert.NoError(t, err)
	assert.Len(t, result.Route, 3)
	assert.Equal(t, 14.60, result.Route[0].Lat)
	assert.Equal(t, 120.98, result.Route[0].Lng)
	assert.True(t, result.Route[0].Timestamp.Before(result.Route[1].Timestamp))
	assert.True(t, result.Route[1].Timestamp.Before(result.Route[2].Timestamp))

	assert.Equal(t, 5.0, result.Metrics.TotalDistanceKm)
	assert.Equal(t, 10, result.Metrics.TotalAdPlays)
	assert.Equal(t, 4, result.Metrics.TotalQRScans)
	assert.Equal(t, 15.0, result.Metrics.TotalHoursOnline)
	assert.Equal(t, 2, result.Metrics.RecordCount)
	assert.Equal(t, dayOne, result.Metrics.DateRange.From)
	assert.Equal(t, dayTwo, result.Metrics.DateRange.To)
}

func TestReconstruct_IncludesOpenToday(t *testing.T) {
	tracking := new(MockTrackingStore)
	history := new(MockHistoryStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()

	today := models.DayOf(testNow)
	yesterday := today.Add(-24 * time.Hour)

	open := testOpenRecord(registration)
	open.Date = today
	open.LocationHistory = []models.LocationPoint{pointAt(121.01, 14.63, today.Add(6*time.Hour))}
	open.TotalDistanceTraveled = 1.5

	histories := []*models.TrackingHistory{
		historyFor(registration.MaterialID, yesterday, []models.LocationPoint{
			pointAt(120.98, 14.60, yesterday.Add(8*time.Hour)),
		}, 2.0),
	}

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	history.On("FindRange", registration.MaterialID, yesterday, today).Return(histories, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, today).Return(open, nil)

	service := newTestRouteService(tracking, history, resolver)
	result, err := service.Reconstruct(registration.DeviceID, yesterday, today, 0)

	assert.NoError(t, err)
	assert.Len(t, result.Route, 2)
	assert.Equal(t, 3.5, result.Metrics.TotalDistanceKm)
	assert.Equal(t, 2, result.Metrics.RecordCount)
	assert.Equal(t, today, result.Metrics.DateRange.To)
}

func TestReconstruct_NoOpenRecordIsNotAnError(t *testing.T) {
	tracking := new(MockTrackingStore)
	history := new(MockHistoryStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()

	today := models.DayOf(testNow)
	yesterday := today.Add(-24 * time.Hour)

	histories := []*models.TrackingHistory{
		historyFor(registration.MaterialID, yesterday, []models.LocationPoint{
			pointAt(120.98, 14.60, yesterday.Add(8*time.Hour)),
		}, 2.0),
	}

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	history.On("FindRange", registration.MaterialID, yesterday, today).Return(histories, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, today).Return(nil, repository.ErrNotFound)

	service := newTestRouteService(tracking, history, resolver)
	result, err := service.Reconstruct(registration.DeviceID, yesterday, today, 0)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Metrics.RecordCount)
}

func TestReconstruct_EmptyRangeReturnsNoData(t *testing.T) {
	tracking := new(MockTrackingStore)
	history := new(MockHistoryStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()

	from := models.DayOf(testNow).Add(-10 * 24 * time.Hour)
	to := models.DayOf(testNow).Add(-8 * 24 * time.Hour)

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	history.On("FindRange", registration.MaterialID, from, to).Return([]*models.TrackingHistory{}, nil)

	service := newTestRouteService(tracking, history, resolver)
	_, err := service.Reconstruct(registration.DeviceID, from, to, 0)

	assert.ErrorIs(t, err, ErrNoData)
}

func TestReconstruct_LimitTrimsPolylineNotMetrics(t *testing.T) {
	tracking := new(MockTrackingStore)
	history := new(MockHistoryStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()

	day := models.DayOf(testNow).Add(-48 * time.Hour)
	points := []models.LocationPoint{
		pointAt(120.98, 14.60, day.Add(1*time.Hour)),
		pointAt(120.99, 14.61, day.Add(2*time.Hour)),
		pointAt(121.00, 14.62, day.Add(3*time.Hour)),
		pointAt(121.01, 14.63, day.Add(4*time.Hour)),
	}

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	history.On("FindRange", registration.MaterialID, day, day).
		Return([]*models.TrackingHistory{historyFor(registration.MaterialID, day, points, 6.0)}, nil)

	service := newTestRouteService(tracking, history, resolver)
	result, err := service.Reconstruct(registration.DeviceID, day, day, 2)

	assert.NoError(t, err)
	// The two most recent points survive; metrics still cover all four.
	assert.Len(t, result.Route, 2)
	assert.Equal(t, 14.62, result.Route[0].Lat)
	assert.Equal(t, 14.63, result.Route[1].Lat)
	assert.Equal(t, 4, result.Metrics.PointCount)
	assert.Equal(t, 6.0, result.Metrics.TotalDistanceKm)
	assert.Equal(t, 2.0, result.Metrics.AverageSpeedKmh)
}

func TestReconstruct_UnregisteredDevice(t *testing.T) {
	resolver := new(MockDeviceResolver)
	resolver.On("Resolve", "unknown-device").Return(nil, registry.ErrNotRegistered)

	service := newTestRouteService(new(MockTrackingStore), new(MockHistoryStore), resolver)
	_, err := service.Reconstruct("unknown-device", testNow, testNow, 0)

	assert.ErrorIs(t, err, registry.ErrNotRegistered)
}
