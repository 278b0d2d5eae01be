package services

import (
	"testing"
	"time"

	"adfleet-backend/internal/models"
	"adfleet-backend/internal/registry"
	"adfleet-backend/internal/repository"
	"adfleet-backend/pkg/telemetry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testRegistration() *models.DeviceRegistration {
	return &models.DeviceRegistration{
		ID:         primitive.NewObjectID(),
		DeviceID:   "a1b2c3d4-0000-4000-8000-1234567890ab",
		MaterialID: "DGL-CAR-042",
		CarGroupID: "GROUP-7",
		SlotNumber: 1,
	}
}

func testOpenRecord(registration *models.DeviceRegistration) *models.VehicleTracking {
	record := models.NewVehicleTracking(
		registration.MaterialID,
		registration.CarGroupID,
		models.DayOf(testNow),
		registration.SlotNumber,
		registration.DeviceID,
		models.DeviceInfo{},
		8.0,
	)
	record.ID = primitive.NewObjectID()
	return record
}

func newTestIngestService(tracking *MockTrackingStore, resolver *MockDeviceResolver) *IngestService {
	config := telemetry.Config{
		Acceptance: telemetry.DefaultAcceptancePolicy(),
		Retention:  telemetry.DefaultRetentionPolicy(),
	}
	service := NewIngestService(tracking, resolver, config, 8.0)
	service.SetClock(func() time.Time { return testNow })
	return service
}

func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool { return &b }

func TestHandleLocation_FirstFixAccepted(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)
	record.CurrentLocation = nil

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)
	tracking.On("AppendLocation", record.ID, mock.AnythingOfType("models.LocationPoint"), 0.0).Return(nil)

	service := newTestIngestService(tracking, resolver)
	result, err := service.HandleLocation(&LocationUpdateRequest{
		DeviceID:   registration.DeviceID,
		MaterialID: registration.MaterialID,
		Lat:        floatPtr(14.5995),
		Lng:        floatPtr(120.9842),
		Accuracy:   12.0,
	})

	assert.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.NotNil(t, result.CurrentLocation)
	assert.Equal(t, 120.9842, result.CurrentLocation.Lng())
	assert.Equal(t, 14.5995, result.CurrentLocation.Lat())
	tracking.AssertExpectations(t)
}

func TestHandleLocation_DuplicateFixRejected(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)
	record.CurrentLocation = &models.LocationPoint{
		Coordinates: []float64{120.9842, 14.5995},
		Accuracy:    10.0,
		Timestamp:   testNow.Add(-5 * time.Second),
	}

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)

	service := newTestIngestService(tracking, resolver)
	result, err := service.HandleLocation(&LocationUpdateRequest{
		DeviceID:   registration.DeviceID,
		MaterialID: registration.MaterialID,
		Lat:        floatPtr(14.5995),
		Lng:        floatPtr(120.9842),
		Accuracy:   15.0,
	})

	assert.NoError(t, err)
	assert.False(t, result.Accepted)
	tracking.AssertNotCalled(t, "AppendLocation", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleLocation_MovementAccepted(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)
	record.CurrentLocation = &models.LocationPoint{
		Coordinates: []float64{120.9842, 14.5995},
		Accuracy:    10.0,
		Timestamp:   testNow.Add(-5 * time.Second),
	}

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)
	tracking.On("AppendLocation", record.ID, mock.AnythingOfType("models.LocationPoint"), mock.AnythingOfType("float64")).Return(nil)

	service := newTestIngestService(tracking, resolver)
	// ~110m north of the previous fix
	result, err := service.HandleLocation(&LocationUpdateRequest{
		DeviceID:   registration.DeviceID,
		MaterialID: registration.MaterialID,
		Lat:        floatPtr(14.6005),
		Lng:        floatPtr(120.9842),
		Accuracy:   15.0,
	})

	assert.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.Greater(t, result.TotalDistanceTraveled, 0.0)
	tracking.AssertExpectations(t)
}

func TestHandleLocation_DeviceShapedMaterialRejected(t *testing.T) {
	service := newTestIngestService(new(MockTrackingStore), new(MockDeviceResolver))

	_, err := service.HandleLocation(&LocationUpdateRequest{
		DeviceID:   "a1b2c3d4-0000-4000-8000-1234567890ab",
		MaterialID: "deadbeefdeadbeefdeadbeef",
		Lat:        floatPtr(14.5995),
		Lng:        floatPtr(120.9842),
	})

	assert.ErrorIs(t, err, ErrInvalidMaterialID)
}

func TestHandleLocation_UnregisteredDevice(t *testing.T) {
	resolver := new(MockDeviceResolver)
	resolver.On("Resolve", "unknown-device").Return(nil, registry.ErrNotRegistered)

	service := newTestIngestService(new(MockTrackingStore), resolver)
	_, err := service.HandleLocation(&LocationUpdateRequest{
		DeviceID:   "unknown-device",
		MaterialID: "DGL-CAR-042",
		Lat:        floatPtr(14.5995),
		Lng:        floatPtr(120.9842),
	})

	assert.ErrorIs(t, err, registry.ErrNotRegistered)
}

func TestLocateRecord_RecoversDeviceKeyedRecord(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	day := models.DayOf(testNow)

	// A backend restart left today's record keyed under the device identifier.
	strayRecord := testOpenRecord(registration)
	strayRecord.MaterialID = registration.DeviceID
	strayRecord.CurrentLocation = nil

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, day).Return(nil, repository.ErrNotFound)
	tracking.On("FindOpenByDevice", registration.DeviceID, day).Return(strayRecord, nil)
	tracking.On("ReKeyMaterial", strayRecord.ID, registration.MaterialID, registration.CarGroupID).Return(nil)
	tracking.On("UpdateSlot", strayRecord.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)
	tracking.On("AppendLocation", strayRecord.ID, mock.AnythingOfType("models.LocationPoint"), 0.0).Return(nil)

	service := newTestIngestService(tracking, resolver)
	result, err := service.HandleLocation(&LocationUpdateRequest{
		DeviceID:   registration.DeviceID,
		MaterialID: registration.MaterialID,
		Lat:        floatPtr(14.5995),
		Lng:        floatPtr(120.9842),
	})

	assert.NoError(t, err)
	assert.Equal(t, registration.MaterialID, result.MaterialID)
	tracking.AssertExpectations(t)
}

func TestLocateRecord_CreatesFreshDay(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	day := models.DayOf(testNow)

	created := testOpenRecord(registration)
	created.CurrentLocation = nil

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, day).Return(nil, repository.ErrNotFound)
	tracking.On("FindOpenByDevice", registration.DeviceID, day).Return(nil, repository.ErrNotFound)
	tracking.On("EnsureOpenDay", mock.AnythingOfType("*models.VehicleTracking")).Return(created, nil)
	tracking.On("UpdateSlot", created.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)
	tracking.On("AppendLocation", created.ID, mock.AnythingOfType("models.LocationPoint"), 0.0).Return(nil)

	service := newTestIngestService(tracking, resolver)
	result, err := service.HandleLocation(&LocationUpdateRequest{
		DeviceID:   registration.DeviceID,
		MaterialID: registration.MaterialID,
		Lat:        floatPtr(14.5995),
		Lng:        floatPtr(120.9842),
	})

	assert.NoError(t, err)
	assert.True(t, result.Accepted)
	tracking.AssertExpectations(t)
}

func TestHandleStatus_OfflineKeepsVehicleOnlineWhilePartnerUp(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)

	// Partner slot is still online; the vehicle stays online overall.
	partner := record.SlotByNumber(2)
	partner.DeviceID = "ffffeeee-0000-4000-8000-aabbccddeeff"
	partner.IsOnline = true
	partner.LastSeen = testNow.Add(-time.Minute)

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)

	service := newTestIngestService(tracking, resolver)
	result, err := service.HandleStatus(&StatusUpdateRequest{
		DeviceID: registration.DeviceID,
		IsOnline: boolPtr(false),
	})

	assert.NoError(t, err)
	assert.True(t, result.IsOnline)
	assert.Len(t, result.SlotStatus, 2)
	tracking.AssertExpectations(t)
}

func TestHandleStatus_BothOfflineTakesVehicleOffline(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), false).Return(nil)

	service := newTestIngestService(tracking, resolver)
	result, err := service.HandleStatus(&StatusUpdateRequest{
		DeviceID: registration.DeviceID,
		IsOnline: boolPtr(false),
	})

	assert.NoError(t, err)
	assert.False(t, result.IsOnline)
	tracking.AssertExpectations(t)
}

func TestAccrueOnlineTime_CreditsGapWithinTolerance(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)

	slot := record.SlotByNumber(1)
	slot.IsOnline = true
	slot.LastSeen = testNow.Add(-3 * time.Minute)

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("AccrueSessionOnline", record.ID, mock.AnythingOfType("float64"), models.ComplianceNonCompliant).
		Run(func(args mock.Arguments) {
			assert.InDelta(t, 0.05, args.Get(1).(float64), 0.001)
		}).Return(nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)

	service := newTestIngestService(tracking, resolver)
	_, err := service.HandleStatus(&StatusUpdateRequest{
		DeviceID: registration.DeviceID,
		IsOnline: boolPtr(true),
	})

	assert.NoError(t, err)
	tracking.AssertExpectations(t)
}

func TestAccrueOnlineTime_IgnoresLongGap(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)

	slot := record.SlotByNumber(1)
	slot.IsOnline = true
	slot.LastSeen = testNow.Add(-30 * time.Minute)

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)

	service := newTestIngestService(tracking, resolver)
	_, err := service.HandleStatus(&StatusUpdateRequest{
		DeviceID: registration.DeviceID,
		IsOnline: boolPtr(true),
	})

	assert.NoError(t, err)
	tracking.AssertNotCalled(t, "AccrueSessionOnline", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccrueOnlineTime_MarksCompliantAtTarget(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)
	record.CurrentSession.TotalHoursOnline = 7.99

	slot := record.SlotByNumber(1)
	slot.IsOnline = true
	slot.LastSeen = testNow.Add(-2 * time.Minute)

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("AccrueSessionOnline", record.ID, mock.AnythingOfType("float64"), models.ComplianceCompliant).Return(nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)

	service := newTestIngestService(tracking, resolver)
	_, err := service.HandleStatus(&StatusUpdateRequest{
		DeviceID: registration.DeviceID,
		IsOnline: boolPtr(true),
	})

	assert.NoError(t, err)
	tracking.AssertExpectations(t)
}

func TestHandleAdPlayback_DefaultsViewTimeAndCapsCompletion(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)
	record.TotalAdPlays = 3
	record.TotalAdPlayTime = 90

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)
	tracking.On("AppendAdPlayback", record.ID, mock.AnythingOfType("models.AdPlaybackEvent"), 800).
		Run(func(args mock.Arguments) {
			event := args.Get(1).(models.AdPlaybackEvent)
			assert.Equal(t, 30.0, event.ViewTime)
			assert.Equal(t, 100.0, event.CompletionRate)
			assert.Equal(t, 1, event.Impressions)
		}).Return(nil)

	service := newTestIngestService(tracking, resolver)
	result, err := service.HandleAdPlayback(&AdPlaybackRequest{
		DeviceID:   registration.DeviceID,
		AdID:       "AD-100",
		AdTitle:    "Summer promo",
		AdDuration: 30,
	})

	assert.NoError(t, err)
	assert.Equal(t, 4, result.TotalAdPlays)
	assert.Equal(t, 120.0, result.TotalAdPlayTime)
	tracking.AssertExpectations(t)
}

func TestHandleQRScan_AppendsThroughCap(t *testing.T) {
	tracking := new(MockTrackingStore)
	resolver := new(MockDeviceResolver)
	registration := testRegistration()
	record := testOpenRecord(registration)
	record.TotalQRScans = 11

	resolver.On("Resolve", registration.DeviceID).Return(registration, nil)
	tracking.On("FindOpenByMaterial", registration.MaterialID, models.DayOf(testNow)).Return(record, nil)
	tracking.On("UpdateSlot", record.ID, mock.AnythingOfType("models.Slot"), true).Return(nil)
	tracking.On("AppendQRScan", record.ID, mock.AnythingOfType("models.QRScanEvent"), 800).Return(nil)

	service := newTestIngestService(tracking, resolver)
	result, err := service.HandleQRScan(&QRScanRequest{
		DeviceID:   registration.DeviceID,
		QRScanData: map[string]interface{}{"campaign": "summer", "url": "https://example.com/p"},
	})

	assert.NoError(t, err)
	assert.Equal(t, 12, result.TotalQRScans)
	tracking.AssertExpectations(t)
}

func TestGetVehicleStatus_NoRecord(t *testing.T) {
	tracking := new(MockTrackingStore)
	tracking.On("FindOpenByMaterial", "DGL-CAR-042", models.DayOf(testNow)).Return(nil, repository.ErrNotFound)

	service := newTestIngestService(tracking, new(MockDeviceResolver))
	_, err := service.GetVehicleStatus("DGL-CAR-042")

	assert.ErrorIs(t, err, ErrNoData)
}
