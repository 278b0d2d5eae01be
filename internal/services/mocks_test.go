package services

import (
	"time"

	"adfleet-backend/internal/models"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MockTrackingStore is a mock implementation of the TrackingStore interface
type MockTrackingStore struct {
	mock.Mock
}

func (m *MockTrackingStore) EnsureOpenDay(record *models.VehicleTracking) (*models.VehicleTracking, error) {
	args := m.Called(record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleTracking), args.Error(1)
}

func (m *MockTrackingStore) FindOpenByMaterial(materialID string, day time.Time) (*models.VehicleTracking, error) {
	args := m.Called(materialID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleTracking), args.Error(1)
}

func (m *MockTrackingStore) FindOpenByDevice(deviceID string, day time.Time) (*models.VehicleTracking, error) {
	args := m.Called(deviceID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VehicleTracking), args.Error(1)
}

func (m *MockTrackingStore) ReKeyMaterial(id primitive.ObjectID, materialID, carGroupID string) error {
	args := m.Called(id, materialID, carGroupID)
	return args.Error(0)
}

func (m *MockTrackingStore) UpdateSlot(id primitive.ObjectID, slot models.Slot, vehicleOnline bool) error {
	args := m.Called(id, slot, vehicleOnline)
	return args.Error(0)
}

func (m *MockTrackingStore) AppendLocation(id primitive.ObjectID, point models.LocationPoint, distanceKm float64) error {
	args := m.Called(id, point, distanceKm)
	return args.Error(0)
}

func (m *MockTrackingStore) AppendAdPlayback(id primitive.ObjectID, event models.AdPlaybackEvent, cap int) error {
	args := m.Called(id, event, cap)
	return args.Error(0)
}

func (m *MockTrackingStore) AppendQRScan(id primitive.ObjectID, event models.QRScanEvent, cap int) error {
	args := m.Called(id, event, cap)
	return args.Error(0)
}

func (m *MockTrackingStore) AccrueSessionOnline(id primitive.ObjectID, hours float64, compliance string) error {
	args := m.Called(id, hours, compliance)
	return args.Error(0)
}

func (m *MockTrackingStore) FindAllBefore(day time.Time) ([]*models.VehicleTracking, error) {
	args := m.Called(day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.VehicleTracking), args.Error(1)
}

func (m *MockTrackingStore) CountBefore(day time.Time) (int64, error) {
	args := m.Called(day)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTrackingStore) DeleteByID(id primitive.ObjectID) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockHistoryStore is a mock implementation of the HistoryStore interface
type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) Insert(history *models.TrackingHistory) (bool, error) {
	args := m.Called(history)
	return args.Bool(0), args.Error(1)
}

func (m *MockHistoryStore) FindRange(materialID string, from, to time.Time) ([]*models.TrackingHistory, error) {
	args := m.Called(materialID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TrackingHistory), args.Error(1)
}

// MockDeviceResolver is a mock implementation of the DeviceResolver interface
type MockDeviceResolver struct {
	mock.Mock
}

func (m *MockDeviceResolver) Resolve(deviceID string) (*models.DeviceRegistration, error) {
	args := m.Called(deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeviceRegistration), args.Error(1)
}
