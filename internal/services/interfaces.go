package services

import (
	"time"

	"adfleet-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackingStore is the open-day aggregate store. Satisfied by
// repository.TrackingRepository; mocked in tests.
type TrackingStore interface {
	EnsureOpenDay(record *models.VehicleTracking) (*models.VehicleTracking, error)
	FindOpenByMaterial(materialID string, day time.Time) (*models.VehicleTracking, error)
	FindOpenByDevice(deviceID string, day time.Time) (*models.VehicleTracking, error)
	ReKeyMaterial(id primitive.ObjectID, materialID, carGroupID string) error
	UpdateSlot(id primitive.ObjectID, slot models.Slot, vehicleOnline bool) error
	AppendLocation(id primitive.ObjectID, point models.LocationPoint, distanceKm float64) error
	AppendAdPlayback(id primitive.ObjectID, event models.AdPlaybackEvent, cap int) error
	AppendQRScan(id primitive.ObjectID, event models.QRScanEvent, cap int) error
	AccrueSessionOnline(id primitive.ObjectID, hours float64, compliance string) error
	FindAllBefore(day time.Time) ([]*models.VehicleTracking, error)
	CountBefore(day time.Time) (int64, error)
	DeleteByID(id primitive.ObjectID) error
}

// HistoryStore is the immutable archive. Satisfied by
// repository.HistoryRepository.
type HistoryStore interface {
	Insert(history *models.TrackingHistory) (bool, error)
	FindRange(materialID string, from, to time.Time) ([]*models.TrackingHistory, error)
}

// DeviceResolver maps device identifiers to registrations. Satisfied by
// registry.Service.
type DeviceResolver interface {
	Resolve(deviceID string) (*models.DeviceRegistration, error)
}
