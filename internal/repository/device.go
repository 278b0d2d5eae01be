package repository

import (
	"context"
	"time"

	"adfleet-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// DeviceRepository is the read-only view over the admin platform's device
// registrations. This service never writes the collection.
type DeviceRepository struct {
	collection *mongo.Collection
}

func NewDeviceRepository(db *mongo.Database) *DeviceRepository {
	return &DeviceRepository{
		collection: db.Collection("device_registrations"),
	}
}

func (r *DeviceRepository) FindByDeviceID(deviceID string) (*models.DeviceRegistration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var registration models.DeviceRegistration
	err := r.collection.FindOne(ctx, bson.M{"device_id": deviceID}).Decode(&registration)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &registration, nil
}
