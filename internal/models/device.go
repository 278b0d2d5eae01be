package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeviceRegistration maps a tablet's device identifier to its vehicle-group
// and slot. The registration flow itself lives in the admin platform; this
// service only ever reads the collection.
type DeviceRegistration struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	DeviceID     string             `bson:"device_id" json:"deviceId"`
	MaterialID   string             `bson:"material_id" json:"materialId"`
	CarGroupID   string             `bson:"car_group_id" json:"carGroupId"`
	SlotNumber   int                `bson:"slot_number" json:"slotNumber"`
	RegisteredAt time.Time          `bson:"registered_at" json:"registeredAt"`
}
