package repository

import (
	"context"
	"errors"
	"time"

	"adfleet-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no matching document exists.
var ErrNotFound = errors.New("record not found")

type TrackingRepository struct {
	collection *mongo.Collection
}

func NewTrackingRepository(db *mongo.Database) *TrackingRepository {
	return &TrackingRepository{
		collection: db.Collection("vehicle_tracking"),
	}
}

// EnsureOpenDay atomically finds or creates the open record for the
// record's (material_id, date) key. Two slots reporting at the same moment
// both land on the same document instead of racing a find-then-insert.
func (r *TrackingRepository) EnsureOpenDay(record *models.VehicleTracking) (*models.VehicleTracking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"material_id": record.MaterialID,
		"date":        record.Date,
	}

	update := bson.M{"$setOnInsert": record}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result models.VehicleTracking
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *TrackingRepository) FindOpenByMaterial(materialID string, day time.Time) (*models.VehicleTracking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var record models.VehicleTracking
	err := r.collection.FindOne(ctx, bson.M{"material_id": materialID, "date": day}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &record, nil
}

// FindOpenByDevice locates today's record through a slot's device id. Used
// to recover a record created before the vehicle had a material_id key,
// e.g. a tablet reconnecting after a backend restart.
func (r *TrackingRepository) FindOpenByDevice(deviceID string, day time.Time) (*models.VehicleTracking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var record models.VehicleTracking
	err := r.collection.FindOne(ctx, bson.M{"slots.device_id": deviceID, "date": day}).Decode(&record)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &record, nil
}

// ReKeyMaterial repoints a recovered record at its proper vehicle-group key.
func (r *TrackingRepository) ReKeyMaterial(id primitive.ObjectID, materialID, carGroupID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"material_id":  materialID,
			"car_group_id": carGroupID,
			"updated_at":   time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateSlot upserts the reporting slot's fields and the derived
// vehicle-level online state in a single atomic write.
func (r *TrackingRepository) UpdateSlot(id primitive.ObjectID, slot models.Slot, vehicleOnline bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"slots.$[s].device_id":   slot.DeviceID,
			"slots.$[s].is_online":   slot.IsOnline,
			"slots.$[s].last_seen":   slot.LastSeen,
			"slots.$[s].device_info": slot.DeviceInfo,
			"is_online":              vehicleOnline,
			"last_seen":              slot.LastSeen,
			"updated_at":             time.Now(),
		},
	}

	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"s.slot_number": slot.SlotNumber}},
	})

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update, opts)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// AppendLocation appends an accepted fix and bumps the cumulative distance
// with atomic operators, so concurrent slots never lose each other's writes.
func (r *TrackingRepository) AppendLocation(id primitive.ObjectID, point models.LocationPoint, distanceKm float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"location_history": point},
		"$set": bson.M{
			"current_location": point,
			"last_seen":        point.Timestamp,
			"updated_at":       time.Now(),
		},
		"$inc": bson.M{
			"total_distance_traveled":                 distanceKm,
			"current_session.total_distance_traveled": distanceKm,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// AppendAdPlayback appends through the retention cap: $slice keeps the most
// recent entries, evicting the oldest once the log exceeds the cap.
func (r *TrackingRepository) AppendAdPlayback(id primitive.ObjectID, event models.AdPlaybackEvent, cap int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{
			"ad_playbacks": bson.M{
				"$each":  []models.AdPlaybackEvent{event},
				"$slice": -cap,
			},
		},
		"$inc": bson.M{
			"total_ad_plays":       1,
			"total_ad_play_time":   event.ViewTime,
			"total_ad_impressions": event.Impressions,
		},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *TrackingRepository) AppendQRScan(id primitive.ObjectID, event models.QRScanEvent, cap int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$push": bson.M{
			"qr_scans": bson.M{
				"$each":  []models.QRScanEvent{event},
				"$slice": -cap,
			},
		},
		"$inc": bson.M{"total_qr_scans": 1},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// AccrueSessionOnline adds online time to the compliance session and sets
// the recomputed status. Uses $inc so the two slots never clobber each
// other's accrual.
func (r *TrackingRepository) AccrueSessionOnline(id primitive.ObjectID, hours float64, compliance string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	update := bson.M{
		"$inc": bson.M{"current_session.total_hours_online": hours},
		"$set": bson.M{
			"current_session.compliance_status": compliance,
			"updated_at":                        time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// FindAllBefore returns every open record dated strictly before day.
func (r *TrackingRepository) FindAllBefore(day time.Time) ([]*models.VehicleTracking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"date": bson.M{"$lt": day}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []*models.VehicleTracking
	for cursor.Next(ctx) {
		var record models.VehicleTracking
		if err := cursor.Decode(&record); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}

	return records, cursor.Err()
}

func (r *TrackingRepository) CountBefore(day time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"date": bson.M{"$lt": day}})
}

func (r *TrackingRepository) DeleteByID(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// CreateIndexes creates necessary indexes for the vehicle_tracking collection
func (r *TrackingRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "material_id", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "slots.device_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "date", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "last_seen", Value: -1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
