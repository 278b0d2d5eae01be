package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrackingHistory is the immutable archived copy of a closed day, keyed by
// (material_id, date). A unique index on that pair makes archival idempotent.
type TrackingHistory struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MaterialID            string             `bson:"material_id" json:"materialId"`
	CarGroupID            string             `bson:"car_group_id" json:"carGroupId"`
	Date                  time.Time          `bson:"date" json:"date"`
	Slots                 []Slot             `bson:"slots" json:"slots"`
	LocationHistory       []LocationPoint    `bson:"location_history" json:"locationHistory"`
	AdPlaybacks           []AdPlaybackEvent  `bson:"ad_playbacks" json:"adPlaybacks"`
	QRScans               []QRScanEvent      `bson:"qr_scans" json:"qrScans"`
	TotalDistanceTraveled float64            `bson:"total_distance_traveled" json:"totalDistanceTraveled"`
	TotalAdPlays          int                `bson:"total_ad_plays" json:"totalAdPlays"`
	TotalAdPlayTime       float64            `bson:"total_ad_play_time" json:"totalAdPlayTime"`
	TotalAdImpressions    int                `bson:"total_ad_impressions" json:"totalAdImpressions"`
	TotalQRScans          int                `bson:"total_qr_scans" json:"totalQRScans"`
	Session               DailySession       `bson:"session" json:"session"`
	ArchivedAt            time.Time          `bson:"archived_at" json:"archivedAt"`
}

// NewTrackingHistory snapshots an open-day record for the history collection.
func NewTrackingHistory(t *VehicleTracking, archivedAt time.Time) *TrackingHistory {
	session := t.CurrentSession
	session.IsActive = false

	return &TrackingHistory{
		MaterialID:            t.MaterialID,
		CarGroupID:            t.CarGroupID,
		Date:                  t.Date,
		Slots:                 t.Slots,
		LocationHistory:       t.LocationHistory,
		AdPlaybacks:           t.AdPlaybacks,
		QRScans:               t.QRScans,
		TotalDistanceTraveled: t.TotalDistanceTraveled,
		TotalAdPlays:          t.TotalAdPlays,
		TotalAdPlayTime:       t.TotalAdPlayTime,
		TotalAdImpressions:    t.TotalAdImpressions,
		TotalQRScans:          t.TotalQRScans,
		Session:               session,
		ArchivedAt:            archivedAt,
	}
}
