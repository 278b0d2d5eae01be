package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ComplianceCompliant    = "COMPLIANT"
	ComplianceNonCompliant = "NON_COMPLIANT"
)

// DayOf truncates a timestamp to its UTC midnight day key.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// VehicleTracking is the open per-day aggregate for one vehicle-group.
// One document exists per (material_id, date); both tablets mounted on the
// vehicle report into the same document through their slot.
type VehicleTracking struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MaterialID            string             `bson:"material_id" json:"materialId"`
	CarGroupID            string             `bson:"car_group_id" json:"carGroupId"`
	Date                  time.Time          `bson:"date" json:"date"`
	Slots                 []Slot             `bson:"slots" json:"slots"`
	CurrentLocation       *LocationPoint     `bson:"current_location,omitempty" json:"currentLocation,omitempty"`
	LocationHistory       []LocationPoint    `bson:"location_history" json:"locationHistory"`
	AdPlaybacks           []AdPlaybackEvent  `bson:"ad_playbacks" json:"adPlaybacks"`
	QRScans               []QRScanEvent      `bson:"qr_scans" json:"qrScans"`
	TotalDistanceTraveled float64            `bson:"total_distance_traveled" json:"totalDistanceTraveled"`
	TotalAdPlays          int                `bson:"total_ad_plays" json:"totalAdPlays"`
	TotalAdPlayTime       float64            `bson:"total_ad_play_time" json:"totalAdPlayTime"`
	TotalAdImpressions    int                `bson:"total_ad_impressions" json:"totalAdImpressions"`
	TotalQRScans          int                `bson:"total_qr_scans" json:"totalQRScans"`
	CurrentSession        DailySession       `bson:"current_session" json:"currentSession"`
	IsOnline              bool               `bson:"is_online" json:"isOnline"`
	LastSeen              time.Time          `bson:"last_seen" json:"lastSeen"`
	CreatedAt             time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Slot is one of the two tablet positions on a vehicle.
type Slot struct {
	SlotNumber int        `bson:"slot_number" json:"slotNumber"`
	DeviceID   string     `bson:"device_id" json:"deviceId"`
	IsOnline   bool       `bson:"is_online" json:"isOnline"`
	LastSeen   time.Time  `bson:"last_seen" json:"lastSeen"`
	DeviceInfo DeviceInfo `bson:"device_info" json:"deviceInfo"`
}

type DeviceInfo struct {
	Model         string  `bson:"model,omitempty" json:"model,omitempty"`
	OSVersion     string  `bson:"os_version,omitempty" json:"osVersion,omitempty"`
	AppVersion    string  `bson:"app_version,omitempty" json:"appVersion,omitempty"`
	BatteryLevel  float64 `bson:"battery_level,omitempty" json:"batteryLevel,omitempty"`
	NetworkStatus string  `bson:"network_status,omitempty" json:"networkStatus,omitempty"`
}

// LocationPoint is one accepted GPS fix. Coordinates are stored in
// GeoJSON [lng, lat] order; the query layer flips them to {lat, lng}.
type LocationPoint struct {
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
	Speed       float64   `bson:"speed" json:"speed"`
	Heading     float64   `bson:"heading" json:"heading"`
	Accuracy    float64   `bson:"accuracy" json:"accuracy"`
	Timestamp   time.Time `bson:"timestamp" json:"timestamp"`
	Address     string    `bson:"address,omitempty" json:"address,omitempty"`
}

func (p *LocationPoint) Lng() float64 { return p.Coordinates[0] }
func (p *LocationPoint) Lat() float64 { return p.Coordinates[1] }

type AdPlaybackEvent struct {
	AdID           string    `bson:"ad_id" json:"adId"`
	AdTitle        string    `bson:"ad_title" json:"adTitle"`
	MaterialID     string    `bson:"material_id" json:"materialId"`
	SlotNumber     int       `bson:"slot_number" json:"slotNumber"`
	AdDuration     float64   `bson:"ad_duration" json:"adDuration"`
	StartTime      time.Time `bson:"start_time" json:"startTime"`
	EndTime        time.Time `bson:"end_time" json:"endTime"`
	ViewTime       float64   `bson:"view_time" json:"viewTime"`
	CompletionRate float64   `bson:"completion_rate" json:"completionRate"`
	Impressions    int       `bson:"impressions" json:"impressions"`
}

type QRScanEvent struct {
	SlotNumber int                    `bson:"slot_number" json:"slotNumber"`
	ScanData   map[string]interface{} `bson:"scan_data" json:"qrScanData"`
	Timestamp  time.Time              `bson:"timestamp" json:"timestamp"`
}

// DailySession tracks the compliance state for the open day.
type DailySession struct {
	Date                  time.Time `bson:"date" json:"date"`
	StartTime             time.Time `bson:"start_time" json:"startTime"`
	TotalHoursOnline      float64   `bson:"total_hours_online" json:"totalHoursOnline"`
	TotalDistanceTraveled float64   `bson:"total_distance_traveled" json:"totalDistanceTraveled"`
	TargetHours           float64   `bson:"target_hours" json:"targetHours"`
	ComplianceStatus      string    `bson:"compliance_status" json:"complianceStatus"`
	IsActive              bool      `bson:"is_active" json:"isActive"`
}

// NewVehicleTracking builds a fresh open-day record. Both slots are created
// up front; the slot the first event arrived on is marked online.
func NewVehicleTracking(materialID, carGroupID string, day time.Time, slotNumber int, deviceID string, info DeviceInfo, targetHours float64) *VehicleTracking {
	now := time.Now()

	slots := make([]Slot, 2)
	for i := range slots {
		slots[i] = Slot{SlotNumber: i + 1}
	}
	if slotNumber == 1 || slotNumber == 2 {
		slots[slotNumber-1] = Slot{
			SlotNumber: slotNumber,
			DeviceID:   deviceID,
			IsOnline:   true,
			LastSeen:   now,
			DeviceInfo: info,
		}
	}

	return &VehicleTracking{
		MaterialID:      materialID,
		CarGroupID:      carGroupID,
		Date:            day,
		Slots:           slots,
		LocationHistory: []LocationPoint{},
		AdPlaybacks:     []AdPlaybackEvent{},
		QRScans:         []QRScanEvent{},
		CurrentSession: DailySession{
			Date:             day,
			StartTime:        now,
			TargetHours:      targetHours,
			ComplianceStatus: ComplianceNonCompliant,
			IsActive:         true,
		},
		IsOnline:  true,
		LastSeen:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SlotByNumber returns the slot with the given number, or nil.
func (t *VehicleTracking) SlotByNumber(n int) *Slot {
	for i := range t.Slots {
		if t.Slots[i].SlotNumber == n {
			return &t.Slots[i]
		}
	}
	return nil
}

// AnySlotOnline reports whether either tablet is currently online.
func (t *VehicleTracking) AnySlotOnline() bool {
	for i := range t.Slots {
		if t.Slots[i].IsOnline {
			return true
		}
	}
	return false
}
