package services

import (
	"errors"
	"time"

	"adfleet-backend/internal/models"
	"adfleet-backend/internal/registry"
	"adfleet-backend/internal/repository"
	"adfleet-backend/pkg/geo"
	"adfleet-backend/pkg/telemetry"
)

// sessionGapTolerance caps the online time credited between two pings.
// A longer silence means the tablet was off, not slowly reporting.
const sessionGapTolerance = 5 * time.Minute

// IngestService applies telemetry events from the tablets to the open-day
// aggregate. Each event commits independently; a failed write surfaces to
// the tablet, which retries on its next polling cycle.
type IngestService struct {
	tracking    TrackingStore
	resolver    DeviceResolver
	policy      telemetry.AcceptancePolicy
	retention   telemetry.RetentionPolicy
	targetHours float64
	now         func() time.Time
}

func NewIngestService(tracking TrackingStore, resolver DeviceResolver, config telemetry.Config, targetHours float64) *IngestService {
	return &IngestService{
		tracking:    tracking,
		resolver:    resolver,
		policy:      config.Acceptance,
		retention:   config.Retention,
		targetHours: targetHours,
		now:         time.Now,
	}
}

// SetClock overrides the time source for tests.
func (s *IngestService) SetClock(now func() time.Time) {
	s.now = now
}

type LocationUpdateRequest struct {
	DeviceID   string             `json:"deviceId" validate:"required"`
	MaterialID string             `json:"materialId" validate:"required"`
	DeviceSlot int                `json:"deviceSlot" validate:"omitempty,oneof=1 2"`
	Lat        *float64           `json:"lat" validate:"required,min=-90,max=90"`
	Lng        *float64           `json:"lng" validate:"required,min=-180,max=180"`
	Speed      float64            `json:"speed"`
	Heading    float64            `json:"heading"`
	Accuracy   float64            `json:"accuracy"`
	Timestamp  *time.Time         `json:"timestamp"`
	CarGroupID string             `json:"carGroupId"`
	Address    string             `json:"address"`
	DeviceInfo *models.DeviceInfo `json:"deviceInfo"`
}

type StatusUpdateRequest struct {
	DeviceID      string             `json:"deviceId" validate:"required"`
	DeviceSlot    int                `json:"deviceSlot" validate:"omitempty,oneof=1 2"`
	IsOnline      *bool              `json:"isOnline" validate:"required"`
	DeviceInfo    *models.DeviceInfo `json:"deviceInfo"`
	NetworkStatus string             `json:"networkStatus"`
}

type AdPlaybackRequest struct {
	DeviceID   string  `json:"deviceId" validate:"required"`
	DeviceSlot int     `json:"deviceSlot" validate:"omitempty,oneof=1 2"`
	AdID       string  `json:"adId" validate:"required"`
	AdTitle    string  `json:"adTitle" validate:"required"`
	AdDuration float64 `json:"adDuration" validate:"required,gt=0"`
	ViewTime   float64 `json:"viewTime" validate:"omitempty,min=0"`
}

type QRScanRequest struct {
	DeviceID   string                 `json:"deviceId" validate:"required"`
	DeviceSlot int                    `json:"deviceSlot" validate:"omitempty,oneof=1 2"`
	QRScanData map[string]interface{} `json:"qrScanData" validate:"required"`
}

// SlotStatus is the consolidated per-slot view dashboards render as one
// vehicle row with two indicators.
type SlotStatus struct {
	SlotNumber int       `json:"slotNumber"`
	DeviceID   string    `json:"deviceId,omitempty"`
	IsOnline   bool      `json:"isOnline"`
	LastSeen   time.Time `json:"lastSeen"`
}

type LocationUpdateResponse struct {
	MaterialID            string                `json:"materialId"`
	DeviceID              string                `json:"deviceId"`
	Accepted              bool                  `json:"accepted"`
	CurrentLocation       *models.LocationPoint `json:"currentLocation,omitempty"`
	TotalDistanceTraveled float64               `json:"totalDistanceTraveled"`
	LastSeen              time.Time             `json:"lastSeen"`
	SlotStatus            []SlotStatus          `json:"slotStatus"`
}

type StatusUpdateResponse struct {
	DeviceID   string       `json:"deviceId"`
	DeviceSlot int          `json:"deviceSlot"`
	MaterialID string       `json:"materialId"`
	IsOnline   bool         `json:"isOnline"`
	LastSeen   time.Time    `json:"lastSeen"`
	SlotStatus []SlotStatus `json:"slotStatus"`
}

type AdPlaybackResponse struct {
	DeviceID        string  `json:"deviceId"`
	DeviceSlot      int     `json:"deviceSlot"`
	MaterialID      string  `json:"materialId"`
	TotalAdPlays    int     `json:"totalAdPlays"`
	TotalAdPlayTime float64 `json:"totalAdPlayTime"`
}

type QRScanResponse struct {
	DeviceID     string `json:"deviceId"`
	DeviceSlot   int    `json:"deviceSlot"`
	MaterialID   string `json:"materialId"`
	TotalQRScans int    `json:"totalQRScans"`
}

// HandleLocation processes a GPS fix. The acceptance policy gates whether
// the fix is persisted; a rejected fix still refreshes the slot status.
func (s *IngestService) HandleLocation(req *LocationUpdateRequest) (*LocationUpdateResponse, error) {
	if registry.IsDeviceShaped(req.MaterialID) {
		return nil, ErrInvalidMaterialID
	}

	registration, err := s.resolver.Resolve(req.DeviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record, err := s.locateRecord(registration, now)
	if err != nil {
		return nil, err
	}

	info := models.DeviceInfo{}
	if req.DeviceInfo != nil {
		info = *req.DeviceInfo
	}
	if err := s.markSlotOnline(record, registration, info, now); err != nil {
		return nil, err
	}

	timestamp := now
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}

	incoming := models.LocationPoint{
		Coordinates: []float64{*req.Lng, *req.Lat},
		Speed:       req.Speed,
		Heading:     req.Heading,
		Accuracy:    req.Accuracy,
		Timestamp:   timestamp,
		Address:     req.Address,
	}

	if s.policy.ShouldStore(record.CurrentLocation, &incoming) {
		var distanceKm float64
		if record.CurrentLocation != nil {
			distanceKm = geo.HaversineKm(
				record.CurrentLocation.Lat(), record.CurrentLocation.Lng(),
				incoming.Lat(), incoming.Lng(),
			)
		}

		if err := s.tracking.AppendLocation(record.ID, incoming, distanceKm); err != nil {
			return nil, err
		}

		record.CurrentLocation = &incoming
		record.TotalDistanceTraveled += distanceKm
		record.LastSeen = timestamp

		return s.locationResponse(record, registration, true), nil
	}

	return s.locationResponse(record, registration, false), nil
}

// HandleStatus consolidates a tablet's online/offline report into the
// shared vehicle record.
func (s *IngestService) HandleStatus(req *StatusUpdateRequest) (*StatusUpdateResponse, error) {
	registration, err := s.resolver.Resolve(req.DeviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record, err := s.locateRecord(registration, now)
	if err != nil {
		return nil, err
	}

	info := models.DeviceInfo{}
	if req.DeviceInfo != nil {
		info = *req.DeviceInfo
	}
	if req.NetworkStatus != "" {
		info.NetworkStatus = req.NetworkStatus
	}

	online := *req.IsOnline
	slot := models.Slot{
		SlotNumber: registration.SlotNumber,
		DeviceID:   registration.DeviceID,
		IsOnline:   online,
		LastSeen:   now,
		DeviceInfo: info,
	}

	if online {
		s.accrueOnlineTime(record, registration.SlotNumber, now)
	}

	applySlot(record, slot)
	if err := s.tracking.UpdateSlot(record.ID, slot, record.AnySlotOnline()); err != nil {
		return nil, err
	}

	return &StatusUpdateResponse{
		DeviceID:   registration.DeviceID,
		DeviceSlot: registration.SlotNumber,
		MaterialID: record.MaterialID,
		IsOnline:   record.AnySlotOnline(),
		LastSeen:   now,
		SlotStatus: slotStatuses(record),
	}, nil
}

// HandleAdPlayback appends a playback event through the retention cap and
// bumps the daily counters.
func (s *IngestService) HandleAdPlayback(req *AdPlaybackRequest) (*AdPlaybackResponse, error) {
	registration, err := s.resolver.Resolve(req.DeviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record, err := s.locateRecord(registration, now)
	if err != nil {
		return nil, err
	}

	if err := s.markSlotOnline(record, registration, models.DeviceInfo{}, now); err != nil {
		return nil, err
	}

	viewTime := req.ViewTime
	if viewTime == 0 {
		viewTime = req.AdDuration
	}

	completion := viewTime / req.AdDuration * 100
	if completion > 100 {
		completion = 100
	}

	event := models.AdPlaybackEvent{
		AdID:           req.AdID,
		AdTitle:        req.AdTitle,
		MaterialID:     record.MaterialID,
		SlotNumber:     registration.SlotNumber,
		AdDuration:     req.AdDuration,
		StartTime:      now.Add(-time.Duration(viewTime * float64(time.Second))),
		EndTime:        now,
		ViewTime:       viewTime,
		CompletionRate: completion,
		Impressions:    1,
	}

	if err := s.tracking.AppendAdPlayback(record.ID, event, s.retention.AdPlaybackCap); err != nil {
		return nil, err
	}

	return &AdPlaybackResponse{
		DeviceID:        registration.DeviceID,
		DeviceSlot:      registration.SlotNumber,
		MaterialID:      record.MaterialID,
		TotalAdPlays:    record.TotalAdPlays + 1,
		TotalAdPlayTime: record.TotalAdPlayTime + viewTime,
	}, nil
}

// HandleQRScan appends a scan event through the retention cap.
func (s *IngestService) HandleQRScan(req *QRScanRequest) (*QRScanResponse, error) {
	registration, err := s.resolver.Resolve(req.DeviceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record, err := s.locateRecord(registration, now)
	if err != nil {
		return nil, err
	}

	if err := s.markSlotOnline(record, registration, models.DeviceInfo{}, now); err != nil {
		return nil, err
	}

	event := models.QRScanEvent{
		SlotNumber: registration.SlotNumber,
		ScanData:   req.QRScanData,
		Timestamp:  now,
	}

	if err := s.tracking.AppendQRScan(record.ID, event, s.retention.QRScanCap); err != nil {
		return nil, err
	}

	return &QRScanResponse{
		DeviceID:     registration.DeviceID,
		DeviceSlot:   registration.SlotNumber,
		MaterialID:   record.MaterialID,
		TotalQRScans: record.TotalQRScans + 1,
	}, nil
}

// GetVehicleStatus returns the consolidated open-day view for a dashboard row.
func (s *IngestService) GetVehicleStatus(materialID string) (*models.VehicleTracking, error) {
	record, err := s.tracking.FindOpenByMaterial(materialID, models.DayOf(s.now()))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoData
		}
		return nil, err
	}

	return record, nil
}

// locateRecord finds today's record for the vehicle-group, recovering a
// device-keyed record left over from a backend restart, or creating a fresh
// day through an atomic upsert.
func (s *IngestService) locateRecord(registration *models.DeviceRegistration, now time.Time) (*models.VehicleTracking, error) {
	day := models.DayOf(now)

	record, err := s.tracking.FindOpenByMaterial(registration.MaterialID, day)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	record, err = s.tracking.FindOpenByDevice(registration.DeviceID, day)
	if err == nil {
		if record.MaterialID != registration.MaterialID {
			if err := s.tracking.ReKeyMaterial(record.ID, registration.MaterialID, registration.CarGroupID); err != nil {
				return nil, err
			}
			record.MaterialID = registration.MaterialID
			record.CarGroupID = registration.CarGroupID
		}
		return record, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	fresh := models.NewVehicleTracking(
		registration.MaterialID,
		registration.CarGroupID,
		day,
		registration.SlotNumber,
		registration.DeviceID,
		models.DeviceInfo{},
		s.targetHours,
	)

	return s.tracking.EnsureOpenDay(fresh)
}

// markSlotOnline upserts the reporting slot as online and accrues session
// time since its previous ping.
func (s *IngestService) markSlotOnline(record *models.VehicleTracking, registration *models.DeviceRegistration, info models.DeviceInfo, now time.Time) error {
	s.accrueOnlineTime(record, registration.SlotNumber, now)

	slot := models.Slot{
		SlotNumber: registration.SlotNumber,
		DeviceID:   registration.DeviceID,
		IsOnline:   true,
		LastSeen:   now,
		DeviceInfo: info,
	}

	applySlot(record, slot)
	return s.tracking.UpdateSlot(record.ID, slot, true)
}

// accrueOnlineTime credits the gap since the slot's previous ping toward
// the compliance session, ignoring gaps longer than the tolerance.
func (s *IngestService) accrueOnlineTime(record *models.VehicleTracking, slotNumber int, now time.Time) {
	slot := record.SlotByNumber(slotNumber)
	if slot == nil || !slot.IsOnline || slot.LastSeen.IsZero() {
		return
	}

	delta := now.Sub(slot.LastSeen)
	if delta <= 0 || delta > sessionGapTolerance {
		return
	}

	hours := delta.Hours()
	total := record.CurrentSession.TotalHoursOnline + hours

	compliance := models.ComplianceNonCompliant
	if record.CurrentSession.TargetHours > 0 && total >= record.CurrentSession.TargetHours {
		compliance = models.ComplianceCompliant
	}

	if err := s.tracking.AccrueSessionOnline(record.ID, hours, compliance); err == nil {
		record.CurrentSession.TotalHoursOnline = total
		record.CurrentSession.ComplianceStatus = compliance
	}
}

func (s *IngestService) locationResponse(record *models.VehicleTracking, registration *models.DeviceRegistration, accepted bool) *LocationUpdateResponse {
	return &LocationUpdateResponse{
		MaterialID:            record.MaterialID,
		DeviceID:              registration.DeviceID,
		Accepted:              accepted,
		CurrentLocation:       record.CurrentLocation,
		TotalDistanceTraveled: record.TotalDistanceTraveled,
		LastSeen:              record.LastSeen,
		SlotStatus:            slotStatuses(record),
	}
}

func applySlot(record *models.VehicleTracking, slot models.Slot) {
	if existing := record.SlotByNumber(slot.SlotNumber); existing != nil {
		*existing = slot
	}
	record.IsOnline = record.AnySlotOnline()
	if slot.LastSeen.After(record.LastSeen) {
		record.LastSeen = slot.LastSeen
	}
}

func slotStatuses(record *models.VehicleTracking) []SlotStatus {
	statuses := make([]SlotStatus, 0, len(record.Slots))
	for _, slot := range record.Slots {
		statuses = append(statuses, SlotStatus{
			SlotNumber: slot.SlotNumber,
			DeviceID:   slot.DeviceID,
			IsOnline:   slot.IsOnline,
			LastSeen:   slot.LastSeen,
		})
	}
	return statuses
}
