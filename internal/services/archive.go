package services

import (
	"errors"
	"log"
	"sync"
	"time"

	"adfleet-backend/internal/models"
)

// ErrOpenDay rejects a manual archive request for today or a future date;
// the open day is still being written.
var ErrOpenDay = errors.New("cannot archive the open day")

// ArchiveService converts closed-day tracking records into immutable
// history. The history collection's unique (material_id, date) index makes
// every pass idempotent, so concurrent schedulers and manual re-runs for a
// date already archived are harmless.
type ArchiveService struct {
	tracking TrackingStore
	history  HistoryStore
	now      func() time.Time

	mu           sync.RWMutex
	lastRun      time.Time
	lastArchived int
	lastSkipped  int
	lastError    string
}

func NewArchiveService(tracking TrackingStore, history HistoryStore) *ArchiveService {
	return &ArchiveService{
		tracking: tracking,
		history:  history,
		now:      time.Now,
	}
}

// SetClock overrides the time source for tests.
func (s *ArchiveService) SetClock(now func() time.Time) {
	s.now = now
}

// ArchiveResult summarizes one archival pass.
type ArchiveResult struct {
	Archived int `json:"archived"`
	Skipped  int `json:"skipped"`
}

// ArchiveStatus is the operational view of the scheduler.
type ArchiveStatus struct {
	LastRun      time.Time `json:"lastRun"`
	LastArchived int       `json:"lastArchived"`
	LastSkipped  int       `json:"lastSkipped"`
	LastError    string    `json:"lastError,omitempty"`
	Pending      int64     `json:"pending"`
}

// Run archives every open record dated strictly before today. Safe to call
// from the scheduler and the manual endpoint at the same time.
func (s *ArchiveService) Run() (*ArchiveResult, error) {
	return s.archiveBefore(models.DayOf(s.now()))
}

// ArchiveDate archives the records of one specific closed day.
func (s *ArchiveService) ArchiveDate(day time.Time) (*ArchiveResult, error) {
	day = models.DayOf(day)
	if !day.Before(models.DayOf(s.now())) {
		return nil, ErrOpenDay
	}

	records, err := s.tracking.FindAllBefore(day.Add(24 * time.Hour))
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	matching := records[:0]
	for _, record := range records {
		if record.Date.Equal(day) {
			matching = append(matching, record)
		}
	}

	return s.archiveRecords(matching)
}

func (s *ArchiveService) archiveBefore(cutoff time.Time) (*ArchiveResult, error) {
	records, err := s.tracking.FindAllBefore(cutoff)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	return s.archiveRecords(records)
}

func (s *ArchiveService) archiveRecords(records []*models.VehicleTracking) (*ArchiveResult, error) {
	result := &ArchiveResult{}
	archivedAt := s.now()

	for _, record := range records {
		inserted, err := s.history.Insert(models.NewTrackingHistory(record, archivedAt))
		if err != nil {
			// Leave the day un-archived; the next scheduled run retries it.
			log.Printf("Failed to archive %s/%s: %v", record.MaterialID, record.Date.Format("2006-01-02"), err)
			s.recordFailure(err)
			return result, err
		}

		if inserted {
			result.Archived++
		} else {
			result.Skipped++
		}

		// The open record goes away either way so the next telemetry event
		// for this vehicle-group starts a fresh day.
		if err := s.tracking.DeleteByID(record.ID); err != nil {
			log.Printf("Failed to remove archived open record %s: %v", record.ID.Hex(), err)
		}
	}

	s.mu.Lock()
	s.lastRun = archivedAt
	s.lastArchived = result.Archived
	s.lastSkipped = result.Skipped
	s.lastError = ""
	s.mu.Unlock()

	return result, nil
}

// Status reports the last run outcome and the current backlog.
func (s *ArchiveService) Status() (*ArchiveStatus, error) {
	pending, err := s.tracking.CountBefore(models.DayOf(s.now()))
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return &ArchiveStatus{
		LastRun:      s.lastRun,
		LastArchived: s.lastArchived,
		LastSkipped:  s.lastSkipped,
		LastError:    s.lastError,
		Pending:      pending,
	}, nil
}

func (s *ArchiveService) recordFailure(err error) {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}
