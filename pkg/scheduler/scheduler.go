package scheduler

import (
	"log"
	"time"
)

// Job is the unit of work the scheduler drives; the archive service's Run
// satisfies it.
type Job interface {
	Run() error
}

// JobFunc adapts a plain function into a Job.
type JobFunc func() error

func (f JobFunc) Run() error { return f() }

// Scheduler periodically runs the archival job. The pass itself is
// idempotent per day key, so overlapping instances across processes only
// cost duplicate reads, never duplicate history records.
type Scheduler struct {
	job      Job
	interval time.Duration
	stopChan chan bool
}

func New(job Job, interval time.Duration) *Scheduler {
	return &Scheduler{
		job:      job,
		interval: interval,
		stopChan: make(chan bool),
	}
}

// Start begins the scheduler loop. Blocks; run it in a goroutine.
func (s *Scheduler) Start() {
	log.Printf("Starting daily archival scheduler (interval: %v)", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Catch up on any backlog immediately on start
	s.runOnce()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopChan:
			log.Println("Stopping daily archival scheduler")
			return
		}
	}
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.stopChan <- true
}

func (s *Scheduler) runOnce() {
	if err := s.job.Run(); err != nil {
		log.Printf("Archival run failed: %v", err)
	}
}
