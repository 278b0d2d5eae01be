package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsImmediatelyAndOnTicks(t *testing.T) {
	var runs int64
	s := New(JobFunc(func() error {
		atomic.AddInt64(&runs, 1)
		return nil
	}), 10*time.Millisecond)

	go s.Start()
	time.Sleep(55 * time.Millisecond)
	s.Stop()

	// One catch-up run at start plus at least one tick.
	assert.GreaterOrEqual(t, atomic.LoadInt64(&runs), int64(2))
}

func TestScheduler_KeepsRunningAfterJobError(t *testing.T) {
	var runs int64
	s := New(JobFunc(func() error {
		atomic.AddInt64(&runs, 1)
		return errors.New("transient failure")
	}), 10*time.Millisecond)

	go s.Start()
	time.Sleep(35 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt64(&runs), int64(2))
}
