// Package timer tracks total and per-stage elapsed time for user-facing
// progress output.
package timer

import "time"

// Timer measures elapsed time across a run split into stages.
type Timer interface {
	// Start begins (or restarts) the timer and the first stage.
	Start()
	// NewStage marks the beginning of a new stage.
	NewStage()
	// GetTiming returns the total elapsed time and the current stage's
	// elapsed time.
	GetTiming() (total, stage time.Duration)
}

type realTimer struct {
	startTime time.Time
	stageTime time.Time
}

// New creates a started Timer.
func New() Timer {
	t := &realTimer{}
	t.Start()

	return t
}

func (t *realTimer) Start() {
	now := time.Now()
	t.startTime = now
	t.stageTime = now
}

func (t *realTimer) NewStage() {
	t.stageTime = time.Now()
}

func (t *realTimer) GetTiming() (time.Duration, time.Duration) {
	now := time.Now()

	return now.Sub(t.startTime), now.Sub(t.stageTime)
}
