// Package phase contains the pure lifecycle rules for build phases.
// This is part of the Functional Core - no I/O, only pure functions.
package phase

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of one phase within a run.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// allowed lists the forward-only edges of the phase state machine.
var allowed = map[Status][]Status{
	StatusNotStarted: {StatusRunning, StatusCompleted},
	StatusRunning:    {StatusCompleted, StatusFailed},
}

// TransitionResult captures the new status and when it was entered.
type TransitionResult struct {
	NewStatus  Status
	FinishedAt *time.Time // Set when entering a terminal status
}

// Transition validates from -> to and returns the result.
// The caller passes the current time to enable testing.
func Transition(from, to Status, now time.Time) (TransitionResult, error) {
	for _, s := range allowed[from] {
		if s == to {
			result := TransitionResult{NewStatus: to}
			if to.Terminal() {
				result.FinishedAt = &now
			}
			return result, nil
		}
	}
	return TransitionResult{}, fmt.Errorf("invalid phase transition %s -> %s", from, to)
}

// InitialStatus returns the status every phase starts a run in.
func InitialStatus() Status {
	return StatusNotStarted
}
