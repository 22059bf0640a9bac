// Package models defines the core domain models for execution tracking.
package models

import "time"

// Status represents the lifecycle state of an execution or a step.
type Status string

const (
	StatusRunning   Status = "RUNNING"   // Initial state, still in progress
	StatusCompleted Status = "COMPLETED" // Terminal, finished successfully
	StatusFailed    Status = "FAILED"    // Terminal, finished with an error
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusRunning, StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the state machine allows moving from s to
// target. The only legal transitions are RUNNING -> COMPLETED and
// RUNNING -> FAILED.
func (s Status) CanTransitionTo(target Status) bool {
	return s == StatusRunning && target.IsTerminal()
}

// Execution is the top-level unit of tracked work. Steps are ordered by
// registration time, ties broken by id.
type Execution struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	Steps      []*Step    `json:"steps"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
