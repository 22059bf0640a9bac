package models

import "time"

// Step is an ordered sub-unit of an execution. Artifacts are ordered by
// logging time, ties broken by id. Steps are only deleted through the owning
// execution's cascade delete.
type Step struct {
	ID           string      `json:"id"`
	ExecutionID  string      `json:"execution_id"`
	Name         string      `json:"name"`
	Status       Status      `json:"status"`
	Artifacts    []*Artifact `json:"artifacts"`
	RegisteredAt time.Time   `json:"registered_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
}

// NewStep returns a step ready for registration. The id and timestamps are
// assigned by the repository.
func NewStep(executionID, name string) *Step {
	return &Step{
		ExecutionID: executionID,
		Name:        name,
		Status:      StatusRunning,
		Artifacts:   []*Artifact{},
	}
}
