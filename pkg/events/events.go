// Package events defines the event types published when domain facts are
// recorded, feeding the live SSE fan-out.
package events

import (
	"time"

	"github.com/gustavoteixeirah/debugattor/pkg/models"
)

type EventType string

// Topic carries all debugattor domain events on the event bus.
const Topic = "debugattor.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	StepRegisteredEvent EventType = "step.registered"
	ArtifactLoggedEvent EventType = "artifact.logged"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// StepRegistered is published after a step row is registered under an
// execution. Delivered to the "steps" SSE channel as "step-registered".
type StepRegistered struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	StepID      string `json:"step_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s StepRegistered) GetType() EventType {
	return StepRegisteredEvent
}

// ArtifactLogged is published after an artifact row is written, including the
// backfilled URL for file uploads. Delivered to the "artifacts" SSE channel as
// "artifact-registered".
type ArtifactLogged struct {
	BaseEvent

	StepID       string              `json:"step_id"`
	ArtifactID   string              `json:"artifact_id"`
	ArtifactType models.ArtifactType `json:"type"`
	Description  string              `json:"description"`
	Content      string              `json:"content"`
	URL          string              `json:"url,omitempty"`
}

func (a ArtifactLogged) GetType() EventType {
	return ArtifactLoggedEvent
}
