package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	assert.True(t, StatusRunning.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.True(t, StatusFailed.Valid())
	assert.False(t, Status("PENDING").Valid())
	assert.False(t, Status("").Valid())
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusRunning.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusFailed.IsTerminal())
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusRunning.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusRunning.CanTransitionTo(StatusFailed))

	// Terminal states admit no further transitions.
	assert.False(t, StatusCompleted.CanTransitionTo(StatusFailed))
	assert.False(t, StatusFailed.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusCompleted.CanTransitionTo(StatusRunning))

	// No transition back to RUNNING.
	assert.False(t, StatusRunning.CanTransitionTo(StatusRunning))
}

func TestNewStep(t *testing.T) {
	step := NewStep("execution-1", "build")

	assert.Equal(t, "execution-1", step.ExecutionID)
	assert.Equal(t, "build", step.Name)
	assert.Equal(t, StatusRunning, step.Status)
	assert.Empty(t, step.Artifacts)
	assert.Empty(t, step.ID)
}

func TestArtifactType_Valid(t *testing.T) {
	assert.True(t, ArtifactTypeImage.Valid())
	assert.True(t, ArtifactTypeLog.Valid())
	assert.True(t, ArtifactTypeJSONData.Valid())
	assert.False(t, ArtifactType("VIDEO").Valid())
}
