package persistence

import (
	"context"

	"github.com/gustavoteixeirah/debugattor/pkg/models"
)

// ExecutionRepository handles execution rows. GetByID loads steps ordered by
// registered_at asc, id asc and each step's artifacts by logged_at asc, id asc.
type ExecutionRepository interface {
	// Create inserts a new RUNNING execution and returns it with its
	// server-assigned id and start timestamp.
	Create(ctx context.Context) (*models.Execution, error)

	// List returns executions most recent first, with nested steps and
	// artifacts eagerly loaded.
	List(ctx context.Context, limit, offset int) ([]*models.Execution, error)

	// GetByID returns the execution with nested steps and artifacts, or
	// ErrExecutionNotFound.
	GetByID(ctx context.Context, id string) (*models.Execution, error)

	// SetCompleted transitions the execution to COMPLETED and stamps
	// finished_at. Unknown ids are a no-op.
	SetCompleted(ctx context.Context, id string) error

	// SetFailed transitions the execution to FAILED and stamps finished_at.
	// Unknown ids are a no-op.
	SetFailed(ctx context.Context, id string) error

	// Delete removes the execution and everything it transitively owns,
	// children before parents. Returns false when the execution did not
	// exist; an execution with zero steps still reports true.
	Delete(ctx context.Context, id string) (bool, error)
}

// StepRepository handles step rows.
type StepRepository interface {
	// Register inserts a RUNNING step under the execution. Returns
	// ErrExecutionNotFound when the execution does not exist; the step row
	// is never partially written.
	Register(ctx context.Context, executionID, name string) (*models.Step, error)

	// SetCompleted transitions the step to COMPLETED and stamps
	// completed_at. Unknown ids are a no-op.
	SetCompleted(ctx context.Context, id string) error

	// SetFailed transitions the step to FAILED and stamps completed_at.
	// Unknown ids are a no-op.
	SetFailed(ctx context.Context, id string) error
}

// ArtifactRepository handles artifact rows.
type ArtifactRepository interface {
	// Log inserts an artifact with inline content. Returns ErrStepNotFound
	// when the step does not exist.
	Log(ctx context.Context, stepID string, artifactType models.ArtifactType, description, content string) (*models.Artifact, error)

	// CreatePlaceholder inserts an artifact row with empty content, to be
	// backfilled once the blob upload completes. Returns ErrStepNotFound
	// when the step does not exist.
	CreatePlaceholder(ctx context.Context, stepID string, artifactType models.ArtifactType, description string) (*models.Artifact, error)

	// UpdateContent backfills the content of a placeholder artifact.
	UpdateContent(ctx context.Context, id, content string) error

	// ImageContentsByExecutionID returns the raw content of every IMAGE
	// artifact owned, transitively through steps, by the execution. Used by
	// the deletion orchestrator to resolve blob objects to remove.
	ImageContentsByExecutionID(ctx context.Context, executionID string) ([]string, error)
}

// Persistence is the storage entry point the services depend on.
type Persistence interface {
	Executions() ExecutionRepository
	Steps() StepRepository
	Artifacts() ArtifactRepository
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
