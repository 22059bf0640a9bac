package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/otelhelper"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
	"github.com/gustavoteixeirah/debugattor/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultListLimit is applied when a listing request carries no limit.
	DefaultListLimit = 10

	maxListLimit = 100
)

// Execution orchestrates the execution lifecycle, including the cascading
// delete that spans database rows and uploaded blobs.
type Execution struct {
	persistence persistence.Persistence
	blobs       storage.BlobStore
	logger      *slog.Logger
}

// NewExecution creates a new execution service.
func NewExecution(persistence persistence.Persistence, blobs storage.BlobStore, logger *slog.Logger) *Execution {
	return &Execution{
		persistence: persistence,
		blobs:       blobs,
		logger:      logger.With("service", "execution"),
	}
}

// HealthCheck checks the health of the persistence layer.
func (e *Execution) HealthCheck(ctx context.Context) (string, bool) {
	if e.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := e.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Start begins tracking a new execution in the RUNNING state.
func (e *Execution) Start(ctx context.Context) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "execution.start")
	defer span.End()

	execution, err := e.persistence.Executions().Create(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, execution.ID))

	e.logger.InfoContext(ctx, "Execution started", "execution_id", execution.ID)

	return execution, nil
}

// List returns executions most recent first, steps and artifacts included.
// A non-positive limit falls back to DefaultListLimit.
func (e *Execution) List(ctx context.Context, limit, offset int) ([]*models.Execution, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	executions, err := e.persistence.Executions().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

// GetByID returns the execution with its steps and artifacts, or
// ErrExecutionNotFound.
func (e *Execution) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	return e.persistence.Executions().GetByID(ctx, id)
}

// Complete marks the execution COMPLETED. Unknown ids are a no-op.
func (e *Execution) Complete(ctx context.Context, id string) error {
	err := e.persistence.Executions().SetCompleted(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to complete execution: %w", err)
	}

	e.logger.InfoContext(ctx, "Execution completed", "execution_id", id)

	return nil
}

// Fail marks the execution FAILED. Unknown ids are a no-op.
func (e *Execution) Fail(ctx context.Context, id string) error {
	err := e.persistence.Executions().SetFailed(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fail execution: %w", err)
	}

	e.logger.InfoContext(ctx, "Execution failed", "execution_id", id)

	return nil
}

// Delete removes the execution with everything it owns. Blobs referenced by
// IMAGE artifacts are removed first; a blob that cannot be deleted is logged
// and skipped so the row cascade still runs. Returns false when the
// execution did not exist.
func (e *Execution) Delete(ctx context.Context, id string) (bool, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "execution.delete",
		attribute.String(otelhelper.ExecutionIDKey, id))
	defer span.End()

	contents, err := e.persistence.Artifacts().ImageContentsByExecutionID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return false, fmt.Errorf("failed to resolve image artifacts: %w", err)
	}

	for _, content := range contents {
		objectName := objectNameFromURL(content)
		if objectName == "" {
			continue
		}

		err := e.blobs.Delete(ctx, objectName)
		if err != nil {
			e.logger.WarnContext(ctx, "Failed to delete blob, continuing",
				"execution_id", id, "object_name", objectName, "error", err)
		}
	}

	deleted, err := e.persistence.Executions().Delete(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return false, fmt.Errorf("failed to delete execution: %w", err)
	}

	if deleted {
		e.logger.InfoContext(ctx, "Execution deleted", "execution_id", id)
	}

	return deleted, nil
}

// objectNameFromURL extracts the blob object name from a stored artifact
// content, the path segment after the last '/'. Contents without a '/' are
// not blob URLs and yield "".
func objectNameFromURL(content string) string {
	idx := strings.LastIndex(content, "/")
	if idx < 0 {
		return ""
	}

	return content[idx+1:]
}
