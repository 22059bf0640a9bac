package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
)

// StepRepository handles step-related database operations.
type StepRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStepRepository creates a new step repository.
func NewStepRepository(db *sql.DB, logger *slog.Logger) *StepRepository {
	return &StepRepository{db: db, logger: logger}
}

// Register inserts a RUNNING step under the execution. A foreign key
// violation means the execution does not exist and maps to
// persistence.ErrExecutionNotFound; nothing is written in that case.
func (r *StepRepository) Register(ctx context.Context, executionID, name string) (*models.Step, error) {
	query := `
		INSERT INTO steps (execution_id, name)
		VALUES ($1, $2)
		RETURNING id, execution_id, name, status, registered_at, completed_at
	`

	step, err := scanStep(r.db.QueryRowContext(ctx, query, executionID, name))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, persistence.NewExecutionError("Register", executionID, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to register step under execution %s: %w", executionID, err)
	}

	return step, nil
}

// SetCompleted transitions the step to COMPLETED. Unknown ids and already
// finished steps affect zero rows and are not an error.
func (r *StepRepository) SetCompleted(ctx context.Context, id string) error {
	return r.finish(ctx, id, models.StatusCompleted)
}

// SetFailed transitions the step to FAILED. Unknown ids and already finished
// steps affect zero rows and are not an error.
func (r *StepRepository) SetFailed(ctx context.Context, id string) error {
	return r.finish(ctx, id, models.StatusFailed)
}

func (r *StepRepository) finish(ctx context.Context, id string, status models.Status) error {
	query := `
		UPDATE steps
		SET status = $2, completed_at = NOW()
		WHERE id = $1 AND status = 'RUNNING'
	`

	_, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to set step %s to %s: %w", id, status, err)
	}

	return nil
}
