package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
	"github.com/lib/pq"
)

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Create inserts a new RUNNING execution, letting the database assign the id
// and start timestamp.
func (r *ExecutionRepository) Create(ctx context.Context) (*models.Execution, error) {
	query := `
		INSERT INTO executions DEFAULT VALUES
		RETURNING id, status, started_at, finished_at
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	execution.Steps = []*models.Step{}

	return execution, nil
}

// List returns executions most recent first with nested steps and artifacts.
func (r *ExecutionRepository) List(ctx context.Context, limit, offset int) ([]*models.Execution, error) {
	query := `
		SELECT
			id
		  , status
		  , started_at
		  , finished_at
		FROM executions
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func(ctx context.Context, r *ExecutionRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		executions = append(executions, execution)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	for _, execution := range executions {
		err = r.loadSteps(ctx, execution)
		if err != nil {
			return nil, fmt.Errorf("failed to load steps for execution %s: %w", execution.ID, err)
		}
	}

	return executions, nil
}

// GetByID returns the execution with nested steps and artifacts, or
// persistence.ErrExecutionNotFound.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT
			id
		  , status
		  , started_at
		  , finished_at
		FROM executions
		WHERE id = $1
	`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to query execution %s: %w", id, err)
	}

	err = r.loadSteps(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to load steps for execution %s: %w", id, err)
	}

	return execution, nil
}

// SetCompleted transitions the execution to COMPLETED. Unknown ids and
// already finished executions affect zero rows and are not an error.
func (r *ExecutionRepository) SetCompleted(ctx context.Context, id string) error {
	return r.finish(ctx, id, models.StatusCompleted)
}

// SetFailed transitions the execution to FAILED. Unknown ids and already
// finished executions affect zero rows and are not an error.
func (r *ExecutionRepository) SetFailed(ctx context.Context, id string) error {
	return r.finish(ctx, id, models.StatusFailed)
}

func (r *ExecutionRepository) finish(ctx context.Context, id string, status models.Status) error {
	query := `
		UPDATE executions
		SET status = $2, finished_at = NOW()
		WHERE id = $1 AND status = 'RUNNING'
	`

	_, err := r.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to set execution %s to %s: %w", id, status, err)
	}

	return nil
}

// Delete removes the execution and everything it owns, children before
// parents so foreign key integrity holds at every point. The whole cascade
// runs in one transaction. Returns false when the execution did not exist;
// the existence pre-check distinguishes that from an existing execution with
// zero steps.
func (r *ExecutionRepository) Delete(ctx context.Context, id string) (bool, error) {
	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin delete transaction: %w", err)
	}

	deleted, err := r.deleteCascade(ctx, transaction, id)
	if err != nil {
		_ = transaction.Rollback()

		return false, err
	}

	err = transaction.Commit()
	if err != nil {
		return false, fmt.Errorf("failed to commit delete transaction: %w", err)
	}

	return deleted, nil
}

func (r *ExecutionRepository) deleteCascade(ctx context.Context, transaction *sql.Tx, id string) (bool, error) {
	rows, err := transaction.QueryContext(ctx, "SELECT id FROM steps WHERE execution_id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to query steps of execution %s: %w", id, err)
	}

	stepIDs := make([]string, 0)

	for rows.Next() {
		var stepID string

		err = rows.Scan(&stepID)
		if err != nil {
			_ = rows.Close()

			return false, fmt.Errorf("failed to scan step id: %w", err)
		}

		stepIDs = append(stepIDs, stepID)
	}

	err = rows.Err()
	if err != nil {
		_ = rows.Close()

		return false, fmt.Errorf("error iterating step ids: %w", err)
	}

	_ = rows.Close()

	if len(stepIDs) == 0 {
		var exists bool

		err = transaction.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM executions WHERE id = $1)", id).Scan(&exists)
		if err != nil {
			return false, fmt.Errorf("failed to check execution %s existence: %w", id, err)
		}

		if !exists {
			return false, nil
		}
	}

	_, err = transaction.ExecContext(ctx, "DELETE FROM artifacts WHERE step_id = ANY($1)", pq.Array(stepIDs))
	if err != nil {
		return false, fmt.Errorf("failed to delete artifacts of execution %s: %w", id, err)
	}

	_, err = transaction.ExecContext(ctx, "DELETE FROM steps WHERE execution_id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete steps of execution %s: %w", id, err)
	}

	result, err := transaction.ExecContext(ctx, "DELETE FROM executions WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete execution %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// loadSteps eagerly loads the execution's steps and their artifacts in the
// canonical ordering.
func (r *ExecutionRepository) loadSteps(ctx context.Context, execution *models.Execution) error {
	query := `
		SELECT
			id
		  , execution_id
		  , name
		  , status
		  , registered_at
		  , completed_at
		FROM steps
		WHERE execution_id = $1
		ORDER BY registered_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, execution.ID)
	if err != nil {
		return fmt.Errorf("failed to query steps: %w", err)
	}

	defer func(ctx context.Context, r *ExecutionRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	steps := make([]*models.Step, 0)
	stepsByID := make(map[string]*models.Step)

	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return fmt.Errorf("failed to scan step: %w", err)
		}

		steps = append(steps, step)
		stepsByID[step.ID] = step
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("error iterating steps: %w", err)
	}

	execution.Steps = steps

	if len(steps) == 0 {
		return nil
	}

	stepIDs := make([]string, 0, len(steps))
	for _, step := range steps {
		stepIDs = append(stepIDs, step.ID)
	}

	return r.loadArtifacts(ctx, stepsByID, stepIDs)
}

func (r *ExecutionRepository) loadArtifacts(ctx context.Context, stepsByID map[string]*models.Step, stepIDs []string) error {
	query := `
		SELECT
			id
		  , step_id
		  , type
		  , description
		  , content
		  , logged_at
		FROM artifacts
		WHERE step_id = ANY($1)
		ORDER BY logged_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(stepIDs))
	if err != nil {
		return fmt.Errorf("failed to query artifacts: %w", err)
	}

	defer func(ctx context.Context, r *ExecutionRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return fmt.Errorf("failed to scan artifact: %w", err)
		}

		step, ok := stepsByID[artifact.StepID]
		if !ok {
			continue
		}

		step.Artifacts = append(step.Artifacts, artifact)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("error iterating artifacts: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution  models.Execution
		status     string
		finishedAt sql.NullTime
	)

	err := row.Scan(&execution.ID, &status, &execution.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	execution.Status = models.Status(status)
	if finishedAt.Valid {
		finished := finishedAt.Time
		execution.FinishedAt = &finished
	}

	return &execution, nil
}

func scanStep(row rowScanner) (*models.Step, error) {
	var (
		step        models.Step
		status      string
		completedAt sql.NullTime
	)

	err := row.Scan(&step.ID, &step.ExecutionID, &step.Name, &status, &step.RegisteredAt, &completedAt)
	if err != nil {
		return nil, err
	}

	step.Status = models.Status(status)
	step.Artifacts = []*models.Artifact{}

	if completedAt.Valid {
		completed := completedAt.Time
		step.CompletedAt = &completed
	}

	return &step, nil
}

func scanArtifact(row rowScanner) (*models.Artifact, error) {
	var (
		artifact    models.Artifact
		artifactTyp string
		description sql.NullString
		loggedAt    time.Time
	)

	err := row.Scan(&artifact.ID, &artifact.StepID, &artifactTyp, &description, &artifact.Content, &loggedAt)
	if err != nil {
		return nil, err
	}

	artifact.Type = models.ArtifactType(artifactTyp)
	artifact.Description = description.String
	artifact.LoggedAt = loggedAt

	return &artifact, nil
}
