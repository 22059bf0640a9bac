package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
)

// ArtifactRepository handles artifact-related database operations.
type ArtifactRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewArtifactRepository creates a new artifact repository.
func NewArtifactRepository(db *sql.DB, logger *slog.Logger) *ArtifactRepository {
	return &ArtifactRepository{db: db, logger: logger}
}

// Log inserts an artifact with inline content. A foreign key violation means
// the step does not exist and maps to persistence.ErrStepNotFound.
func (r *ArtifactRepository) Log(ctx context.Context, stepID string, artifactType models.ArtifactType, description, content string) (*models.Artifact, error) {
	query := `
		INSERT INTO artifacts (step_id, type, description, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, step_id, type, description, content, logged_at
	`

	artifact, err := scanArtifact(r.db.QueryRowContext(ctx, query, stepID, string(artifactType), description, content))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, &persistence.StepError{Op: "Log", StepID: stepID, Err: persistence.ErrStepNotFound}
		}

		return nil, fmt.Errorf("failed to log artifact under step %s: %w", stepID, err)
	}

	return artifact, nil
}

// CreatePlaceholder inserts an artifact row with empty content. The content
// is backfilled by UpdateContent once the blob upload completes.
func (r *ArtifactRepository) CreatePlaceholder(ctx context.Context, stepID string, artifactType models.ArtifactType, description string) (*models.Artifact, error) {
	artifact, err := r.Log(ctx, stepID, artifactType, description, "")
	if err != nil {
		return nil, err
	}

	return artifact, nil
}

// UpdateContent backfills the content of a placeholder artifact. This is the
// single permitted mutation of artifact content.
func (r *ArtifactRepository) UpdateContent(ctx context.Context, id, content string) error {
	query := `
		UPDATE artifacts
		SET content = $2
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, id, content)
	if err != nil {
		return fmt.Errorf("failed to update content of artifact %s: %w", id, err)
	}

	return nil
}

// ImageContentsByExecutionID returns the content of every IMAGE artifact
// owned transitively by the execution. The deletion orchestrator parses these
// for blob object names.
func (r *ArtifactRepository) ImageContentsByExecutionID(ctx context.Context, executionID string) ([]string, error) {
	query := `
		SELECT a.content
		FROM artifacts a
		JOIN steps s ON a.step_id = s.id
		WHERE s.execution_id = $1 AND a.type = 'IMAGE'
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query image artifacts of execution %s: %w", executionID, err)
	}

	defer func(ctx context.Context, r *ArtifactRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	contents := make([]string, 0)

	for rows.Next() {
		var content string

		err = rows.Scan(&content)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact content: %w", err)
		}

		contents = append(contents, content)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating artifact contents: %w", err)
	}

	return contents, nil
}
