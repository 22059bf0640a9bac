package file

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
)

// ExecutionRepository implements persistence.ExecutionRepository on the file
// store.
type ExecutionRepository struct {
	store *store
}

func (r *ExecutionRepository) Create(_ context.Context) (*models.Execution, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	execution := &models.Execution{
		ID:        uuid.NewString(),
		Status:    models.StatusRunning,
		Steps:     []*models.Step{},
		StartedAt: time.Now().UTC(),
	}

	err := r.store.save(execution)
	if err != nil {
		return nil, err
	}

	return execution, nil
}

func (r *ExecutionRepository) List(_ context.Context, limit, offset int) ([]*models.Execution, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	executions, err := r.store.list()
	if err != nil {
		return nil, err
	}

	if offset >= len(executions) {
		return []*models.Execution{}, nil
	}

	executions = executions[offset:]
	if limit > 0 && limit < len(executions) {
		executions = executions[:limit]
	}

	return executions, nil
}

func (r *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return r.store.load(id)
}

func (r *ExecutionRepository) SetCompleted(ctx context.Context, id string) error {
	return r.finish(id, models.StatusCompleted)
}

func (r *ExecutionRepository) SetFailed(ctx context.Context, id string) error {
	return r.finish(id, models.StatusFailed)
}

func (r *ExecutionRepository) finish(id string, status models.Status) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	execution, err := r.store.load(id)
	if err != nil {
		// Zero rows affected semantics: transitions on unknown ids are a
		// no-op.
		if persistence.IsExecutionNotFound(err) {
			return nil
		}

		return err
	}

	if !execution.Status.CanTransitionTo(status) {
		return nil
	}

	now := time.Now().UTC()
	execution.Status = status
	execution.FinishedAt = &now

	return r.store.save(execution)
}

func (r *ExecutionRepository) Delete(_ context.Context, id string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return r.store.remove(id)
}
