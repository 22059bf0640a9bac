package file

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gustavoteixeirah/debugattor/pkg/models"
)

// StepRepository implements persistence.StepRepository on the file store.
type StepRepository struct {
	store *store
}

func (r *StepRepository) Register(_ context.Context, executionID, name string) (*models.Step, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	execution, err := r.store.load(executionID)
	if err != nil {
		return nil, err
	}

	step := models.NewStep(executionID, name)
	step.ID = uuid.NewString()
	step.RegisteredAt = time.Now().UTC()

	execution.Steps = append(execution.Steps, step)

	err = r.store.save(execution)
	if err != nil {
		return nil, err
	}

	return step, nil
}

func (r *StepRepository) SetCompleted(_ context.Context, id string) error {
	return r.finish(id, models.StatusCompleted)
}

func (r *StepRepository) SetFailed(_ context.Context, id string) error {
	return r.finish(id, models.StatusFailed)
}

func (r *StepRepository) finish(id string, status models.Status) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	execution, step, err := r.store.findStep(id)
	if err != nil {
		return err
	}

	if step == nil {
		// Transitions on unknown ids are a no-op.
		return nil
	}

	if !step.Status.CanTransitionTo(status) {
		return nil
	}

	now := time.Now().UTC()
	step.Status = status
	step.CompletedAt = &now

	return r.store.save(execution)
}
