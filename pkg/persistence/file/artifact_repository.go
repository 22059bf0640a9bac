package file

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
)

// ArtifactRepository implements persistence.ArtifactRepository on the file
// store.
type ArtifactRepository struct {
	store *store
}

func (r *ArtifactRepository) Log(_ context.Context, stepID string, artifactType models.ArtifactType, description, content string) (*models.Artifact, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	execution, step, err := r.store.findStep(stepID)
	if err != nil {
		return nil, err
	}

	if step == nil {
		return nil, &persistence.StepError{Op: "Log", StepID: stepID, Err: persistence.ErrStepNotFound}
	}

	artifact := &models.Artifact{
		ID:          uuid.NewString(),
		StepID:      stepID,
		Type:        artifactType,
		Description: description,
		Content:     content,
		LoggedAt:    time.Now().UTC(),
	}

	step.Artifacts = append(step.Artifacts, artifact)

	err = r.store.save(execution)
	if err != nil {
		return nil, err
	}

	return artifact, nil
}

func (r *ArtifactRepository) CreatePlaceholder(ctx context.Context, stepID string, artifactType models.ArtifactType, description string) (*models.Artifact, error) {
	return r.Log(ctx, stepID, artifactType, description, "")
}

func (r *ArtifactRepository) UpdateContent(_ context.Context, id, content string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	executions, err := r.store.list()
	if err != nil {
		return err
	}

	for _, execution := range executions {
		for _, step := range execution.Steps {
			for _, artifact := range step.Artifacts {
				if artifact.ID == id {
					artifact.Content = content

					return r.store.save(execution)
				}
			}
		}
	}

	return nil
}

func (r *ArtifactRepository) ImageContentsByExecutionID(_ context.Context, executionID string) ([]string, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	execution, err := r.store.load(executionID)
	if err != nil {
		if persistence.IsExecutionNotFound(err) {
			return []string{}, nil
		}

		return nil, err
	}

	contents := make([]string, 0)

	for _, step := range execution.Steps {
		for _, artifact := range step.Artifacts {
			if artifact.Type == models.ArtifactTypeImage {
				contents = append(contents, artifact.Content)
			}
		}
	}

	return contents, nil
}
