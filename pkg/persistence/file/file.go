// Package file provides a file-backed persistence implementation, used by
// tests and local development. Each execution is stored as one JSON document
// holding its steps and artifacts.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file
// system.
type Persistence struct {
	store         *store
	executionRepo *ExecutionRepository
	stepRepo      *StepRepository
	artifactRepo  *ArtifactRepository
}

// NewPersistence creates a new instance of Persistence rooted at the given
// directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)
	st := &store{root: cleanRoot}

	return &Persistence{
		store:         st,
		executionRepo: &ExecutionRepository{store: st},
		stepRepo:      &StepRepository{store: st},
		artifactRepo:  &ArtifactRepository{store: st},
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.store.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Executions() persistence.ExecutionRepository {
	return fp.executionRepo
}

func (fp *Persistence) Steps() persistence.StepRepository {
	return fp.stepRepo
}

func (fp *Persistence) Artifacts() persistence.ArtifactRepository {
	return fp.artifactRepo
}

// store serializes access to the execution documents. A single lock is enough
// here; this implementation backs tests and local development, not
// production load.
type store struct {
	mu   sync.RWMutex
	root string
}

func (s *store) dir() string {
	return filepath.Join(s.root, "executions")
}

func (s *store) path(id string) string {
	return filepath.Join(s.dir(), id+".json")
}

// load reads one execution document. Returns persistence.ErrExecutionNotFound
// when no document exists for the id.
func (s *store) load(id string) (*models.Execution, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("load", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	var execution models.Execution

	err = json.Unmarshal(data, &execution)
	if err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &execution, nil
}

// save writes one execution document, creating the directory on first use.
func (s *store) save(execution *models.Execution) error {
	err := os.MkdirAll(s.dir(), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution %s: %w", execution.ID, err)
	}

	err = os.WriteFile(s.path(execution.ID), data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write execution %s: %w", execution.ID, err)
	}

	return nil
}

// list loads every execution document, most recently started first.
func (s *store) list() ([]*models.Execution, error) {
	entries, err := os.ReadDir(s.dir())
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Execution{}, nil
		}

		return nil, fmt.Errorf("failed to read executions directory: %w", err)
	}

	executions := make([]*models.Execution, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		execution, err := s.load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	sort.Slice(executions, func(i, j int) bool {
		return executions[i].StartedAt.After(executions[j].StartedAt)
	})

	return executions, nil
}

// remove deletes one execution document. Returns false when it did not exist.
func (s *store) remove(id string) (bool, error) {
	err := os.Remove(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to remove execution %s: %w", id, err)
	}

	return true, nil
}

// findStep locates the execution owning the given step id.
func (s *store) findStep(stepID string) (*models.Execution, *models.Step, error) {
	executions, err := s.list()
	if err != nil {
		return nil, nil, err
	}

	for _, execution := range executions {
		for _, step := range execution.Steps {
			if step.ID == stepID {
				return execution, step, nil
			}
		}
	}

	return nil, nil, nil
}
