package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionRepository_CreateAndGet(t *testing.T) {
	p := NewPersistence(t.TempDir())

	created, err := p.Executions().Create(t.Context())
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusRunning, created.Status)
	assert.Nil(t, created.FinishedAt)
	assert.False(t, created.StartedAt.IsZero())

	fetched, err := p.Executions().GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Empty(t, fetched.Steps)
}

func TestExecutionRepository_GetByID_NotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.Executions().GetByID(t.Context(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionRepository_List_Pagination(t *testing.T) {
	p := NewPersistence(t.TempDir())

	for range 3 {
		_, err := p.Executions().Create(t.Context())
		require.NoError(t, err)
	}

	all, err := p.Executions().List(t.Context(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	page, err := p.Executions().List(t.Context(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := p.Executions().List(t.Context(), 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	none, err := p.Executions().List(t.Context(), 10, 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExecutionRepository_FinishTransitions(t *testing.T) {
	p := NewPersistence(t.TempDir())

	execution, err := p.Executions().Create(t.Context())
	require.NoError(t, err)

	require.NoError(t, p.Executions().SetCompleted(t.Context(), execution.ID))

	fetched, err := p.Executions().GetByID(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, fetched.Status)
	require.NotNil(t, fetched.FinishedAt)

	// Terminal states are immutable.
	require.NoError(t, p.Executions().SetFailed(t.Context(), execution.ID))

	fetched, err = p.Executions().GetByID(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, fetched.Status)

	// Unknown ids are a silent no-op.
	assert.NoError(t, p.Executions().SetFailed(t.Context(), "missing"))
}

func TestExecutionRepository_Finish_CorruptStore(t *testing.T) {
	root := t.TempDir()
	p := NewPersistence(root)

	execution, err := p.Executions().Create(t.Context())
	require.NoError(t, err)

	path := filepath.Join(root, "executions", execution.ID+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	// Only unknown ids are a no-op; a broken store surfaces the error.
	err = p.Executions().SetCompleted(t.Context(), execution.ID)
	require.Error(t, err)
	assert.False(t, persistence.IsExecutionNotFound(err))
}

func TestStepRepository_Register(t *testing.T) {
	p := NewPersistence(t.TempDir())

	execution, err := p.Executions().Create(t.Context())
	require.NoError(t, err)

	step, err := p.Steps().Register(t.Context(), execution.ID, "build")
	require.NoError(t, err)
	assert.NotEmpty(t, step.ID)
	assert.Equal(t, execution.ID, step.ExecutionID)
	assert.Equal(t, models.StatusRunning, step.Status)
	assert.Nil(t, step.CompletedAt)

	fetched, err := p.Executions().GetByID(t.Context(), execution.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Steps, 1)
	assert.Equal(t, "build", fetched.Steps[0].Name)
}

func TestStepRepository_Register_ExecutionNotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.Steps().Register(t.Context(), "missing", "build")
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestStepRepository_FinishTransitions(t *testing.T) {
	p := NewPersistence(t.TempDir())

	execution, err := p.Executions().Create(t.Context())
	require.NoError(t, err)

	step, err := p.Steps().Register(t.Context(), execution.ID, "test")
	require.NoError(t, err)

	require.NoError(t, p.Steps().SetFailed(t.Context(), step.ID))

	fetched, err := p.Executions().GetByID(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, fetched.Steps[0].Status)
	assert.NotNil(t, fetched.Steps[0].CompletedAt)

	// Failing a step does not touch the owning execution.
	assert.Equal(t, models.StatusRunning, fetched.Status)

	// Terminal states are immutable.
	require.NoError(t, p.Steps().SetCompleted(t.Context(), step.ID))

	fetched, err = p.Executions().GetByID(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, fetched.Steps[0].Status)

	assert.NoError(t, p.Steps().SetCompleted(t.Context(), "missing"))
}

func TestArtifactRepository_Log(t *testing.T) {
	p := NewPersistence(t.TempDir())

	execution, err := p.Executions().Create(t.Context())
	require.NoError(t, err)

	step, err := p.Steps().Register(t.Context(), execution.ID, "build")
	require.NoError(t, err)

	artifact, err := p.Artifacts().Log(t.Context(), step.ID, models.ArtifactTypeLog, "build output", "ok")
	require.NoError(t, err)
	assert.NotEmpty(t, artifact.ID)
	assert.Equal(t, step.ID, artifact.StepID)
	assert.Equal(t, "ok", artifact.Content)

	fetched, err := p.Executions().GetByID(t.Context(), execution.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Steps[0].Artifacts, 1)
}

func TestArtifactRepository_Log_StepNotFound(t *testing.T) {
	p := NewPersistence(t.TempDir())

	_, err := p.Artifacts().Log(t.Context(), "missing", models.ArtifactTypeLog, "", "ok")
	require.Error(t, err)
	assert.True(t, persistence.IsStepNotFound(err))
}

func TestArtifactRepository_PlaceholderAndBackfill(t *testing.T) {
	p := NewPersistence(t.TempDir())

	execution, err := p.Executions().Create(t.Context())
	require.NoError(t, err)

	step, err := p.Steps().Register(t.Context(), execution.ID, "capture")
	require.NoError(t, err)

	placeholder, err := p.Artifacts().CreatePlaceholder(t.Context(), step.ID, models.ArtifactTypeImage, "screenshot")
	require.NoError(t, err)
	assert.Empty(t, placeholder.Content)

	url := "http://localhost:9000/artifacts/obj-1.png"
	require.NoError(t, p.Artifacts().UpdateContent(t.Context(), placeholder.ID, url))

	contents, err := p.Artifacts().ImageContentsByExecutionID(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{url}, contents)
}

func TestExecutionRepository_Delete(t *testing.T) {
	p := NewPersistence(t.TempDir())

	execution, err := p.Executions().Create(t.Context())
	require.NoError(t, err)

	deleted, err := p.Executions().Delete(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = p.Executions().GetByID(t.Context(), execution.ID)
	assert.True(t, persistence.IsExecutionNotFound(err))

	deleted, err = p.Executions().Delete(t.Context(), execution.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
