package postgresql

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestMigrations(t *testing.T) {
	allMigrations := migrations()

	migration, exists := allMigrations[1]
	assert.True(t, exists, "Migration version 1 should exist")
	assert.Contains(t, migration, "CREATE TABLE executions")
	assert.Contains(t, migration, "CREATE TABLE steps")
	assert.Contains(t, migration, "CREATE TABLE artifacts")

	// Children reference parents; the cascade delete relies on the store
	// rejecting parent-first deletes.
	assert.Contains(t, migration, "REFERENCES executions(id)")
	assert.Contains(t, migration, "REFERENCES steps(id)")
}

func TestMigrations_Indexes(t *testing.T) {
	migration := migrations()[1]

	requiredIndexes := []string{
		"idx_executions_started_at",
		"idx_steps_execution_id",
		"idx_artifacts_step_id",
		"idx_artifacts_type",
	}

	for _, index := range requiredIndexes {
		assert.Contains(t, migration, index)
	}
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	persistence, err := NewPersistence(ctx, logger, "not-a-valid-url")
	assert.Error(t, err)
	assert.Nil(t, persistence)
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.True(t, isForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isForeignKeyViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isForeignKeyViolation(errors.New("connection refused")))
	assert.False(t, isForeignKeyViolation(nil))
}
