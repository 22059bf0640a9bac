package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence/file"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence/postgresql"
)

// NewPersistence creates a persistence instance from the database URL.
// postgres:// URLs get the PostgreSQL implementation with migrations applied
// on startup; anything else is treated as a file root for local development.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to initialize postgres persistence: %w", err))
		}

		return p
	}

	return file.NewPersistence(databaseURL)
}
