package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gustavoteixeirah/debugattor/pkg/storage"
)

// NewBlobStore creates the MinIO-backed blob store, creating the bucket when
// it does not exist yet.
func NewBlobStore(ctx context.Context, logger *slog.Logger, cfg storage.Config) storage.BlobStore {
	store, err := storage.NewMinioStore(ctx, logger, cfg)
	if err != nil {
		panic(fmt.Errorf("failed to initialize blob store: %w", err))
	}

	return store
}
