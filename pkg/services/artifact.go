package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gustavoteixeirah/debugattor/pkg/eventbus"
	"github.com/gustavoteixeirah/debugattor/pkg/events"
	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/otelhelper"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
	"github.com/gustavoteixeirah/debugattor/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
)

// Artifact records artifacts against steps. Inline artifacts carry their
// content in the row; file artifacts are uploaded to the blob store and the
// row keeps the resulting URL as content.
type Artifact struct {
	persistence persistence.Persistence
	blobs       storage.BlobStore
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// NewArtifact creates a new artifact service.
func NewArtifact(persistence persistence.Persistence, blobs storage.BlobStore, eventBus eventbus.EventBus, logger *slog.Logger) *Artifact {
	return &Artifact{
		persistence: persistence,
		blobs:       blobs,
		eventBus:    eventBus,
		logger:      logger.With("service", "artifact"),
	}
}

// Log records an artifact with inline content. Returns ErrStepNotFound when
// the step does not exist and ErrInvalidArtifactType for unknown types.
func (a *Artifact) Log(ctx context.Context, stepID string, artifactType models.ArtifactType, description, content string) (*models.Artifact, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "artifact.log",
		attribute.String(otelhelper.StepIDKey, stepID),
		attribute.String(otelhelper.ArtifactTypeKey, string(artifactType)))
	defer span.End()

	if !artifactType.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidArtifactType, artifactType)
		otelhelper.SetError(span, err)

		return nil, err
	}

	artifact, err := a.persistence.Artifacts().Log(ctx, stepID, artifactType, description, content)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to log artifact: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.ArtifactIDKey, artifact.ID))

	a.logger.InfoContext(ctx, "Artifact logged",
		"step_id", stepID, "artifact_id", artifact.ID, "type", artifact.Type)

	a.publishLogged(ctx, artifact, "")

	return artifact, nil
}

// LogFile records a file artifact. The row is written first as a
// placeholder, the file is uploaded under a fresh object name keeping the
// original extension, and the row content is then backfilled with the blob
// URL. Returns ErrStepNotFound when the step does not exist.
func (a *Artifact) LogFile(ctx context.Context, stepID string, artifactType models.ArtifactType, description, filename, contentType string, r io.Reader, size int64) (*models.Artifact, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "artifact.upload",
		attribute.String(otelhelper.StepIDKey, stepID),
		attribute.String(otelhelper.ArtifactTypeKey, string(artifactType)))
	defer span.End()

	if !artifactType.Valid() {
		err := fmt.Errorf("%w: %q", ErrInvalidArtifactType, artifactType)
		otelhelper.SetError(span, err)

		return nil, err
	}

	if size <= 0 {
		otelhelper.SetError(span, ErrEmptyUpload)

		return nil, ErrEmptyUpload
	}

	artifact, err := a.persistence.Artifacts().CreatePlaceholder(ctx, stepID, artifactType, description)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create artifact placeholder: %w", err)
	}

	objectName := uuid.NewString() + filepath.Ext(filename)
	span.SetAttributes(
		attribute.String(otelhelper.ArtifactIDKey, artifact.ID),
		attribute.String(otelhelper.ObjectNameKey, objectName),
	)

	url, err := a.blobs.Store(ctx, r, objectName, contentType, size)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to upload artifact file: %w", err)
	}

	err = a.persistence.Artifacts().UpdateContent(ctx, artifact.ID, url)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to backfill artifact content: %w", err)
	}

	artifact.Content = url

	a.logger.InfoContext(ctx, "Artifact file uploaded",
		"step_id", stepID, "artifact_id", artifact.ID, "object_name", objectName)

	a.publishLogged(ctx, artifact, url)

	return artifact, nil
}

func (a *Artifact) publishLogged(ctx context.Context, artifact *models.Artifact, url string) {
	event := events.ArtifactLogged{
		BaseEvent: events.BaseEvent{
			ID:        a.eventBus.GenerateID(),
			Type:      events.ArtifactLoggedEvent,
			Timestamp: time.Now().UTC(),
		},
		StepID:       artifact.StepID,
		ArtifactID:   artifact.ID,
		ArtifactType: artifact.Type,
		Description:  artifact.Description,
		Content:      artifact.Content,
		URL:          url,
	}

	err := a.eventBus.Publish(ctx, artifact.StepID, event)
	if err != nil {
		a.logger.WarnContext(ctx, "Failed to publish artifact.logged event",
			"artifact_id", artifact.ID, "error", err)
	}
}
