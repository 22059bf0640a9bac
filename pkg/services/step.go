package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gustavoteixeirah/debugattor/pkg/eventbus"
	"github.com/gustavoteixeirah/debugattor/pkg/events"
	"github.com/gustavoteixeirah/debugattor/pkg/models"
	"github.com/gustavoteixeirah/debugattor/pkg/otelhelper"
	"github.com/gustavoteixeirah/debugattor/pkg/persistence"
	"go.opentelemetry.io/otel/attribute"
)

// Step handles step registration and completion. Registration publishes a
// step.registered event for live observers; publishing is best effort and
// never fails the write.
type Step struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	logger      *slog.Logger
}

// NewStep creates a new step service.
func NewStep(persistence persistence.Persistence, eventBus eventbus.EventBus, logger *slog.Logger) *Step {
	return &Step{
		persistence: persistence,
		eventBus:    eventBus,
		logger:      logger.With("service", "step"),
	}
}

// Register records a new RUNNING step under the execution. Returns
// ErrExecutionNotFound when the execution does not exist and
// ErrStepNameRequired when the name is blank.
func (s *Step) Register(ctx context.Context, executionID, name string) (*models.Step, error) {
	ctx, span := otelhelper.StartSpan(ctx, tracer, "step.register",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.StepNameKey, name))
	defer span.End()

	if strings.TrimSpace(name) == "" {
		otelhelper.SetError(span, ErrStepNameRequired)

		return nil, ErrStepNameRequired
	}

	step, err := s.persistence.Steps().Register(ctx, executionID, name)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to register step: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.StepIDKey, step.ID))

	s.logger.InfoContext(ctx, "Step registered",
		"execution_id", executionID, "step_id", step.ID, "name", step.Name)

	s.publishRegistered(ctx, step)

	return step, nil
}

// Complete marks the step COMPLETED. Unknown ids are a no-op.
func (s *Step) Complete(ctx context.Context, id string) error {
	err := s.persistence.Steps().SetCompleted(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to complete step: %w", err)
	}

	return nil
}

// Fail marks the step FAILED. Unknown ids are a no-op.
func (s *Step) Fail(ctx context.Context, id string) error {
	err := s.persistence.Steps().SetFailed(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fail step: %w", err)
	}

	return nil
}

func (s *Step) publishRegistered(ctx context.Context, step *models.Step) {
	event := events.StepRegistered{
		BaseEvent: events.BaseEvent{
			ID:        s.eventBus.GenerateID(),
			Type:      events.StepRegisteredEvent,
			Timestamp: time.Now().UTC(),
		},
		ExecutionID: step.ExecutionID,
		StepID:      step.ID,
		Name:        step.Name,
		Description: step.Name,
	}

	err := s.eventBus.Publish(ctx, step.ExecutionID, event)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish step.registered event",
			"step_id", step.ID, "error", err)
	}
}
