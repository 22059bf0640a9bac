package sse

import (
	"context"
	"fmt"

	"github.com/gustavoteixeirah/debugattor/pkg/eventbus"
	"github.com/gustavoteixeirah/debugattor/pkg/events"
	"github.com/gustavoteixeirah/debugattor/pkg/otelhelper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// SSE event names on the wire, matching what UI clients subscribe to.
const (
	EventStepRegistered     = "step-registered"
	EventArtifactRegistered = "artifact-registered"
)

var tracer = otel.Tracer("debugattor.sse")

// RegisterHandlers wires the event bus into the broker: step.registered
// events fan out on the steps channel, artifact.logged events on the
// artifacts channel.
func RegisterHandlers(bus eventbus.EventSubscriber, broker *Broker) error {
	err := bus.Handle(events.StepRegisteredEvent, func(ctx context.Context, event any) error {
		stepRegistered, ok := event.(*events.StepRegistered)
		if !ok {
			return fmt.Errorf("unexpected payload type %T for %s", event, events.StepRegisteredEvent)
		}

		_, span := otelhelper.StartSpan(ctx, tracer, "sse.broadcast",
			attribute.String(otelhelper.ChannelKey, string(ChannelSteps)),
			attribute.String(otelhelper.EventIDKey, stepRegistered.ID))
		defer span.End()

		broker.Broadcast(ChannelSteps, Event{Name: EventStepRegistered, Data: stepRegistered})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register step handler: %w", err)
	}

	err = bus.Handle(events.ArtifactLoggedEvent, func(ctx context.Context, event any) error {
		artifactLogged, ok := event.(*events.ArtifactLogged)
		if !ok {
			return fmt.Errorf("unexpected payload type %T for %s", event, events.ArtifactLoggedEvent)
		}

		_, span := otelhelper.StartSpan(ctx, tracer, "sse.broadcast",
			attribute.String(otelhelper.ChannelKey, string(ChannelArtifacts)),
			attribute.String(otelhelper.EventIDKey, artifactLogged.ID))
		defer span.End()

		broker.Broadcast(ChannelArtifacts, Event{Name: EventArtifactRegistered, Data: artifactLogged})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to register artifact handler: %w", err)
	}

	return nil
}
