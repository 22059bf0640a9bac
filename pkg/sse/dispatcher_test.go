package sse

import (
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gustavoteixeirah/debugattor/pkg/channels/gochannel"
	"github.com/gustavoteixeirah/debugattor/pkg/eventbus"
	"github.com/gustavoteixeirah/debugattor/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDispatcherFixture(t *testing.T) (eventbus.EventBus, *Broker) {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	broker := NewBroker(slog.Default(), time.Hour)

	t.Cleanup(func() {
		broker.Close()
		_ = bus.Close()
	})

	require.NoError(t, RegisterHandlers(bus, broker))
	require.NoError(t, bus.Subscribe(t.Context()))

	return bus, broker
}

func TestRegisterHandlers_StepRegisteredReachesStepsChannel(t *testing.T) {
	bus, broker := newDispatcherFixture(t)

	subscriber := broker.Subscribe(ChannelSteps)
	receiveEvent(t, subscriber) // sse-connected

	published := events.StepRegistered{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.StepRegisteredEvent,
			Timestamp: time.Now().UTC(),
		},
		ExecutionID: "exec-1",
		StepID:      "step-1",
		Name:        "compile",
		Description: "compile",
	}
	require.NoError(t, bus.Publish(t.Context(), "exec-1", published))

	event := receiveEvent(t, subscriber)
	assert.Equal(t, EventStepRegistered, event.Name)

	stepRegistered, ok := event.Data.(*events.StepRegistered)
	require.True(t, ok)
	assert.Equal(t, "exec-1", stepRegistered.ExecutionID)
	assert.Equal(t, "step-1", stepRegistered.StepID)
	assert.Equal(t, "compile", stepRegistered.Name)
}

func TestRegisterHandlers_ArtifactLoggedReachesArtifactsChannel(t *testing.T) {
	bus, broker := newDispatcherFixture(t)

	stepsSubscriber := broker.Subscribe(ChannelSteps)
	artifactsSubscriber := broker.Subscribe(ChannelArtifacts)
	receiveEvent(t, stepsSubscriber)     // sse-connected
	receiveEvent(t, artifactsSubscriber) // sse-connected

	published := events.ArtifactLogged{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.ArtifactLoggedEvent,
			Timestamp: time.Now().UTC(),
		},
		StepID:     "step-1",
		ArtifactID: "artifact-1",
		Content:    "hello",
	}
	require.NoError(t, bus.Publish(t.Context(), "step-1", published))

	event := receiveEvent(t, artifactsSubscriber)
	assert.Equal(t, EventArtifactRegistered, event.Name)

	artifactLogged, ok := event.Data.(*events.ArtifactLogged)
	require.True(t, ok)
	assert.Equal(t, "artifact-1", artifactLogged.ArtifactID)
	assert.Equal(t, "hello", artifactLogged.Content)

	// The steps channel stays quiet.
	select {
	case event := <-stepsSubscriber.Events():
		t.Fatalf("steps subscriber received unexpected event %q", event.Name)
	case <-time.After(100 * time.Millisecond):
	}
}
