package sse

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T, heartbeat time.Duration) *Broker {
	t.Helper()

	broker := NewBroker(slog.Default(), heartbeat)
	t.Cleanup(broker.Close)

	return broker
}

func receiveEvent(t *testing.T, subscriber *Subscriber) Event {
	t.Helper()

	select {
	case event := <-subscriber.Events():
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")

		return Event{}
	}
}

func TestBroker_SubscribeSendsConnectedFirst(t *testing.T) {
	broker := newTestBroker(t, time.Hour)

	subscriber := broker.Subscribe(ChannelSteps)

	broker.Broadcast(ChannelSteps, Event{Name: EventStepRegistered, Data: "s1"})

	first := receiveEvent(t, subscriber)
	assert.Equal(t, EventConnected, first.Name)

	second := receiveEvent(t, subscriber)
	assert.Equal(t, EventStepRegistered, second.Name)
}

func TestBroker_BroadcastReachesAllSubscribers(t *testing.T) {
	broker := newTestBroker(t, time.Hour)

	first := broker.Subscribe(ChannelSteps)
	second := broker.Subscribe(ChannelSteps)

	broker.Broadcast(ChannelSteps, Event{Name: EventStepRegistered, Data: "s1"})

	for _, subscriber := range []*Subscriber{first, second} {
		receiveEvent(t, subscriber) // sse-connected
		event := receiveEvent(t, subscriber)
		assert.Equal(t, "s1", event.Data)
	}
}

func TestBroker_SubscriberConnectedAfterPublishSeesNothing(t *testing.T) {
	broker := newTestBroker(t, time.Hour)

	broker.Broadcast(ChannelSteps, Event{Name: EventStepRegistered, Data: "s1"})

	late := broker.Subscribe(ChannelSteps)

	receiveEvent(t, late) // sse-connected only

	select {
	case event := <-late.Events():
		t.Fatalf("late subscriber received unexpected event %q", event.Name)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroker_ChannelsAreIndependent(t *testing.T) {
	broker := newTestBroker(t, time.Hour)

	stepsSubscriber := broker.Subscribe(ChannelSteps)
	artifactsSubscriber := broker.Subscribe(ChannelArtifacts)

	broker.Broadcast(ChannelArtifacts, Event{Name: EventArtifactRegistered, Data: "a1"})

	receiveEvent(t, stepsSubscriber)     // sse-connected
	receiveEvent(t, artifactsSubscriber) // sse-connected

	event := receiveEvent(t, artifactsSubscriber)
	assert.Equal(t, EventArtifactRegistered, event.Name)

	select {
	case event := <-stepsSubscriber.Events():
		t.Fatalf("steps subscriber received unexpected event %q", event.Name)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBroker_FIFOPerSubscriber(t *testing.T) {
	broker := newTestBroker(t, time.Hour)

	subscriber := broker.Subscribe(ChannelSteps)
	receiveEvent(t, subscriber) // sse-connected

	for i := range 10 {
		broker.Broadcast(ChannelSteps, Event{Name: EventStepRegistered, Data: i})
	}

	for i := range 10 {
		event := receiveEvent(t, subscriber)
		assert.Equal(t, i, event.Data)
	}
}

func TestBroker_SlowSubscriberIsEvictedWithoutPublisherError(t *testing.T) {
	broker := newTestBroker(t, time.Hour)

	// Never drained, not even the connected ack; its buffer fills one
	// broadcast sooner than an attentive subscriber's would.
	stalled := broker.Subscribe(ChannelSteps)
	healthy := broker.Subscribe(ChannelSteps)

	receiveEvent(t, healthy) // sse-connected

	for i := range subscriberBuffer {
		broker.Broadcast(ChannelSteps, Event{Name: EventStepRegistered, Data: i})
	}

	select {
	case <-stalled.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("stalled subscriber was not evicted")
	}

	assert.Equal(t, 1, broker.SubscriberCount(ChannelSteps))

	// The healthy subscriber still gets every event in order.
	for i := range subscriberBuffer {
		event := receiveEvent(t, healthy)
		assert.Equal(t, i, event.Data)
	}
}

func TestBroker_Unsubscribe(t *testing.T) {
	broker := newTestBroker(t, time.Hour)

	subscriber := broker.Subscribe(ChannelSteps)
	require.Equal(t, 1, broker.SubscriberCount(ChannelSteps))

	broker.Unsubscribe(ChannelSteps, subscriber)
	assert.Equal(t, 0, broker.SubscriberCount(ChannelSteps))

	select {
	case <-subscriber.Done():
	default:
		t.Fatal("unsubscribed subscriber should be done")
	}

	// Idempotent.
	broker.Unsubscribe(ChannelSteps, subscriber)
}

func TestBroker_Heartbeat(t *testing.T) {
	broker := newTestBroker(t, 20*time.Millisecond)

	subscriber := broker.Subscribe(ChannelSteps)
	receiveEvent(t, subscriber) // sse-connected

	event := receiveEvent(t, subscriber)
	assert.Equal(t, EventHeartbeat, event.Name)
	assert.Contains(t, event.Data, "hb:steps:")
}

func TestBroker_CloseEvictsEveryone(t *testing.T) {
	broker := NewBroker(slog.Default(), time.Hour)

	stepsSubscriber := broker.Subscribe(ChannelSteps)
	artifactsSubscriber := broker.Subscribe(ChannelArtifacts)

	broker.Close()

	for _, subscriber := range []*Subscriber{stepsSubscriber, artifactsSubscriber} {
		select {
		case <-subscriber.Done():
		case <-time.After(time.Second):
			t.Fatal("subscriber not closed on broker shutdown")
		}
	}

	assert.Equal(t, 0, broker.SubscriberCount(ChannelSteps))
	assert.Equal(t, 0, broker.SubscriberCount(ChannelArtifacts))
}
