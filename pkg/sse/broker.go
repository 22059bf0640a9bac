// Package sse implements the live fan-out of domain events to server-sent
// event subscribers.
package sse

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Channel identifies one broadcast stream.
type Channel string

const (
	ChannelSteps     Channel = "steps"
	ChannelArtifacts Channel = "artifacts"
)

// Channels lists every broadcast channel the broker serves.
func Channels() []Channel {
	return []Channel{ChannelSteps, ChannelArtifacts}
}

// Event is one named frame on a subscriber's stream. Data is JSON-encoded at
// the transport.
type Event struct {
	Name string
	Data any
}

const (
	// EventConnected is sent to every subscriber immediately on subscribe,
	// so observers can distinguish "stream open, no events yet" from
	// "stream never opened".
	EventConnected = "sse-connected"

	// EventHeartbeat keeps idle connections alive through proxies and lets
	// dead subscribers be detected without domain activity.
	EventHeartbeat = "heartbeat"
)

// subscriberBuffer bounds the per-subscriber outbound queue. A subscriber
// that falls this far behind is evicted rather than allowed to stall
// broadcasts.
const subscriberBuffer = 64

// DefaultHeartbeatInterval matches the upstream proxies' idle timeout margin.
const DefaultHeartbeatInterval = 15 * time.Second

// Subscriber is one long-lived outbound stream to one observer. Events
// arrive on Events in broadcast order; Done is closed when the broker evicts
// the subscriber.
type Subscriber struct {
	id     string
	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Events returns the subscriber's outbound queue.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// Done is closed when the subscriber has been evicted and will receive no
// further events.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) close() {
	s.once.Do(func() {
		close(s.done)
	})
}

// Broker owns the subscriber registry for every channel and broadcasts
// events to the active subscribers. Publish never blocks on, or fails
// because of, any subscriber.
type Broker struct {
	logger *slog.Logger

	mu       sync.RWMutex
	channels map[Channel]map[string]*Subscriber

	heartbeatInterval time.Duration
	stop              chan struct{}
	stopOnce          sync.Once
}

// NewBroker creates a broker and starts its heartbeat loop. Close must be
// called on shutdown.
func NewBroker(logger *slog.Logger, heartbeatInterval time.Duration) *Broker {
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}

	broker := &Broker{
		logger:            logger.With("component", "sse_broker"),
		channels:          make(map[Channel]map[string]*Subscriber),
		heartbeatInterval: heartbeatInterval,
		stop:              make(chan struct{}),
	}

	for _, channel := range Channels() {
		broker.channels[channel] = make(map[string]*Subscriber)
	}

	go broker.heartbeatLoop()

	return broker
}

// Subscribe registers a new subscriber on the channel. The returned
// subscriber already has the connected acknowledgement queued ahead of any
// broadcast.
func (b *Broker) Subscribe(channel Channel) *Subscriber {
	subscriber := &Subscriber{
		id:     uuid.NewString(),
		events: make(chan Event, subscriberBuffer),
		done:   make(chan struct{}),
	}

	subscriber.events <- Event{Name: EventConnected, Data: "ok"}

	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, ok := b.channels[channel]
	if !ok {
		subscribers = make(map[string]*Subscriber)
		b.channels[channel] = subscribers
	}

	subscribers[subscriber.id] = subscriber

	b.logger.Debug("Subscriber registered", "channel", channel, "subscriber_id", subscriber.id)

	return subscriber
}

// Unsubscribe removes the subscriber from the channel's active set.
// Subsequent broadcasts simply skip it. Safe to call more than once.
func (b *Broker) Unsubscribe(channel Channel, subscriber *Subscriber) {
	if subscriber == nil {
		return
	}

	b.mu.Lock()

	if subscribers, ok := b.channels[channel]; ok {
		delete(subscribers, subscriber.id)
	}

	b.mu.Unlock()

	subscriber.close()
}

// Broadcast delivers the event to every subscriber currently registered on
// the channel. Delivery is fire-and-forget: a subscriber whose queue is full
// is evicted immediately, and no failure ever reaches the caller.
func (b *Broker) Broadcast(channel Channel, event Event) {
	b.mu.RLock()

	subscribers := make([]*Subscriber, 0, len(b.channels[channel]))
	for _, subscriber := range b.channels[channel] {
		subscribers = append(subscribers, subscriber)
	}

	b.mu.RUnlock()

	for _, subscriber := range subscribers {
		select {
		case subscriber.events <- event:
		default:
			// The subscriber stopped draining its queue; treat it as dead.
			b.logger.Warn("Evicting slow subscriber", "channel", channel, "subscriber_id", subscriber.id)
			b.Unsubscribe(channel, subscriber)
		}
	}
}

// SubscriberCount returns the number of active subscribers on the channel.
func (b *Broker) SubscriberCount(channel Channel) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.channels[channel])
}

// Close stops the heartbeat loop and evicts every subscriber.
func (b *Broker) Close() {
	b.stopOnce.Do(func() {
		close(b.stop)
	})

	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, subscribers := range b.channels {
		for id, subscriber := range subscribers {
			subscriber.close()
			delete(subscribers, id)
		}

		b.logger.Debug("Channel drained", "channel", channel)
	}
}

func (b *Broker) heartbeatLoop() {
	ticker := time.NewTicker(b.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case now := <-ticker.C:
			for _, channel := range Channels() {
				b.Broadcast(channel, Event{
					Name: EventHeartbeat,
					Data: fmt.Sprintf("hb:%s:%s", channel, now.UTC().Format(time.RFC3339)),
				})
			}
		}
	}
}
