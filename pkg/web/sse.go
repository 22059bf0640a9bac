package web

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gustavoteixeirah/debugattor/pkg/sse"
)

// SSEHandlers serves the live event streams. Each connection holds one
// broker subscription; the subscription is dropped when the client
// disconnects, the write fails, or the broker evicts the subscriber.
type SSEHandlers struct {
	broker *sse.Broker
	logger *slog.Logger
}

func NewSSEHandlers(broker *sse.Broker, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		broker: broker,
		logger: logger.With("component", "sse_handlers"),
	}
}

func (h *SSEHandlers) StreamSteps(c fiber.Ctx) error {
	return h.stream(c, sse.ChannelSteps)
}

func (h *SSEHandlers) StreamArtifacts(c fiber.Ctx) error {
	return h.stream(c, sse.ChannelArtifacts)
}

func (h *SSEHandlers) stream(c fiber.Ctx, channel sse.Channel) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	ctx := c.Context()
	subscriber := h.broker.Subscribe(channel)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.broker.Unsubscribe(channel, subscriber)

		for {
			select {
			case <-ctx.Done():
				return
			case <-subscriber.Done():
				return
			case event := <-subscriber.Events():
				err := writeEvent(w, event)
				if err != nil {
					h.logger.Debug("Subscriber write failed, closing stream",
						"channel", channel, "error", err)

					return
				}
			}
		}
	})
}

// writeEvent frames one event on the wire and flushes it, so the client sees
// it immediately.
func writeEvent(w *bufio.Writer, event sse.Event) error {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Name, payload)
	if err != nil {
		return err
	}

	return w.Flush()
}
