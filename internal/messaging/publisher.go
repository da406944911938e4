package messaging

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// metadataEvent names the event topic inside message metadata so
// streams can be inspected without decoding payloads.
const metadataEvent = "event"

// Publish sends a typed event to its topic. Publishing is
// fire-and-forget from the caller's point of view; the caller decides
// whether a failed publish matters.
type Publish[T any] func(event *T) error

// NewPublishFunc binds a topic to an event type, returning a publish
// function that marshals the event as JSON and stamps the topic into
// the message metadata.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return err
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(metadataEvent, topic)

		return publisher.Publish(topic, msg)
	}
}

// EventBus owns the lifecycle of the underlying publisher so the
// container can shut it down with everything else.
type EventBus struct {
	publisher message.Publisher
}

// NewEventBus wraps a publisher.
func NewEventBus(publisher message.Publisher) *EventBus {
	return &EventBus{publisher: publisher}
}

// Publisher exposes the wrapped publisher for building typed publish
// functions.
func (b *EventBus) Publisher() message.Publisher {
	return b.publisher
}

// Shutdown closes the underlying publisher.
func (b *EventBus) Shutdown() error {
	return b.publisher.Close()
}
