// Package eventbus provides a simple publish/subscribe event bus. The
// bookstore uses it to decouple identity creation from registry row
// materialization: the auth layer publishes an event, the principals hook
// subscribes.
package eventbus

import (
	"context"
	"time"
)

// Handler is the function type for event subscribers. Handlers should assume
// they may be called multiple times concurrently, and must call Ack or Nack
// on the message when using queue semantics.
type Handler func(ctx context.Context, msg *Message) error

// Message wraps an event payload with delivery metadata.
type Message struct {
	// ID uniquely identifies this delivery.
	ID string

	// Topic the message was published on.
	Topic string

	// Data is the event payload.
	Data any

	// Attempt is 1 for the first delivery and increments on redelivery.
	Attempt int

	ack  func()
	nack func()
}

// NewMessage constructs a message for delivery. Bus implementations may
// provide real ack/nack functions via WithAckers.
func NewMessage(id, topic string, data any) *Message {
	return &Message{
		ID:      id,
		Topic:   topic,
		Data:    data,
		Attempt: 1,
		ack:     func() {},
		nack:    func() {},
	}
}

// WithAckers attaches acknowledgement callbacks and returns the message.
func (m *Message) WithAckers(ack, nack func()) *Message {
	m.ack = ack
	m.nack = nack
	return m
}

// Ack marks the message as successfully processed.
func (m *Message) Ack() { m.ack() }

// Nack signals that processing failed and the message may be redelivered.
func (m *Message) Nack() { m.nack() }

// EventBus provides a publish/subscribe interface for events.
type EventBus interface {
	// Subscribe to a topic. The handler will be called for every message
	// published on the topic.
	Subscribe(topic string, handler Handler)

	// Publish a message to all subscribers of a topic.
	Publish(topic string, data any)

	// SubscribeQueue registers a handler in a work-sharing group; each message
	// enqueued on the topic goes to exactly one queue subscriber.
	SubscribeQueue(topic string, handler Handler)

	// Enqueue sends a message to one queue subscriber.
	Enqueue(topic string, data any)

	// Wait blocks until all pending messages are processed or the context is
	// done. Ensure publishers are stopped first; the bus won't reject new
	// events.
	Wait(ctx context.Context) error

	// Shutdown stops workers and waits for in-flight handlers.
	Shutdown(ctx context.Context) error
}

// WaitTimeout is a convenience for Wait with a deadline.
func WaitTimeout(ctx context.Context, bus EventBus, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return bus.Wait(ctx)
}

type ctxKey struct{}

// WithEventBus attaches a bus to the context.
func WithEventBus(ctx context.Context, bus EventBus) context.Context {
	return context.WithValue(ctx, ctxKey{}, bus)
}

// FromContext returns the bus attached to the context, or nil.
func FromContext(ctx context.Context) EventBus {
	if bus, ok := ctx.Value(ctxKey{}).(EventBus); ok {
		return bus
	}
	return nil
}
