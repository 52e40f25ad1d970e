package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Message is a notification published on the in-process bus.
type Message interface {
	Topic() string
	MessageID() string
	OccurredAt() time.Time
	Payload() interface{}
}

type BaseMessage struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

func (m BaseMessage) Topic() string {
	return m.Type
}

func (m BaseMessage) MessageID() string {
	return m.ID
}

func (m BaseMessage) OccurredAt() time.Time {
	return m.Timestamp
}

func (m BaseMessage) Payload() interface{} {
	return m.Data
}

type Handler func(ctx context.Context, msg Message) error

// Bus fans messages out to the handlers subscribed to their topic.
type Bus struct {
	handlers map[string][]Handler
	logger   *slog.Logger
	mu       sync.RWMutex
	inflight sync.WaitGroup
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (b *Bus) Subscribe(topic string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[topic] = append(b.handlers[topic], handler)
	b.logger.Info("bus handler registered",
		"topic", topic,
		"total_handlers", len(b.handlers[topic]))
}

func (b *Bus) subscribers(topic string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.handlers[topic]
}

// Publish runs every handler on its own goroutine. Handler failures are
// logged, never returned. The handlers see a context detached from the
// publisher's cancellation.
func (b *Bus) Publish(ctx context.Context, msg Message) error {
	handlers := b.subscribers(msg.Topic())
	if len(handlers) == 0 {
		b.logger.Debug("no handlers for topic", "topic", msg.Topic())
		return nil
	}

	b.logger.Debug("publishing message",
		"topic", msg.Topic(),
		"message_id", msg.MessageID(),
		"handlers_count", len(handlers))

	detached := context.WithoutCancel(ctx)
	for _, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			if err := h(detached, msg); err != nil {
				b.logger.Error("bus handler failed",
					"topic", msg.Topic(),
					"message_id", msg.MessageID(),
					"error", err)
			}
		}(handler)
	}

	return nil
}

// PublishSync runs handlers in order and stops at the first failure.
func (b *Bus) PublishSync(ctx context.Context, msg Message) error {
	for _, handler := range b.subscribers(msg.Topic()) {
		if err := handler(ctx, msg); err != nil {
			b.logger.Error("bus handler failed",
				"topic", msg.Topic(),
				"message_id", msg.MessageID(),
				"error", err)
			return fmt.Errorf("handler failed for %s: %w", msg.Topic(), err)
		}
	}
	return nil
}

// Wait blocks until every asynchronously dispatched handler has returned.
func (b *Bus) Wait() {
	b.inflight.Wait()
}
