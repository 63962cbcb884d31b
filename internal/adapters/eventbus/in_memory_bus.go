package eventbus

import (
	"MTLAJoin/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("event bus closed")

// InMemoryBus delivers events to subscribers in the same process. Each
// handler runs in its own goroutine; Close waits for them to finish.
type InMemoryBus struct {
	log         zerolog.Logger
	subscribers map[string][]ports.EventHandler
	mu          sync.RWMutex
	inflight    sync.WaitGroup
	closed      bool
}

var _ ports.EventBus = (*InMemoryBus)(nil) // Ensure compliance

// NewInMemoryEventBus creates a new, empty event bus
func NewInMemoryEventBus(baseLogger *zerolog.Logger) *InMemoryBus {
	return &InMemoryBus{
		log:         baseLogger.With().Str("component", "in_memory_bus").Logger(),
		subscribers: make(map[string][]ports.EventHandler),
	}
}

// Publish sends an event to all subscribers of a topic
func (b *InMemoryBus) Publish(ctx context.Context, topic string, data any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	handlers := b.subscribers[topic]
	if len(handlers) == 0 {
		b.log.Debug().Str("topic", topic).Msg("Published event with no subscribers")
		return nil
	}

	event := ports.Event{Topic: topic, Data: data}

	// Handlers get a fresh context so they outlive the publisher's request.
	for _, h := range handlers {
		b.inflight.Add(1)
		go b.deliver(context.WithoutCancel(ctx), h, event)
	}

	b.log.Debug().Str("topic", topic).Int("handlers", len(handlers)).Msg("Event published")
	return nil
}

func (b *InMemoryBus) deliver(ctx context.Context, h ports.EventHandler, event ports.Event) {
	defer b.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("topic", event.Topic).Str("panic", fmt.Sprint(r)).Msg("Event handler panicked")
		}
	}()

	if err := h(ctx, event); err != nil {
		b.log.Error().Err(err).Str("topic", event.Topic).Msg("Event handler failed")
	}
}

// Subscribe registers a handler for a specific topic
func (b *InMemoryBus) Subscribe(topic string, handler ports.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subscribers[topic] = append(b.subscribers[topic], handler)
	b.log.Info().Str("topic", topic).Msg("New handler subscribed to topic")
}

// Close stops accepting events and waits for running handlers, or for ctx.
func (b *InMemoryBus) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info().Msg("Event bus drained")
		return nil
	case <-ctx.Done():
		b.log.Warn().Msg("Event bus close timed out with handlers still running")
		return ctx.Err()
	}
}
