// Package eventbus provides in-process and Kafka implementations of
// eventbus.Bus.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/escrow/pkg/domain/events"
	"github.com/amirasaad/escrow/pkg/eventbus"
)

// MemoryEventBus dispatches synchronously to registered handlers.
type MemoryEventBus struct {
	handlers  map[events.Type][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []events.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryEventBus{
		handlers: make(map[events.Type][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register registers a handler for a specific event type.
func (b *MemoryEventBus) Register(eventType events.Type, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all registered handlers for its type. Handler
// failures are logged; the state change already committed.
func (b *MemoryEventBus) Emit(ctx context.Context, e events.Event) error {
	b.mu.Lock()
	b.published = append(b.published, e)
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[e.Kind]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("panic recovered in event handler", "type", e.Kind, "code", e.TransactionCode, "panic", r)
				}
			}()
			if err := handler(ctx, e); err != nil {
				b.logger.Error("failed to process event", "type", e.Kind, "code", e.TransactionCode, "error", err)
			}
		}()
	}
	return nil
}

// Published returns a copy of every emitted event. This is useful for testing.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event(nil), b.published...)
}

// ClearPublished clears the list of published events.
func (b *MemoryEventBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)
