// Package eventbus defines how committed escrow events are published to
// interested consumers.
package eventbus

import (
	"context"

	"github.com/amirasaad/escrow/pkg/domain/events"
)

// HandlerFunc consumes one event.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus defines the contract for publishing and subscribing to escrow events.
// Emit is called only after the state change it describes has committed.
type Bus interface {
	Register(eventType events.Type, handler HandlerFunc)
	Emit(ctx context.Context, e events.Event) error
}
