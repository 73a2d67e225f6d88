// Package eventbus provides a watermill-backed publish/subscribe layer for
// pipeline and project lifecycle events.
package eventbus

import (
	"context"

	"github.com/maestrohq/maestro/pkg/events"
)

// Event is anything with a declared event type. All structs in pkg/events
// satisfy it.
type Event interface {
	GetType() events.EventType
}

// EventHandler processes a decoded event.
type EventHandler func(ctx context.Context, event any) error

// EventBus publishes typed events and dispatches subscriptions to handlers.
type EventBus interface {
	Publish(ctx context.Context, key string, event Event) error
	Subscribe(ctx context.Context) error
	Handle(eventType events.EventType, handler EventHandler) error
	GenerateID() string
	Close() error
}
