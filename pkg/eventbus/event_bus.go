// Package eventbus carries committed domain events between recipemap processes.
package eventbus

import (
	"context"

	"github.com/recipemap/recipemap/pkg/events"
)

// Publisher is the half of the bus the services depend on.
type Publisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// HandlerFunc receives a decoded event, one of the pointer types of package events.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Bus publishes events and delivers them to the handler registered for their type.
type Bus interface {
	Publisher

	// Handle replaces any handler previously registered for eventType.
	Handle(eventType events.EventType, handler HandlerFunc)
	Subscribe(ctx context.Context) error
	Close() error
}
