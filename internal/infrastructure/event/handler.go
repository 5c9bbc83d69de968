package event

import (
	"context"

	"github.com/erp/jobcost/internal/domain/shared"
)

// HandlerFunc adapts a function to shared.EventHandler. Use the pointer
// returned by NewHandlerFunc so it can be unsubscribed later.
type HandlerFunc struct {
	eventTypes []string
	fn         func(ctx context.Context, event shared.DomainEvent) error
}

// NewHandlerFunc creates a handler for the given event types (all events when empty)
func NewHandlerFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *HandlerFunc {
	return &HandlerFunc{eventTypes: eventTypes, fn: fn}
}

// Handle calls the wrapped function
func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

// EventTypes returns the subscribed event types
func (h *HandlerFunc) EventTypes() []string {
	return h.eventTypes
}
