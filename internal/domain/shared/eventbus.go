package shared

import "context"

// EventHandler reacts to published domain events. EventTypes names the
// event types it wants; an empty list means every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher hands committed events to the subscribed handlers
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber manages handler registration. Types passed to Subscribe
// take precedence over the handler's own EventTypes.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is the in-process bus wired by the container
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// TransactionScope runs fn as one unit of work. Repository writes made
// through the ctx passed to fn commit together or not at all, and a ctx that
// already carries a transaction joins it.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}
