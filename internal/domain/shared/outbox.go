package shared

import (
	"context"
	"sync"
)

// Outbox collects the domain events raised inside a transaction. Events are
// handed to the publisher only after the outermost transaction commits, so a
// rolled back change never announces itself.
type Outbox struct {
	mu     sync.Mutex
	events []DomainEvent
}

// Record appends events to the outbox
func (o *Outbox) Record(events ...DomainEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, events...)
}

// Drain returns the recorded events and empties the outbox
func (o *Outbox) Drain() []DomainEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	events := o.events
	o.events = nil
	return events
}

// Len returns the number of pending events
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

type outboxKey struct{}

// OutboxFromContext returns the outbox of the transaction carried by ctx
func OutboxFromContext(ctx context.Context) (*Outbox, bool) {
	o, ok := ctx.Value(outboxKey{}).(*Outbox)
	return o, ok
}

// RecordEvents moves the pending events of an aggregate into the outbox of
// ctx. Without an outbox the events are dropped.
func RecordEvents(ctx context.Context, agg AggregateRoot) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if o, ok := OutboxFromContext(ctx); ok && len(events) > 0 {
		o.Record(events...)
	}
}

// RunInTransaction runs fn inside scope with an outbox attached to ctx and
// publishes the recorded events once the transaction has committed. A ctx that
// already carries an outbox joins the outer unit of work; its events are
// published by the outermost caller.
func RunInTransaction(ctx context.Context, scope TransactionScope, publisher EventPublisher, fn func(ctx context.Context) error) error {
	if _, ok := OutboxFromContext(ctx); ok {
		return scope.Execute(ctx, fn)
	}

	outbox := &Outbox{}
	if err := scope.Execute(context.WithValue(ctx, outboxKey{}, outbox), fn); err != nil {
		return err
	}
	if publisher == nil || outbox.Len() == 0 {
		return nil
	}
	return publisher.Publish(ctx, outbox.Drain()...)
}
