package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is a versioned entity that buffers the events it raises
// until RecordEvents moves them into the transaction outbox.
type AggregateRoot interface {
	Entity
	GetVersion() int
	IncrementVersion()
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot holds the version and the pending events of an
// aggregate. Version starts at 1 and each saved mutation bumps it.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int `json:"version"`
	domainEvents []DomainEvent
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

func (a *BaseAggregateRoot) IncrementVersion() { a.Version++ }

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns a copy of the pending events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return append([]DomainEvent(nil), a.domainEvents...)
}

func (a *BaseAggregateRoot) ClearDomainEvents() { a.domainEvents = nil }

// ProjectAggregateRoot is an aggregate owned by one project. Every costing
// record except the cost code catalog embeds it.
type ProjectAggregateRoot struct {
	BaseAggregateRoot
	ProjectID uuid.UUID `json:"project_id"`
}

func NewProjectAggregateRoot(projectID uuid.UUID) ProjectAggregateRoot {
	return ProjectAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot(), ProjectID: projectID}
}
