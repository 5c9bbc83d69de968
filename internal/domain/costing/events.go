package costing

import (
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event type names
const (
	EventTypeCostCodeCreated = "CostCodeCreated"
	EventTypeBudgetCreated   = "BudgetCreated"
	EventTypeBudgetUpdated   = "BudgetUpdated"
)

// CostCodeCreatedEvent is raised when a cost code is added to the catalog
type CostCodeCreatedEvent struct {
	shared.BaseDomainEvent
	CostCodeID uuid.UUID    `json:"cost_code_id"`
	Code       string       `json:"code"`
	Name       string       `json:"name"`
	Type       CostCodeType `json:"type"`
}

// NewCostCodeCreatedEvent creates a new CostCodeCreatedEvent
func NewCostCodeCreatedEvent(cc *CostCode) *CostCodeCreatedEvent {
	return &CostCodeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCostCodeCreated, "CostCode", cc.ID, uuid.Nil),
		CostCodeID:      cc.ID,
		Code:            cc.Code,
		Name:            cc.Name,
		Type:            cc.Type,
	}
}

// BudgetCreatedEvent is raised when a budget line is created for a project
type BudgetCreatedEvent struct {
	shared.BaseDomainEvent
	BudgetID       uuid.UUID       `json:"budget_id"`
	CostCodeID     uuid.UUID       `json:"cost_code_id"`
	BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
}

// NewBudgetCreatedEvent creates a new BudgetCreatedEvent
func NewBudgetCreatedEvent(b *CostCodeBudget) *BudgetCreatedEvent {
	return &BudgetCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBudgetCreated, "CostCodeBudget", b.ID, b.ProjectID),
		BudgetID:        b.ID,
		CostCodeID:      b.CostCodeID,
		BudgetedAmount:  b.BudgetedAmount,
	}
}

// BudgetUpdatedEvent is raised whenever actuals, commitments or the plan change
type BudgetUpdatedEvent struct {
	shared.BaseDomainEvent
	BudgetID   uuid.UUID       `json:"budget_id"`
	CostCodeID uuid.UUID       `json:"cost_code_id"`
	Reason     string          `json:"reason"`
	Delta      decimal.Decimal `json:"delta"`
	Status     BudgetStatus    `json:"status"`
}

// NewBudgetUpdatedEvent creates a new BudgetUpdatedEvent
func NewBudgetUpdatedEvent(b *CostCodeBudget, reason string, delta decimal.Decimal) *BudgetUpdatedEvent {
	return &BudgetUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBudgetUpdated, "CostCodeBudget", b.ID, b.ProjectID),
		BudgetID:        b.ID,
		CostCodeID:      b.CostCodeID,
		Reason:          reason,
		Delta:           delta,
		Status:          b.Status,
	}
}
