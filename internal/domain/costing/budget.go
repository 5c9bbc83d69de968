package costing

import (
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BudgetStatus represents the health of a single budget line
type BudgetStatus string

const (
	BudgetStatusUnderBudget BudgetStatus = "under_budget"
	BudgetStatusOnBudget    BudgetStatus = "on_budget"
	BudgetStatusCritical    BudgetStatus = "critical"
	BudgetStatusOverBudget  BudgetStatus = "over_budget"
)

// String returns the string representation of BudgetStatus
func (s BudgetStatus) String() string {
	return string(s)
}

// Status thresholds, as percentage of budget consumed by actuals
var (
	overBudgetThreshold = decimal.NewFromInt(100)
	criticalThreshold   = decimal.NewFromInt(95)
	onBudgetThreshold   = decimal.NewFromInt(85)
)

// StatusForUtilization derives the budget status from actual/budgeted × 100.
// Strictly above 100 is over budget; 95 and 85 are inclusive lower bounds.
func StatusForUtilization(utilization decimal.Decimal) BudgetStatus {
	switch {
	case utilization.GreaterThan(overBudgetThreshold):
		return BudgetStatusOverBudget
	case utilization.GreaterThanOrEqual(criticalThreshold):
		return BudgetStatusCritical
	case utilization.GreaterThanOrEqual(onBudgetThreshold):
		return BudgetStatusOnBudget
	default:
		return BudgetStatusUnderBudget
	}
}

// CostCodeBudget is the budget line for one (project, cost code) pair
type CostCodeBudget struct {
	shared.ProjectAggregateRoot
	CostCodeID         uuid.UUID       `json:"cost_code_id"`
	CostCode           string          `json:"cost_code"`
	CostCodeName       string          `json:"cost_code_name"`
	BudgetedQuantity   decimal.Decimal `json:"budgeted_quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	BudgetedAmount     decimal.Decimal `json:"budgeted_amount"`
	CommittedAmount    decimal.Decimal `json:"committed_amount"`
	CommittedQuantity  decimal.Decimal `json:"committed_quantity"`
	ActualAmount       decimal.Decimal `json:"actual_amount"`
	ActualQuantity     decimal.Decimal `json:"actual_quantity"`
	Variance           decimal.Decimal `json:"variance"`
	VariancePercentage decimal.Decimal `json:"variance_percentage"`
	PercentageComplete decimal.Decimal `json:"percentage_complete"`
	Status             BudgetStatus    `json:"status"`
}

// NewCostCodeBudget creates a budget line of quantity × unitPrice
func NewCostCodeBudget(projectID uuid.UUID, costCode *CostCode, quantity, unitPrice decimal.Decimal) (*CostCodeBudget, error) {
	if projectID == uuid.Nil {
		return nil, shared.NewValidationError("Project ID is required")
	}
	if costCode == nil {
		return nil, shared.NewNotFoundError("Cost code")
	}
	if err := validatePlan(quantity, unitPrice); err != nil {
		return nil, err
	}

	b := &CostCodeBudget{
		ProjectAggregateRoot: shared.NewProjectAggregateRoot(projectID),
		CostCodeID:           costCode.ID,
		CostCode:             costCode.Code,
		CostCodeName:         costCode.Name,
		BudgetedQuantity:     quantity,
		UnitPrice:            unitPrice,
		BudgetedAmount:       quantity.Mul(unitPrice),
		CommittedAmount:      decimal.Zero,
		CommittedQuantity:    decimal.Zero,
		ActualAmount:         decimal.Zero,
		ActualQuantity:       decimal.Zero,
	}
	b.recalculate()

	b.AddDomainEvent(NewBudgetCreatedEvent(b))

	return b, nil
}

func validatePlan(quantity, unitPrice decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("Budgeted quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return shared.NewValidationError("Unit price cannot be negative")
	}
	return nil
}

// Replan changes the budgeted quantity and unit price
func (b *CostCodeBudget) Replan(quantity, unitPrice decimal.Decimal) error {
	if err := validatePlan(quantity, unitPrice); err != nil {
		return err
	}
	previous := b.BudgetedAmount
	b.BudgetedQuantity = quantity
	b.UnitPrice = unitPrice
	b.BudgetedAmount = quantity.Mul(unitPrice)
	b.recalculate()
	b.Touch()
	b.IncrementVersion()

	b.AddDomainEvent(NewBudgetUpdatedEvent(b, "replan", b.BudgetedAmount.Sub(previous)))
	return nil
}

// AddActuals accumulates incurred cost. Negative amounts reverse earlier postings.
func (b *CostCodeBudget) AddActuals(amount, quantity decimal.Decimal) {
	b.ActualAmount = b.ActualAmount.Add(amount)
	b.ActualQuantity = b.ActualQuantity.Add(quantity)
	b.recalculate()
	b.Touch()
	b.IncrementVersion()

	b.AddDomainEvent(NewBudgetUpdatedEvent(b, "actuals", amount))
}

// AddCommitted accumulates contractually committed cost
func (b *CostCodeBudget) AddCommitted(amount, quantity decimal.Decimal) {
	b.CommittedAmount = b.CommittedAmount.Add(amount)
	b.CommittedQuantity = b.CommittedQuantity.Add(quantity)
	b.recalculate()
	b.Touch()
	b.IncrementVersion()

	b.AddDomainEvent(NewBudgetUpdatedEvent(b, "committed", amount))
}

// Utilization returns actual / budgeted × 100
func (b *CostCodeBudget) Utilization() decimal.Decimal {
	return valueobject.RatioPercent(b.ActualAmount, b.BudgetedAmount)
}

// recalculate refreshes every derived field from the running totals
func (b *CostCodeBudget) recalculate() {
	b.Variance = b.BudgetedAmount.Sub(b.ActualAmount)
	b.VariancePercentage = valueobject.RatioPercent(b.Variance, b.BudgetedAmount)
	b.PercentageComplete = b.Utilization()

	if b.BudgetedAmount.IsZero() {
		if b.ActualAmount.IsPositive() {
			b.Status = BudgetStatusOverBudget
		} else {
			b.Status = BudgetStatusUnderBudget
		}
		return
	}
	b.Status = StatusForUtilization(b.PercentageComplete)
}

// CanDelete reports whether the budget line has no incurred cost yet
func (b *CostCodeBudget) CanDelete() bool {
	return !b.ActualAmount.IsPositive()
}

// IsOverBudget returns true when actuals exceed the budget
func (b *CostCodeBudget) IsOverBudget() bool {
	return b.Status == BudgetStatusOverBudget
}

// Clone returns a copy safe to hand across the repository boundary
func (b *CostCodeBudget) Clone() *CostCodeBudget {
	cp := *b
	return &cp
}
