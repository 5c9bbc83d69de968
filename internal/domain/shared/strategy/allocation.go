package strategy

import (
	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Allocation is the share of an amount assigned to one cost code
type Allocation struct {
	CostCodeID uuid.UUID
	Amount     decimal.Decimal
}

// CommitmentAllocationStrategy splits a committed amount across cost codes
type CommitmentAllocationStrategy interface {
	Strategy
	// Allocate splits total across the cost codes; shares sum to total
	Allocate(total decimal.Decimal, costCodeIDs []uuid.UUID) []Allocation
}

// EvenSplitAllocation divides the amount evenly, truncated to cents, with the
// last cost code absorbing the remainder.
type EvenSplitAllocation struct {
	BaseStrategy
}

// NewEvenSplitAllocation creates the even split allocation strategy
func NewEvenSplitAllocation() *EvenSplitAllocation {
	return &EvenSplitAllocation{
		BaseStrategy: NewBaseStrategy("even_split", StrategyTypeAllocation,
			"Even split across cost codes; the last code absorbs rounding"),
	}
}

// Allocate splits total across the cost codes
func (s *EvenSplitAllocation) Allocate(total decimal.Decimal, costCodeIDs []uuid.UUID) []Allocation {
	shares, err := valueobject.SplitCents(total, len(costCodeIDs))
	if err != nil {
		return nil
	}
	result := make([]Allocation, len(costCodeIDs))
	for i, id := range costCodeIDs {
		result[i] = Allocation{CostCodeID: id, Amount: shares[i]}
	}
	return result
}
