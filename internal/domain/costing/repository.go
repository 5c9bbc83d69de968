package costing

import (
	"context"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
)

// CostCodeFilter defines filtering options for cost code queries
type CostCodeFilter struct {
	shared.Filter
	Type       *CostCodeType
	Division   string
	ActiveOnly bool
}

// CostCodeRepository defines the interface for cost code persistence.
// FindAll returns codes in catalog (insertion) order.
type CostCodeRepository interface {
	// FindByID finds a cost code by ID, returning nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*CostCode, error)

	// FindByCode finds a cost code by its unique code, returning nil when absent
	FindByCode(ctx context.Context, code string) (*CostCode, error)

	// FindAll returns cost codes matching the filter in catalog order
	FindAll(ctx context.Context, filter CostCodeFilter) ([]CostCode, error)

	// Save creates or updates a cost code
	Save(ctx context.Context, costCode *CostCode) error

	// Delete removes a cost code
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the size of the catalog
	Count(ctx context.Context) (int64, error)
}

// BudgetRepository defines the interface for cost code budget persistence.
// There is at most one budget per (project, cost code) pair.
type BudgetRepository interface {
	// FindByProjectAndCostCode finds the budget for a pair, returning nil when absent
	FindByProjectAndCostCode(ctx context.Context, projectID, costCodeID uuid.UUID) (*CostCodeBudget, error)

	// FindByProject returns every budget line of a project
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]CostCodeBudget, error)

	// ExistsForCostCode reports whether any project budgets against the cost code
	ExistsForCostCode(ctx context.Context, costCodeID uuid.UUID) (bool, error)

	// Save creates or updates a budget line
	Save(ctx context.Context, budget *CostCodeBudget) error

	// Delete removes a budget line
	Delete(ctx context.Context, id uuid.UUID) error
}
