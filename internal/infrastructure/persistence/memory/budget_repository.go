package memory

import (
	"context"

	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
)

// BudgetRepository implements costing.BudgetRepository on the memory store
type BudgetRepository struct {
	store *Store
}

// NewBudgetRepository creates a new BudgetRepository
func NewBudgetRepository(store *Store) *BudgetRepository {
	return &BudgetRepository{store: store}
}

// FindByProjectAndCostCode finds the budget line of a (project, cost code) pair
func (r *BudgetRepository) FindByProjectAndCostCode(ctx context.Context, projectID, costCodeID uuid.UUID) (*costing.CostCodeBudget, error) {
	var found *costing.CostCodeBudget
	r.store.read(ctx).budgets.each(func(b *costing.CostCodeBudget) bool {
		if b.ProjectID == projectID && b.CostCodeID == costCodeID {
			found = b.Clone()
			return false
		}
		return true
	})
	return found, nil
}

// FindByProject returns the budget lines of a project in creation order
func (r *BudgetRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]costing.CostCodeBudget, error) {
	result := make([]costing.CostCodeBudget, 0)
	r.store.read(ctx).budgets.each(func(b *costing.CostCodeBudget) bool {
		if b.ProjectID == projectID {
			result = append(result, *b.Clone())
		}
		return true
	})
	return result, nil
}

// ExistsForCostCode reports whether any project budgets against the cost code
func (r *BudgetRepository) ExistsForCostCode(ctx context.Context, costCodeID uuid.UUID) (bool, error) {
	exists := false
	r.store.read(ctx).budgets.each(func(b *costing.CostCodeBudget) bool {
		exists = b.CostCodeID == costCodeID
		return !exists
	})
	return exists, nil
}

// Save creates or updates a budget line
func (r *BudgetRepository) Save(ctx context.Context, budget *costing.CostCodeBudget) error {
	stored := budget.Clone()
	stored.ClearDomainEvents()
	return r.store.write(ctx, func(t *tables) error {
		t.budgets.put(stored.ID, stored)
		return nil
	})
}

// Delete removes a budget line
func (r *BudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(ctx, func(t *tables) error {
		if !t.budgets.remove(id) {
			return shared.NewNotFoundError("Budget")
		}
		return nil
	})
}

var _ costing.BudgetRepository = (*BudgetRepository)(nil)
