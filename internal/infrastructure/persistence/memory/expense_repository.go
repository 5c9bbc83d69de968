package memory

import (
	"context"
	"strings"

	"github.com/erp/jobcost/internal/domain/expense"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
)

// ExpenseRepository implements expense.ExpenseRepository on the memory store
type ExpenseRepository struct {
	store *Store
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(store *Store) *ExpenseRepository {
	return &ExpenseRepository{store: store}
}

// FindByID finds an expense by ID
func (r *ExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	e, ok := r.store.read(ctx).expenses.get(id)
	if !ok {
		return nil, nil
	}
	return e.Clone(), nil
}

// FindAll returns expenses matching the filter, oldest first
func (r *ExpenseRepository) FindAll(ctx context.Context, filter expense.ExpenseFilter) ([]expense.Expense, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]expense.Expense, 0)
	r.store.read(ctx).expenses.each(func(e *expense.Expense) bool {
		switch {
		case filter.ProjectID != nil && e.ProjectID != *filter.ProjectID:
		case filter.CostCodeID != nil && e.CostCodeID != *filter.CostCodeID:
		case filter.SupplierID != nil && e.SupplierID != *filter.SupplierID:
		case filter.Status != nil && e.Status != *filter.Status:
		case filter.PaymentStatus != nil && e.PaymentStatus != *filter.PaymentStatus:
		case filter.NeedsReview != nil && e.NeedsReview != *filter.NeedsReview:
		case search != "" && !strings.Contains(strings.ToLower(e.Description+" "+e.SupplierName+" "+e.InvoiceNumber), search):
		default:
			result = append(result, *e.Clone())
		}
		return true
	})
	return shared.Paginate(result, filter.Filter), nil
}

// FindByProject returns every expense of a project
func (r *ExpenseRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]expense.Expense, error) {
	return r.FindAll(ctx, expense.ExpenseFilter{ProjectID: &projectID})
}

// Save creates or updates an expense
func (r *ExpenseRepository) Save(ctx context.Context, e *expense.Expense) error {
	stored := e.Clone()
	stored.ClearDomainEvents()
	return r.store.write(ctx, func(t *tables) error {
		t.expenses.put(stored.ID, stored)
		return nil
	})
}

// Delete removes an expense
func (r *ExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(ctx, func(t *tables) error {
		if !t.expenses.remove(id) {
			return shared.NewNotFoundError("Expense")
		}
		return nil
	})
}

var _ expense.ExpenseRepository = (*ExpenseRepository)(nil)
