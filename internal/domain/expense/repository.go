package expense

import (
	"context"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
)

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	shared.Filter
	ProjectID     *uuid.UUID
	CostCodeID    *uuid.UUID
	SupplierID    *uuid.UUID
	Status        *ExpenseStatus
	PaymentStatus *PaymentStatus
	NeedsReview   *bool
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	// FindByID finds an expense by ID, returning nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)

	// FindAll returns expenses matching the filter, oldest first
	FindAll(ctx context.Context, filter ExpenseFilter) ([]Expense, error)

	// FindByProject returns every expense of a project
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]Expense, error)

	// Save creates or updates an expense
	Save(ctx context.Context, e *Expense) error

	// Delete removes an expense
	Delete(ctx context.Context, id uuid.UUID) error
}
