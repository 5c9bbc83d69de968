package costing

import (
	"context"
	"testing"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createBudget(t *testing.T, f *fixture, projectID uuid.UUID) *costing.CostCodeBudget {
	t.Helper()
	cc, err := f.ledger.CreateCostCode(context.Background(), concreteRequest(), actor)
	require.NoError(t, err)
	budget, err := f.ledger.CreateBudget(context.Background(), BudgetRequest{
		ProjectID:  projectID,
		CostCodeID: cc.ID,
		Quantity:   dec("100"),
		UnitPrice:  dec("500"),
	}, actor)
	require.NoError(t, err)
	return budget
}

func TestLedger_CreateBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := uuid.New()

	budget := createBudget(t, f, projectID)
	assert.True(t, budget.BudgetedAmount.Equal(dec("50000")))
	assert.Equal(t, costing.BudgetStatusUnderBudget, budget.Status)
	assert.Equal(t, "03-300", budget.CostCode)

	_, err := f.ledger.CreateBudget(ctx, BudgetRequest{
		ProjectID: projectID, CostCodeID: budget.CostCodeID, Quantity: dec("1"), UnitPrice: dec("1"),
	}, actor)
	assert.Equal(t, shared.CodeDuplicateBudget, shared.CodeOf(err))

	_, err = f.ledger.CreateBudget(ctx, BudgetRequest{
		ProjectID: projectID, CostCodeID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("1"),
	}, actor)
	assert.True(t, shared.IsNotFound(err))

	budgets, err := f.ledger.ListProjectBudgets(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, budgets, 1)
}

func TestLedger_CreateBudget_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  BudgetRequest
	}{
		{"missing project", BudgetRequest{CostCodeID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("1")}},
		{"zero quantity", BudgetRequest{ProjectID: uuid.New(), CostCodeID: uuid.New(), Quantity: dec("0"), UnitPrice: dec("1")}},
		{"negative price", BudgetRequest{ProjectID: uuid.New(), CostCodeID: uuid.New(), Quantity: dec("1"), UnitPrice: dec("-1")}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.ledger.CreateBudget(context.Background(), tc.req, actor)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

func TestLedger_UpdateBudgetActuals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := uuid.New()
	budget := createBudget(t, f, projectID)

	updated, err := f.ledger.UpdateBudgetActuals(ctx, projectID, budget.CostCodeID, dec("45000"), dec("90"))
	require.NoError(t, err)
	assert.True(t, updated.ActualAmount.Equal(dec("45000")))
	assert.True(t, updated.Variance.Equal(dec("5000")))
	assert.Equal(t, costing.BudgetStatusOnBudget, updated.Status)

	updated, err = f.ledger.UpdateBudgetActuals(ctx, projectID, budget.CostCodeID, dec("-5000"), dec("-10"))
	require.NoError(t, err)
	assert.True(t, updated.ActualAmount.Equal(dec("40000")))

	missing, err := f.ledger.UpdateBudgetActuals(ctx, uuid.New(), budget.CostCodeID, dec("100"), dec("1"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLedger_UpdateBudgetCommitted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := uuid.New()
	budget := createBudget(t, f, projectID)

	updated, err := f.ledger.UpdateBudgetCommitted(ctx, projectID, budget.CostCodeID, dec("30000"), dec("0"))
	require.NoError(t, err)
	assert.True(t, updated.CommittedAmount.Equal(dec("30000")))
	assert.Equal(t, costing.BudgetStatusUnderBudget, updated.Status)
}

func TestLedger_UpdateBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := uuid.New()
	budget := createBudget(t, f, projectID)

	updated, err := f.ledger.UpdateBudget(ctx, BudgetRequest{
		ProjectID: projectID, CostCodeID: budget.CostCodeID, Quantity: dec("120"), UnitPrice: dec("500"),
	}, actor)
	require.NoError(t, err)
	assert.True(t, updated.BudgetedAmount.Equal(dec("60000")))

	entries, err := f.audit.List(ctx, audit.Filter{Action: audit.ActionBudgetUpdated})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.SeverityCritical, entries[0].Severity)
	require.NotNil(t, entries[0].FinancialImpact)
	assert.True(t, entries[0].FinancialImpact.Equal(dec("10000")))
}

func TestLedger_DeleteBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := uuid.New()
	budget := createBudget(t, f, projectID)

	_, err := f.ledger.UpdateBudgetActuals(ctx, projectID, budget.CostCodeID, dec("1"), dec("0"))
	require.NoError(t, err)
	err = f.ledger.DeleteBudget(ctx, projectID, budget.CostCodeID, actor)
	assert.Equal(t, shared.CodeNotDeletable, shared.CodeOf(err))

	_, err = f.ledger.UpdateBudgetActuals(ctx, projectID, budget.CostCodeID, dec("-1"), dec("0"))
	require.NoError(t, err)
	require.NoError(t, f.ledger.DeleteBudget(ctx, projectID, budget.CostCodeID, actor))

	_, err = f.ledger.GetBudget(ctx, projectID, budget.CostCodeID)
	assert.True(t, shared.IsNotFound(err))
}
