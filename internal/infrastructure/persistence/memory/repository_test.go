package memory

import (
	"context"
	"testing"
	"time"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostCodeRepository_FindAll(t *testing.T) {
	store := NewStore()
	repo := NewCostCodeRepository(store)
	ctx := context.Background()

	labor := newCostCode(t, "03-100")
	inactive := newCostCode(t, "03-200")
	inactive.Deactivate()
	material, err := costing.NewCostCode(costing.CostCodeSpec{
		Code: "05-100", Name: "Structural steel", Division: "05", Type: costing.CostCodeTypeMaterial,
	})
	require.NoError(t, err)
	for _, cc := range []*costing.CostCode{labor, inactive, material} {
		require.NoError(t, repo.Save(ctx, cc))
	}

	all, err := repo.FindAll(ctx, costing.CostCodeFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "03-100", all[0].Code)
	assert.Equal(t, "05-100", all[2].Code)

	active, err := repo.FindAll(ctx, costing.CostCodeFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	typ := costing.CostCodeTypeMaterial
	byType, err := repo.FindAll(ctx, costing.CostCodeFilter{Type: &typ})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, material.ID, byType[0].ID)

	bySearch, err := repo.FindAll(ctx, costing.CostCodeFilter{Filter: shared.Filter{Search: "STEEL"}})
	require.NoError(t, err)
	assert.Len(t, bySearch, 1)

	paged, err := repo.FindAll(ctx, costing.CostCodeFilter{Filter: shared.Filter{Page: 2, PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "05-100", paged[0].Code)

	found, err := repo.FindByCode(ctx, "05-100")
	require.NoError(t, err)
	require.NotNil(t, found)
	missing, err := repo.FindByCode(ctx, "99-999")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Delete(ctx, labor.ID))
	assert.True(t, shared.IsNotFound(repo.Delete(ctx, labor.ID)))
}

func TestBudgetRepository(t *testing.T) {
	store := NewStore()
	costCodes := NewCostCodeRepository(store)
	budgets := NewBudgetRepository(store)
	ctx := context.Background()

	cc := newCostCode(t, "03-100")
	require.NoError(t, costCodes.Save(ctx, cc))
	projectID := uuid.New()
	b, err := costing.NewCostCodeBudget(projectID, cc, decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, err)
	require.NoError(t, budgets.Save(ctx, b))

	found, err := budgets.FindByProjectAndCostCode(ctx, projectID, cc.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Empty(t, found.GetDomainEvents())

	other, err := budgets.FindByProjectAndCostCode(ctx, uuid.New(), cc.ID)
	require.NoError(t, err)
	assert.Nil(t, other)

	exists, err := budgets.ExistsForCostCode(ctx, cc.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	lines, err := budgets.FindByProject(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, budgets.Delete(ctx, b.ID))
	exists, err = budgets.ExistsForCostCode(ctx, cc.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSubcontractRepository_CountByNumberPrefix(t *testing.T) {
	store := NewStore()
	repo := NewSubcontractRepository(store)
	ctx := context.Background()

	for _, number := range []string{"SC-2026-001", "SC-2026-002", "SC-2025-001"} {
		sc, err := subcontract.NewSubcontract(subcontract.Terms{
			ContractNumber:      number,
			ProjectID:           uuid.New(),
			SubcontractorID:     uuid.New(),
			TotalAmount:         decimal.NewFromInt(1000),
			RetentionPercentage: decimal.NewFromInt(5),
			Schedule:            []subcontract.ScheduleLine{{Description: "All works", Percentage: decimal.NewFromInt(100)}},
		})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, sc))
	}

	count, err := repo.CountByNumberPrefix(ctx, subcontract.ContractNumberPrefix(2026))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAuditRepository_NewestFirst(t *testing.T) {
	store := NewStore()
	repo := NewAuditRepository(store)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, action := range []audit.Action{audit.ActionSubcontractCreated, audit.ActionSubcontractUpdated, audit.ActionSubcontractApproved} {
		require.NoError(t, repo.Append(ctx, &audit.Entry{
			ID:         uuid.New(),
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			Action:     action,
			EntityType: "subcontract",
		}))
	}

	entries, err := repo.Find(ctx, audit.Filter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionSubcontractApproved, entries[0].Action)
	assert.Equal(t, audit.ActionSubcontractUpdated, entries[1].Action)
}
