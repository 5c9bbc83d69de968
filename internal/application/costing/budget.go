package costing

import (
	"context"
	"fmt"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const entityBudget = "CostCodeBudget"

// CreateBudget opens the budget line of a cost code on a project
func (l *Ledger) CreateBudget(ctx context.Context, req BudgetRequest, actor shared.Actor) (*costing.CostCodeBudget, error) {
	if err := l.validate.Struct(req); err != nil {
		return nil, err
	}

	var created *costing.CostCodeBudget
	err := l.run(ctx, func(ctx context.Context) error {
		cc, err := l.getCostCode(ctx, req.CostCodeID)
		if err != nil {
			return err
		}
		existing, err := l.budgets.FindByProjectAndCostCode(ctx, req.ProjectID, req.CostCodeID)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.NewConflictError(shared.CodeDuplicateBudget,
				fmt.Sprintf("Project already has a budget for cost code %s", cc.Code))
		}

		budget, err := costing.NewCostCodeBudget(req.ProjectID, cc, req.Quantity, req.UnitPrice)
		if err != nil {
			return err
		}
		if err := l.budgets.Save(ctx, budget); err != nil {
			return err
		}
		shared.RecordEvents(ctx, budget)

		_, err = l.audit.Log(ctx, audit.LogRequest{
			Action:          audit.ActionBudgetCreated,
			EntityType:      entityBudget,
			EntityID:        budget.ID,
			EntityName:      cc.Code,
			Actor:           actor,
			ProjectID:       audit.Project(budget.ProjectID),
			Description:     fmt.Sprintf("Budgeted %s for cost code %s", budget.BudgetedAmount.StringFixed(2), cc.Code),
			FinancialImpact: audit.Impact(budget.BudgetedAmount),
		})
		created = budget
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("budget created",
		zap.String("project_id", created.ProjectID.String()),
		zap.String("cost_code", created.CostCode),
		zap.String("amount", created.BudgetedAmount.String()),
	)
	return created, nil
}

// UpdateBudget re-plans the quantity and unit price of a budget line
func (l *Ledger) UpdateBudget(ctx context.Context, req BudgetRequest, actor shared.Actor) (*costing.CostCodeBudget, error) {
	if err := l.validate.Struct(req); err != nil {
		return nil, err
	}

	var updated *costing.CostCodeBudget
	err := l.run(ctx, func(ctx context.Context) error {
		budget, err := l.getBudget(ctx, req.ProjectID, req.CostCodeID)
		if err != nil {
			return err
		}
		previous := budget.BudgetedAmount
		if err := budget.Replan(req.Quantity, req.UnitPrice); err != nil {
			return err
		}
		if err := l.budgets.Save(ctx, budget); err != nil {
			return err
		}
		shared.RecordEvents(ctx, budget)

		_, err = l.audit.Log(ctx, audit.LogRequest{
			Action:          audit.ActionBudgetUpdated,
			EntityType:      entityBudget,
			EntityID:        budget.ID,
			EntityName:      budget.CostCode,
			Actor:           actor,
			ProjectID:       audit.Project(budget.ProjectID),
			Description:     fmt.Sprintf("Re-planned budget for cost code %s", budget.CostCode),
			FinancialImpact: audit.Impact(budget.BudgetedAmount.Sub(previous)),
			Changes: []audit.Change{{
				Field:    "budgeted_amount",
				OldValue: previous.StringFixed(2),
				NewValue: budget.BudgetedAmount.StringFixed(2),
			}},
		})
		updated = budget
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateBudgetActuals adds incurred cost to a budget line; negative amounts
// reverse earlier postings. A project without a budget for the cost code is
// not an error: nil is returned and nothing changes.
func (l *Ledger) UpdateBudgetActuals(ctx context.Context, projectID, costCodeID uuid.UUID, amount, quantity decimal.Decimal) (*costing.CostCodeBudget, error) {
	return l.adjustBudget(ctx, projectID, costCodeID, "actuals", func(b *costing.CostCodeBudget) {
		b.AddActuals(amount, quantity)
	})
}

// UpdateBudgetCommitted adds committed cost to a budget line with the same
// soft-miss behaviour as UpdateBudgetActuals
func (l *Ledger) UpdateBudgetCommitted(ctx context.Context, projectID, costCodeID uuid.UUID, amount, quantity decimal.Decimal) (*costing.CostCodeBudget, error) {
	return l.adjustBudget(ctx, projectID, costCodeID, "committed", func(b *costing.CostCodeBudget) {
		b.AddCommitted(amount, quantity)
	})
}

func (l *Ledger) adjustBudget(ctx context.Context, projectID, costCodeID uuid.UUID, kind string, apply func(*costing.CostCodeBudget)) (*costing.CostCodeBudget, error) {
	var adjusted *costing.CostCodeBudget
	err := l.run(ctx, func(ctx context.Context) error {
		budget, err := l.budgets.FindByProjectAndCostCode(ctx, projectID, costCodeID)
		if err != nil {
			return err
		}
		if budget == nil {
			l.logger.Debug("no budget line to update",
				zap.String("kind", kind),
				zap.String("project_id", projectID.String()),
				zap.String("cost_code_id", costCodeID.String()),
			)
			return nil
		}
		apply(budget)
		if err := l.budgets.Save(ctx, budget); err != nil {
			return err
		}
		shared.RecordEvents(ctx, budget)
		adjusted = budget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adjusted, nil
}

// DeleteBudget removes a budget line that has no actual cost posted
func (l *Ledger) DeleteBudget(ctx context.Context, projectID, costCodeID uuid.UUID, actor shared.Actor) error {
	return l.run(ctx, func(ctx context.Context) error {
		budget, err := l.getBudget(ctx, projectID, costCodeID)
		if err != nil {
			return err
		}
		if !budget.CanDelete() {
			return shared.NewInvariantError(shared.CodeNotDeletable,
				fmt.Sprintf("Budget for cost code %s has actual costs and cannot be deleted", budget.CostCode))
		}
		if err := l.budgets.Delete(ctx, budget.ID); err != nil {
			return err
		}

		_, err = l.audit.Log(ctx, audit.LogRequest{
			Action:          audit.ActionBudgetDeleted,
			EntityType:      entityBudget,
			EntityID:        budget.ID,
			EntityName:      budget.CostCode,
			Actor:           actor,
			ProjectID:       audit.Project(projectID),
			Description:     fmt.Sprintf("Deleted budget for cost code %s", budget.CostCode),
			FinancialImpact: audit.Impact(budget.BudgetedAmount.Neg()),
		})
		return err
	})
}

// GetBudget returns the budget line of a project and cost code
func (l *Ledger) GetBudget(ctx context.Context, projectID, costCodeID uuid.UUID) (*costing.CostCodeBudget, error) {
	return l.getBudget(ctx, projectID, costCodeID)
}

func (l *Ledger) getBudget(ctx context.Context, projectID, costCodeID uuid.UUID) (*costing.CostCodeBudget, error) {
	budget, err := l.budgets.FindByProjectAndCostCode(ctx, projectID, costCodeID)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, shared.NewNotFoundError("Budget")
	}
	return budget, nil
}

// ListProjectBudgets returns every budget line of a project
func (l *Ledger) ListProjectBudgets(ctx context.Context, projectID uuid.UUID) ([]costing.CostCodeBudget, error) {
	return l.budgets.FindByProject(ctx, projectID)
}
