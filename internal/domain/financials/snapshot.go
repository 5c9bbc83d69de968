package financials

import (
	"time"

	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/expense"
	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubcontractSummary aggregates the subcontracts of a project
type SubcontractSummary struct {
	Count            int             `json:"count"`
	ActiveCount      int             `json:"active_count"`
	TotalCommitted   decimal.Decimal `json:"total_committed"`
	TotalCertified   decimal.Decimal `json:"total_certified"`
	TotalRetained    decimal.Decimal `json:"total_retained"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

// ExpenseSummary aggregates the expenses of a project
type ExpenseSummary struct {
	Count            int             `json:"count"`
	PendingCount     int             `json:"pending_count"`
	NeedsReviewCount int             `json:"needs_review_count"`
	ApprovedTotal    decimal.Decimal `json:"approved_total"`
	PaidTotal        decimal.Decimal `json:"paid_total"`
}

// CostCodeLine is the per cost code breakdown of a snapshot
type CostCodeLine struct {
	CostCodeID  uuid.UUID            `json:"cost_code_id"`
	Code        string               `json:"code"`
	Name        string               `json:"name"`
	Budgeted    decimal.Decimal      `json:"budgeted"`
	Committed   decimal.Decimal      `json:"committed"`
	Actual      decimal.Decimal      `json:"actual"`
	Variance    decimal.Decimal      `json:"variance"`
	Utilization decimal.Decimal      `json:"utilization"`
	Status      costing.BudgetStatus `json:"status"`
}

// ProjectFinancials is the derived financial snapshot of one project.
// Caches and subscribers hand out copies, so a caller may modify the one it holds.
type ProjectFinancials struct {
	ProjectID                uuid.UUID          `json:"project_id"`
	TotalBudget              decimal.Decimal    `json:"total_budget"`
	TotalCommitted           decimal.Decimal    `json:"total_committed"`
	TotalActual              decimal.Decimal    `json:"total_actual"`
	TotalPaid                decimal.Decimal    `json:"total_paid"`
	BudgetVariance           decimal.Decimal    `json:"budget_variance"`
	BudgetVariancePercentage decimal.Decimal    `json:"budget_variance_percentage"`
	Margin                   decimal.Decimal    `json:"margin"`
	MarginPercentage         decimal.Decimal    `json:"margin_percentage"`
	BudgetUtilization        decimal.Decimal    `json:"budget_utilization"`
	Health                   HealthStatus       `json:"health"`
	Alerts                   []Alert            `json:"alerts"`
	Subcontracts             SubcontractSummary `json:"subcontracts"`
	Expenses                 ExpenseSummary     `json:"expenses"`
	CostCodes                []CostCodeLine     `json:"cost_codes"`
	PercentComplete          decimal.Decimal    `json:"percent_complete"`
	EarnedValue              decimal.Decimal    `json:"earned_value"`
	CPI                      decimal.Decimal    `json:"cpi"`
	EstimatedFinalCost       decimal.Decimal    `json:"estimated_final_cost"`
	EstimateToComplete       decimal.Decimal    `json:"estimate_to_complete"`
	ProjectedVariance        decimal.Decimal    `json:"projected_variance"`
	CalculatedAt             time.Time          `json:"calculated_at"`
}

// Sources are the records a snapshot is aggregated from
type Sources struct {
	Budgets      []costing.CostCodeBudget
	Subcontracts []subcontract.Subcontract
	Expenses     []expense.Expense
}

// Calculate aggregates the sources of one project into a snapshot.
// Committed cost counts active subcontracts only; actual cost counts approved
// and paid expenses only.
func Calculate(projectID uuid.UUID, src Sources, now time.Time) *ProjectFinancials {
	f := &ProjectFinancials{
		ProjectID:    projectID,
		CostCodes:    make([]CostCodeLine, 0, len(src.Budgets)),
		CalculatedAt: now,
	}

	for _, b := range src.Budgets {
		f.TotalBudget = f.TotalBudget.Add(b.BudgetedAmount)
		f.CostCodes = append(f.CostCodes, CostCodeLine{
			CostCodeID:  b.CostCodeID,
			Code:        b.CostCode,
			Name:        b.CostCodeName,
			Budgeted:    b.BudgetedAmount,
			Committed:   b.CommittedAmount,
			Actual:      b.ActualAmount,
			Variance:    b.Variance,
			Utilization: b.Utilization(),
			Status:      b.Status,
		})
	}

	activeCertified := decimal.Zero
	for _, sc := range src.Subcontracts {
		s := &f.Subcontracts
		s.Count++
		s.TotalCertified = s.TotalCertified.Add(sc.TotalCertified)
		s.TotalRetained = s.TotalRetained.Add(sc.TotalRetained)
		s.TotalPaid = s.TotalPaid.Add(sc.TotalPaid)
		if sc.Status != subcontract.SubcontractStatusActive {
			continue
		}
		s.ActiveCount++
		s.TotalCommitted = s.TotalCommitted.Add(sc.TotalAmount)
		s.RemainingBalance = s.RemainingBalance.Add(sc.RemainingBalance)
		activeCertified = activeCertified.Add(sc.TotalCertified)
	}
	f.TotalCommitted = f.Subcontracts.TotalCommitted

	for _, e := range src.Expenses {
		x := &f.Expenses
		x.Count++
		if e.Status == expense.ExpenseStatusPendingApproval {
			x.PendingCount++
		}
		if e.NeedsReview {
			x.NeedsReviewCount++
		}
		x.PaidTotal = x.PaidTotal.Add(e.PaidAmount)
		if e.Status.CountsAsActual() {
			x.ApprovedTotal = x.ApprovedTotal.Add(e.TotalAmount)
		}
	}
	f.TotalActual = f.Expenses.ApprovedTotal
	f.TotalPaid = f.Expenses.PaidTotal.Add(f.Subcontracts.TotalPaid)

	f.BudgetVariance = f.TotalBudget.Sub(f.TotalActual)
	f.BudgetVariancePercentage = valueobject.RatioPercent(f.BudgetVariance, f.TotalBudget)
	f.Margin = f.BudgetVariance
	f.MarginPercentage = f.BudgetVariancePercentage
	f.BudgetUtilization = valueobject.RatioPercent(f.TotalActual, f.TotalBudget)
	f.Health = f.assessHealth()

	if f.TotalCommitted.IsPositive() {
		f.PercentComplete = valueobject.RatioPercent(activeCertified, f.TotalCommitted)
	} else {
		f.PercentComplete = decimal.Min(f.BudgetUtilization, valueobject.Hundred())
	}
	f.EarnedValue = valueobject.PercentOf(f.TotalBudget, f.PercentComplete)
	f.CPI = CostPerformanceIndex(f.TotalActual, f.EarnedValue)

	f.EstimatedFinalCost = f.TotalActual.Add(f.TotalCommitted)
	f.EstimateToComplete = decimal.Max(f.EstimatedFinalCost.Sub(f.TotalActual), decimal.Zero)
	f.ProjectedVariance = f.TotalBudget.Sub(f.EstimatedFinalCost)

	f.Alerts = BuildAlerts(f)
	return f
}

// Clone returns a deep copy of the snapshot
func (f *ProjectFinancials) Clone() *ProjectFinancials {
	if f == nil {
		return nil
	}
	c := *f
	if f.Alerts != nil {
		c.Alerts = make([]Alert, len(f.Alerts))
		for i, a := range f.Alerts {
			if a.CostCodeID != nil {
				id := *a.CostCodeID
				a.CostCodeID = &id
			}
			c.Alerts[i] = a
		}
	}
	if f.CostCodes != nil {
		c.CostCodes = make([]CostCodeLine, len(f.CostCodes))
		copy(c.CostCodes, f.CostCodes)
	}
	return &c
}

// CostPerformanceIndex returns actual / earned value, or 1 when nothing has been earned
func CostPerformanceIndex(actual, earnedValue decimal.Decimal) decimal.Decimal {
	if earnedValue.IsZero() {
		return decimal.NewFromInt(1)
	}
	return actual.Div(earnedValue)
}
