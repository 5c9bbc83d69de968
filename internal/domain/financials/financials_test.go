package financials

import (
	"testing"
	"time"

	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/expense"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func budgetLine(t *testing.T, projectID uuid.UUID, code string, amount, actual string) costing.CostCodeBudget {
	t.Helper()
	cc, err := costing.NewCostCode(costing.CostCodeSpec{
		Code: code, Name: "Line " + code, Division: "03 Concrete", Type: costing.CostCodeTypeMaterial,
	})
	require.NoError(t, err)
	b, err := costing.NewCostCodeBudget(projectID, cc, decimal.NewFromInt(1), d(amount))
	require.NoError(t, err)
	b.AddActuals(d(actual), decimal.Zero)
	return *b
}

func fixture(t *testing.T) (uuid.UUID, Sources) {
	projectID := uuid.New()
	src := Sources{
		Budgets: []costing.CostCodeBudget{
			budgetLine(t, projectID, "03-100", "60000", "30000"),
			budgetLine(t, projectID, "03-200", "40000", "45000"),
		},
		Subcontracts: []subcontract.Subcontract{
			{Status: subcontract.SubcontractStatusActive, TotalAmount: d("50000"), TotalCertified: d("20000"),
				TotalRetained: d("2000"), TotalPaid: d("10000"), RemainingBalance: d("30000")},
			{Status: subcontract.SubcontractStatusDraft, TotalAmount: d("10000"), RemainingBalance: d("10000")},
			{Status: subcontract.SubcontractStatusCancelled, TotalAmount: d("5000"), RemainingBalance: d("5000")},
		},
		Expenses: []expense.Expense{
			{Status: expense.ExpenseStatusApproved, TotalAmount: d("30000"), PaidAmount: d("5000")},
			{Status: expense.ExpenseStatusPaid, TotalAmount: d("20000"), PaidAmount: d("20000")},
			{Status: expense.ExpenseStatusPendingApproval, TotalAmount: d("5000"), NeedsReview: true},
			{Status: expense.ExpenseStatusDraft, TotalAmount: d("700")},
		},
	}
	return projectID, src
}

func TestCalculate(t *testing.T) {
	projectID, src := fixture(t)
	now := time.Now()

	f := Calculate(projectID, src, now)

	assert.Equal(t, projectID, f.ProjectID)
	assert.Equal(t, now, f.CalculatedAt)
	assert.True(t, f.TotalBudget.Equal(d("100000")))
	assert.True(t, f.TotalCommitted.Equal(d("50000")), "only active subcontracts commit")
	assert.True(t, f.TotalActual.Equal(d("50000")), "only approved and paid expenses count")
	assert.True(t, f.TotalPaid.Equal(d("35000")))
	assert.True(t, f.BudgetVariance.Equal(d("50000")))
	assert.True(t, f.MarginPercentage.Equal(d("50")))
	assert.True(t, f.BudgetUtilization.Equal(d("50")))
	assert.Equal(t, HealthExcellent, f.Health)

	assert.True(t, f.PercentComplete.Equal(d("40")), f.PercentComplete.String())
	assert.True(t, f.EarnedValue.Equal(d("40000")))
	assert.True(t, f.CPI.Equal(d("1.25")))
	assert.True(t, f.EstimatedFinalCost.Equal(d("100000")))
	assert.True(t, f.EstimateToComplete.Equal(d("50000")))
	assert.True(t, f.ProjectedVariance.IsZero())

	assert.Equal(t, 3, f.Subcontracts.Count)
	assert.Equal(t, 1, f.Subcontracts.ActiveCount)
	assert.True(t, f.Subcontracts.TotalCertified.Equal(d("20000")))
	assert.True(t, f.Subcontracts.RemainingBalance.Equal(d("30000")))
	assert.Equal(t, 4, f.Expenses.Count)
	assert.Equal(t, 1, f.Expenses.PendingCount)
	assert.Equal(t, 1, f.Expenses.NeedsReviewCount)

	require.Len(t, f.CostCodes, 2)
	assert.Equal(t, costing.BudgetStatusOverBudget, f.CostCodes[1].Status)

	require.Len(t, f.Alerts, 1)
	assert.Equal(t, AlertCostCodeOverBudget, f.Alerts[0].Type)
	assert.Equal(t, f.CostCodes[1].CostCodeID, *f.Alerts[0].CostCodeID)
}

func TestCalculate_EmptyProject(t *testing.T) {
	f := Calculate(uuid.New(), Sources{}, time.Now())

	assert.True(t, f.TotalBudget.IsZero())
	assert.True(t, f.BudgetUtilization.IsZero())
	assert.True(t, f.PercentComplete.IsZero())
	assert.True(t, f.EarnedValue.IsZero())
	assert.True(t, f.CPI.Equal(decimal.NewFromInt(1)))
	assert.Empty(t, f.Alerts)
	assert.Empty(t, f.CostCodes)
}

func TestCalculate_PercentCompleteWithoutCommitments(t *testing.T) {
	projectID := uuid.New()
	src := Sources{
		Budgets:  []costing.CostCodeBudget{budgetLine(t, projectID, "01-100", "1000", "0")},
		Expenses: []expense.Expense{{Status: expense.ExpenseStatusApproved, TotalAmount: d("1200")}},
	}

	f := Calculate(projectID, src, time.Now())
	assert.True(t, f.BudgetUtilization.Equal(d("120")))
	assert.True(t, f.PercentComplete.Equal(d("100")), "capped at 100")
	assert.Equal(t, HealthCritical, f.Health)

	types := make([]AlertType, 0, len(f.Alerts))
	for _, a := range f.Alerts {
		types = append(types, a.Type)
	}
	assert.Equal(t, []AlertType{AlertBudgetExceeded, AlertNegativeMargin}, types)
}

func TestCalculate_ActualsAgainstZeroBudget(t *testing.T) {
	projectID := uuid.New()
	src := Sources{
		Budgets:  []costing.CostCodeBudget{budgetLine(t, projectID, "01-100", "0", "0")},
		Expenses: []expense.Expense{{Status: expense.ExpenseStatusApproved, TotalAmount: d("500")}},
	}

	f := Calculate(projectID, src, time.Now())
	assert.True(t, f.TotalBudget.IsZero())
	assert.True(t, f.Margin.Equal(d("-500")))
	assert.True(t, f.MarginPercentage.IsZero())
	assert.True(t, f.OverBudget())
	assert.Equal(t, HealthCritical, f.Health)

	types := make([]AlertType, 0, len(f.Alerts))
	for _, a := range f.Alerts {
		types = append(types, a.Type)
	}
	assert.Equal(t, []AlertType{AlertBudgetExceeded, AlertNegativeMargin}, types)
	assert.Equal(t, AlertSeverityCritical, f.Alerts[0].Severity)
	assert.True(t, f.Alerts[0].Value.Equal(d("500")))
}

func TestProjectFinancials_OverBudget(t *testing.T) {
	tests := []struct {
		name                        string
		budget, actual, utilization string
		expected                    bool
	}{
		{"empty project", "0", "0", "0", false},
		{"spend without budget", "0", "0.01", "0", true},
		{"at budget", "1000", "1000", "100", false},
		{"past budget", "1000", "1001", "100.1", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &ProjectFinancials{TotalBudget: d(tc.budget), TotalActual: d(tc.actual), BudgetUtilization: d(tc.utilization)}
			assert.Equal(t, tc.expected, f.OverBudget())
		})
	}
}

func TestAssessHealth(t *testing.T) {
	tests := []struct {
		utilization, margin string
		expected            HealthStatus
	}{
		{"101", "50", HealthCritical},
		{"50", "-1", HealthCritical},
		{"100", "0", HealthWarning},
		{"96", "50", HealthWarning},
		{"50", "4.99", HealthWarning},
		{"95", "50", HealthGood},
		{"86", "50", HealthGood},
		{"50", "9", HealthGood},
		{"85", "10", HealthExcellent},
		{"10", "90", HealthExcellent},
	}

	for _, tc := range tests {
		t.Run(tc.utilization+"/"+tc.margin, func(t *testing.T) {
			assert.Equal(t, tc.expected, AssessHealth(d(tc.utilization), d(tc.margin)))
		})
	}
}

func TestBuildAlerts_Utilization(t *testing.T) {
	tests := []struct {
		utilization string
		expected    []AlertType
	}{
		{"90", nil},
		{"90.01", []AlertType{AlertHighUtilization}},
		{"100", []AlertType{AlertHighUtilization}},
		{"100.5", []AlertType{AlertBudgetExceeded}},
	}

	for _, tc := range tests {
		t.Run(tc.utilization, func(t *testing.T) {
			alerts := BuildAlerts(&ProjectFinancials{BudgetUtilization: d(tc.utilization)})
			require.Len(t, alerts, len(tc.expected))
			for i, typ := range tc.expected {
				assert.Equal(t, typ, alerts[i].Type)
			}
		})
	}
}

func TestForecaster(t *testing.T) {
	projectID, src := fixture(t)
	snap := Calculate(projectID, src, time.Now())

	fc := NewForecaster().Forecast(snap, time.Now())

	assert.True(t, fc.Trend.EstimatedFinalCost.Equal(d("100000")))
	assert.True(t, fc.EVM.EstimatedFinalCost.Equal(d("80000")), fc.EVM.EstimatedFinalCost.String())
	assert.True(t, fc.Commitments.EstimatedFinalCost.Equal(d("100000")))
	assert.True(t, fc.EVM.ProjectedVariance.Equal(d("20000")))

	assert.Equal(t, fc.Commitments.Method, fc.RecommendedMethod)
	assert.True(t, fc.Recommended.Equal(fc.Commitments.EstimatedFinalCost))
	assert.True(t, fc.MostLikely.Equal(fc.Commitments.EstimatedFinalCost))
	assert.True(t, fc.BestCase.Equal(fc.Trend.EstimatedFinalCost))
	assert.True(t, fc.WorstCase.Equal(fc.EVM.EstimatedFinalCost))
}

func TestEVMForecast_ZeroCPI(t *testing.T) {
	snap := &ProjectFinancials{TotalBudget: d("1000"), CPI: decimal.Zero}
	fc := NewForecaster().Forecast(snap, time.Now())
	assert.True(t, fc.EVM.EstimatedFinalCost.Equal(d("1000")))
}

func TestCostPerformanceIndex(t *testing.T) {
	assert.True(t, CostPerformanceIndex(d("500"), decimal.Zero).Equal(decimal.NewFromInt(1)))
	assert.True(t, CostPerformanceIndex(d("500"), d("400")).Equal(d("1.25")))
}
