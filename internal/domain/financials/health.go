package financials

import (
	"github.com/shopspring/decimal"
)

// HealthStatus summarises the financial health of a project
type HealthStatus string

const (
	HealthCritical  HealthStatus = "critical"
	HealthWarning   HealthStatus = "warning"
	HealthGood      HealthStatus = "good"
	HealthExcellent HealthStatus = "excellent"
)

// String returns the string representation of HealthStatus
func (h HealthStatus) String() string {
	return string(h)
}

var (
	criticalUtilization = decimal.NewFromInt(100)
	warningUtilization  = decimal.NewFromInt(95)
	goodUtilization     = decimal.NewFromInt(85)
	warningMargin       = decimal.NewFromInt(5)
	goodMargin          = decimal.NewFromInt(10)
	highUtilization     = decimal.NewFromInt(90)
)

// AssessHealth grades a project from its budget utilization and margin
// percentage. Each grade applies when either of its conditions holds,
// checked from the worst grade down.
func AssessHealth(utilization, marginPercentage decimal.Decimal) HealthStatus {
	switch {
	case utilization.GreaterThan(criticalUtilization) || marginPercentage.IsNegative():
		return HealthCritical
	case utilization.GreaterThan(warningUtilization) || marginPercentage.LessThan(warningMargin):
		return HealthWarning
	case utilization.GreaterThan(goodUtilization) || marginPercentage.LessThan(goodMargin):
		return HealthGood
	default:
		return HealthExcellent
	}
}

// assessHealth grades the snapshot. Spend against a zero budget leaves the
// percentages at zero, so the absolute margin is checked first.
func (f *ProjectFinancials) assessHealth() HealthStatus {
	if f.Margin.IsNegative() || f.OverBudget() {
		return HealthCritical
	}
	return AssessHealth(f.BudgetUtilization, f.MarginPercentage)
}

// OverBudget reports whether actual cost is beyond the budget. Any actual
// cost against a zero budget counts.
func (f *ProjectFinancials) OverBudget() bool {
	if f.TotalBudget.IsZero() && f.TotalActual.IsPositive() {
		return true
	}
	return f.BudgetUtilization.GreaterThan(criticalUtilization)
}
