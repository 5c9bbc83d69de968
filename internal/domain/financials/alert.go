package financials

import (
	"fmt"

	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AlertType identifies the condition an alert reports
type AlertType string

const (
	AlertBudgetExceeded     AlertType = "budget_exceeded"
	AlertHighUtilization    AlertType = "high_utilization"
	AlertNegativeMargin     AlertType = "negative_margin"
	AlertCostCodeOverBudget AlertType = "cost_code_over_budget"
)

// AlertSeverity is the urgency of an alert
type AlertSeverity string

const (
	AlertSeverityCritical AlertSeverity = "critical"
	AlertSeverityWarning  AlertSeverity = "warning"
)

// Alert is a financial condition that needs attention
type Alert struct {
	Type       AlertType       `json:"type"`
	Severity   AlertSeverity   `json:"severity"`
	Message    string          `json:"message"`
	Value      decimal.Decimal `json:"value"`
	CostCodeID *uuid.UUID      `json:"cost_code_id,omitempty"`
}

// BuildAlerts derives the alert list of a snapshot
func BuildAlerts(f *ProjectFinancials) []Alert {
	alerts := make([]Alert, 0)

	switch {
	case f.TotalBudget.IsZero() && f.TotalActual.IsPositive():
		alerts = append(alerts, Alert{
			Type:     AlertBudgetExceeded,
			Severity: AlertSeverityCritical,
			Message:  fmt.Sprintf("Project has %s of actual cost and no budget", f.TotalActual.StringFixed(2)),
			Value:    f.TotalActual,
		})
	case f.OverBudget():
		alerts = append(alerts, Alert{
			Type:     AlertBudgetExceeded,
			Severity: AlertSeverityCritical,
			Message:  fmt.Sprintf("Project has exceeded its budget (%s%% utilized)", f.BudgetUtilization.StringFixed(1)),
			Value:    f.BudgetUtilization,
		})
	case f.BudgetUtilization.GreaterThan(highUtilization):
		alerts = append(alerts, Alert{
			Type:     AlertHighUtilization,
			Severity: AlertSeverityWarning,
			Message:  fmt.Sprintf("Project budget is %s%% utilized", f.BudgetUtilization.StringFixed(1)),
			Value:    f.BudgetUtilization,
		})
	}

	if f.Margin.IsNegative() {
		alerts = append(alerts, Alert{
			Type:     AlertNegativeMargin,
			Severity: AlertSeverityCritical,
			Message:  fmt.Sprintf("Project margin is negative (%s)", f.Margin.StringFixed(2)),
			Value:    f.Margin,
		})
	}

	for _, line := range f.CostCodes {
		if line.Status != costing.BudgetStatusOverBudget {
			continue
		}
		id := line.CostCodeID
		alerts = append(alerts, Alert{
			Type:       AlertCostCodeOverBudget,
			Severity:   AlertSeverityWarning,
			Message:    fmt.Sprintf("Cost code %s %s is over budget by %s", line.Code, line.Name, line.Variance.Neg().StringFixed(2)),
			Value:      line.Variance,
			CostCodeID: &id,
		})
	}

	return alerts
}
