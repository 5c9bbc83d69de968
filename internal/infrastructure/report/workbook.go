package report

import (
	"fmt"
	"io"

	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/erp/jobcost/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the job-cost workbook
const (
	SheetSummary   = "Summary"
	SheetCostCodes = "Cost Codes"
	SheetAlerts    = "Alerts"
	SheetForecast  = "Forecast"
)

// ProjectWorkbook is everything written into a job-cost workbook
type ProjectWorkbook struct {
	ProjectName string
	Financials  *financials.ProjectFinancials
	Forecast    *financials.Forecast
}

// WriteProjectWorkbook writes the xlsx job-cost report of one project to w
func WriteProjectWorkbook(w io.Writer, wb ProjectWorkbook) error {
	if wb.Financials == nil {
		return fmt.Errorf("workbook requires project financials")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	for _, name := range []string{SheetCostCodes, SheetAlerts, SheetForecast} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	writers := []func(*excelize.File, ProjectWorkbook, int) error{
		writeSummary,
		writeCostCodes,
		writeAlerts,
		writeForecast,
	}
	for _, write := range writers {
		if err := write(f, wb, header); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// writeRows writes rows starting at A1 and bolds the first row
func writeRows(f *excelize.File, sheet string, header int, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, header)
}

func writeSummary(f *excelize.File, wb ProjectWorkbook, header int) error {
	p := wb.Financials
	rows := [][]any{
		{"Metric", "Value"},
		{"Project", wb.ProjectName},
		{"Project ID", p.ProjectID.String()},
		{"Calculated At", p.CalculatedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Health", string(p.Health)},
		{"Total Budget", num(p.TotalBudget)},
		{"Total Committed", num(p.TotalCommitted)},
		{"Total Actual", num(p.TotalActual)},
		{"Total Paid", num(p.TotalPaid)},
		{"Budget Variance", num(p.BudgetVariance)},
		{"Budget Variance %", num(p.BudgetVariancePercentage)},
		{"Margin", num(p.Margin)},
		{"Margin %", num(p.MarginPercentage)},
		{"Budget Utilization %", num(p.BudgetUtilization)},
		{"Percent Complete", num(p.PercentComplete)},
		{"Earned Value", num(p.EarnedValue)},
		{"CPI", num(p.CPI)},
		{"Estimated Final Cost", num(p.EstimatedFinalCost)},
		{"Estimate To Complete", num(p.EstimateToComplete)},
		{"Projected Variance", num(p.ProjectedVariance)},
		{"Subcontracts", p.Subcontracts.Count},
		{"Active Subcontracts", p.Subcontracts.ActiveCount},
		{"Certified", num(p.Subcontracts.TotalCertified)},
		{"Retained", num(p.Subcontracts.TotalRetained)},
		{"Expenses", p.Expenses.Count},
		{"Expenses Pending Approval", p.Expenses.PendingCount},
		{"Expenses Needing Review", p.Expenses.NeedsReviewCount},
	}
	if err := writeRows(f, SheetSummary, header, rows); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "A", "A", 28)
}

func writeCostCodes(f *excelize.File, wb ProjectWorkbook, header int) error {
	rows := [][]any{{"Code", "Name", "Budgeted", "Committed", "Actual", "Variance", "Utilization %", "Status"}}
	for _, line := range wb.Financials.CostCodes {
		rows = append(rows, []any{
			line.Code,
			line.Name,
			num(line.Budgeted),
			num(line.Committed),
			num(line.Actual),
			num(line.Variance),
			num(line.Utilization),
			string(line.Status),
		})
	}
	return writeRows(f, SheetCostCodes, header, rows)
}

func writeAlerts(f *excelize.File, wb ProjectWorkbook, header int) error {
	rows := [][]any{{"Type", "Severity", "Message", "Value"}}
	for _, a := range wb.Financials.Alerts {
		rows = append(rows, []any{string(a.Type), string(a.Severity), a.Message, num(a.Value)})
	}
	return writeRows(f, SheetAlerts, header, rows)
}

func writeForecast(f *excelize.File, wb ProjectWorkbook, header int) error {
	rows := [][]any{{"Method", "Estimated Final Cost", "Projected Variance", "Basis"}}
	fc := wb.Forecast
	if fc != nil {
		for _, est := range []strategy.ForecastEstimate{fc.Trend, fc.EVM, fc.Commitments} {
			rows = append(rows, []any{string(est.Method), num(est.EstimatedFinalCost), num(est.ProjectedVariance), est.Basis})
		}
		rows = append(rows,
			[]any{},
			[]any{"Recommended (" + string(fc.RecommendedMethod) + ")", num(fc.Recommended)},
			[]any{"Most Likely", num(fc.MostLikely)},
			[]any{"Best Case", num(fc.BestCase)},
			[]any{"Worst Case", num(fc.WorstCase)},
		)
	}
	return writeRows(f, SheetForecast, header, rows)
}
