package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testSnapshot(t *testing.T) *financials.ProjectFinancials {
	t.Helper()
	cc, err := costing.NewCostCode(costing.CostCodeSpec{
		Code:     "03-100",
		Name:     "Concrete formwork",
		Division: "03",
		Type:     costing.CostCodeTypeLabor,
	})
	require.NoError(t, err)

	projectID := uuid.New()
	budget, err := costing.NewCostCodeBudget(projectID, cc, decimal.NewFromInt(10), decimal.NewFromInt(1000))
	require.NoError(t, err)
	budget.AddActuals(decimal.NewFromInt(12000), decimal.Zero)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return financials.Calculate(projectID, financials.Sources{
		Budgets: []costing.CostCodeBudget{*budget},
	}, now)
}

func TestWriteProjectWorkbook(t *testing.T) {
	snap := testSnapshot(t)
	fc := financials.NewForecaster().Forecast(snap, snap.CalculatedAt)

	var buf bytes.Buffer
	require.NoError(t, WriteProjectWorkbook(&buf, ProjectWorkbook{
		ProjectName: "Riverside Tower",
		Financials:  snap,
		Forecast:    fc,
	}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetCostCodes, SheetAlerts, SheetForecast}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Greater(t, len(summary), 5)
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Equal(t, []string{"Project", "Riverside Tower"}, summary[1])
	assert.Equal(t, []string{"Total Budget", "10000"}, summary[5])

	codes, err := f.GetRows(SheetCostCodes)
	require.NoError(t, err)
	require.Len(t, codes, 2)
	assert.Equal(t, "03-100", codes[1][0])
	assert.Equal(t, "Concrete formwork", codes[1][1])

	alerts, err := f.GetRows(SheetAlerts)
	require.NoError(t, err)
	assert.Greater(t, len(alerts), 1, "over budget project should carry alerts")

	forecast, err := f.GetRows(SheetForecast)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(forecast), 4)
	assert.Equal(t, "trend", forecast[1][0])
	assert.Equal(t, "evm", forecast[2][0])
	assert.Equal(t, "commitments", forecast[3][0])
}

func TestWriteProjectWorkbook_WithoutForecast(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProjectWorkbook(&buf, ProjectWorkbook{Financials: testSnapshot(t)}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetForecast)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteProjectWorkbook_RequiresFinancials(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteProjectWorkbook(&buf, ProjectWorkbook{}))
	assert.Zero(t, buf.Len())
}
