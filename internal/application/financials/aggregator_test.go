package financials

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	auditapp "github.com/erp/jobcost/internal/application/audit"
	costingapp "github.com/erp/jobcost/internal/application/costing"
	expenseapp "github.com/erp/jobcost/internal/application/expense"
	subcontractapp "github.com/erp/jobcost/internal/application/subcontract"
	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/shared/strategy"
	"github.com/erp/jobcost/internal/infrastructure/cache"
	"github.com/erp/jobcost/internal/infrastructure/event"
	"github.com/erp/jobcost/internal/infrastructure/persistence/memory"
	"github.com/erp/jobcost/internal/infrastructure/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	actor    = shared.Actor{ID: uuid.New(), Name: "project manager"}
	approver = shared.Actor{ID: uuid.New(), Name: "commercial director"}
)

// stepClock returns a strictly increasing time on every call
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	store      *memory.Store
	bus        *event.InMemoryEventBus
	costing    *costingapp.Ledger
	ledger     *subcontractapp.Ledger
	engine     *subcontractapp.CertificationEngine
	classifier *expenseapp.Classifier
	cache      *cache.InMemorySnapshotCache
	aggregator *Aggregator
	projectID  uuid.UUID
	codes      []uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	bus := event.NewInMemoryEventBus(nil)
	auditSvc := auditapp.NewService(memory.NewAuditRepository(store), nil)
	budgets := memory.NewBudgetRepository(store)
	subcontracts := memory.NewSubcontractRepository(store)
	expenses := memory.NewExpenseRepository(store)
	certificates := memory.NewCertificateRepository(store)

	f := &fixture{
		store:     store,
		bus:       bus,
		cache:     cache.NewInMemorySnapshotCache(0),
		projectID: uuid.New(),
	}
	f.costing = costingapp.NewLedger(store, bus, memory.NewCostCodeRepository(store), budgets, auditSvc, nil)
	f.ledger = subcontractapp.NewLedger(store, bus, subcontracts, certificates, f.costing, auditSvc, nil)
	f.engine = subcontractapp.NewCertificationEngine(store, bus, certificates, f.ledger, auditSvc, nil)
	f.classifier = expenseapp.NewClassifier(store, bus, expenses, f.costing, f.costing, auditSvc,
		expenseapp.DefaultPolicy(), nil)

	clock := &stepClock{t: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)}
	f.aggregator = NewAggregator(store, budgets, subcontracts, expenses, f.cache, nil, WithClock(clock.Now))
	return f
}

// seed budgets two cost codes at 60000 each, activates a 100000 subcontract
// with 30000 certified and approves a 4800 expense
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	for i, code := range []string{"02-100", "02-200"} {
		cc, err := f.costing.CreateCostCode(ctx, costingapp.CreateCostCodeRequest{
			Code:     code,
			Name:     fmt.Sprintf("Earthwork %d", i+1),
			Division: "02 Site Work",
			Type:     "subcontract",
		}, actor)
		require.NoError(t, err)
		_, err = f.costing.CreateBudget(ctx, costingapp.BudgetRequest{
			ProjectID:  f.projectID,
			CostCodeID: cc.ID,
			Quantity:   dec("1"),
			UnitPrice:  dec("60000"),
		}, actor)
		require.NoError(t, err)
		f.codes = append(f.codes, cc.ID)
	}

	sc, err := f.ledger.CreateSubcontract(ctx, subcontractapp.SubcontractRequest{
		ProjectID:           f.projectID,
		SubcontractorID:     uuid.New(),
		SubcontractorName:   "Acme Excavation",
		Title:               "Site excavation",
		TotalAmount:         dec("100000"),
		RetentionPercentage: dec("10"),
		Schedule: []subcontractapp.ScheduleLineRequest{
			{Description: "Mobilisation", Percentage: dec("30")},
			{Description: "Bulk dig", Percentage: dec("40")},
			{Description: "Backfill", Percentage: dec("30")},
		},
		CostCodeIDs: f.codes,
	}, actor)
	require.NoError(t, err)
	sc, err = f.ledger.ApproveSubcontract(ctx, sc.ID, approver)
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cert, err := f.engine.CreateCertificate(ctx, subcontractapp.CertificateRequest{
		SubcontractID:   sc.ID,
		PeriodStart:     start,
		PeriodEnd:       start.AddDate(0, 1, -1),
		AmountCertified: dec("30000"),
	}, actor)
	require.NoError(t, err)
	_, err = f.engine.SubmitCertificate(ctx, cert.ID, actor)
	require.NoError(t, err)
	_, err = f.engine.ApproveCertificate(ctx, cert.ID, approver)
	require.NoError(t, err)

	e := f.createExpense(t, "INV-1001")
	_, err = f.classifier.SubmitForApproval(ctx, e, actor)
	require.NoError(t, err)
	_, err = f.classifier.ApproveExpense(ctx, e, approver)
	require.NoError(t, err)
}

func (f *fixture) createExpense(t *testing.T, invoice string) uuid.UUID {
	t.Helper()
	invoiced := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	e, err := f.classifier.CreateExpense(context.Background(), expenseapp.ExpenseRequest{
		ProjectID:     f.projectID,
		CostCodeID:    f.codes[0],
		SupplierID:    uuid.New(),
		SupplierName:  "Plant Hire Co",
		Amount:        dec("4000"),
		TaxAmount:     dec("800"),
		Description:   "Excavator hire",
		InvoiceNumber: invoice,
		InvoiceDate:   &invoiced,
	}, actor)
	require.NoError(t, err)
	return e.ID
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "%s: want %s, got %s", field, want, got)
}

func TestAggregator_CalculateProjectFinancials(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.createExpense(t, "INV-1002") // draft, not an actual cost

	snap, err := f.aggregator.CalculateProjectFinancials(context.Background(), f.projectID)
	require.NoError(t, err)

	assert.Equal(t, f.projectID, snap.ProjectID)
	assertDecimal(t, "120000", snap.TotalBudget, "TotalBudget")
	assertDecimal(t, "100000", snap.TotalCommitted, "TotalCommitted")
	assertDecimal(t, "4800", snap.TotalActual, "TotalActual")
	assertDecimal(t, "0", snap.TotalPaid, "TotalPaid")
	assertDecimal(t, "115200", snap.BudgetVariance, "BudgetVariance")
	assertDecimal(t, "96", snap.BudgetVariancePercentage, "BudgetVariancePercentage")
	assertDecimal(t, "115200", snap.Margin, "Margin")
	assertDecimal(t, "4", snap.BudgetUtilization, "BudgetUtilization")
	assert.Equal(t, financials.HealthExcellent, snap.Health)
	assert.Empty(t, snap.Alerts)

	assert.Equal(t, 1, snap.Subcontracts.Count)
	assert.Equal(t, 1, snap.Subcontracts.ActiveCount)
	assertDecimal(t, "30000", snap.Subcontracts.TotalCertified, "TotalCertified")
	assertDecimal(t, "3000", snap.Subcontracts.TotalRetained, "TotalRetained")
	assertDecimal(t, "70000", snap.Subcontracts.RemainingBalance, "RemainingBalance")

	assert.Equal(t, 2, snap.Expenses.Count)
	assertDecimal(t, "4800", snap.Expenses.ApprovedTotal, "ApprovedTotal")
	require.Len(t, snap.CostCodes, 2)

	assertDecimal(t, "30", snap.PercentComplete, "PercentComplete")
	assertDecimal(t, "36000", snap.EarnedValue, "EarnedValue")
	assertDecimal(t, "104800", snap.EstimatedFinalCost, "EstimatedFinalCost")
	assertDecimal(t, "100000", snap.EstimateToComplete, "EstimateToComplete")
	assertDecimal(t, "15200", snap.ProjectedVariance, "ProjectedVariance")
	assert.False(t, snap.CalculatedAt.IsZero())
}

func TestAggregator_EmptyProject(t *testing.T) {
	f := newFixture(t)

	snap, err := f.aggregator.CalculateProjectFinancials(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.True(t, snap.TotalBudget.IsZero())
	assert.True(t, snap.TotalActual.IsZero())
	assert.True(t, snap.BudgetUtilization.IsZero())
	assertDecimal(t, "1", snap.CPI, "CPI")
	assert.Empty(t, snap.CostCodes)
	assert.Empty(t, snap.Alerts)
}

func TestAggregator_GetProjectFinancialsCaches(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	first, err := f.aggregator.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	second, err := f.aggregator.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, first.CalculatedAt, second.CalculatedAt)

	refreshed, err := f.aggregator.RefreshProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assert.True(t, refreshed.CalculatedAt.After(first.CalculatedAt))

	third, err := f.aggregator.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assert.Equal(t, refreshed.CalculatedAt, third.CalculatedAt)
}

func TestAggregator_CachedSnapshotIsStaleUntilRefresh(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	before, err := f.aggregator.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)

	e := f.createExpense(t, "INV-1003")
	_, err = f.classifier.SubmitForApproval(ctx, e, actor)
	require.NoError(t, err)
	_, err = f.classifier.ApproveExpense(ctx, e, approver)
	require.NoError(t, err)

	cached, err := f.aggregator.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assertDecimal(t, "4800", cached.TotalActual, "cached TotalActual")
	assert.Equal(t, before.CalculatedAt, cached.CalculatedAt)

	refreshed, err := f.aggregator.RefreshProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assertDecimal(t, "9600", refreshed.TotalActual, "refreshed TotalActual")
}

func TestAggregator_InvalidateOnEvents(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	stop := f.aggregator.InvalidateOnEvents(f.bus)
	before, err := f.aggregator.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)

	e := f.createExpense(t, "INV-1004")
	_, err = f.classifier.SubmitForApproval(ctx, e, actor)
	require.NoError(t, err)
	_, err = f.classifier.ApproveExpense(ctx, e, approver)
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.Size())

	after, err := f.aggregator.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assertDecimal(t, "4800", before.TotalActual, "TotalActual before")
	assertDecimal(t, "9600", after.TotalActual, "TotalActual")

	stop()
	f.createExpense(t, "INV-1005")
	assert.Equal(t, 1, f.cache.Size())
}

func TestAggregator_Subscribers(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	var got, mutated []*financials.ProjectFinancials
	unsubscribe := f.aggregator.SubscribeToFinancialUpdates(f.projectID, func(s *financials.ProjectFinancials) {
		got = append(got, s)
	})
	stopMutating := f.aggregator.SubscribeToFinancialUpdates(f.projectID, func(s *financials.ProjectFinancials) {
		s.Health = financials.HealthCritical
		s.CostCodes = nil
		mutated = append(mutated, s)
	})
	other := 0
	f.aggregator.SubscribeToFinancialUpdates(uuid.New(), func(*financials.ProjectFinancials) { other++ })

	snap, err := f.aggregator.CalculateProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, mutated, 1)
	assert.NotSame(t, got[0], mutated[0])
	assert.Equal(t, snap.Health, got[0].Health)
	assert.Equal(t, snap.CostCodes, got[0].CostCodes)
	assert.NotEqual(t, financials.HealthCritical, snap.Health)
	assert.NotEmpty(t, snap.CostCodes)
	stopMutating()

	cached, err := f.cache.Get(ctx, f.projectID)
	require.NoError(t, err)
	assert.Equal(t, snap.Health, cached.Health)
	assert.Len(t, cached.CostCodes, len(snap.CostCodes))

	// cache hit does not recalculate
	_, err = f.aggregator.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.aggregator.RefreshProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	unsubscribe()
	unsubscribe()
	_, err = f.aggregator.CalculateProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Zero(t, other)
}

func TestAggregator_SubscriberMayResubscribe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	projectID := uuid.New()

	calls := 0
	var unsubscribe func()
	unsubscribe = f.aggregator.SubscribeToFinancialUpdates(projectID, func(*financials.ProjectFinancials) {
		calls++
		unsubscribe()
		f.aggregator.SubscribeToFinancialUpdates(projectID, func(*financials.ProjectFinancials) { calls += 10 })
	})

	_, err := f.aggregator.CalculateProjectFinancials(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	_, err = f.aggregator.CalculateProjectFinancials(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, 11, calls)
}

func TestAggregator_ForecastFinalCost(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	fc, err := f.aggregator.ForecastFinalCost(context.Background(), f.projectID)
	require.NoError(t, err)

	assert.Equal(t, f.projectID, fc.ProjectID)
	assertDecimal(t, "104800", fc.Trend.EstimatedFinalCost, "Trend")
	assertDecimal(t, "104800", fc.Commitments.EstimatedFinalCost, "Commitments")
	// CPI = 4800 / 36000, EVM = 120000 / CPI
	assert.True(t, fc.EVM.EstimatedFinalCost.Sub(dec("900000")).Abs().LessThan(dec("0.01")))
	assert.Equal(t, strategy.ForecastMethodCommitments, fc.RecommendedMethod)
	assert.True(t, fc.Recommended.Equal(fc.MostLikely))
	assert.True(t, fc.BestCase.Equal(fc.Trend.EstimatedFinalCost))
	assert.True(t, fc.WorstCase.Equal(fc.EVM.EstimatedFinalCost))
	assertDecimal(t, "15200", fc.Commitments.ProjectedVariance, "ProjectedVariance")
}

// failingCache simulates an unreachable shared cache
type failingCache struct{}

var errCacheDown = errors.New("cache down")

func (failingCache) Get(context.Context, uuid.UUID) (*financials.ProjectFinancials, error) {
	return nil, errCacheDown
}
func (failingCache) Set(context.Context, *financials.ProjectFinancials) error { return errCacheDown }
func (failingCache) Delete(context.Context, uuid.UUID) error                  { return errCacheDown }

func TestAggregator_CacheFailureDegradesToRecalculation(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	agg := NewAggregator(f.store, memory.NewBudgetRepository(f.store), memory.NewSubcontractRepository(f.store),
		memory.NewExpenseRepository(f.store), failingCache{}, nil)

	snap, err := agg.GetProjectFinancials(ctx, f.projectID)
	require.NoError(t, err)
	assertDecimal(t, "4800", snap.TotalActual, "TotalActual")

	_, err = agg.RefreshProjectFinancials(ctx, f.projectID)
	assert.NoError(t, err)
}

func TestAggregator_ConcurrentGets(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	results := make([]*financials.ProjectFinancials, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.aggregator.GetProjectFinancials(ctx, f.projectID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assertDecimal(t, "4800", results[i].TotalActual, "TotalActual")
	}
}

func TestAggregator_ExportProjectReport(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	var buf bytes.Buffer
	require.NoError(t, f.aggregator.ExportProjectReport(context.Background(), f.projectID, "North Tower", &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{report.SheetSummary, report.SheetCostCodes, report.SheetAlerts, report.SheetForecast},
		wb.GetSheetList())
}
