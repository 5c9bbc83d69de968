package app

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	costingapp "github.com/erp/jobcost/internal/application/costing"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.Config {
	return &config.Config{
		App:   config.AppConfig{Name: "jobcost-test", Env: "test"},
		Log:   config.LogConfig{Level: "debug", Format: "console", Output: "stdout"},
		Redis: config.RedisConfig{Host: "localhost", Port: 6379},
		Cache: config.CacheConfig{
			Backend:       config.CacheBackendMemory,
			KeyPrefix:     "jobcost:test:",
			AllowFallback: true,
		},
		Catalog: config.CatalogConfig{SeedDefaults: true},
		Finance: config.FinanceConfig{
			DefaultCurrency:       "USD",
			LargeExpenseThreshold: 10000,
			OCRMinConfidence:      0.3,
			OCRReviewConfidence:   0.8,
		},
		Telemetry: config.TelemetryConfig{
			Endpoint:       "localhost:4317",
			SamplingRatio:  1,
			ExportInterval: time.Minute,
			LogLevel:       "info",
		},
	}
}

func newContainer(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	c, err := New(context.Background(), cfg, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close(context.Background())) })
	return c
}

func TestNew_SeedsDefaultCatalog(t *testing.T) {
	c := newContainer(t, testConfig())
	ctx := context.Background()

	codes, err := c.CostCodes.ListCostCodes(ctx, costing.CostCodeFilter{})
	require.NoError(t, err)
	assert.Len(t, codes, len(costing.DefaultCatalog()))

	tree, err := c.CostCodes.GetCostCodeHierarchy(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tree)
	assert.False(t, c.Telemetry.IsEnabled())
}

func TestNew_ImportsSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	content := "code,name,description,division,category,subcategory,type,unit,tags\n" +
		"99-100,Owner allowance,,99 Allowances,,,other,ls,allowance\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := testConfig()
	cfg.Catalog.SeedDefaults = false
	cfg.Catalog.SeedFile = path
	c := newContainer(t, cfg)

	codes, err := c.CostCodes.ListCostCodes(context.Background(), costing.CostCodeFilter{})
	require.NoError(t, err)
	require.Len(t, codes, 1)
	assert.Equal(t, "99-100", codes[0].Code)
}

func TestNew_MissingSeedFile(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.SeedFile = filepath.Join(t.TempDir(), "missing.csv")

	_, err := New(context.Background(), cfg, WithLogger(zaptest.NewLogger(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog file")
}

func TestContainer_EndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Finance.InvalidateOnEvents = true
	c := newContainer(t, cfg)
	ctx := context.Background()
	projectID := uuid.New()
	actor := shared.Actor{ID: uuid.New(), Name: "estimator"}

	cc, err := c.CostCodes.GetCostCodeByCode(ctx, "01-100")
	require.NoError(t, err)
	_, err = c.CostCodes.CreateBudget(ctx, costingapp.BudgetRequest{
		ProjectID:  projectID,
		CostCodeID: cc.ID,
		Quantity:   decimal.NewFromInt(100),
		UnitPrice:  decimal.NewFromInt(500),
	}, actor)
	require.NoError(t, err)

	snap, err := c.Financials.GetProjectFinancials(ctx, projectID)
	require.NoError(t, err)
	assert.True(t, snap.TotalBudget.Equal(decimal.NewFromInt(50000)))

	_, err = c.CostCodes.UpdateBudgetActuals(ctx, projectID, cc.ID, decimal.NewFromInt(10000), decimal.Zero)
	require.NoError(t, err)

	// the budget event dropped the cached snapshot
	again, err := c.Financials.GetProjectFinancials(ctx, projectID)
	require.NoError(t, err)
	require.Len(t, again.CostCodes, 1)
	assert.True(t, again.CostCodes[0].Actual.Equal(decimal.NewFromInt(10000)))
	assert.True(t, snap.CostCodes[0].Actual.IsZero())
}

func TestNew_UnknownAllocationStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.Finance.CommitmentAllocation = "by_weight"

	_, err := New(context.Background(), cfg, WithLogger(zaptest.NewLogger(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commitment_allocation")
}

func TestNew_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Cache.Backend = config.CacheBackendRedis
	cfg.Cache.AllowFallback = false
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: port}
	c := newContainer(t, cfg)

	projectID := uuid.New()
	_, err = c.Financials.GetProjectFinancials(context.Background(), projectID)
	require.NoError(t, err)
	assert.True(t, mr.Exists(cfg.Cache.KeyPrefix+projectID.String()))
}
