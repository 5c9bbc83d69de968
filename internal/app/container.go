// Package app wires the job-cost services into a single container.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	auditapp "github.com/erp/jobcost/internal/application/audit"
	costingapp "github.com/erp/jobcost/internal/application/costing"
	expenseapp "github.com/erp/jobcost/internal/application/expense"
	financialsapp "github.com/erp/jobcost/internal/application/financials"
	subcontractapp "github.com/erp/jobcost/internal/application/subcontract"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/infrastructure/cache"
	"github.com/erp/jobcost/internal/infrastructure/config"
	"github.com/erp/jobcost/internal/infrastructure/event"
	"github.com/erp/jobcost/internal/infrastructure/logger"
	"github.com/erp/jobcost/internal/infrastructure/persistence/memory"
	infraStrategy "github.com/erp/jobcost/internal/infrastructure/strategy"
	"github.com/erp/jobcost/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Container holds the wired services of one job-cost engine instance
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Telemetry *telemetry.Providers
	Store     *memory.Store
	Bus       *event.InMemoryEventBus

	Audit        *auditapp.Service
	CostCodes    *costingapp.Ledger
	Subcontracts *subcontractapp.Ledger
	Certificates *subcontractapp.CertificationEngine
	Expenses     *expenseapp.Classifier
	Financials   *financialsapp.Aggregator

	closers []func(ctx context.Context) error
}

// Option configures container construction
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger uses log instead of building one from the log configuration
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.logger = log
	}
}

// New builds the container from configuration and seeds the cost code catalog
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	base := o.logger
	if base == nil {
		var err error
		base, err = logger.New(&logger.Config{
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
			Output:  cfg.Log.Output,
			Service: cfg.App.Name,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.Endpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, base)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	bridgeLevel, err := zapcore.ParseLevel(cfg.Telemetry.LogLevel)
	if err != nil {
		bridgeLevel = zapcore.InfoLevel
	}
	log := providers.BridgeLogger(base, bridgeLevel)

	c := &Container{
		Config:    cfg,
		Logger:    log,
		Telemetry: providers,
		Store:     memory.NewStore(),
		Bus:       event.NewInMemoryEventBus(log),
	}
	c.closers = append(c.closers, providers.Shutdown)

	if err := c.wire(); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	if err := c.seedCatalog(ctx); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	return c, nil
}

func (c *Container) wire() error {
	store := c.Store
	budgets := memory.NewBudgetRepository(store)
	subcontracts := memory.NewSubcontractRepository(store)
	certificates := memory.NewCertificateRepository(store)
	expenses := memory.NewExpenseRepository(store)

	registry, err := infraStrategy.NewRegistryWithDefaults()
	if err != nil {
		return fmt.Errorf("failed to build strategy registry: %w", err)
	}
	allocation, err := registry.GetAllocationStrategy(c.Config.Finance.CommitmentAllocation)
	if err != nil {
		return fmt.Errorf("finance.commitment_allocation: %w", err)
	}
	forecaster, err := registry.Forecaster()
	if err != nil {
		return err
	}

	c.Audit = auditapp.NewService(memory.NewAuditRepository(store), c.Logger)
	c.CostCodes = costingapp.NewLedger(store, c.Bus, memory.NewCostCodeRepository(store), budgets, c.Audit, c.Logger)
	c.Subcontracts = subcontractapp.NewLedger(store, c.Bus, subcontracts, certificates, c.CostCodes, c.Audit, c.Logger)
	c.Subcontracts.SetAllocationStrategy(allocation)
	c.Certificates = subcontractapp.NewCertificationEngine(store, c.Bus, certificates, c.Subcontracts, c.Audit, c.Logger)
	c.Expenses = expenseapp.NewClassifier(store, c.Bus, expenses, c.CostCodes, c.CostCodes, c.Audit,
		expenseapp.PolicyFromConfig(c.Config.Finance), c.Logger)

	snapshots, err := cache.NewSnapshotCacheFactory(c.Config.Cache, c.Config.Redis, cache.WithLogger(c.Logger)).CreateCache()
	if err != nil {
		return err
	}
	if closer, ok := snapshots.(io.Closer); ok {
		c.closers = append(c.closers, func(context.Context) error { return closer.Close() })
	}

	metrics, err := telemetry.NewFinancialsMetrics(c.Telemetry.Meter("jobcost/financials"))
	if err != nil {
		return fmt.Errorf("failed to register financials metrics: %w", err)
	}
	c.Financials = financialsapp.NewAggregator(store, budgets, subcontracts, expenses, snapshots, c.Logger,
		financialsapp.WithMetrics(metrics),
		financialsapp.WithForecaster(forecaster),
	)

	if c.Config.Finance.InvalidateOnEvents {
		stop := c.Financials.InvalidateOnEvents(c.Bus)
		c.closers = append(c.closers, func(context.Context) error {
			stop()
			return nil
		})
	}
	return nil
}

func (c *Container) seedCatalog(ctx context.Context) error {
	if c.Config.Catalog.SeedDefaults {
		if _, err := c.CostCodes.SeedDefaultCatalog(ctx); err != nil {
			return fmt.Errorf("failed to seed default catalog: %w", err)
		}
	}
	if c.Config.Catalog.SeedFile == "" {
		return nil
	}

	f, err := os.Open(c.Config.Catalog.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	result, err := c.CostCodes.ImportCatalog(ctx, f, shared.SystemActor)
	if err != nil {
		return fmt.Errorf("failed to import catalog %s: %w", c.Config.Catalog.SeedFile, err)
	}
	c.Logger.Info("cost code catalog imported",
		zap.String("file", c.Config.Catalog.SeedFile),
		zap.Int("imported", result.ImportedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("errors", result.ErrorRows),
	)
	return nil
}

// Close releases the cache connection, flushes telemetry and syncs the logger.
// Closers run in reverse registration order.
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	_ = c.Logger.Sync()
	return errors.Join(errs...)
}
