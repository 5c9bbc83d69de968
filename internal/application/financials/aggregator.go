// Package financials aggregates budgets, subcontracts and expenses into
// per-project financial snapshots, forecasts and reports.
package financials

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/expense"
	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/erp/jobcost/internal/infrastructure/event"
	"github.com/erp/jobcost/internal/infrastructure/logger"
	"github.com/erp/jobcost/internal/infrastructure/report"
	"github.com/erp/jobcost/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const spanService = "financials"

// ReadScope gives a consistent read-only view over the repositories
type ReadScope interface {
	View(ctx context.Context, fn func(ctx context.Context) error) error
}

// Subscriber receives every snapshot calculated for a project
type Subscriber func(snapshot *financials.ProjectFinancials)

// Option configures an Aggregator
type Option func(*Aggregator)

// WithMetrics records calculations and cache lookups
func WithMetrics(m *telemetry.FinancialsMetrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// WithForecaster replaces the standard forecasting strategies
func WithForecaster(f *financials.Forecaster) Option {
	return func(a *Aggregator) {
		a.forecaster = f
	}
}

// WithClock overrides the time source used to stamp snapshots
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// Aggregator computes, caches and publishes project financial snapshots
type Aggregator struct {
	scope        ReadScope
	budgets      costing.BudgetRepository
	subcontracts subcontract.SubcontractRepository
	expenses     expense.ExpenseRepository
	cache        financials.SnapshotCache
	forecaster   *financials.Forecaster
	metrics      *telemetry.FinancialsMetrics
	logger       *zap.Logger
	now          func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	subscribers map[uuid.UUID]map[uint64]Subscriber
	nextSubID   uint64
}

// NewAggregator creates a new project financials Aggregator
func NewAggregator(
	scope ReadScope,
	budgets costing.BudgetRepository,
	subcontracts subcontract.SubcontractRepository,
	expenses expense.ExpenseRepository,
	cache financials.SnapshotCache,
	log *zap.Logger,
	opts ...Option,
) *Aggregator {
	a := &Aggregator{
		scope:        scope,
		budgets:      budgets,
		subcontracts: subcontracts,
		expenses:     expenses,
		cache:        cache,
		forecaster:   financials.NewForecaster(),
		logger:       logger.OrNop(log).Named("financials"),
		now:          time.Now,
		subscribers:  make(map[uuid.UUID]map[uint64]Subscriber),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CalculateProjectFinancials recomputes the snapshot of a project, stores it in
// the cache and notifies the project's subscribers.
func (a *Aggregator) CalculateProjectFinancials(ctx context.Context, projectID uuid.UUID) (*financials.ProjectFinancials, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "calculate",
		telemetry.WithAttribute("project_id", projectID))
	defer span.End()

	started := time.Now()
	src, err := a.load(ctx, projectID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("load project %s: %w", projectID, err)
	}

	snap := financials.Calculate(projectID, src, a.now())
	if err := a.cache.Set(ctx, snap); err != nil {
		logger.For(ctx, a.logger).Warn("failed to cache project financials",
			zap.String("project_id", projectID.String()), zap.Error(err))
	}

	a.metrics.RecordCalculation(ctx, projectID, snap.Health.String(),
		snap.BudgetUtilization.InexactFloat64(), time.Since(started))
	telemetry.SetAttributes(span,
		"health", snap.Health.String(),
		"alerts", len(snap.Alerts),
		"cost_codes", len(snap.CostCodes),
	)
	logger.For(ctx, a.logger).Debug("project financials calculated",
		zap.String("project_id", projectID.String()),
		zap.String("health", snap.Health.String()),
		zap.Int("alerts", len(snap.Alerts)),
	)

	a.notify(snap)
	return snap, nil
}

func (a *Aggregator) load(ctx context.Context, projectID uuid.UUID) (financials.Sources, error) {
	var src financials.Sources
	err := a.scope.View(ctx, func(ctx context.Context) error {
		var err error
		if src.Budgets, err = a.budgets.FindByProject(ctx, projectID); err != nil {
			return err
		}
		if src.Subcontracts, err = a.subcontracts.FindByProject(ctx, projectID); err != nil {
			return err
		}
		src.Expenses, err = a.expenses.FindByProject(ctx, projectID)
		return err
	})
	return src, err
}

// GetProjectFinancials returns the cached snapshot of a project, calculating
// it on a miss. Concurrent misses for one project share a single calculation.
func (a *Aggregator) GetProjectFinancials(ctx context.Context, projectID uuid.UUID) (*financials.ProjectFinancials, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "get",
		telemetry.WithAttribute("project_id", projectID))
	defer span.End()

	cached, err := a.cache.Get(ctx, projectID)
	if err != nil {
		logger.For(ctx, a.logger).Warn("snapshot cache unavailable, recalculating",
			zap.String("project_id", projectID.String()), zap.Error(err))
	}
	a.metrics.RecordLookup(ctx, cached != nil)
	telemetry.SetAttributes(span, "cache_hit", cached != nil)
	if cached != nil {
		return cached, nil
	}

	v, err, dup := a.group.Do(projectID.String(), func() (any, error) {
		return a.CalculateProjectFinancials(ctx, projectID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	snap := v.(*financials.ProjectFinancials)
	if dup {
		return snap.Clone(), nil
	}
	return snap, nil
}

// RefreshProjectFinancials drops the cached snapshot and recalculates it
func (a *Aggregator) RefreshProjectFinancials(ctx context.Context, projectID uuid.UUID) (*financials.ProjectFinancials, error) {
	if err := a.Invalidate(ctx, projectID); err != nil {
		logger.For(ctx, a.logger).Warn("failed to invalidate project financials",
			zap.String("project_id", projectID.String()), zap.Error(err))
	}
	return a.CalculateProjectFinancials(ctx, projectID)
}

// Invalidate drops the cached snapshot of a project without recalculating
func (a *Aggregator) Invalidate(ctx context.Context, projectID uuid.UUID) error {
	return a.cache.Delete(ctx, projectID)
}

// ForecastFinalCost runs the trend, EVM and commitments forecasts over the
// current snapshot of a project.
func (a *Aggregator) ForecastFinalCost(ctx context.Context, projectID uuid.UUID) (*financials.Forecast, error) {
	snap, err := a.GetProjectFinancials(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return a.forecaster.Forecast(snap, a.now()), nil
}

// SubscribeToFinancialUpdates registers fn for every snapshot calculated for
// the project. The returned function removes the subscription.
func (a *Aggregator) SubscribeToFinancialUpdates(projectID uuid.UUID, fn Subscriber) (unsubscribe func()) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.nextSubID++
	id := a.nextSubID
	if a.subscribers[projectID] == nil {
		a.subscribers[projectID] = make(map[uint64]Subscriber)
	}
	a.subscribers[projectID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			delete(a.subscribers[projectID], id)
			if len(a.subscribers[projectID]) == 0 {
				delete(a.subscribers, projectID)
			}
		})
	}
}

// notify calls the project's subscribers in subscription order, outside the
// lock. Each subscriber gets its own copy.
func (a *Aggregator) notify(snap *financials.ProjectFinancials) {
	a.mu.Lock()
	subs := a.subscribers[snap.ProjectID]
	ids := make([]uint64, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	callbacks := make([]Subscriber, 0, len(ids))
	for _, id := range ids {
		callbacks = append(callbacks, subs[id])
	}
	a.mu.Unlock()

	for _, fn := range callbacks {
		fn(snap.Clone())
	}
}

// InvalidateOnEvents subscribes to the bus and drops the cached snapshot of
// any project a domain event concerns. Snapshots are not recalculated.
func (a *Aggregator) InvalidateOnEvents(sub shared.EventSubscriber) (stop func()) {
	handler := event.NewHandlerFunc(func(ctx context.Context, ev shared.DomainEvent) error {
		if ev.ProjectID() == uuid.Nil {
			return nil
		}
		return a.Invalidate(ctx, ev.ProjectID())
	})
	sub.Subscribe(handler)
	return func() { sub.Unsubscribe(handler) }
}

// ExportProjectReport writes the xlsx job-cost workbook of a project to w
func (a *Aggregator) ExportProjectReport(ctx context.Context, projectID uuid.UUID, projectName string, w io.Writer) error {
	ctx, span := telemetry.StartServiceSpan(ctx, spanService, "export",
		telemetry.WithAttribute("project_id", projectID))
	defer span.End()

	snap, err := a.GetProjectFinancials(ctx, projectID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	if projectName == "" {
		projectName = projectID.String()
	}

	err = report.WriteProjectWorkbook(w, report.ProjectWorkbook{
		ProjectName: projectName,
		Financials:  snap,
		Forecast:    a.forecaster.Forecast(snap, a.now()),
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return fmt.Errorf("export project %s: %w", projectID, err)
	}

	logger.For(ctx, a.logger).Info("project report exported", zap.String("project_id", projectID.String()))
	return nil
}
