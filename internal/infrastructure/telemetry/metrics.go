package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Counter is a helper for creating and recording counter metrics.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a new Counter metric.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &Counter{counter: c}, nil
}

// Inc increments the counter by 1 with optional attributes.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram is a helper for creating and recording histogram metrics.
type Histogram struct {
	histogram metric.Float64Histogram
}

// HistogramOpts provides options for creating a histogram.
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

// NewHistogram creates a new Histogram metric.
func NewHistogram(meter metric.Meter, opts HistogramOpts) (*Histogram, error) {
	histogramOpts := []metric.Float64HistogramOption{
		metric.WithDescription(opts.Description),
		metric.WithUnit(opts.Unit),
	}
	if len(opts.Boundaries) > 0 {
		histogramOpts = append(histogramOpts, metric.WithExplicitBucketBoundaries(opts.Boundaries...))
	}

	h, err := meter.Float64Histogram(opts.Name, histogramOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create histogram %s: %w", opts.Name, err)
	}
	return &Histogram{histogram: h}, nil
}

// RecordDuration records a duration in seconds.
func (h *Histogram) RecordDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

// FloatGauge is a helper for creating and recording float64 gauge metrics.
type FloatGauge struct {
	gauge metric.Float64Gauge
}

// NewFloatGauge creates a new Float64 Gauge metric.
func NewFloatGauge(meter metric.Meter, name, description, unit string) (*FloatGauge, error) {
	g, err := meter.Float64Gauge(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("failed to create float gauge %s: %w", name, err)
	}
	return &FloatGauge{gauge: g}, nil
}

// Record records the current value with optional attributes.
func (g *FloatGauge) Record(ctx context.Context, value float64, attrs ...attribute.KeyValue) {
	g.gauge.Record(ctx, value, metric.WithAttributes(attrs...))
}

// Metric attribute keys
var (
	AttrProjectID = attribute.Key("project_id")
	AttrHealth    = attribute.Key("health")
	AttrCacheHit  = attribute.Key("cache_hit")
)

// CalculationDurationBuckets are bucket boundaries for snapshot calculations (seconds).
var CalculationDurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1}

// FinancialsMetrics records project financials activity.
type FinancialsMetrics struct {
	calculations *Counter
	lookups      *Counter
	duration     *Histogram
	utilization  *FloatGauge
}

// NewFinancialsMetrics registers the financials instruments on meter.
func NewFinancialsMetrics(meter metric.Meter) (*FinancialsMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("NewFinancialsMetrics: meter cannot be nil")
	}

	m := &FinancialsMetrics{}
	var err error
	if m.calculations, err = NewCounter(meter,
		"jobcost_financials_calculated_total",
		"Number of project financial snapshots calculated",
		"{snapshots}"); err != nil {
		return nil, err
	}
	if m.lookups, err = NewCounter(meter,
		"jobcost_financials_lookups_total",
		"Snapshot lookups by cache outcome",
		"{lookups}"); err != nil {
		return nil, err
	}
	if m.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "jobcost_financials_calculation_duration_seconds",
		Description: "Time spent calculating a project snapshot",
		Unit:        "s",
		Boundaries:  CalculationDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.utilization, err = NewFloatGauge(meter,
		"jobcost_project_budget_utilization",
		"Actual cost as a percentage of budget at the last calculation",
		"%"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCalculation records one snapshot calculation
func (m *FinancialsMetrics) RecordCalculation(ctx context.Context, projectID uuid.UUID, health string, utilization float64, took time.Duration) {
	if m == nil {
		return
	}
	project := AttrProjectID.String(projectID.String())
	m.calculations.Inc(ctx, project, AttrHealth.String(health))
	m.duration.RecordDuration(ctx, took)
	m.utilization.Record(ctx, utilization, project)
}

// RecordLookup records a snapshot lookup and whether the cache served it
func (m *FinancialsMetrics) RecordLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	m.lookups.Inc(ctx, AttrCacheHit.Bool(hit))
}
