package financials

import (
	"time"

	"github.com/erp/jobcost/internal/domain/shared/strategy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrendForecast projects final cost as actual plus committed cost
type TrendForecast struct {
	strategy.BaseStrategy
}

// NewTrendForecast creates the trend forecasting strategy
func NewTrendForecast() *TrendForecast {
	return &TrendForecast{
		BaseStrategy: strategy.NewBaseStrategy("trend", strategy.StrategyTypeForecast,
			"Actual cost to date plus committed subcontract cost"),
	}
}

// Method returns the forecasting method
func (s *TrendForecast) Method() strategy.ForecastMethod {
	return strategy.ForecastMethodTrend
}

// Forecast estimates the final cost
func (s *TrendForecast) Forecast(in strategy.ForecastInput) strategy.ForecastEstimate {
	return estimate(s.Method(), in.Budget, in.Actual.Add(in.Committed), s.Description())
}

// EVMForecast projects final cost as budget / CPI
type EVMForecast struct {
	strategy.BaseStrategy
}

// NewEVMForecast creates the earned value forecasting strategy
func NewEVMForecast() *EVMForecast {
	return &EVMForecast{
		BaseStrategy: strategy.NewBaseStrategy("evm", strategy.StrategyTypeForecast,
			"Earned value management: budget divided by the cost performance index"),
	}
}

// Method returns the forecasting method
func (s *EVMForecast) Method() strategy.ForecastMethod {
	return strategy.ForecastMethodEVM
}

// Forecast estimates the final cost. A zero CPI is treated as 1.
func (s *EVMForecast) Forecast(in strategy.ForecastInput) strategy.ForecastEstimate {
	cpi := in.CPI
	if cpi.IsZero() {
		cpi = decimal.NewFromInt(1)
	}
	return estimate(s.Method(), in.Budget, in.Budget.Div(cpi), s.Description())
}

// CommitmentsForecast projects final cost from everything already spent or committed
type CommitmentsForecast struct {
	strategy.BaseStrategy
}

// NewCommitmentsForecast creates the commitments-based forecasting strategy
func NewCommitmentsForecast() *CommitmentsForecast {
	return &CommitmentsForecast{
		BaseStrategy: strategy.NewBaseStrategy("commitments", strategy.StrategyTypeForecast,
			"Actual cost plus all outstanding commitments"),
	}
}

// Method returns the forecasting method
func (s *CommitmentsForecast) Method() strategy.ForecastMethod {
	return strategy.ForecastMethodCommitments
}

// Forecast estimates the final cost
func (s *CommitmentsForecast) Forecast(in strategy.ForecastInput) strategy.ForecastEstimate {
	return estimate(s.Method(), in.Budget, in.Actual.Add(in.Committed), s.Description())
}

func estimate(method strategy.ForecastMethod, budget, final decimal.Decimal, basis string) strategy.ForecastEstimate {
	return strategy.ForecastEstimate{
		Method:             method,
		EstimatedFinalCost: final,
		ProjectedVariance:  budget.Sub(final),
		Basis:              basis,
	}
}

// Forecast is the three-method final cost forecast of a project
type Forecast struct {
	ProjectID         uuid.UUID                 `json:"project_id"`
	Trend             strategy.ForecastEstimate `json:"trend"`
	EVM               strategy.ForecastEstimate `json:"evm"`
	Commitments       strategy.ForecastEstimate `json:"commitments"`
	RecommendedMethod strategy.ForecastMethod   `json:"recommended_method"`
	Recommended       decimal.Decimal           `json:"recommended"`
	MostLikely        decimal.Decimal           `json:"most_likely"`
	BestCase          decimal.Decimal           `json:"best_case"`
	WorstCase         decimal.Decimal           `json:"worst_case"`
	CalculatedAt      time.Time                 `json:"calculated_at"`
}

// Forecaster runs the three forecasting strategies over a snapshot
type Forecaster struct {
	trend       strategy.ForecastStrategy
	evm         strategy.ForecastStrategy
	commitments strategy.ForecastStrategy
}

// NewForecaster creates a forecaster with the standard strategies
func NewForecaster() *Forecaster {
	return &Forecaster{
		trend:       NewTrendForecast(),
		evm:         NewEVMForecast(),
		commitments: NewCommitmentsForecast(),
	}
}

// NewForecasterWith creates a forecaster from explicit trend, EVM and
// commitments strategies
func NewForecasterWith(trend, evm, commitments strategy.ForecastStrategy) *Forecaster {
	return &Forecaster{trend: trend, evm: evm, commitments: commitments}
}

// Strategies returns the strategies in reporting order
func (f *Forecaster) Strategies() []strategy.ForecastStrategy {
	return []strategy.ForecastStrategy{f.trend, f.evm, f.commitments}
}

// Forecast produces the forecast of a snapshot. The commitments method is the
// recommended and most likely figure, trend the best case and EVM the worst
// case, whatever their relative values.
func (f *Forecaster) Forecast(snap *ProjectFinancials, now time.Time) *Forecast {
	in := strategy.ForecastInput{
		Budget:      snap.TotalBudget,
		Actual:      snap.TotalActual,
		Committed:   snap.TotalCommitted,
		EarnedValue: snap.EarnedValue,
		CPI:         snap.CPI,
	}

	out := &Forecast{
		ProjectID:    snap.ProjectID,
		Trend:        f.trend.Forecast(in),
		EVM:          f.evm.Forecast(in),
		Commitments:  f.commitments.Forecast(in),
		CalculatedAt: now,
	}
	out.RecommendedMethod = out.Commitments.Method
	out.Recommended = out.Commitments.EstimatedFinalCost
	out.MostLikely = out.Commitments.EstimatedFinalCost
	out.BestCase = out.Trend.EstimatedFinalCost
	out.WorstCase = out.EVM.EstimatedFinalCost
	return out
}
