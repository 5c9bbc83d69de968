package strategy

import (
	"github.com/shopspring/decimal"
)

// ForecastMethod identifies a final-cost forecasting method
type ForecastMethod string

const (
	ForecastMethodTrend       ForecastMethod = "trend"
	ForecastMethodEVM         ForecastMethod = "evm"
	ForecastMethodCommitments ForecastMethod = "commitments"
)

// String returns the string representation of the forecast method
func (m ForecastMethod) String() string {
	return string(m)
}

// ForecastInput carries the project figures a forecast is derived from
type ForecastInput struct {
	Budget      decimal.Decimal
	Actual      decimal.Decimal
	Committed   decimal.Decimal
	EarnedValue decimal.Decimal
	CPI         decimal.Decimal
}

// ForecastEstimate is the result of one forecasting method
type ForecastEstimate struct {
	Method             ForecastMethod  `json:"method"`
	EstimatedFinalCost decimal.Decimal `json:"estimated_final_cost"`
	ProjectedVariance  decimal.Decimal `json:"projected_variance"`
	Basis              string          `json:"basis"`
}

// ForecastStrategy defines the interface for estimating the final cost of a project
type ForecastStrategy interface {
	Strategy
	// Method returns the forecasting method implemented by this strategy
	Method() ForecastMethod
	// Forecast estimates the final cost from the given figures
	Forecast(in ForecastInput) ForecastEstimate
}
