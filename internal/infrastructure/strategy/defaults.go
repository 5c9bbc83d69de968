package strategy

import (
	"fmt"

	"github.com/erp/jobcost/internal/domain/financials"
	"github.com/erp/jobcost/internal/domain/shared/strategy"
)

// NewRegistryWithDefaults creates a registry holding the trend, EVM and
// commitments forecasts and the even split commitment allocation, which is
// the allocation default.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	forecasts := []strategy.ForecastStrategy{
		financials.NewTrendForecast(),
		financials.NewEVMForecast(),
		financials.NewCommitmentsForecast(),
	}
	for _, s := range forecasts {
		if err := r.RegisterForecastStrategy(s); err != nil {
			return nil, err
		}
	}

	evenSplit := strategy.NewEvenSplitAllocation()
	if err := r.RegisterAllocationStrategy(evenSplit); err != nil {
		return nil, err
	}
	if err := r.SetDefault(strategy.StrategyTypeAllocation, evenSplit.Name()); err != nil {
		return nil, err
	}

	return r, nil
}

// Forecaster builds a financials.Forecaster from the registered trend, EVM
// and commitments strategies
func (r *StrategyRegistry) Forecaster() (*financials.Forecaster, error) {
	methods := []strategy.ForecastMethod{
		strategy.ForecastMethodTrend,
		strategy.ForecastMethodEVM,
		strategy.ForecastMethodCommitments,
	}
	found := make([]strategy.ForecastStrategy, len(methods))
	for i, m := range methods {
		s, err := r.GetForecastStrategyByMethod(m)
		if err != nil {
			return nil, fmt.Errorf("build forecaster: %w", err)
		}
		found[i] = s
	}
	return financials.NewForecasterWith(found[0], found[1], found[2]), nil
}
