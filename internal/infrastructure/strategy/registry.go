package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/shared/strategy"
)

// StrategyRegistry manages strategy registrations
type StrategyRegistry struct {
	mu                   sync.RWMutex
	forecastStrategies   map[string]strategy.ForecastStrategy
	allocationStrategies map[string]strategy.CommitmentAllocationStrategy
	defaults             map[strategy.StrategyType]string
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		forecastStrategies:   make(map[string]strategy.ForecastStrategy),
		allocationStrategies: make(map[string]strategy.CommitmentAllocationStrategy),
		defaults:             make(map[strategy.StrategyType]string),
	}
}

// RegisterForecastStrategy registers a forecast strategy
func (r *StrategyRegistry) RegisterForecastStrategy(s strategy.ForecastStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.forecastStrategies[name]; exists {
		return fmt.Errorf("%w: forecast strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.forecastStrategies[name] = s
	return nil
}

// GetForecastStrategy returns a forecast strategy by name
func (r *StrategyRegistry) GetForecastStrategy(name string) (strategy.ForecastStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, exists := r.forecastStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: forecast strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// GetForecastStrategyByMethod returns the first registered strategy, by name,
// implementing the forecasting method
func (r *StrategyRegistry) GetForecastStrategyByMethod(method strategy.ForecastMethod) (strategy.ForecastStrategy, error) {
	for _, name := range r.ListForecastStrategies() {
		s, err := r.GetForecastStrategy(name)
		if err == nil && s.Method() == method {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: no forecast strategy for method '%s'", shared.ErrNotFound, method)
}

// ListForecastStrategies returns all registered forecast strategy names
func (r *StrategyRegistry) ListForecastStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.forecastStrategies))
	for name := range r.forecastStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterAllocationStrategy registers a commitment allocation strategy
func (r *StrategyRegistry) RegisterAllocationStrategy(s strategy.CommitmentAllocationStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.allocationStrategies[name]; exists {
		return fmt.Errorf("%w: allocation strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.allocationStrategies[name] = s
	return nil
}

// GetAllocationStrategy returns an allocation strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetAllocationStrategy(name string) (strategy.CommitmentAllocationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaults[strategy.StrategyTypeAllocation]
		if name == "" {
			return nil, fmt.Errorf("%w: no default allocation strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.allocationStrategies[name]
	if !exists {
		return nil, fmt.Errorf("%w: allocation strategy '%s' not found", shared.ErrNotFound, name)
	}
	return s, nil
}

// ListAllocationStrategies returns all registered allocation strategy names
func (r *StrategyRegistry) ListAllocationStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.allocationStrategies))
	for name := range r.allocationStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnregisterAllocationStrategy removes an allocation strategy
func (r *StrategyRegistry) UnregisterAllocationStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.allocationStrategies[name]; !exists {
		return fmt.Errorf("%w: allocation strategy '%s' not found", shared.ErrNotFound, name)
	}
	delete(r.allocationStrategies, name)

	// Clear default if it was this strategy
	if r.defaults[strategy.StrategyTypeAllocation] == name {
		delete(r.defaults, strategy.StrategyTypeAllocation)
	}
	return nil
}

// SetDefault sets the default strategy for a strategy type
func (r *StrategyRegistry) SetDefault(strategyType strategy.StrategyType, name string) error {
	if !strategyType.IsValid() {
		return fmt.Errorf("unknown strategy type '%s'", strategyType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRegisteredLocked(strategyType, name) {
		return fmt.Errorf("%w: strategy '%s' of type '%s' not found", shared.ErrNotFound, name, strategyType)
	}

	r.defaults[strategyType] = name
	return nil
}

// GetDefault returns the default strategy name for a strategy type
func (r *StrategyRegistry) GetDefault(strategyType strategy.StrategyType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[strategyType]
}

// IsRegistered returns true if a strategy with the given name is registered for the type
func (r *StrategyRegistry) IsRegistered(strategyType strategy.StrategyType, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRegisteredLocked(strategyType, name)
}

// isRegisteredLocked checks registration without locking (caller must hold lock)
func (r *StrategyRegistry) isRegisteredLocked(strategyType strategy.StrategyType, name string) bool {
	switch strategyType {
	case strategy.StrategyTypeForecast:
		_, exists := r.forecastStrategies[name]
		return exists
	case strategy.StrategyTypeAllocation:
		_, exists := r.allocationStrategies[name]
		return exists
	default:
		return false
	}
}

// Stats returns registration counts for each strategy type
func (r *StrategyRegistry) Stats() map[strategy.StrategyType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[strategy.StrategyType]int{
		strategy.StrategyTypeForecast:   len(r.forecastStrategies),
		strategy.StrategyTypeAllocation: len(r.allocationStrategies),
	}
}
