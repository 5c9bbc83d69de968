// Package strategy defines the pluggable calculation strategies used by the
// job-cost services: final cost forecasts and commitment allocation.
package strategy

// StrategyType groups strategies that are interchangeable with each other
type StrategyType string

const (
	StrategyTypeForecast   StrategyType = "forecast"
	StrategyTypeAllocation StrategyType = "allocation"
)

func (t StrategyType) String() string {
	return string(t)
}

// IsValid reports whether t is a known strategy type
func (t StrategyType) IsValid() bool {
	return t == StrategyTypeForecast || t == StrategyTypeAllocation
}

// Strategy is implemented by every registered strategy
type Strategy interface {
	Name() string
	Type() StrategyType
	Description() string
}

// BaseStrategy carries the identity of a strategy and is embedded by
// concrete implementations.
type BaseStrategy struct {
	name        string
	kind        StrategyType
	description string
}

// NewBaseStrategy creates a BaseStrategy
func NewBaseStrategy(name string, kind StrategyType, description string) BaseStrategy {
	return BaseStrategy{name: name, kind: kind, description: description}
}

func (s BaseStrategy) Name() string { return s.name }
func (s BaseStrategy) Type() StrategyType { return s.kind }
func (s BaseStrategy) Description() string { return s.description }
