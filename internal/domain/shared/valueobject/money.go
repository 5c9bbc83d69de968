package valueobject

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217).
// Currency is stored on every financial record but never converted.
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	CAD Currency = "CAD" // Canadian Dollar
	AUD Currency = "AUD" // Australian Dollar
	MXN Currency = "MXN" // Mexican Peso
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

// IsValid reports whether the currency is a known three-letter code
func (c Currency) IsValid() bool {
	return len(c) == 3
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

var hundred = decimal.NewFromInt(100)

// Hundred is the decimal constant 100, used by percentage math
func Hundred() decimal.Decimal {
	return hundred
}

// PercentOf returns amount × percent / 100
func PercentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

// RatioPercent returns part / whole × 100, or zero when whole is zero
func RatioPercent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// SplitCents divides amount into parts truncated to cents. The last part
// absorbs the remainder so the parts always sum to amount.
func SplitCents(amount decimal.Decimal, parts int) ([]decimal.Decimal, error) {
	if parts <= 0 {
		return nil, errors.New("parts must be positive")
	}
	if parts == 1 {
		return []decimal.Decimal{amount}, nil
	}

	base := amount.Div(decimal.NewFromInt(int64(parts))).Truncate(2)
	result := make([]decimal.Decimal, parts)
	allocated := decimal.Zero
	for i := range parts - 1 {
		result[i] = base
		allocated = allocated.Add(base)
	}
	result[parts-1] = amount.Sub(allocated)
	return result, nil
}
