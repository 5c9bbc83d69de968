package expense

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinDescriptionLength is the shortest accepted expense description
const MinDescriptionLength = 5

// DefaultLargeExpenseThreshold is the amount above which a warning is raised
var DefaultLargeExpenseThreshold = decimal.NewFromInt(10000)

// Classification is the data needed to classify an expense against the job-cost ledger
type Classification struct {
	ProjectID     uuid.UUID
	CostCodeID    uuid.UUID
	SupplierID    uuid.UUID
	SupplierName  string
	Amount        decimal.Decimal
	TaxAmount     decimal.Decimal
	Currency      valueobject.Currency
	Description   string
	InvoiceNumber string
	InvoiceDate   *time.Time
	Notes         string
}

// ValidationResult separates blocking errors from non-blocking warnings
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ClassificationPolicy holds tunable validation thresholds
type ClassificationPolicy struct {
	LargeExpenseThreshold decimal.Decimal
}

// DefaultClassificationPolicy returns the policy with default thresholds
func DefaultClassificationPolicy() ClassificationPolicy {
	return ClassificationPolicy{LargeExpenseThreshold: DefaultLargeExpenseThreshold}
}

// ValidateClassification checks an expense classification. Missing references,
// a non-positive amount, a short description or a missing invoice date block
// the save; a large amount or a missing invoice number only warn.
func ValidateClassification(c Classification, policy ClassificationPolicy) ValidationResult {
	result := ValidationResult{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	if c.ProjectID == uuid.Nil {
		result.Errors = append(result.Errors, "Project is required")
	}
	if c.CostCodeID == uuid.Nil {
		result.Errors = append(result.Errors, "Cost code is required")
	}
	if c.SupplierID == uuid.Nil {
		result.Errors = append(result.Errors, "Supplier is required")
	}
	if !c.Amount.IsPositive() {
		result.Errors = append(result.Errors, "Amount must be greater than zero")
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Description)) < MinDescriptionLength {
		result.Errors = append(result.Errors, "Description must be at least 5 characters")
	}
	if c.InvoiceDate == nil || c.InvoiceDate.IsZero() {
		result.Errors = append(result.Errors, "Invoice date is required")
	}

	threshold := policy.LargeExpenseThreshold
	if !threshold.IsPositive() {
		threshold = DefaultLargeExpenseThreshold
	}
	if c.Amount.GreaterThan(threshold) {
		result.Warnings = append(result.Warnings, "Large expense: amount exceeds "+threshold.String()+", additional approval may be required")
	}
	if strings.TrimSpace(c.InvoiceNumber) == "" {
		result.Warnings = append(result.Warnings, "Invoice number is missing")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// TotalAmount returns amount + tax
func (c Classification) TotalAmount() decimal.Decimal {
	return c.Amount.Add(c.TaxAmount)
}
