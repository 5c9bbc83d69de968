package costing

import (
	"github.com/erp/jobcost/internal/domain/costing"
	csvimport "github.com/erp/jobcost/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateCostCodeRequest represents a request to add a cost code to the catalog
type CreateCostCodeRequest struct {
	Code          string   `json:"code" validate:"required,max=50"`
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=2000"`
	Division      string   `json:"division" validate:"required,max=100"`
	Category      string   `json:"category" validate:"max=100"`
	Subcategory   string   `json:"subcategory" validate:"max=100"`
	Type          string   `json:"type" validate:"required,oneof=labor material equipment subcontract other"`
	UnitOfMeasure string   `json:"unit_of_measure" validate:"max=20"`
	Tags          []string `json:"tags" validate:"omitempty,dive,max=50"`
	IsDefault     bool     `json:"is_default"`
}

func (r CreateCostCodeRequest) spec() costing.CostCodeSpec {
	return costing.CostCodeSpec{
		Code:          r.Code,
		Name:          r.Name,
		Description:   r.Description,
		Division:      r.Division,
		Category:      r.Category,
		Subcategory:   r.Subcategory,
		Type:          costing.CostCodeType(r.Type),
		UnitOfMeasure: r.UnitOfMeasure,
		Tags:          r.Tags,
		IsDefault:     r.IsDefault,
	}
}

// UpdateCostCodeRequest represents a partial update of a cost code. The code
// itself is immutable.
type UpdateCostCodeRequest struct {
	Name          *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	UnitOfMeasure *string  `json:"unit_of_measure" validate:"omitempty,max=20"`
	Tags          []string `json:"tags" validate:"omitempty,dive,max=50"`
	IsActive      *bool    `json:"is_active"`
}

// BudgetRequest represents a request to create or re-plan a budget line
type BudgetRequest struct {
	ProjectID  uuid.UUID       `json:"project_id" validate:"required"`
	CostCodeID uuid.UUID       `json:"cost_code_id" validate:"required"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice  decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// CatalogImportResult represents the result of a catalog import
type CatalogImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	SkippedRows  int                  `json:"skipped_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
}
