package expense

import (
	"time"

	"github.com/erp/jobcost/internal/domain/expense"
	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseRequest represents a request to create or update a manual expense.
// Required references and amounts are checked by ValidateClassification so
// that every failed rule is reported together.
type ExpenseRequest struct {
	ProjectID     uuid.UUID       `json:"project_id"`
	CostCodeID    uuid.UUID       `json:"cost_code_id"`
	SupplierID    uuid.UUID       `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name" validate:"max=200"`
	Amount        decimal.Decimal `json:"amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount" validate:"gte=0"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	Description   string          `json:"description" validate:"max=1000"`
	InvoiceNumber string          `json:"invoice_number" validate:"max=100"`
	InvoiceDate   *time.Time      `json:"invoice_date"`
	Notes         string          `json:"notes" validate:"max=2000"`
}

func (r ExpenseRequest) classification() expense.Classification {
	return expense.Classification{
		ProjectID:     r.ProjectID,
		CostCodeID:    r.CostCodeID,
		SupplierID:    r.SupplierID,
		SupplierName:  r.SupplierName,
		Amount:        r.Amount,
		TaxAmount:     r.TaxAmount,
		Currency:      valueobject.Currency(r.Currency),
		Description:   r.Description,
		InvoiceNumber: r.InvoiceNumber,
		InvoiceDate:   r.InvoiceDate,
		Notes:         r.Notes,
	}
}

// OCRFile is the scanned document uploaded with an OCR expense
type OCRFile struct {
	Name     string `json:"name" validate:"max=255"`
	MimeType string `json:"mime_type" validate:"max=100"`
	Data     []byte `json:"data"`
}

// OCRExpenseRequest is the payload an OCR engine posts for an auto-created expense
type OCRExpenseRequest struct {
	ProjectID     uuid.UUID       `json:"project_id"`
	CostCodeID    *uuid.UUID      `json:"cost_code_id"`
	SupplierID    *uuid.UUID      `json:"supplier_id"`
	Amount        decimal.Decimal `json:"amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount" validate:"gte=0"`
	Date          time.Time       `json:"date"`
	Supplier      string          `json:"supplier" validate:"max=200"`
	Description   string          `json:"description" validate:"max=1000"`
	InvoiceNumber string          `json:"invoice_number" validate:"max=100"`
	OCRData       expense.OCRData `json:"ocr_data"`
	File          OCRFile         `json:"file"`
}

func (r OCRExpenseRequest) intake() expense.OCRIntake {
	return expense.OCRIntake{
		ProjectID:     r.ProjectID,
		CostCodeID:    r.CostCodeID,
		SupplierID:    r.SupplierID,
		Amount:        r.Amount,
		TaxAmount:     r.TaxAmount,
		Date:          r.Date,
		Supplier:      r.Supplier,
		Description:   r.Description,
		InvoiceNumber: r.InvoiceNumber,
		OCRData:       r.OCRData,
		File: expense.SourceFile{
			Name:     r.File.Name,
			MimeType: r.File.MimeType,
			Data:     r.File.Data,
		},
	}
}

// PaymentRequest records a payment against an approved expense
type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"gt=0"`
	Date      time.Time       `json:"date"`
	Reference string          `json:"reference" validate:"max=100"`
}
