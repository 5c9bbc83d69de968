package expense

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OCR confidence thresholds
const (
	DefaultOCRMinConfidence    = 0.3
	DefaultOCRReviewConfidence = 0.8
)

// OCRData is the recognition output attached to an auto-created expense
type OCRData struct {
	RawText         string            `json:"raw_text"`
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`
	Confidence      float64           `json:"confidence"`
	ProcessedAt     time.Time         `json:"processed_at"`
}

// Attachment is the scanned source document of an expense
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
}

// SourceFile is the raw uploaded file carried by an OCR intake
type SourceFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// OCRIntake is the payload produced by an external OCR engine
type OCRIntake struct {
	ProjectID     uuid.UUID
	CostCodeID    *uuid.UUID
	SupplierID    *uuid.UUID
	Amount        decimal.Decimal
	TaxAmount     decimal.Decimal
	Date          time.Time
	Supplier      string
	Description   string
	InvoiceNumber string
	OCRData       OCRData
	File          SourceFile
}

// OCRPolicy holds the OCR confidence thresholds
type OCRPolicy struct {
	MinConfidence    float64
	ReviewConfidence float64
}

// DefaultOCRPolicy returns the default OCR thresholds
func DefaultOCRPolicy() OCRPolicy {
	return OCRPolicy{MinConfidence: DefaultOCRMinConfidence, ReviewConfidence: DefaultOCRReviewConfidence}
}

// NeedsReview reports whether an extraction of the given confidence needs a human check
func (p OCRPolicy) NeedsReview(confidence float64) bool {
	return confidence < p.ReviewConfidence
}

// Validate applies the lenient OCR intake rules. Low confidence is a hard
// error with its own code.
func (in OCRIntake) Validate(policy OCRPolicy) error {
	details := make([]string, 0)
	if in.ProjectID == uuid.Nil {
		details = append(details, "Project is required")
	}
	if !in.Amount.IsPositive() {
		details = append(details, "Amount must be greater than zero")
	}
	if in.Date.IsZero() {
		details = append(details, "Date is required")
	}
	if strings.TrimSpace(in.Supplier) == "" {
		details = append(details, "Supplier name is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		details = append(details, "Description is required")
	}
	if strings.TrimSpace(in.File.Name) == "" {
		details = append(details, "Source file is required")
	}
	if len(details) > 0 {
		return shared.NewValidationError("Invalid OCR payload", details...)
	}

	if in.OCRData.Confidence < policy.MinConfidence {
		return &shared.DomainError{
			Code:    shared.CodeOCRLowConfidence,
			Message: fmt.Sprintf("OCR confidence %.2f is below the minimum of %.2f", in.OCRData.Confidence, policy.MinConfidence),
			Kind:    shared.KindValidation,
		}
	}
	return nil
}
