package subcontract

import (
	"time"

	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleLineRequest is one payment schedule entry of a subcontract request
type ScheduleLineRequest struct {
	Description string          `json:"description" validate:"required,max=500"`
	Percentage  decimal.Decimal `json:"percentage"`
}

// SubcontractRequest represents a request to create or redraft a subcontract.
// ContractNumber is generated when empty. Commercial rules such as the
// schedule summing to 100% are enforced by the domain.
type SubcontractRequest struct {
	ContractNumber      string                `json:"contract_number" validate:"max=50"`
	ProjectID           uuid.UUID             `json:"project_id" validate:"required"`
	SubcontractorID     uuid.UUID             `json:"subcontractor_id" validate:"required"`
	SubcontractorName   string                `json:"subcontractor_name" validate:"required,max=200"`
	Title               string                `json:"title" validate:"required,max=200"`
	Scope               string                `json:"scope" validate:"max=5000"`
	TotalAmount         decimal.Decimal       `json:"total_amount"`
	Currency            string                `json:"currency" validate:"omitempty,len=3"`
	RetentionPercentage decimal.Decimal       `json:"retention_percentage"`
	StartDate           time.Time             `json:"start_date"`
	EndDate             time.Time             `json:"end_date"`
	Schedule            []ScheduleLineRequest `json:"schedule" validate:"dive"`
	CostCodeIDs         []uuid.UUID           `json:"cost_code_ids"`
}

func (r SubcontractRequest) terms(contractNumber string) subcontract.Terms {
	lines := make([]subcontract.ScheduleLine, 0, len(r.Schedule))
	for _, l := range r.Schedule {
		lines = append(lines, subcontract.ScheduleLine{Description: l.Description, Percentage: l.Percentage})
	}
	return subcontract.Terms{
		ContractNumber:      contractNumber,
		ProjectID:           r.ProjectID,
		SubcontractorID:     r.SubcontractorID,
		SubcontractorName:   r.SubcontractorName,
		Title:               r.Title,
		Scope:               r.Scope,
		TotalAmount:         r.TotalAmount,
		Currency:            valueobject.Currency(r.Currency),
		RetentionPercentage: r.RetentionPercentage,
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		Schedule:            lines,
		CostCodeIDs:         r.CostCodeIDs,
	}
}

// CertificateRequest represents a request to issue a progress certificate
type CertificateRequest struct {
	SubcontractID         uuid.UUID       `json:"subcontract_id" validate:"required"`
	PeriodStart           time.Time       `json:"period_start"`
	PeriodEnd             time.Time       `json:"period_end"`
	AmountCertified       decimal.Decimal `json:"amount_certified"`
	PaymentScheduleItemID *uuid.UUID      `json:"payment_schedule_item_id"`
	Notes                 string          `json:"notes" validate:"max=2000"`
}

func (r CertificateRequest) domain() subcontract.CertificateRequest {
	return subcontract.CertificateRequest{
		PeriodStart:           r.PeriodStart,
		PeriodEnd:             r.PeriodEnd,
		AmountCertified:       r.AmountCertified,
		PaymentScheduleItemID: r.PaymentScheduleItemID,
		Notes:                 r.Notes,
	}
}
