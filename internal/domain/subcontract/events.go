package subcontract

import (
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type names
const (
	AggregateTypeSubcontract = "Subcontract"
	AggregateTypeCertificate = "ProgressCertificate"
)

// Event type names
const (
	EventTypeSubcontractCreated   = "SubcontractCreated"
	EventTypeSubcontractApproved  = "SubcontractApproved"
	EventTypeSubcontractCompleted = "SubcontractCompleted"
	EventTypeSubcontractCancelled = "SubcontractCancelled"
	EventTypeScheduleItemUpdated  = "PaymentScheduleItemUpdated"
	EventTypeRetentionReleased    = "RetentionReleased"

	EventTypeCertificateCreated   = "CertificateCreated"
	EventTypeCertificateSubmitted = "CertificateSubmitted"
	EventTypeCertificateApproved  = "CertificateApproved"
	EventTypeCertificateRejected  = "CertificateRejected"
	EventTypeCertificatePaid      = "CertificatePaid"
)

// SubcontractEvent is raised on every subcontract lifecycle change
type SubcontractEvent struct {
	shared.BaseDomainEvent
	SubcontractID    uuid.UUID         `json:"subcontract_id"`
	ContractNumber   string            `json:"contract_number"`
	Status           SubcontractStatus `json:"status"`
	TotalAmount      decimal.Decimal   `json:"total_amount"`
	RemainingBalance decimal.Decimal   `json:"remaining_balance"`
}

// NewSubcontractEvent creates a SubcontractEvent of the given type
func NewSubcontractEvent(eventType string, sc *Subcontract) *SubcontractEvent {
	return &SubcontractEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(eventType, AggregateTypeSubcontract, sc.ID, sc.ProjectID),
		SubcontractID:    sc.ID,
		ContractNumber:   sc.ContractNumber,
		Status:           sc.Status,
		TotalAmount:      sc.TotalAmount,
		RemainingBalance: sc.RemainingBalance,
	}
}

// ScheduleItemUpdatedEvent is raised when a payment schedule item changes status
type ScheduleItemUpdatedEvent struct {
	shared.BaseDomainEvent
	SubcontractID uuid.UUID          `json:"subcontract_id"`
	ItemID        uuid.UUID          `json:"item_id"`
	Status        ScheduleItemStatus `json:"status"`
	Amount        decimal.Decimal    `json:"amount"`
}

// NewScheduleItemUpdatedEvent creates a new ScheduleItemUpdatedEvent
func NewScheduleItemUpdatedEvent(sc *Subcontract, item *PaymentScheduleItem) *ScheduleItemUpdatedEvent {
	return &ScheduleItemUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeScheduleItemUpdated, AggregateTypeSubcontract, sc.ID, sc.ProjectID),
		SubcontractID:   sc.ID,
		ItemID:          item.ID,
		Status:          item.Status,
		Amount:          item.Amount,
	}
}

// CertificateEvent is raised on every certificate lifecycle change
type CertificateEvent struct {
	shared.BaseDomainEvent
	CertificateID     uuid.UUID         `json:"certificate_id"`
	CertificateNumber string            `json:"certificate_number"`
	SubcontractID     uuid.UUID         `json:"subcontract_id"`
	Status            CertificateStatus `json:"status"`
	AmountCertified   decimal.Decimal   `json:"amount_certified"`
	NetPayable        decimal.Decimal   `json:"net_payable"`
}

// NewCertificateEvent creates a CertificateEvent of the given type
func NewCertificateEvent(eventType string, c *ProgressCertificate) *CertificateEvent {
	return &CertificateEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(eventType, AggregateTypeCertificate, c.ID, c.ProjectID),
		CertificateID:     c.ID,
		CertificateNumber: c.CertificateNumber,
		SubcontractID:     c.SubcontractID,
		Status:            c.Status,
		AmountCertified:   c.AmountCertified,
		NetPayable:        c.NetPayable,
	}
}
