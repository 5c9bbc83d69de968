package subcontract

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CertificateStatus represents the approval state of a progress certificate
type CertificateStatus string

const (
	CertificateStatusDraft           CertificateStatus = "draft"
	CertificateStatusPendingApproval CertificateStatus = "pending_approval"
	CertificateStatusApproved        CertificateStatus = "approved"
	CertificateStatusRejected        CertificateStatus = "rejected"
	CertificateStatusPaid            CertificateStatus = "paid"
)

// IsValid checks if the status is a valid CertificateStatus
func (s CertificateStatus) IsValid() bool {
	switch s {
	case CertificateStatusDraft, CertificateStatusPendingApproval, CertificateStatusApproved,
		CertificateStatusRejected, CertificateStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of CertificateStatus
func (s CertificateStatus) String() string {
	return string(s)
}

// CanSubmit returns true if the certificate can be submitted for approval
func (s CertificateStatus) CanSubmit() bool {
	return s == CertificateStatusDraft
}

// CanApprove returns true if the certificate can be approved
func (s CertificateStatus) CanApprove() bool {
	return s == CertificateStatusPendingApproval
}

// CanReject returns true if the certificate can be rejected
func (s CertificateStatus) CanReject() bool {
	return s == CertificateStatusPendingApproval
}

// CanMarkPaid returns true if the certificate can be marked as paid
func (s CertificateStatus) CanMarkPaid() bool {
	return s == CertificateStatusApproved
}

// ProgressCertificate certifies work completed against a subcontract for a period
type ProgressCertificate struct {
	shared.ProjectAggregateRoot
	CertificateNumber     string               `json:"certificate_number"`
	SubcontractID         uuid.UUID            `json:"subcontract_id"`
	PeriodStart           time.Time            `json:"period_start"`
	PeriodEnd             time.Time            `json:"period_end"`
	PaymentScheduleItemID *uuid.UUID           `json:"payment_schedule_item_id,omitempty"`
	AmountCertified       decimal.Decimal      `json:"amount_certified"`
	RetentionPercentage   decimal.Decimal      `json:"retention_percentage"`
	RetentionAmount       decimal.Decimal      `json:"retention_amount"`
	NetPayable            decimal.Decimal      `json:"net_payable"`
	PreviousCertified     decimal.Decimal      `json:"previous_certified"`
	CumulativeCertified   decimal.Decimal      `json:"cumulative_certified"`
	RemainingBalance      decimal.Decimal      `json:"remaining_balance"`
	PercentageComplete    decimal.Decimal      `json:"percentage_complete"`
	Allocations           []ScheduleAllocation `json:"allocations"`
	Status                CertificateStatus    `json:"status"`
	Notes                 string               `json:"notes,omitempty"`
	SubmittedBy           *uuid.UUID           `json:"submitted_by,omitempty"`
	SubmittedAt           *time.Time           `json:"submitted_at,omitempty"`
	ApprovedBy            *uuid.UUID           `json:"approved_by,omitempty"`
	ApprovedAt            *time.Time           `json:"approved_at,omitempty"`
	RejectedBy            *uuid.UUID           `json:"rejected_by,omitempty"`
	RejectedAt            *time.Time           `json:"rejected_at,omitempty"`
	RejectionReason       string               `json:"rejection_reason,omitempty"`
	PaidBy                *uuid.UUID           `json:"paid_by,omitempty"`
	PaidAt                *time.Time           `json:"paid_at,omitempty"`
}

// CertificateRequest holds the user-supplied part of a new certificate
type CertificateRequest struct {
	PeriodStart           time.Time
	PeriodEnd             time.Time
	AmountCertified       decimal.Decimal
	PaymentScheduleItemID *uuid.UUID
	Notes                 string
}

// NewProgressCertificate creates a draft certificate against an active subcontract.
// Previous certified is the subcontract's certified total at creation time and
// is restated on approval.
func NewProgressCertificate(sc *Subcontract, number string, req CertificateRequest) (*ProgressCertificate, error) {
	if sc == nil {
		return nil, shared.NewNotFoundError("Subcontract")
	}
	if sc.Status != SubcontractStatusActive {
		return nil, shared.NewInvalidStateError("Certificates can only be issued against active subcontracts")
	}
	if req.PeriodStart.IsZero() || req.PeriodEnd.IsZero() {
		return nil, shared.NewValidationError("Certificate period is required")
	}
	if req.PeriodStart.After(req.PeriodEnd) {
		return nil, shared.NewValidationError("Period start must be on or before period end")
	}
	if !req.AmountCertified.IsPositive() {
		return nil, shared.NewValidationError("Certified amount must be greater than zero")
	}
	if req.PaymentScheduleItemID != nil {
		item, ok := sc.FindScheduleItem(*req.PaymentScheduleItemID)
		if !ok {
			return nil, shared.NewNotFoundError("Payment schedule item")
		}
		if !item.OpenAmount().IsPositive() {
			return nil, shared.NewInvalidStateError(fmt.Sprintf("Payment schedule item is already %s", item.Status))
		}
	}
	if err := checkRemainingBalance(sc, req.AmountCertified); err != nil {
		return nil, err
	}

	cert := &ProgressCertificate{
		ProjectAggregateRoot:  shared.NewProjectAggregateRoot(sc.ProjectID),
		CertificateNumber:     number,
		SubcontractID:         sc.ID,
		PeriodStart:           req.PeriodStart,
		PeriodEnd:             req.PeriodEnd,
		PaymentScheduleItemID: req.PaymentScheduleItemID,
		AmountCertified:       req.AmountCertified,
		Allocations:           make([]ScheduleAllocation, 0),
		Status:                CertificateStatusDraft,
		Notes:                 req.Notes,
	}
	cert.restate(sc)

	cert.AddDomainEvent(NewCertificateEvent(EventTypeCertificateCreated, cert))
	return cert, nil
}

// restate derives retention, net payable and the cumulative figures from the
// subcontract's current certified total
func (c *ProgressCertificate) restate(sc *Subcontract) {
	calc := CalculateNetPayable(NetPayableInput{
		ContractTotal:       sc.TotalAmount,
		RetentionPercentage: sc.RetentionPercentage,
		AmountCertified:     c.AmountCertified,
		PreviousCertified:   sc.TotalCertified,
	})
	c.RetentionPercentage = sc.RetentionPercentage
	c.RetentionAmount = calc.RetentionAmount
	c.NetPayable = calc.NetPayable
	c.PreviousCertified = sc.TotalCertified
	c.CumulativeCertified = calc.CumulativeCertified
	c.RemainingBalance = calc.RemainingBalance
	c.PercentageComplete = calc.PercentageComplete
}

func checkRemainingBalance(sc *Subcontract, amount decimal.Decimal) error {
	if amount.GreaterThan(sc.RemainingBalance) {
		return shared.NewInvariantError(shared.CodeExceedsRemainingBalance,
			fmt.Sprintf("Certified amount %s exceeds remaining balance %s", amount.StringFixed(2), sc.RemainingBalance.StringFixed(2)))
	}
	return nil
}

// Submit moves a draft certificate to pending approval
func (c *ProgressCertificate) Submit(actor shared.Actor) error {
	if !c.Status.CanSubmit() {
		return shared.NewInvalidStateError("Only draft certificates can be submitted")
	}

	now := time.Now()
	c.Status = CertificateStatusPendingApproval
	c.SubmittedBy = &actor.ID
	c.SubmittedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewCertificateEvent(EventTypeCertificateSubmitted, c))
	return nil
}

// Approve approves the certificate against the subcontract as it is now.
// The remaining balance is re-checked and the cumulative figures restated.
func (c *ProgressCertificate) Approve(sc *Subcontract, approver shared.Actor) error {
	if !c.Status.CanApprove() {
		return shared.NewInvalidStateError("Only certificates pending approval can be approved")
	}
	if sc == nil || sc.ID != c.SubcontractID {
		return shared.NewNotFoundError("Subcontract")
	}
	if sc.Status != SubcontractStatusActive {
		return shared.NewInvalidStateError("Certificates can only be approved on active subcontracts")
	}
	if err := checkRemainingBalance(sc, c.AmountCertified); err != nil {
		return err
	}
	c.restate(sc)

	now := time.Now()
	c.Status = CertificateStatusApproved
	c.ApprovedBy = &approver.ID
	c.ApprovedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewCertificateEvent(EventTypeCertificateApproved, c))
	return nil
}

// RecordAllocations remembers how the approval was booked against the schedule
func (c *ProgressCertificate) RecordAllocations(allocations []ScheduleAllocation) {
	c.Allocations = append([]ScheduleAllocation(nil), allocations...)
}

// Reject rejects the certificate with a reason
func (c *ProgressCertificate) Reject(actor shared.Actor, reason string) error {
	if !c.Status.CanReject() {
		return shared.NewInvalidStateError("Only certificates pending approval can be rejected")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("Rejection reason is required")
	}

	now := time.Now()
	c.Status = CertificateStatusRejected
	c.RejectedBy = &actor.ID
	c.RejectedAt = &now
	c.RejectionReason = reason
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewCertificateEvent(EventTypeCertificateRejected, c))
	return nil
}

// MarkAsPaid records payment of an approved certificate
func (c *ProgressCertificate) MarkAsPaid(actor shared.Actor) error {
	if !c.Status.CanMarkPaid() {
		return shared.NewInvalidStateError("Only approved certificates can be marked as paid")
	}

	now := time.Now()
	c.Status = CertificateStatusPaid
	c.PaidBy = &actor.ID
	c.PaidAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewCertificateEvent(EventTypeCertificatePaid, c))
	return nil
}

// Clone returns a deep copy safe to hand across the repository boundary
func (c *ProgressCertificate) Clone() *ProgressCertificate {
	cp := *c
	cp.Allocations = append([]ScheduleAllocation(nil), c.Allocations...)
	if c.PaymentScheduleItemID != nil {
		id := *c.PaymentScheduleItemID
		cp.PaymentScheduleItemID = &id
	}
	return &cp
}
