package expense

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseStatus represents the approval state of an expense
type ExpenseStatus string

const (
	ExpenseStatusDraft           ExpenseStatus = "draft"
	ExpenseStatusPendingApproval ExpenseStatus = "pending_approval"
	ExpenseStatusApproved        ExpenseStatus = "approved"
	ExpenseStatusRejected        ExpenseStatus = "rejected"
	ExpenseStatusPaid            ExpenseStatus = "paid"
)

// IsValid checks if the status is a valid ExpenseStatus
func (s ExpenseStatus) IsValid() bool {
	switch s {
	case ExpenseStatusDraft, ExpenseStatusPendingApproval, ExpenseStatusApproved,
		ExpenseStatusRejected, ExpenseStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of ExpenseStatus
func (s ExpenseStatus) String() string {
	return string(s)
}

// CanEdit returns true if the expense can be edited
func (s ExpenseStatus) CanEdit() bool {
	return s == ExpenseStatusDraft
}

// CanSubmit returns true if the expense can be submitted
func (s ExpenseStatus) CanSubmit() bool {
	return s == ExpenseStatusDraft
}

// CanApprove returns true if the expense can be approved
func (s ExpenseStatus) CanApprove() bool {
	return s == ExpenseStatusPendingApproval
}

// CanReject returns true if the expense can be rejected
func (s ExpenseStatus) CanReject() bool {
	return s == ExpenseStatusPendingApproval
}

// CanPay returns true if payments can be recorded
func (s ExpenseStatus) CanPay() bool {
	return s == ExpenseStatusApproved
}

// CanReclassify returns true while the expense has not been approved
func (s ExpenseStatus) CanReclassify() bool {
	return s == ExpenseStatusDraft || s == ExpenseStatusPendingApproval
}

// CanDelete returns true if the expense can be deleted
func (s ExpenseStatus) CanDelete() bool {
	return s == ExpenseStatusDraft || s == ExpenseStatusRejected
}

// CountsAsActual returns true for statuses that count towards project actual cost
func (s ExpenseStatus) CountsAsActual() bool {
	return s == ExpenseStatusApproved || s == ExpenseStatusPaid
}

// PaymentStatus tracks how much of an expense has been paid
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Payment is one recorded payment against an expense
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Reference  string          `json:"reference,omitempty"`
	RecordedBy uuid.UUID       `json:"recorded_by"`
}

// Expense is the aggregate root for a supplier cost charged to a project cost code
type Expense struct {
	shared.ProjectAggregateRoot
	CostCodeID      uuid.UUID            `json:"cost_code_id"`
	CostCode        string               `json:"cost_code"`
	SupplierID      uuid.UUID            `json:"supplier_id"`
	SupplierName    string               `json:"supplier_name"`
	Description     string               `json:"description"`
	Amount          decimal.Decimal      `json:"amount"`
	TaxAmount       decimal.Decimal      `json:"tax_amount"`
	TotalAmount     decimal.Decimal      `json:"total_amount"`
	Currency        valueobject.Currency `json:"currency"`
	InvoiceNumber   string               `json:"invoice_number,omitempty"`
	InvoiceDate     time.Time            `json:"invoice_date"`
	Notes           string               `json:"notes,omitempty"`
	Status          ExpenseStatus        `json:"status"`
	PaymentStatus   PaymentStatus        `json:"payment_status"`
	PaidAmount      decimal.Decimal      `json:"paid_amount"`
	Payments        []Payment            `json:"payments"`
	Warnings        []string             `json:"warnings,omitempty"`
	IsAutoCreated   bool                 `json:"is_auto_created"`
	NeedsReview     bool                 `json:"needs_review"`
	OCRConfidence   *float64             `json:"ocr_confidence,omitempty"`
	OCRData         *OCRData             `json:"ocr_data,omitempty"`
	Attachment      *Attachment          `json:"attachment,omitempty"`
	ActualsPosted   bool                 `json:"actuals_posted"`
	SubmittedBy     *uuid.UUID           `json:"submitted_by,omitempty"`
	SubmittedAt     *time.Time           `json:"submitted_at,omitempty"`
	ApprovedBy      *uuid.UUID           `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time           `json:"approved_at,omitempty"`
	RejectedBy      *uuid.UUID           `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time           `json:"rejected_at,omitempty"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	PaidAt          *time.Time           `json:"paid_at,omitempty"`
}

// NewExpense validates the classification and creates a draft expense
func NewExpense(c Classification, costCode string, policy ClassificationPolicy) (*Expense, error) {
	result := ValidateClassification(c, policy)
	if !result.IsValid {
		return nil, shared.NewValidationError("Expense classification is invalid", result.Errors...)
	}

	e := &Expense{
		ProjectAggregateRoot: shared.NewProjectAggregateRoot(c.ProjectID),
		Status:               ExpenseStatusDraft,
		PaymentStatus:        PaymentStatusUnpaid,
		PaidAmount:           decimal.Zero,
		Payments:             make([]Payment, 0),
	}
	e.applyClassification(c, costCode)
	e.Warnings = result.Warnings

	e.AddDomainEvent(NewExpenseEvent(EventTypeExpenseCreated, e))
	return e, nil
}

// NewExpenseFromOCR creates an auto-created expense straight into pending approval.
// costCodeID may be uuid.Nil when no cost code could be resolved.
func NewExpenseFromOCR(in OCRIntake, costCodeID uuid.UUID, costCode string, policy OCRPolicy) (*Expense, error) {
	if err := in.Validate(policy); err != nil {
		return nil, err
	}

	confidence := in.OCRData.Confidence
	ocr := in.OCRData
	invoiceDate := in.Date
	e := &Expense{
		ProjectAggregateRoot: shared.NewProjectAggregateRoot(in.ProjectID),
		CostCodeID:           costCodeID,
		CostCode:             costCode,
		SupplierName:         strings.TrimSpace(in.Supplier),
		Description:          strings.TrimSpace(in.Description),
		Amount:               in.Amount,
		TaxAmount:            in.TaxAmount,
		TotalAmount:          in.Amount.Add(in.TaxAmount),
		Currency:             valueobject.DefaultCurrency,
		InvoiceNumber:        strings.TrimSpace(in.InvoiceNumber),
		InvoiceDate:          invoiceDate,
		Status:               ExpenseStatusPendingApproval,
		PaymentStatus:        PaymentStatusUnpaid,
		PaidAmount:           decimal.Zero,
		Payments:             make([]Payment, 0),
		IsAutoCreated:        true,
		NeedsReview:          policy.NeedsReview(confidence),
		OCRConfidence:        &confidence,
		OCRData:              &ocr,
		Attachment: &Attachment{
			Name:     in.File.Name,
			MimeType: in.File.MimeType,
			Size:     len(in.File.Data),
		},
	}
	if in.SupplierID != nil {
		e.SupplierID = *in.SupplierID
	}
	now := time.Now()
	e.SubmittedAt = &now

	e.AddDomainEvent(NewExpenseEvent(EventTypeExpenseCreated, e))
	return e, nil
}

func (e *Expense) applyClassification(c Classification, costCode string) {
	e.CostCodeID = c.CostCodeID
	e.CostCode = costCode
	e.SupplierID = c.SupplierID
	e.SupplierName = strings.TrimSpace(c.SupplierName)
	e.Description = strings.TrimSpace(c.Description)
	e.Amount = c.Amount
	e.TaxAmount = c.TaxAmount
	e.TotalAmount = c.TotalAmount()
	e.Currency = c.Currency
	if e.Currency == "" {
		e.Currency = valueobject.DefaultCurrency
	}
	e.InvoiceNumber = strings.TrimSpace(c.InvoiceNumber)
	if c.InvoiceDate != nil {
		e.InvoiceDate = *c.InvoiceDate
	}
	e.Notes = c.Notes
}

// Classification returns the current classification data of the expense
func (e *Expense) Classification() Classification {
	c := Classification{
		ProjectID:     e.ProjectID,
		CostCodeID:    e.CostCodeID,
		SupplierID:    e.SupplierID,
		SupplierName:  e.SupplierName,
		Amount:        e.Amount,
		TaxAmount:     e.TaxAmount,
		Currency:      e.Currency,
		Description:   e.Description,
		InvoiceNumber: e.InvoiceNumber,
		Notes:         e.Notes,
	}
	if !e.InvoiceDate.IsZero() {
		d := e.InvoiceDate
		c.InvoiceDate = &d
	}
	return c
}

// Update replaces the classification of a draft expense
func (e *Expense) Update(c Classification, costCode string, policy ClassificationPolicy) error {
	if !e.Status.CanEdit() {
		return shared.NewInvalidStateError("Only draft expenses can be updated")
	}
	if c.ProjectID != e.ProjectID {
		return shared.NewValidationError("Project of an expense cannot change")
	}
	result := ValidateClassification(c, policy)
	if !result.IsValid {
		return shared.NewValidationError("Expense classification is invalid", result.Errors...)
	}

	e.applyClassification(c, costCode)
	e.Warnings = result.Warnings
	e.Touch()
	e.IncrementVersion()
	return nil
}

// Reclassify moves the expense to another cost code
func (e *Expense) Reclassify(costCodeID uuid.UUID, costCode string) error {
	if !e.Status.CanReclassify() {
		return shared.NewInvalidStateError("Only draft or pending expenses can be reclassified")
	}
	if costCodeID == uuid.Nil {
		return shared.NewValidationError("Cost code is required")
	}

	e.CostCodeID = costCodeID
	e.CostCode = costCode
	e.NeedsReview = false
	e.Touch()
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseEvent(EventTypeExpenseReclassified, e))
	return nil
}

// Submit re-validates the classification and moves a draft to pending approval
func (e *Expense) Submit(actor shared.Actor, policy ClassificationPolicy) error {
	if !e.Status.CanSubmit() {
		return shared.NewInvalidStateError("Only draft expenses can be submitted for approval")
	}
	result := ValidateClassification(e.Classification(), policy)
	if !result.IsValid {
		return shared.NewValidationError("Expense classification is invalid", result.Errors...)
	}

	now := time.Now()
	e.Status = ExpenseStatusPendingApproval
	e.SubmittedBy = &actor.ID
	e.SubmittedAt = &now
	e.Warnings = result.Warnings
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseEvent(EventTypeExpenseSubmitted, e))
	return nil
}

// Approve approves a pending expense. OCR-sourced expenses must have been
// fully classified first.
func (e *Expense) Approve(approver shared.Actor) error {
	if !e.Status.CanApprove() {
		return shared.NewInvalidStateError("Only expenses pending approval can be approved")
	}
	if e.CostCodeID == uuid.Nil || e.SupplierID == uuid.Nil {
		return shared.NewValidationError("Expense classification is incomplete: cost code and supplier are required")
	}

	now := time.Now()
	e.Status = ExpenseStatusApproved
	e.ApprovedBy = &approver.ID
	e.ApprovedAt = &now
	e.NeedsReview = false
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseEvent(EventTypeExpenseApproved, e))
	return nil
}

// Reject rejects a pending expense with a reason
func (e *Expense) Reject(actor shared.Actor, reason string) error {
	if !e.Status.CanReject() {
		return shared.NewInvalidStateError("Only expenses pending approval can be rejected")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("Rejection reason is required")
	}

	now := time.Now()
	e.Status = ExpenseStatusRejected
	e.RejectedBy = &actor.ID
	e.RejectedAt = &now
	e.RejectionReason = reason
	e.UpdatedAt = now
	e.IncrementVersion()

	e.AddDomainEvent(NewExpenseEvent(EventTypeExpenseRejected, e))
	return nil
}

// RecordPayment accumulates a payment on an approved expense. The expense
// becomes paid once the paid amount reaches the total.
func (e *Expense) RecordPayment(amount decimal.Decimal, date time.Time, reference string, actor shared.Actor) (*Payment, error) {
	if !e.Status.CanPay() {
		return nil, shared.NewInvalidStateError("Only approved expenses can be paid")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Payment amount must be greater than zero")
	}
	newPaid := e.PaidAmount.Add(amount)
	if newPaid.GreaterThan(e.TotalAmount) {
		return nil, shared.NewInvariantError(shared.CodePaymentExceedsTotal,
			fmt.Sprintf("Payment of %s exceeds outstanding amount %s", amount.StringFixed(2), e.OutstandingAmount().StringFixed(2)))
	}
	if date.IsZero() {
		date = time.Now()
	}

	payment := Payment{
		ID:         uuid.New(),
		Amount:     amount,
		Date:       date,
		Reference:  reference,
		RecordedBy: actor.ID,
	}
	e.Payments = append(e.Payments, payment)
	e.PaidAmount = newPaid

	if newPaid.Equal(e.TotalAmount) {
		e.PaymentStatus = PaymentStatusPaid
		e.Status = ExpenseStatusPaid
		e.PaidAt = &date
		e.AddDomainEvent(NewExpenseEvent(EventTypeExpensePaid, e))
	} else {
		e.PaymentStatus = PaymentStatusPartial
	}
	e.Touch()
	e.IncrementVersion()

	e.AddDomainEvent(NewPaymentRecordedEvent(e, payment))
	return &payment, nil
}

// OutstandingAmount returns total - paid
func (e *Expense) OutstandingAmount() decimal.Decimal {
	return e.TotalAmount.Sub(e.PaidAmount)
}

// CanDelete returns true for drafts and rejected expenses
func (e *Expense) CanDelete() bool {
	return e.Status.CanDelete()
}

// MarkActualsPosted records that the total is counted in the budget actuals
func (e *Expense) MarkActualsPosted() {
	e.ActualsPosted = true
}

// MarkActualsReversed records that the total was taken back out of budget actuals
func (e *Expense) MarkActualsReversed() {
	e.ActualsPosted = false
}

// Clone returns a deep copy safe to hand across the repository boundary
func (e *Expense) Clone() *Expense {
	cp := *e
	cp.Payments = append([]Payment(nil), e.Payments...)
	cp.Warnings = append([]string(nil), e.Warnings...)
	if e.OCRConfidence != nil {
		v := *e.OCRConfidence
		cp.OCRConfidence = &v
	}
	if e.OCRData != nil {
		d := *e.OCRData
		if e.OCRData.ExtractedFields != nil {
			d.ExtractedFields = make(map[string]string, len(e.OCRData.ExtractedFields))
			for k, v := range e.OCRData.ExtractedFields {
				d.ExtractedFields[k] = v
			}
		}
		cp.OCRData = &d
	}
	if e.Attachment != nil {
		a := *e.Attachment
		cp.Attachment = &a
	}
	return &cp
}
