package subcontract

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubcontractStatus represents the lifecycle state of a subcontract
type SubcontractStatus string

const (
	SubcontractStatusDraft     SubcontractStatus = "draft"
	SubcontractStatusActive    SubcontractStatus = "active"
	SubcontractStatusCompleted SubcontractStatus = "completed"
	SubcontractStatusCancelled SubcontractStatus = "cancelled"
)

// IsValid checks if the status is a valid SubcontractStatus
func (s SubcontractStatus) IsValid() bool {
	switch s {
	case SubcontractStatusDraft, SubcontractStatusActive,
		SubcontractStatusCompleted, SubcontractStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of SubcontractStatus
func (s SubcontractStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no transition leaves this status
func (s SubcontractStatus) IsTerminal() bool {
	return s == SubcontractStatusCompleted || s == SubcontractStatusCancelled
}

// CanApprove returns true if the subcontract can be approved
func (s SubcontractStatus) CanApprove() bool {
	return s == SubcontractStatusDraft
}

// CanComplete returns true if the subcontract can be completed
func (s SubcontractStatus) CanComplete() bool {
	return s == SubcontractStatusActive
}

// CanCancel returns true if the status itself permits cancellation
func (s SubcontractStatus) CanCancel() bool {
	return !s.IsTerminal()
}

// scheduleTolerance is the allowed deviation of the schedule total from 100%
var scheduleTolerance = decimal.RequireFromString("0.01")

// ScheduleLine is the input shape of one payment schedule entry
type ScheduleLine struct {
	Description string
	Percentage  decimal.Decimal
}

// Document is a file reference attached to a subcontract
type Document struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	MimeType   string    `json:"mime_type"`
	UploadedBy uuid.UUID `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Terms carries everything needed to create or redraft a subcontract
type Terms struct {
	ContractNumber      string
	ProjectID           uuid.UUID
	SubcontractorID     uuid.UUID
	SubcontractorName   string
	Title               string
	Scope               string
	TotalAmount         decimal.Decimal
	Currency            valueobject.Currency
	RetentionPercentage decimal.Decimal
	StartDate           time.Time
	EndDate             time.Time
	Schedule            []ScheduleLine
	CostCodeIDs         []uuid.UUID
}

// Validate checks the terms and returns a ValidationError naming the first failed rule
func (t Terms) Validate() error {
	if t.ProjectID == uuid.Nil {
		return shared.NewValidationError("Project ID is required")
	}
	if t.SubcontractorID == uuid.Nil {
		return shared.NewValidationError("Subcontractor ID is required")
	}
	if !t.TotalAmount.IsPositive() {
		return shared.NewValidationError("Total amount must be greater than zero")
	}
	if t.RetentionPercentage.IsNegative() || t.RetentionPercentage.GreaterThan(valueobject.Hundred()) {
		return shared.NewValidationError("Retention percentage must be between 0 and 100")
	}
	if !t.StartDate.IsZero() && !t.EndDate.IsZero() && t.StartDate.After(t.EndDate) {
		return shared.NewValidationError("Start date must be on or before end date")
	}
	if len(t.Schedule) == 0 {
		return shared.NewValidationError("Payment schedule must contain at least one item")
	}
	sum := decimal.Zero
	for i, line := range t.Schedule {
		if !line.Percentage.IsPositive() {
			return shared.NewValidationError(fmt.Sprintf("Payment schedule item %d percentage must be greater than zero", i+1))
		}
		sum = sum.Add(line.Percentage)
	}
	if sum.Sub(valueobject.Hundred()).Abs().GreaterThan(scheduleTolerance) {
		return shared.NewValidationError(fmt.Sprintf("Payment schedule percentages must sum to 100%% (got %s%%)", sum.String()))
	}
	return nil
}

// Subcontract is the aggregate root for a subcontractor agreement and its payment schedule
type Subcontract struct {
	shared.ProjectAggregateRoot
	ContractNumber      string                `json:"contract_number"`
	SubcontractorID     uuid.UUID             `json:"subcontractor_id"`
	SubcontractorName   string                `json:"subcontractor_name"`
	Title               string                `json:"title"`
	Scope               string                `json:"scope"`
	TotalAmount         decimal.Decimal       `json:"total_amount"`
	Currency            valueobject.Currency  `json:"currency"`
	RetentionPercentage decimal.Decimal       `json:"retention_percentage"`
	StartDate           time.Time             `json:"start_date"`
	EndDate             time.Time             `json:"end_date"`
	PaymentSchedule     []PaymentScheduleItem `json:"payment_schedule"`
	CostCodeIDs         []uuid.UUID           `json:"cost_code_ids"`
	Status              SubcontractStatus     `json:"status"`
	TotalCertified      decimal.Decimal       `json:"total_certified"`
	TotalPaid           decimal.Decimal       `json:"total_paid"`
	TotalRetained       decimal.Decimal       `json:"total_retained"`
	RemainingBalance    decimal.Decimal       `json:"remaining_balance"`
	ApprovedBy          *uuid.UUID            `json:"approved_by,omitempty"`
	ApprovedAt          *time.Time            `json:"approved_at,omitempty"`
	CompletedAt         *time.Time            `json:"completed_at,omitempty"`
	CancelledBy         *uuid.UUID            `json:"cancelled_by,omitempty"`
	CancelledAt         *time.Time            `json:"cancelled_at,omitempty"`
	CancellationReason  string                `json:"cancellation_reason,omitempty"`
	RetentionReleased   bool                  `json:"retention_released"`
	RetentionReleasedAt *time.Time            `json:"retention_released_at,omitempty"`
	Documents           []Document            `json:"documents"`
}

// NewSubcontract validates the terms and creates a draft subcontract
func NewSubcontract(terms Terms) (*Subcontract, error) {
	if err := terms.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(terms.ContractNumber) == "" {
		return nil, shared.NewValidationError("Contract number is required")
	}
	currency := terms.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}

	sc := &Subcontract{
		ProjectAggregateRoot: shared.NewProjectAggregateRoot(terms.ProjectID),
		ContractNumber:       strings.TrimSpace(terms.ContractNumber),
		Currency:             currency,
		Status:               SubcontractStatusDraft,
		Documents:            make([]Document, 0),
	}
	sc.applyTerms(terms)

	sc.AddDomainEvent(NewSubcontractEvent(EventTypeSubcontractCreated, sc))

	return sc, nil
}

func (s *Subcontract) applyTerms(terms Terms) {
	s.SubcontractorID = terms.SubcontractorID
	s.SubcontractorName = terms.SubcontractorName
	s.Title = terms.Title
	s.Scope = terms.Scope
	s.TotalAmount = terms.TotalAmount
	s.RetentionPercentage = terms.RetentionPercentage
	s.StartDate = terms.StartDate
	s.EndDate = terms.EndDate
	s.CostCodeIDs = append([]uuid.UUID(nil), terms.CostCodeIDs...)
	s.PaymentSchedule = buildSchedule(terms.TotalAmount, terms.Schedule)
	s.recalculateTotals()
}

// buildSchedule materialises schedule lines as pending items with computed amounts
func buildSchedule(total decimal.Decimal, lines []ScheduleLine) []PaymentScheduleItem {
	items := make([]PaymentScheduleItem, 0, len(lines))
	for i, line := range lines {
		items = append(items, PaymentScheduleItem{
			ID:          uuid.New(),
			Sequence:    i + 1,
			Description: line.Description,
			Percentage:  line.Percentage,
			Amount:      valueobject.PercentOf(total, line.Percentage),
			Status:      ScheduleItemStatusPending,
		})
	}
	return items
}

// Redraft replaces the commercial terms; only drafts can be redrafted
func (s *Subcontract) Redraft(terms Terms) error {
	if s.Status != SubcontractStatusDraft {
		return shared.NewInvalidStateError("Only draft subcontracts can be updated")
	}
	if terms.ProjectID != s.ProjectID {
		return shared.NewValidationError("Project of a subcontract cannot change")
	}
	if err := terms.Validate(); err != nil {
		return err
	}
	if terms.Currency != "" {
		s.Currency = terms.Currency
	}
	s.applyTerms(terms)
	s.Touch()
	s.IncrementVersion()
	return nil
}

// Approve activates a draft subcontract
func (s *Subcontract) Approve(approver shared.Actor) error {
	if !s.Status.CanApprove() {
		return shared.NewInvalidStateError("Only draft subcontracts can be approved")
	}

	now := time.Now()
	s.Status = SubcontractStatusActive
	s.ApprovedBy = &approver.ID
	s.ApprovedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSubcontractEvent(EventTypeSubcontractApproved, s))
	return nil
}

// Complete closes an active subcontract
func (s *Subcontract) Complete() error {
	if !s.Status.CanComplete() {
		return shared.NewInvalidStateError("Only active subcontracts can be completed")
	}

	now := time.Now()
	s.Status = SubcontractStatusCompleted
	s.CompletedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSubcontractEvent(EventTypeSubcontractCompleted, s))
	return nil
}

// Cancel cancels a subcontract on which nothing has been paid
func (s *Subcontract) Cancel(actor shared.Actor, reason string) error {
	if !s.Status.CanCancel() {
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot cancel subcontract in %s status", s.Status))
	}
	if s.TotalPaid.IsPositive() {
		return shared.NewInvalidStateError("Cannot cancel a subcontract with payments recorded")
	}
	if strings.TrimSpace(reason) == "" {
		return shared.NewValidationError("Cancellation reason is required")
	}

	now := time.Now()
	s.Status = SubcontractStatusCancelled
	s.CancelledBy = &actor.ID
	s.CancelledAt = &now
	s.CancellationReason = reason
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSubcontractEvent(EventTypeSubcontractCancelled, s))
	return nil
}

// CanDelete returns true while no payment has been recorded
func (s *Subcontract) CanDelete() bool {
	return !s.TotalPaid.IsPositive()
}

// ReleaseRetention marks retained money as released on a completed subcontract
func (s *Subcontract) ReleaseRetention() error {
	if s.Status != SubcontractStatusCompleted {
		return shared.NewInvalidStateError("Retention can only be released on completed subcontracts")
	}
	if s.RetentionReleased {
		return shared.NewInvalidStateError("Retention has already been released")
	}

	now := time.Now()
	s.RetentionReleased = true
	s.RetentionReleasedAt = &now
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSubcontractEvent(EventTypeRetentionReleased, s))
	return nil
}

// FindScheduleItem returns the schedule item with the given id
func (s *Subcontract) FindScheduleItem(itemID uuid.UUID) (*PaymentScheduleItem, bool) {
	for i := range s.PaymentSchedule {
		if s.PaymentSchedule[i].ID == itemID {
			return &s.PaymentSchedule[i], true
		}
	}
	return nil, false
}

// UpdateScheduleItem moves one schedule item to a new status and recalculates
// every derived total from the whole schedule.
func (s *Subcontract) UpdateScheduleItem(itemID uuid.UUID, status ScheduleItemStatus, at time.Time) error {
	switch s.Status {
	case SubcontractStatusActive:
	case SubcontractStatusCompleted:
		if status != ScheduleItemStatusPaid {
			return shared.NewInvalidStateError("Completed subcontracts only accept payments")
		}
	default:
		return shared.NewInvalidStateError("Payment schedule can only change on active subcontracts")
	}

	item, ok := s.FindScheduleItem(itemID)
	if !ok {
		return shared.NewNotFoundError("Payment schedule item")
	}
	if err := item.transition(status, at); err != nil {
		return err
	}

	s.recalculateTotals()
	s.Touch()
	s.IncrementVersion()

	s.AddDomainEvent(NewScheduleItemUpdatedEvent(s, item))
	return nil
}

// CertifyAmount books a certified amount against the payment schedule. The
// preferred item, when given, is filled first and the rest follows in
// sequence order. Items that become fully certified move to certified. Any
// amount left after every item is full, which only happens when schedule
// percentages round short of 100, goes to the last item.
func (s *Subcontract) CertifyAmount(amount decimal.Decimal, preferred *uuid.UUID, at time.Time) ([]ScheduleAllocation, error) {
	if s.Status != SubcontractStatusActive {
		return nil, shared.NewInvalidStateError("Only active subcontracts can be certified")
	}
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Certified amount must be greater than zero")
	}
	if err := checkRemainingBalance(s, amount); err != nil {
		return nil, err
	}
	if len(s.PaymentSchedule) == 0 {
		return nil, shared.NewInvalidStateError("Subcontract has no payment schedule")
	}
	if at.IsZero() {
		at = time.Now()
	}

	order := make([]int, 0, len(s.PaymentSchedule))
	for i := range s.PaymentSchedule {
		if preferred != nil && s.PaymentSchedule[i].ID == *preferred {
			order = append([]int{i}, order...)
			continue
		}
		order = append(order, i)
	}

	booked := make(map[int]decimal.Decimal, len(order))
	left := amount
	for _, idx := range order {
		if !left.IsPositive() {
			break
		}
		open := s.PaymentSchedule[idx].OpenAmount()
		if !open.IsPositive() {
			continue
		}
		take := decimal.Min(open, left)
		booked[idx] = take
		left = left.Sub(take)
	}
	if left.IsPositive() {
		last := len(s.PaymentSchedule) - 1
		booked[last] = booked[last].Add(left)
	}

	allocations := make([]ScheduleAllocation, 0, len(booked))
	for _, idx := range order {
		share, ok := booked[idx]
		if !ok {
			continue
		}
		item := &s.PaymentSchedule[idx]
		item.certify(share, at)
		allocations = append(allocations, ScheduleAllocation{ItemID: item.ID, Amount: share})
		s.AddDomainEvent(NewScheduleItemUpdatedEvent(s, item))
	}

	s.recalculateTotals()
	s.Touch()
	s.IncrementVersion()
	return allocations, nil
}

// PayAllocations records payment of previously certified allocations
func (s *Subcontract) PayAllocations(allocations []ScheduleAllocation, at time.Time) error {
	if s.Status != SubcontractStatusActive && s.Status != SubcontractStatusCompleted {
		return shared.NewInvalidStateError("Payments can only be recorded on active or completed subcontracts")
	}
	if at.IsZero() {
		at = time.Now()
	}

	pending := make(map[uuid.UUID]decimal.Decimal, len(allocations))
	for _, a := range allocations {
		item, ok := s.FindScheduleItem(a.ItemID)
		if !ok {
			return shared.NewNotFoundError("Payment schedule item")
		}
		pending[a.ItemID] = pending[a.ItemID].Add(a.Amount)
		if item.PaidAmount.Add(pending[a.ItemID]).GreaterThan(item.CertifiedAmount) {
			return shared.NewInvariantError(shared.CodePaymentExceedsTotal,
				fmt.Sprintf("Payment on schedule item %d exceeds its certified amount", item.Sequence))
		}
	}
	for _, a := range allocations {
		item, _ := s.FindScheduleItem(a.ItemID)
		item.pay(a.Amount, at)
		s.AddDomainEvent(NewScheduleItemUpdatedEvent(s, item))
	}

	s.recalculateTotals()
	s.Touch()
	s.IncrementVersion()
	return nil
}

// recalculateTotals derives certified/paid/retained/remaining from the schedule
func (s *Subcontract) recalculateTotals() {
	certified := decimal.Zero
	paid := decimal.Zero
	for _, item := range s.PaymentSchedule {
		certified = certified.Add(item.CertifiedAmount)
		paid = paid.Add(item.PaidAmount)
	}
	s.TotalCertified = certified
	s.TotalPaid = paid
	s.TotalRetained = valueobject.PercentOf(certified, s.RetentionPercentage)
	s.RemainingBalance = s.TotalAmount.Sub(certified)
}

// AttachDocument adds a document reference
func (s *Subcontract) AttachDocument(doc Document) error {
	if strings.TrimSpace(doc.Name) == "" {
		return shared.NewValidationError("Document name is required")
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	s.Documents = append(s.Documents, doc)
	s.Touch()
	return nil
}

// DetachDocument removes a document reference
func (s *Subcontract) DetachDocument(docID uuid.UUID) error {
	for i, d := range s.Documents {
		if d.ID == docID {
			s.Documents = append(s.Documents[:i], s.Documents[i+1:]...)
			s.Touch()
			return nil
		}
	}
	return shared.NewNotFoundError("Document")
}

// CommitmentAmount is the amount the subcontract commits against the budget
// while it is active
func (s *Subcontract) CommitmentAmount() decimal.Decimal {
	return s.TotalAmount
}

// Clone returns a deep copy safe to hand across the repository boundary
func (s *Subcontract) Clone() *Subcontract {
	cp := *s
	cp.PaymentSchedule = make([]PaymentScheduleItem, len(s.PaymentSchedule))
	for i, item := range s.PaymentSchedule {
		cp.PaymentSchedule[i] = item.clone()
	}
	cp.CostCodeIDs = append([]uuid.UUID(nil), s.CostCodeIDs...)
	cp.Documents = append([]Document(nil), s.Documents...)
	return &cp
}
