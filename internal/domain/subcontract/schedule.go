package subcontract

import (
	"fmt"
	"time"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleItemStatus represents the state of one payment milestone
type ScheduleItemStatus string

const (
	ScheduleItemStatusPending   ScheduleItemStatus = "pending"
	ScheduleItemStatusCertified ScheduleItemStatus = "certified"
	ScheduleItemStatusPaid      ScheduleItemStatus = "paid"
)

// IsValid checks if the status is a valid ScheduleItemStatus
func (s ScheduleItemStatus) IsValid() bool {
	switch s {
	case ScheduleItemStatusPending, ScheduleItemStatusCertified, ScheduleItemStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of ScheduleItemStatus
func (s ScheduleItemStatus) String() string {
	return string(s)
}

// PaymentScheduleItem is one milestone of a subcontract payment schedule
type PaymentScheduleItem struct {
	ID              uuid.UUID          `json:"id"`
	Sequence        int                `json:"sequence"`
	Description     string             `json:"description"`
	Percentage      decimal.Decimal    `json:"percentage"`
	Amount          decimal.Decimal    `json:"amount"`
	CertifiedAmount decimal.Decimal    `json:"certified_amount"`
	PaidAmount      decimal.Decimal    `json:"paid_amount"`
	Status          ScheduleItemStatus `json:"status"`
	CertifiedDate   *time.Time         `json:"certified_date,omitempty"`
	PaidDate        *time.Time         `json:"paid_date,omitempty"`
}

// OpenAmount is the part of the item not yet certified
func (i PaymentScheduleItem) OpenAmount() decimal.Decimal {
	open := i.Amount.Sub(i.CertifiedAmount)
	if open.IsNegative() {
		return decimal.Zero
	}
	return open
}

// ScheduleAllocation is the share of a certified amount booked against one item
type ScheduleAllocation struct {
	ItemID uuid.UUID       `json:"item_id"`
	Amount decimal.Decimal `json:"amount"`
}

// transition applies a status change. Allowed moves: pending → certified,
// pending → paid, certified → paid and certified → pending. Whole-item moves
// set the certified and paid amounts to the item amount.
func (i *PaymentScheduleItem) transition(to ScheduleItemStatus, at time.Time) error {
	if !to.IsValid() {
		return shared.NewValidationError(fmt.Sprintf("Invalid schedule item status: %s", to))
	}
	if at.IsZero() {
		at = time.Now()
	}

	switch {
	case i.Status == ScheduleItemStatusPending && to == ScheduleItemStatusCertified:
		i.CertifiedDate = &at
		i.CertifiedAmount = i.Amount
	case i.Status == ScheduleItemStatusPending && to == ScheduleItemStatusPaid:
		i.CertifiedDate = &at
		i.PaidDate = &at
		i.CertifiedAmount = i.Amount
		i.PaidAmount = i.Amount
	case i.Status == ScheduleItemStatusCertified && to == ScheduleItemStatusPaid:
		i.PaidDate = &at
		i.PaidAmount = i.CertifiedAmount
	case i.Status == ScheduleItemStatusCertified && to == ScheduleItemStatusPending:
		if i.PaidAmount.IsPositive() {
			return shared.NewInvalidStateError("Cannot un-certify a schedule item with payments recorded")
		}
		i.CertifiedDate = nil
		i.CertifiedAmount = decimal.Zero
	default:
		return shared.NewInvalidStateError(fmt.Sprintf("Cannot move schedule item from %s to %s", i.Status, to))
	}
	i.Status = to
	return nil
}

// certify books amount against the item and marks it certified once full
func (i *PaymentScheduleItem) certify(amount decimal.Decimal, at time.Time) {
	i.CertifiedAmount = i.CertifiedAmount.Add(amount)
	if i.Status == ScheduleItemStatusPending && !i.CertifiedAmount.LessThan(i.Amount) {
		i.Status = ScheduleItemStatusCertified
		i.CertifiedDate = &at
	}
}

// pay books a payment against the item and marks it paid once the whole
// item is certified and paid
func (i *PaymentScheduleItem) pay(amount decimal.Decimal, at time.Time) {
	i.PaidAmount = i.PaidAmount.Add(amount)
	if i.Status == ScheduleItemStatusCertified && !i.PaidAmount.LessThan(i.Amount) {
		i.Status = ScheduleItemStatusPaid
		i.PaidDate = &at
	}
}

func (i PaymentScheduleItem) clone() PaymentScheduleItem {
	cp := i
	if i.CertifiedDate != nil {
		d := *i.CertifiedDate
		cp.CertifiedDate = &d
	}
	if i.PaidDate != nil {
		d := *i.PaidDate
		cp.PaidDate = &d
	}
	return cp
}
