package audit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Action names a financially relevant operation
type Action string

const (
	ActionCostCodeCreated      Action = "cost_code_created"
	ActionCostCodeUpdated      Action = "cost_code_updated"
	ActionCostCodeDeleted      Action = "cost_code_deleted"
	ActionBudgetCreated        Action = "budget_created"
	ActionBudgetUpdated        Action = "budget_updated"
	ActionBudgetDeleted        Action = "budget_deleted"
	ActionSubcontractCreated   Action = "subcontract_created"
	ActionSubcontractUpdated   Action = "subcontract_updated"
	ActionSubcontractApproved  Action = "subcontract_approved"
	ActionSubcontractCompleted Action = "subcontract_completed"
	ActionSubcontractCancelled Action = "subcontract_cancelled"
	ActionSubcontractDeleted   Action = "subcontract_deleted"
	ActionRetentionReleased    Action = "retention_released"
	ActionCertificateCreated   Action = "certificate_created"
	ActionCertificateSubmitted Action = "certificate_submitted"
	ActionCertificateApproved  Action = "certificate_approved"
	ActionCertificateRejected  Action = "certificate_rejected"
	ActionCertificatePaid      Action = "certificate_paid"
	ActionExpenseCreated       Action = "expense_created"
	ActionExpenseUpdated       Action = "expense_updated"
	ActionExpenseSubmitted     Action = "expense_submitted"
	ActionExpenseApproved      Action = "expense_approved"
	ActionExpenseRejected      Action = "expense_rejected"
	ActionExpenseReclassified  Action = "expense_reclassified"
	ActionExpenseDeleted       Action = "expense_deleted"
	ActionExpensePaid          Action = "expense_paid"
	ActionPaymentRecorded      Action = "payment_recorded"
)

// String returns the string representation of Action
func (a Action) String() string {
	return string(a)
}

// Severity grades how sensitive an audited action is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// IsValid checks if the severity is a valid Severity
func (s Severity) IsValid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// String returns the string representation of Severity
func (s Severity) String() string {
	return string(s)
}

// SeverityForAction returns the default severity of an action
func SeverityForAction(a Action) Severity {
	switch a {
	case ActionSubcontractDeleted, ActionCertificateApproved, ActionCertificatePaid,
		ActionExpenseApproved, ActionExpensePaid, ActionPaymentRecorded,
		ActionBudgetUpdated, ActionRetentionReleased:
		return SeverityCritical
	case ActionSubcontractCancelled, ActionCertificateRejected, ActionExpenseRejected,
		ActionCostCodeDeleted:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Change records one field modification
type Change struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// Entry is one immutable audit log record
type Entry struct {
	ID              uuid.UUID        `json:"id"`
	Timestamp       time.Time        `json:"timestamp"`
	Action          Action           `json:"action"`
	EntityType      string           `json:"entity_type"`
	EntityID        uuid.UUID        `json:"entity_id"`
	EntityName      string           `json:"entity_name,omitempty"`
	UserID          uuid.UUID        `json:"user_id"`
	UserName        string           `json:"user_name"`
	ProjectID       *uuid.UUID       `json:"project_id,omitempty"`
	Description     string           `json:"description"`
	Severity        Severity         `json:"severity"`
	FinancialImpact *decimal.Decimal `json:"financial_impact,omitempty"`
	Changes         []Change         `json:"changes,omitempty"`
}

// Filter selects audit entries; zero fields match everything
type Filter struct {
	EntityType string
	EntityID   *uuid.UUID
	ProjectID  *uuid.UUID
	UserID     *uuid.UUID
	Action     Action
	Severity   Severity
	From       *time.Time
	To         *time.Time
	Limit      int
}

// Matches reports whether the entry satisfies the filter
func (f Filter) Matches(e *Entry) bool {
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if f.EntityID != nil && e.EntityID != *f.EntityID {
		return false
	}
	if f.ProjectID != nil && (e.ProjectID == nil || *e.ProjectID != *f.ProjectID) {
		return false
	}
	if f.UserID != nil && e.UserID != *f.UserID {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if f.From != nil && e.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Timestamp.After(*f.To) {
		return false
	}
	return true
}
