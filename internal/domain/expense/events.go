package expense

import (
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeExpense is the aggregate type name for expenses
const AggregateTypeExpense = "Expense"

// Event type names
const (
	EventTypeExpenseCreated      = "ExpenseCreated"
	EventTypeExpenseSubmitted    = "ExpenseSubmitted"
	EventTypeExpenseApproved     = "ExpenseApproved"
	EventTypeExpenseRejected     = "ExpenseRejected"
	EventTypeExpenseReclassified = "ExpenseReclassified"
	EventTypeExpensePaid         = "ExpensePaid"
	EventTypePaymentRecorded     = "ExpensePaymentRecorded"
)

// ExpenseEvent is raised on every expense lifecycle change
type ExpenseEvent struct {
	shared.BaseDomainEvent
	ExpenseID   uuid.UUID       `json:"expense_id"`
	CostCodeID  uuid.UUID       `json:"cost_code_id"`
	Status      ExpenseStatus   `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// NewExpenseEvent creates an ExpenseEvent of the given type
func NewExpenseEvent(eventType string, e *Expense) *ExpenseEvent {
	return &ExpenseEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeExpense, e.ID, e.ProjectID),
		ExpenseID:       e.ID,
		CostCodeID:      e.CostCodeID,
		Status:          e.Status,
		TotalAmount:     e.TotalAmount,
	}
}

// PaymentRecordedEvent is raised when a payment is recorded against an expense
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	ExpenseID     uuid.UUID       `json:"expense_id"`
	PaymentID     uuid.UUID       `json:"payment_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(e *Expense, p Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeExpense, e.ID, e.ProjectID),
		ExpenseID:       e.ID,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		PaidAmount:      e.PaidAmount,
		PaymentStatus:   e.PaymentStatus,
	}
}
