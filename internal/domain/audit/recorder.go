package audit

import (
	"context"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LogRequest describes one action to record. Severity defaults to
// SeverityForAction when empty.
type LogRequest struct {
	Action          Action
	EntityType      string
	EntityID        uuid.UUID
	EntityName      string
	Actor           shared.Actor
	ProjectID       *uuid.UUID
	Description     string
	Severity        Severity
	FinancialImpact *decimal.Decimal
	Changes         []Change
}

// Recorder is how the ledgers write to the audit log
type Recorder interface {
	Log(ctx context.Context, req LogRequest) (*Entry, error)
}

// Impact is a helper for LogRequest.FinancialImpact
func Impact(d decimal.Decimal) *decimal.Decimal {
	return &d
}

// Project is a helper for LogRequest.ProjectID
func Project(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
