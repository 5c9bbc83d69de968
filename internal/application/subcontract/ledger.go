package subcontract

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/shared/strategy"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/erp/jobcost/internal/infrastructure/logger"
	"github.com/erp/jobcost/internal/infrastructure/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const entitySubcontract = "Subcontract"

// BudgetCommitter is the part of the cost ledger a subcontract commits against
type BudgetCommitter interface {
	UpdateBudgetCommitted(ctx context.Context, projectID, costCodeID uuid.UUID, amount, quantity decimal.Decimal) (*costing.CostCodeBudget, error)
}

// Ledger manages subcontracts and their payment schedules
type Ledger struct {
	tx           shared.TransactionScope
	publisher    shared.EventPublisher
	subcontracts subcontract.SubcontractRepository
	certificates subcontract.CertificateRepository
	budgets      BudgetCommitter
	allocation   strategy.CommitmentAllocationStrategy
	audit        audit.Recorder
	validate     *validation.Validator
	logger       *zap.Logger
	now          func() time.Time
}

// NewLedger creates a new subcontract Ledger
func NewLedger(
	tx shared.TransactionScope,
	publisher shared.EventPublisher,
	subcontracts subcontract.SubcontractRepository,
	certificates subcontract.CertificateRepository,
	budgets BudgetCommitter,
	recorder audit.Recorder,
	log *zap.Logger,
) *Ledger {
	return &Ledger{
		tx:           tx,
		publisher:    publisher,
		subcontracts: subcontracts,
		certificates: certificates,
		budgets:      budgets,
		allocation:   strategy.NewEvenSplitAllocation(),
		audit:        recorder,
		validate:     validation.Default(),
		logger:       logger.OrNop(log).Named("subcontract_ledger"),
		now:          time.Now,
	}
}

// SetAllocationStrategy replaces how commitments are split across cost codes.
// Call before the ledger is used.
func (l *Ledger) SetAllocationStrategy(s strategy.CommitmentAllocationStrategy) {
	if s != nil {
		l.allocation = s
	}
}

func (l *Ledger) run(ctx context.Context, fn func(ctx context.Context) error) error {
	return shared.RunInTransaction(ctx, l.tx, l.publisher, fn)
}

func (l *Ledger) log(ctx context.Context, action audit.Action, sc *subcontract.Subcontract, actor shared.Actor, description string, impact *decimal.Decimal) error {
	_, err := l.audit.Log(ctx, audit.LogRequest{
		Action:          action,
		EntityType:      entitySubcontract,
		EntityID:        sc.ID,
		EntityName:      sc.ContractNumber,
		Actor:           actor,
		ProjectID:       audit.Project(sc.ProjectID),
		Description:     description,
		FinancialImpact: impact,
	})
	return err
}

func (l *Ledger) save(ctx context.Context, sc *subcontract.Subcontract) error {
	if err := l.subcontracts.Save(ctx, sc); err != nil {
		return err
	}
	shared.RecordEvents(ctx, sc)
	return nil
}

// CreateSubcontract creates a draft subcontract with its payment schedule
func (l *Ledger) CreateSubcontract(ctx context.Context, req SubcontractRequest, actor shared.Actor) (*subcontract.Subcontract, error) {
	if err := l.validate.Struct(req); err != nil {
		return nil, err
	}

	var created *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		number := req.ContractNumber
		if number == "" {
			generated, err := l.nextContractNumber(ctx)
			if err != nil {
				return err
			}
			number = generated
		}

		sc, err := subcontract.NewSubcontract(req.terms(number))
		if err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		created = sc
		return l.log(ctx, audit.ActionSubcontractCreated, sc, actor,
			fmt.Sprintf("Created subcontract %s with %s for %s", sc.ContractNumber, sc.SubcontractorName, sc.TotalAmount.StringFixed(2)),
			audit.Impact(sc.TotalAmount))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("subcontract created",
		zap.String("contract_number", created.ContractNumber),
		zap.String("project_id", created.ProjectID.String()),
	)
	return created, nil
}

func (l *Ledger) nextContractNumber(ctx context.Context) (string, error) {
	year := l.now().Year()
	count, err := l.subcontracts.CountByNumberPrefix(ctx, subcontract.ContractNumberPrefix(year))
	if err != nil {
		return "", err
	}
	return subcontract.FormatContractNumber(year, count+1), nil
}

// UpdateSubcontract redrafts the terms of a draft subcontract
func (l *Ledger) UpdateSubcontract(ctx context.Context, id uuid.UUID, req SubcontractRequest, actor shared.Actor) (*subcontract.Subcontract, error) {
	if err := l.validate.Struct(req); err != nil {
		return nil, err
	}

	var updated *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, id)
		if err != nil {
			return err
		}
		previous := sc.TotalAmount
		if err := sc.Redraft(req.terms(sc.ContractNumber)); err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		updated = sc
		return l.log(ctx, audit.ActionSubcontractUpdated, sc, actor,
			fmt.Sprintf("Updated subcontract %s", sc.ContractNumber),
			audit.Impact(sc.TotalAmount.Sub(previous)))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ApproveSubcontract activates a draft subcontract and commits its total
// against the budgets of its cost codes
func (l *Ledger) ApproveSubcontract(ctx context.Context, id uuid.UUID, approver shared.Actor) (*subcontract.Subcontract, error) {
	var approved *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, id)
		if err != nil {
			return err
		}
		if err := sc.Approve(approver); err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		if err := l.commit(ctx, sc, sc.CommitmentAmount()); err != nil {
			return err
		}
		approved = sc
		return l.log(ctx, audit.ActionSubcontractApproved, sc, approver,
			fmt.Sprintf("Approved subcontract %s", sc.ContractNumber),
			audit.Impact(sc.TotalAmount))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("subcontract approved",
		zap.String("contract_number", approved.ContractNumber),
		zap.String("committed", approved.TotalAmount.String()),
	)
	return approved, nil
}

// commit spreads amount across the subcontract's cost codes. Cost codes the
// project has no budget for are skipped.
func (l *Ledger) commit(ctx context.Context, sc *subcontract.Subcontract, amount decimal.Decimal) error {
	for _, share := range l.allocation.Allocate(amount, sc.CostCodeIDs) {
		budget, err := l.budgets.UpdateBudgetCommitted(ctx, sc.ProjectID, share.CostCodeID, share.Amount, decimal.Zero)
		if err != nil {
			return fmt.Errorf("commit %s to cost code %s: %w", sc.ContractNumber, share.CostCodeID, err)
		}
		if budget == nil {
			l.logger.Debug("no budget for committed cost code",
				zap.String("contract_number", sc.ContractNumber),
				zap.String("cost_code_id", share.CostCodeID.String()),
			)
		}
	}
	return nil
}

// CompleteSubcontract closes an active subcontract
func (l *Ledger) CompleteSubcontract(ctx context.Context, id uuid.UUID, actor shared.Actor) (*subcontract.Subcontract, error) {
	var completed *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, id)
		if err != nil {
			return err
		}
		if err := sc.Complete(); err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		completed = sc
		return l.log(ctx, audit.ActionSubcontractCompleted, sc, actor,
			fmt.Sprintf("Completed subcontract %s", sc.ContractNumber), nil)
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// CancelSubcontract cancels a subcontract nothing has been paid on. An active
// subcontract's commitment is released.
func (l *Ledger) CancelSubcontract(ctx context.Context, id uuid.UUID, reason string, actor shared.Actor) (*subcontract.Subcontract, error) {
	var cancelled *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, id)
		if err != nil {
			return err
		}
		wasActive := sc.Status == subcontract.SubcontractStatusActive
		if err := sc.Cancel(actor, reason); err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		if wasActive {
			if err := l.commit(ctx, sc, sc.CommitmentAmount().Neg()); err != nil {
				return err
			}
		}
		cancelled = sc
		return l.log(ctx, audit.ActionSubcontractCancelled, sc, actor,
			fmt.Sprintf("Cancelled subcontract %s: %s", sc.ContractNumber, reason),
			audit.Impact(sc.TotalAmount.Neg()))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("subcontract cancelled", zap.String("contract_number", cancelled.ContractNumber))
	return cancelled, nil
}

// DeleteSubcontract removes a subcontract nothing has been paid on, together
// with its certificates
func (l *Ledger) DeleteSubcontract(ctx context.Context, id uuid.UUID, actor shared.Actor) error {
	return l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, id)
		if err != nil {
			return err
		}
		if !sc.CanDelete() {
			return shared.NewInvariantError(shared.CodeNotDeletable,
				fmt.Sprintf("Subcontract %s has recorded payments and cannot be deleted", sc.ContractNumber))
		}
		if sc.Status == subcontract.SubcontractStatusActive {
			if err := l.commit(ctx, sc, sc.CommitmentAmount().Neg()); err != nil {
				return err
			}
		}
		if err := l.certificates.DeleteBySubcontract(ctx, sc.ID); err != nil {
			return err
		}
		if err := l.subcontracts.Delete(ctx, sc.ID); err != nil {
			return err
		}
		return l.log(ctx, audit.ActionSubcontractDeleted, sc, actor,
			fmt.Sprintf("Deleted subcontract %s", sc.ContractNumber),
			audit.Impact(sc.TotalAmount.Neg()))
	})
}

// UpdatePaymentScheduleItem moves one schedule item to a new status and
// recalculates the subcontract totals. This is the only path by which
// certified, paid and retained totals change.
func (l *Ledger) UpdatePaymentScheduleItem(ctx context.Context, subcontractID, itemID uuid.UUID, status subcontract.ScheduleItemStatus, at time.Time, actor shared.Actor) (*subcontract.Subcontract, error) {
	if !status.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid schedule item status %q", status))
	}
	if at.IsZero() {
		at = l.now()
	}

	var updated *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, subcontractID)
		if err != nil {
			return err
		}
		if err := sc.UpdateScheduleItem(itemID, status, at); err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		item, _ := sc.FindScheduleItem(itemID)
		updated = sc
		return l.log(ctx, audit.ActionSubcontractUpdated, sc, actor,
			fmt.Sprintf("Schedule item %d of %s marked %s", item.Sequence, sc.ContractNumber, status),
			audit.Impact(item.Amount))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// CertifyScheduleAmount books a certified amount against the payment schedule,
// filling the preferred item first, and recalculates every total from the
// whole schedule.
func (l *Ledger) CertifyScheduleAmount(ctx context.Context, subcontractID uuid.UUID, amount decimal.Decimal, preferredItemID *uuid.UUID, at time.Time, actor shared.Actor) ([]subcontract.ScheduleAllocation, error) {
	if at.IsZero() {
		at = l.now()
	}

	var allocations []subcontract.ScheduleAllocation
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, subcontractID)
		if err != nil {
			return err
		}
		allocations, err = sc.CertifyAmount(amount, preferredItemID, at)
		if err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		return l.log(ctx, audit.ActionSubcontractUpdated, sc, actor,
			fmt.Sprintf("Certified %s on %s across %d schedule item(s)", amount.StringFixed(2), sc.ContractNumber, len(allocations)),
			audit.Impact(amount))
	})
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

// PayScheduleAllocations records payment of certified schedule allocations
func (l *Ledger) PayScheduleAllocations(ctx context.Context, subcontractID uuid.UUID, allocations []subcontract.ScheduleAllocation, at time.Time, actor shared.Actor) (*subcontract.Subcontract, error) {
	if at.IsZero() {
		at = l.now()
	}

	var updated *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, subcontractID)
		if err != nil {
			return err
		}
		if err := sc.PayAllocations(allocations, at); err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		paid := decimal.Zero
		for _, a := range allocations {
			paid = paid.Add(a.Amount)
		}
		updated = sc
		return l.log(ctx, audit.ActionSubcontractUpdated, sc, actor,
			fmt.Sprintf("Paid %s on %s", paid.StringFixed(2), sc.ContractNumber),
			audit.Impact(paid))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReleaseRetention releases the retained money of a completed subcontract
func (l *Ledger) ReleaseRetention(ctx context.Context, id uuid.UUID, actor shared.Actor) (*subcontract.Subcontract, error) {
	var released *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, id)
		if err != nil {
			return err
		}
		if err := sc.ReleaseRetention(); err != nil {
			return err
		}
		if err := l.save(ctx, sc); err != nil {
			return err
		}
		released = sc
		_, err = l.audit.Log(ctx, audit.LogRequest{
			Action:          audit.ActionRetentionReleased,
			EntityType:      entitySubcontract,
			EntityID:        sc.ID,
			EntityName:      sc.ContractNumber,
			Actor:           actor,
			ProjectID:       audit.Project(sc.ProjectID),
			Description:     fmt.Sprintf("Released retention of %s", sc.ContractNumber),
			FinancialImpact: audit.Impact(sc.TotalRetained),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return released, nil
}

// CalculateCommittedCost returns the total of the project's active subcontracts
func (l *Ledger) CalculateCommittedCost(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	active := subcontract.SubcontractStatusActive
	contracts, err := l.subcontracts.FindAll(ctx, subcontract.SubcontractFilter{ProjectID: &projectID, Status: &active})
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, sc := range contracts {
		total = total.Add(sc.TotalAmount)
	}
	return total, nil
}

// AttachDocument adds a document reference to a subcontract
func (l *Ledger) AttachDocument(ctx context.Context, id uuid.UUID, doc subcontract.Document, actor shared.Actor) (*subcontract.Subcontract, error) {
	if doc.UploadedBy == uuid.Nil {
		doc.UploadedBy = actor.ID
	}
	return l.mutate(ctx, id, func(sc *subcontract.Subcontract) error {
		return sc.AttachDocument(doc)
	})
}

// DetachDocument removes a document reference from a subcontract
func (l *Ledger) DetachDocument(ctx context.Context, id, documentID uuid.UUID) (*subcontract.Subcontract, error) {
	return l.mutate(ctx, id, func(sc *subcontract.Subcontract) error {
		return sc.DetachDocument(documentID)
	})
}

func (l *Ledger) mutate(ctx context.Context, id uuid.UUID, fn func(*subcontract.Subcontract) error) (*subcontract.Subcontract, error) {
	var result *subcontract.Subcontract
	err := l.run(ctx, func(ctx context.Context) error {
		sc, err := l.getSubcontract(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(sc); err != nil {
			return err
		}
		result = sc
		return l.save(ctx, sc)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetSubcontract returns a subcontract by ID
func (l *Ledger) GetSubcontract(ctx context.Context, id uuid.UUID) (*subcontract.Subcontract, error) {
	return l.getSubcontract(ctx, id)
}

func (l *Ledger) getSubcontract(ctx context.Context, id uuid.UUID) (*subcontract.Subcontract, error) {
	sc, err := l.subcontracts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, shared.NewNotFoundError("Subcontract")
	}
	return sc, nil
}

// ListSubcontracts returns subcontracts matching the filter, oldest first
func (l *Ledger) ListSubcontracts(ctx context.Context, filter subcontract.SubcontractFilter) ([]subcontract.Subcontract, error) {
	return l.subcontracts.FindAll(ctx, filter)
}
