package subcontract

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/erp/jobcost/internal/infrastructure/logger"
	"github.com/erp/jobcost/internal/infrastructure/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const entityCertificate = "ProgressCertificate"

// ScheduleLedger is the subcontract side a certificate acts on
type ScheduleLedger interface {
	GetSubcontract(ctx context.Context, id uuid.UUID) (*subcontract.Subcontract, error)
	CertifyScheduleAmount(ctx context.Context, subcontractID uuid.UUID, amount decimal.Decimal, preferredItemID *uuid.UUID, at time.Time, actor shared.Actor) ([]subcontract.ScheduleAllocation, error)
	PayScheduleAllocations(ctx context.Context, subcontractID uuid.UUID, allocations []subcontract.ScheduleAllocation, at time.Time, actor shared.Actor) (*subcontract.Subcontract, error)
}

// CertificationEngine runs the progress certificate workflow
type CertificationEngine struct {
	tx           shared.TransactionScope
	publisher    shared.EventPublisher
	certificates subcontract.CertificateRepository
	ledger       ScheduleLedger
	audit        audit.Recorder
	validate     *validation.Validator
	logger       *zap.Logger
}

// NewCertificationEngine creates a new CertificationEngine
func NewCertificationEngine(
	tx shared.TransactionScope,
	publisher shared.EventPublisher,
	certificates subcontract.CertificateRepository,
	ledger ScheduleLedger,
	recorder audit.Recorder,
	log *zap.Logger,
) *CertificationEngine {
	return &CertificationEngine{
		tx:           tx,
		publisher:    publisher,
		certificates: certificates,
		ledger:       ledger,
		audit:        recorder,
		validate:     validation.Default(),
		logger:       logger.OrNop(log).Named("certification"),
	}
}

// CalculateNetPayable derives the payment breakdown of a certificate
func (e *CertificationEngine) CalculateNetPayable(in subcontract.NetPayableInput) subcontract.NetPayableResult {
	return subcontract.CalculateNetPayable(in)
}

func (e *CertificationEngine) run(ctx context.Context, fn func(ctx context.Context) error) error {
	return shared.RunInTransaction(ctx, e.tx, e.publisher, fn)
}

func (e *CertificationEngine) save(ctx context.Context, cert *subcontract.ProgressCertificate) error {
	if err := e.certificates.Save(ctx, cert); err != nil {
		return err
	}
	shared.RecordEvents(ctx, cert)
	return nil
}

func (e *CertificationEngine) log(ctx context.Context, action audit.Action, cert *subcontract.ProgressCertificate, actor shared.Actor, description string) error {
	_, err := e.audit.Log(ctx, audit.LogRequest{
		Action:          action,
		EntityType:      entityCertificate,
		EntityID:        cert.ID,
		EntityName:      cert.CertificateNumber,
		Actor:           actor,
		ProjectID:       audit.Project(cert.ProjectID),
		Description:     description,
		FinancialImpact: audit.Impact(cert.AmountCertified),
	})
	return err
}

// CreateCertificate creates a draft certificate against an active subcontract
func (e *CertificationEngine) CreateCertificate(ctx context.Context, req CertificateRequest, actor shared.Actor) (*subcontract.ProgressCertificate, error) {
	if err := e.validate.Struct(req); err != nil {
		return nil, err
	}

	var created *subcontract.ProgressCertificate
	err := e.run(ctx, func(ctx context.Context) error {
		sc, err := e.ledger.GetSubcontract(ctx, req.SubcontractID)
		if err != nil {
			return err
		}
		existing, err := e.certificates.FindBySubcontract(ctx, sc.ID)
		if err != nil {
			return err
		}
		number := subcontract.FormatCertificateNumber(sc.ContractNumber, len(existing)+1)

		cert, err := subcontract.NewProgressCertificate(sc, number, req.domain())
		if err != nil {
			return err
		}
		if err := e.save(ctx, cert); err != nil {
			return err
		}
		created = cert
		return e.log(ctx, audit.ActionCertificateCreated, cert, actor,
			fmt.Sprintf("Created certificate %s for %s (net payable %s)", cert.CertificateNumber, cert.AmountCertified.StringFixed(2), cert.NetPayable.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("certificate created",
		zap.String("certificate_number", created.CertificateNumber),
		zap.String("amount", created.AmountCertified.String()),
	)
	return created, nil
}

// SubmitCertificate sends a draft certificate for approval
func (e *CertificationEngine) SubmitCertificate(ctx context.Context, id uuid.UUID, actor shared.Actor) (*subcontract.ProgressCertificate, error) {
	return e.transition(ctx, id, actor, audit.ActionCertificateSubmitted, "Submitted",
		func(_ context.Context, cert *subcontract.ProgressCertificate) error {
			return cert.Submit(actor)
		})
}

// ApproveCertificate approves a pending certificate and books its full amount
// against the payment schedule. The remaining balance is re-checked against
// the current subcontract; the certificate and the schedule change commit
// together.
func (e *CertificationEngine) ApproveCertificate(ctx context.Context, id uuid.UUID, approver shared.Actor) (*subcontract.ProgressCertificate, error) {
	return e.transition(ctx, id, approver, audit.ActionCertificateApproved, "Approved",
		func(ctx context.Context, cert *subcontract.ProgressCertificate) error {
			sc, err := e.ledger.GetSubcontract(ctx, cert.SubcontractID)
			if err != nil {
				return err
			}
			if err := cert.Approve(sc, approver); err != nil {
				return err
			}

			allocations, err := e.ledger.CertifyScheduleAmount(ctx, sc.ID, cert.AmountCertified,
				cert.PaymentScheduleItemID, time.Now(), approver)
			if err != nil {
				return err
			}
			cert.RecordAllocations(allocations)
			return nil
		})
}

// RejectCertificate rejects a pending certificate
func (e *CertificationEngine) RejectCertificate(ctx context.Context, id uuid.UUID, reason string, actor shared.Actor) (*subcontract.ProgressCertificate, error) {
	return e.transition(ctx, id, actor, audit.ActionCertificateRejected, "Rejected",
		func(_ context.Context, cert *subcontract.ProgressCertificate) error {
			return cert.Reject(actor, reason)
		})
}

// MarkCertificateAsPaid records payment of an approved certificate against the
// schedule allocations its approval booked
func (e *CertificationEngine) MarkCertificateAsPaid(ctx context.Context, id uuid.UUID, actor shared.Actor) (*subcontract.ProgressCertificate, error) {
	return e.transition(ctx, id, actor, audit.ActionCertificatePaid, "Paid",
		func(ctx context.Context, cert *subcontract.ProgressCertificate) error {
			if err := cert.MarkAsPaid(actor); err != nil {
				return err
			}
			_, err := e.ledger.PayScheduleAllocations(ctx, cert.SubcontractID, cert.Allocations, time.Now(), actor)
			return err
		})
}

func (e *CertificationEngine) transition(
	ctx context.Context,
	id uuid.UUID,
	actor shared.Actor,
	action audit.Action,
	verb string,
	fn func(ctx context.Context, cert *subcontract.ProgressCertificate) error,
) (*subcontract.ProgressCertificate, error) {
	var result *subcontract.ProgressCertificate
	err := e.run(ctx, func(ctx context.Context) error {
		cert, err := e.getCertificate(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, cert); err != nil {
			return err
		}
		if err := e.save(ctx, cert); err != nil {
			return err
		}
		result = cert
		return e.log(ctx, action, cert, actor, fmt.Sprintf("%s certificate %s", verb, cert.CertificateNumber))
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("certificate "+string(result.Status),
		zap.String("certificate_number", result.CertificateNumber),
		zap.String("actor", actor.Name),
	)
	return result, nil
}

// GetCertificate returns a certificate by ID
func (e *CertificationEngine) GetCertificate(ctx context.Context, id uuid.UUID) (*subcontract.ProgressCertificate, error) {
	return e.getCertificate(ctx, id)
}

func (e *CertificationEngine) getCertificate(ctx context.Context, id uuid.UUID) (*subcontract.ProgressCertificate, error) {
	cert, err := e.certificates.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, shared.NewNotFoundError("Progress certificate")
	}
	return cert, nil
}

// ListCertificates returns certificates matching the filter, oldest first
func (e *CertificationEngine) ListCertificates(ctx context.Context, filter subcontract.CertificateFilter) ([]subcontract.ProgressCertificate, error) {
	return e.certificates.FindAll(ctx, filter)
}
