package expense

import (
	"context"
	"fmt"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/expense"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/infrastructure/config"
	"github.com/erp/jobcost/internal/infrastructure/logger"
	"github.com/erp/jobcost/internal/infrastructure/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const entityExpense = "Expense"

// CostCodeDirectory resolves and suggests cost codes
type CostCodeDirectory interface {
	GetCostCode(ctx context.Context, id uuid.UUID) (*costing.CostCode, error)
	SuggestCostCodes(ctx context.Context, description string, limit int) ([]costing.Suggestion, error)
}

// ActualsPoster feeds expense totals into budget actuals
type ActualsPoster interface {
	UpdateBudgetActuals(ctx context.Context, projectID, costCodeID uuid.UUID, amount, quantity decimal.Decimal) (*costing.CostCodeBudget, error)
}

// Policy groups the thresholds the classifier applies
type Policy struct {
	Classification expense.ClassificationPolicy
	OCR            expense.OCRPolicy
}

// DefaultPolicy returns the default thresholds
func DefaultPolicy() Policy {
	return Policy{
		Classification: expense.DefaultClassificationPolicy(),
		OCR:            expense.DefaultOCRPolicy(),
	}
}

// PolicyFromConfig builds the classifier thresholds from finance configuration
func PolicyFromConfig(cfg config.FinanceConfig) Policy {
	p := DefaultPolicy()
	if cfg.LargeExpenseThreshold > 0 {
		p.Classification.LargeExpenseThreshold = decimal.NewFromFloat(cfg.LargeExpenseThreshold)
	}
	if cfg.OCRMinConfidence > 0 {
		p.OCR.MinConfidence = cfg.OCRMinConfidence
	}
	if cfg.OCRReviewConfidence > 0 {
		p.OCR.ReviewConfidence = cfg.OCRReviewConfidence
	}
	return p
}

// Classifier validates, classifies and approves project expenses
type Classifier struct {
	tx        shared.TransactionScope
	publisher shared.EventPublisher
	expenses  expense.ExpenseRepository
	codes     CostCodeDirectory
	actuals   ActualsPoster
	audit     audit.Recorder
	policy    Policy
	validate  *validation.Validator
	logger    *zap.Logger
}

// NewClassifier creates a new expense Classifier
func NewClassifier(
	tx shared.TransactionScope,
	publisher shared.EventPublisher,
	expenses expense.ExpenseRepository,
	codes CostCodeDirectory,
	actuals ActualsPoster,
	recorder audit.Recorder,
	policy Policy,
	log *zap.Logger,
) *Classifier {
	return &Classifier{
		tx:        tx,
		publisher: publisher,
		expenses:  expenses,
		codes:     codes,
		actuals:   actuals,
		audit:     recorder,
		policy:    policy,
		validate:  validation.Default(),
		logger:    logger.OrNop(log).Named("expense_classifier"),
	}
}

func (c *Classifier) run(ctx context.Context, fn func(ctx context.Context) error) error {
	return shared.RunInTransaction(ctx, c.tx, c.publisher, fn)
}

func (c *Classifier) save(ctx context.Context, e *expense.Expense) error {
	if err := c.expenses.Save(ctx, e); err != nil {
		return err
	}
	shared.RecordEvents(ctx, e)
	return nil
}

func (c *Classifier) log(ctx context.Context, action audit.Action, e *expense.Expense, actor shared.Actor, description string, impact decimal.Decimal) error {
	name := e.InvoiceNumber
	if name == "" {
		name = e.Description
	}
	_, err := c.audit.Log(ctx, audit.LogRequest{
		Action:          action,
		EntityType:      entityExpense,
		EntityID:        e.ID,
		EntityName:      name,
		Actor:           actor,
		ProjectID:       audit.Project(e.ProjectID),
		Description:     description,
		FinancialImpact: audit.Impact(impact),
	})
	return err
}

// ValidateClassification checks an expense without storing anything
func (c *Classifier) ValidateClassification(req ExpenseRequest) expense.ValidationResult {
	return expense.ValidateClassification(req.classification(), c.policy.Classification)
}

// CreateExpense validates and stores a draft expense and feeds its total into
// the budget actuals of its cost code
func (c *Classifier) CreateExpense(ctx context.Context, req ExpenseRequest, actor shared.Actor) (*expense.Expense, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}
	result := c.ValidateClassification(req)
	if !result.IsValid {
		return nil, shared.NewValidationError("Expense classification is invalid", result.Errors...)
	}

	var created *expense.Expense
	err := c.run(ctx, func(ctx context.Context) error {
		cc, err := c.codes.GetCostCode(ctx, req.CostCodeID)
		if err != nil {
			return err
		}
		e, err := expense.NewExpense(req.classification(), cc.Code, c.policy.Classification)
		if err != nil {
			return err
		}
		if err := c.postActuals(ctx, e); err != nil {
			return err
		}
		if err := c.save(ctx, e); err != nil {
			return err
		}
		created = e
		return c.log(ctx, audit.ActionExpenseCreated, e, actor,
			fmt.Sprintf("Created expense of %s from %s on %s", e.TotalAmount.StringFixed(2), e.SupplierName, e.CostCode),
			e.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("expense created",
		zap.String("expense_id", created.ID.String()),
		zap.String("cost_code", created.CostCode),
		zap.String("total", created.TotalAmount.String()),
		zap.Int("warnings", len(created.Warnings)),
	)
	return created, nil
}

// CreateExpenseFromOCR stores an auto-created expense from an OCR payload. A
// cost code is suggested from the description when none is supplied; the
// expense goes straight to pending approval.
func (c *Classifier) CreateExpenseFromOCR(ctx context.Context, req OCRExpenseRequest, actor shared.Actor) (*expense.Expense, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}
	intake := req.intake()
	if err := intake.Validate(c.policy.OCR); err != nil {
		return nil, err
	}

	var created *expense.Expense
	err := c.run(ctx, func(ctx context.Context) error {
		costCodeID, code, err := c.resolveOCRCostCode(ctx, intake)
		if err != nil {
			return err
		}
		e, err := expense.NewExpenseFromOCR(intake, costCodeID, code, c.policy.OCR)
		if err != nil {
			return err
		}
		if err := c.postActuals(ctx, e); err != nil {
			return err
		}
		if err := c.save(ctx, e); err != nil {
			return err
		}
		created = e
		return c.log(ctx, audit.ActionExpenseCreated, e, actor,
			fmt.Sprintf("Auto-created expense of %s from %s (OCR confidence %.2f)", e.TotalAmount.StringFixed(2), e.SupplierName, intake.OCRData.Confidence),
			e.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("expense created from OCR",
		zap.String("expense_id", created.ID.String()),
		zap.String("cost_code", created.CostCode),
		zap.Bool("needs_review", created.NeedsReview),
	)
	return created, nil
}

func (c *Classifier) resolveOCRCostCode(ctx context.Context, in expense.OCRIntake) (uuid.UUID, string, error) {
	if in.CostCodeID != nil && *in.CostCodeID != uuid.Nil {
		cc, err := c.codes.GetCostCode(ctx, *in.CostCodeID)
		if err != nil {
			return uuid.Nil, "", err
		}
		return cc.ID, cc.Code, nil
	}
	suggestions, err := c.codes.SuggestCostCodes(ctx, in.Description, 1)
	if err != nil {
		return uuid.Nil, "", err
	}
	if len(suggestions) == 0 {
		return uuid.Nil, "", nil
	}
	best := suggestions[0].CostCode
	return best.ID, best.Code, nil
}

// postActuals adds the expense total to its budget line. Nothing is posted
// when the project has no budget for the cost code.
func (c *Classifier) postActuals(ctx context.Context, e *expense.Expense) error {
	if e.CostCodeID == uuid.Nil || e.ActualsPosted {
		return nil
	}
	budget, err := c.actuals.UpdateBudgetActuals(ctx, e.ProjectID, e.CostCodeID, e.TotalAmount, decimal.Zero)
	if err != nil {
		return err
	}
	if budget != nil {
		e.MarkActualsPosted()
	}
	return nil
}

// reverseActuals takes a previously posted total back out of the budget line
func (c *Classifier) reverseActuals(ctx context.Context, e *expense.Expense) error {
	if !e.ActualsPosted {
		return nil
	}
	if _, err := c.actuals.UpdateBudgetActuals(ctx, e.ProjectID, e.CostCodeID, e.TotalAmount.Neg(), decimal.Zero); err != nil {
		return err
	}
	e.MarkActualsReversed()
	return nil
}

// UpdateExpense replaces the classification of a draft expense, moving its
// actuals when the cost code or total changes
func (c *Classifier) UpdateExpense(ctx context.Context, id uuid.UUID, req ExpenseRequest, actor shared.Actor) (*expense.Expense, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}

	var updated *expense.Expense
	err := c.run(ctx, func(ctx context.Context) error {
		e, err := c.getExpense(ctx, id)
		if err != nil {
			return err
		}
		if !e.Status.CanEdit() {
			return shared.NewInvalidStateError("Only draft expenses can be updated")
		}
		code := ""
		if req.CostCodeID != uuid.Nil {
			cc, err := c.codes.GetCostCode(ctx, req.CostCodeID)
			if err != nil {
				return err
			}
			code = cc.Code
		}
		previous := e.TotalAmount
		if err := c.reverseActuals(ctx, e); err != nil {
			return err
		}
		if err := e.Update(req.classification(), code, c.policy.Classification); err != nil {
			return err
		}
		if err := c.postActuals(ctx, e); err != nil {
			return err
		}
		if err := c.save(ctx, e); err != nil {
			return err
		}
		updated = e
		return c.log(ctx, audit.ActionExpenseUpdated, e, actor,
			fmt.Sprintf("Updated expense %s", e.ID), e.TotalAmount.Sub(previous))
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReclassifyExpense moves an unapproved expense and its actuals to another cost code
func (c *Classifier) ReclassifyExpense(ctx context.Context, id, costCodeID uuid.UUID, actor shared.Actor) (*expense.Expense, error) {
	var reclassified *expense.Expense
	err := c.run(ctx, func(ctx context.Context) error {
		e, err := c.getExpense(ctx, id)
		if err != nil {
			return err
		}
		if !e.Status.CanReclassify() {
			return shared.NewInvalidStateError("Only draft or pending expenses can be reclassified")
		}
		cc, err := c.codes.GetCostCode(ctx, costCodeID)
		if err != nil {
			return err
		}
		from := e.CostCode
		if err := c.reverseActuals(ctx, e); err != nil {
			return err
		}
		if err := e.Reclassify(cc.ID, cc.Code); err != nil {
			return err
		}
		if err := c.postActuals(ctx, e); err != nil {
			return err
		}
		if err := c.save(ctx, e); err != nil {
			return err
		}
		reclassified = e
		_, err = c.audit.Log(ctx, audit.LogRequest{
			Action:      audit.ActionExpenseReclassified,
			EntityType:  entityExpense,
			EntityID:    e.ID,
			EntityName:  e.Description,
			Actor:       actor,
			ProjectID:   audit.Project(e.ProjectID),
			Description: fmt.Sprintf("Reclassified expense from %q to %s", from, cc.Code),
			Changes:     []audit.Change{{Field: "cost_code", OldValue: from, NewValue: cc.Code}},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return reclassified, nil
}

// SubmitForApproval re-validates a draft expense and sends it for approval
func (c *Classifier) SubmitForApproval(ctx context.Context, id uuid.UUID, actor shared.Actor) (*expense.Expense, error) {
	return c.transition(ctx, id, actor, audit.ActionExpenseSubmitted, "Submitted",
		func(_ context.Context, e *expense.Expense) error {
			return e.Submit(actor, c.policy.Classification)
		})
}

// ApproveExpense approves a pending expense
func (c *Classifier) ApproveExpense(ctx context.Context, id uuid.UUID, approver shared.Actor) (*expense.Expense, error) {
	return c.transition(ctx, id, approver, audit.ActionExpenseApproved, "Approved",
		func(_ context.Context, e *expense.Expense) error {
			return e.Approve(approver)
		})
}

// RejectExpense rejects a pending expense and reverses its actuals
func (c *Classifier) RejectExpense(ctx context.Context, id uuid.UUID, reason string, actor shared.Actor) (*expense.Expense, error) {
	return c.transition(ctx, id, actor, audit.ActionExpenseRejected, "Rejected",
		func(ctx context.Context, e *expense.Expense) error {
			if err := e.Reject(actor, reason); err != nil {
				return err
			}
			return c.reverseActuals(ctx, e)
		})
}

func (c *Classifier) transition(
	ctx context.Context,
	id uuid.UUID,
	actor shared.Actor,
	action audit.Action,
	verb string,
	fn func(ctx context.Context, e *expense.Expense) error,
) (*expense.Expense, error) {
	var result *expense.Expense
	err := c.run(ctx, func(ctx context.Context) error {
		e, err := c.getExpense(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, e); err != nil {
			return err
		}
		if err := c.save(ctx, e); err != nil {
			return err
		}
		result = e
		return c.log(ctx, action, e, actor,
			fmt.Sprintf("%s expense of %s from %s", verb, e.TotalAmount.StringFixed(2), e.SupplierName),
			e.TotalAmount)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("expense "+string(result.Status),
		zap.String("expense_id", result.ID.String()),
		zap.String("actor", actor.Name),
	)
	return result, nil
}

// RecordPayment records a payment on an approved expense
func (c *Classifier) RecordPayment(ctx context.Context, id uuid.UUID, req PaymentRequest, actor shared.Actor) (*expense.Expense, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}

	var paid *expense.Expense
	err := c.run(ctx, func(ctx context.Context) error {
		e, err := c.getExpense(ctx, id)
		if err != nil {
			return err
		}
		payment, err := e.RecordPayment(req.Amount, req.Date, req.Reference, actor)
		if err != nil {
			return err
		}
		if err := c.save(ctx, e); err != nil {
			return err
		}
		paid = e
		if err := c.log(ctx, audit.ActionPaymentRecorded, e, actor,
			fmt.Sprintf("Recorded payment of %s (%s outstanding)", payment.Amount.StringFixed(2), e.OutstandingAmount().StringFixed(2)),
			payment.Amount); err != nil {
			return err
		}
		if e.Status != expense.ExpenseStatusPaid {
			return nil
		}
		return c.log(ctx, audit.ActionExpensePaid, e, actor,
			fmt.Sprintf("Expense of %s fully paid", e.TotalAmount.StringFixed(2)), e.TotalAmount)
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// DeleteExpense removes a draft or rejected expense, reversing actuals it
// still contributes
func (c *Classifier) DeleteExpense(ctx context.Context, id uuid.UUID, actor shared.Actor) error {
	return c.run(ctx, func(ctx context.Context) error {
		e, err := c.getExpense(ctx, id)
		if err != nil {
			return err
		}
		if !e.CanDelete() {
			return shared.NewInvariantError(shared.CodeNotDeletable,
				fmt.Sprintf("Expense in %s status cannot be deleted", e.Status))
		}
		if err := c.reverseActuals(ctx, e); err != nil {
			return err
		}
		if err := c.expenses.Delete(ctx, e.ID); err != nil {
			return err
		}
		return c.log(ctx, audit.ActionExpenseDeleted, e, actor,
			fmt.Sprintf("Deleted expense of %s", e.TotalAmount.StringFixed(2)), e.TotalAmount.Neg())
	})
}

// BulkApproveExpenses approves each expense independently. Failures are
// logged and skipped; the approved expenses are returned.
func (c *Classifier) BulkApproveExpenses(ctx context.Context, ids []uuid.UUID, approver shared.Actor) []*expense.Expense {
	approved := make([]*expense.Expense, 0, len(ids))
	for _, id := range ids {
		e, err := c.ApproveExpense(ctx, id, approver)
		if err != nil {
			c.logger.Warn("bulk approve skipped expense",
				zap.String("expense_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		approved = append(approved, e)
	}
	return approved
}

// BulkRejectExpenses rejects each expense independently with the same reason
func (c *Classifier) BulkRejectExpenses(ctx context.Context, ids []uuid.UUID, reason string, actor shared.Actor) []*expense.Expense {
	rejected := make([]*expense.Expense, 0, len(ids))
	for _, id := range ids {
		e, err := c.RejectExpense(ctx, id, reason, actor)
		if err != nil {
			c.logger.Warn("bulk reject skipped expense",
				zap.String("expense_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		rejected = append(rejected, e)
	}
	return rejected
}

// GetExpense returns an expense by ID
func (c *Classifier) GetExpense(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	return c.getExpense(ctx, id)
}

func (c *Classifier) getExpense(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	e, err := c.expenses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, shared.NewNotFoundError("Expense")
	}
	return e, nil
}

// ListExpenses returns expenses matching the filter, oldest first
func (c *Classifier) ListExpenses(ctx context.Context, filter expense.ExpenseFilter) ([]expense.Expense, error) {
	return c.expenses.FindAll(ctx, filter)
}
