package costing

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/infrastructure/logger"
	"github.com/erp/jobcost/internal/infrastructure/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const entityCostCode = "CostCode"

// Ledger is the cost code catalog and the per-project budget ledger
type Ledger struct {
	tx        shared.TransactionScope
	publisher shared.EventPublisher
	codes     costing.CostCodeRepository
	budgets   costing.BudgetRepository
	audit     audit.Recorder
	validate  *validation.Validator
	logger    *zap.Logger
}

// NewLedger creates a new cost code Ledger
func NewLedger(
	tx shared.TransactionScope,
	publisher shared.EventPublisher,
	codes costing.CostCodeRepository,
	budgets costing.BudgetRepository,
	recorder audit.Recorder,
	log *zap.Logger,
) *Ledger {
	return &Ledger{
		tx:        tx,
		publisher: publisher,
		codes:     codes,
		budgets:   budgets,
		audit:     recorder,
		validate:  validation.Default(),
		logger:    logger.OrNop(log).Named("cost_ledger"),
	}
}

func (l *Ledger) run(ctx context.Context, fn func(ctx context.Context) error) error {
	return shared.RunInTransaction(ctx, l.tx, l.publisher, fn)
}

// CreateCostCode adds a new active cost code to the catalog
func (l *Ledger) CreateCostCode(ctx context.Context, req CreateCostCodeRequest, actor shared.Actor) (*costing.CostCode, error) {
	if err := l.validate.Struct(req); err != nil {
		return nil, err
	}

	var created *costing.CostCode
	err := l.run(ctx, func(ctx context.Context) error {
		cc, err := l.createCostCode(ctx, req.spec())
		if err != nil {
			return err
		}
		_, err = l.audit.Log(ctx, audit.LogRequest{
			Action:      audit.ActionCostCodeCreated,
			EntityType:  entityCostCode,
			EntityID:    cc.ID,
			EntityName:  cc.Code,
			Actor:       actor,
			Description: fmt.Sprintf("Created cost code %s %s", cc.Code, cc.Name),
		})
		created = cc
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("cost code created", zap.String("code", created.Code), zap.String("id", created.ID.String()))
	return created, nil
}

func (l *Ledger) createCostCode(ctx context.Context, spec costing.CostCodeSpec) (*costing.CostCode, error) {
	existing, err := l.codes.FindByCode(ctx, strings.TrimSpace(spec.Code))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewConflictError(shared.CodeDuplicateCode, fmt.Sprintf("Cost code %s already exists", existing.Code))
	}

	cc, err := costing.NewCostCode(spec)
	if err != nil {
		return nil, err
	}
	if err := l.codes.Save(ctx, cc); err != nil {
		return nil, err
	}
	shared.RecordEvents(ctx, cc)
	return cc, nil
}

// UpdateCostCode changes the descriptive attributes or the active flag of a cost code
func (l *Ledger) UpdateCostCode(ctx context.Context, id uuid.UUID, req UpdateCostCodeRequest, actor shared.Actor) (*costing.CostCode, error) {
	if err := l.validate.Struct(req); err != nil {
		return nil, err
	}

	var updated *costing.CostCode
	err := l.run(ctx, func(ctx context.Context) error {
		cc, err := l.getCostCode(ctx, id)
		if err != nil {
			return err
		}
		before := *cc

		name, description, uom, tags := cc.Name, cc.Description, cc.UnitOfMeasure, cc.Tags
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if req.UnitOfMeasure != nil {
			uom = *req.UnitOfMeasure
		}
		if req.Tags != nil {
			tags = req.Tags
		}
		if err := cc.Update(name, description, uom, tags); err != nil {
			return err
		}
		if req.IsActive != nil && *req.IsActive != cc.IsActive {
			if *req.IsActive {
				cc.Activate()
			} else {
				cc.Deactivate()
			}
		}
		if err := l.codes.Save(ctx, cc); err != nil {
			return err
		}

		_, err = l.audit.Log(ctx, audit.LogRequest{
			Action:      audit.ActionCostCodeUpdated,
			EntityType:  entityCostCode,
			EntityID:    cc.ID,
			EntityName:  cc.Code,
			Actor:       actor,
			Description: fmt.Sprintf("Updated cost code %s", cc.Code),
			Changes:     costCodeChanges(&before, cc),
		})
		updated = cc
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func costCodeChanges(before, after *costing.CostCode) []audit.Change {
	changes := make([]audit.Change, 0)
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, audit.Change{Field: field, OldValue: oldValue, NewValue: newValue})
		}
	}
	add("name", before.Name, after.Name)
	add("description", before.Description, after.Description)
	add("unit_of_measure", before.UnitOfMeasure, after.UnitOfMeasure)
	add("tags", strings.Join(before.Tags, ";"), strings.Join(after.Tags, ";"))
	add("is_active", fmt.Sprint(before.IsActive), fmt.Sprint(after.IsActive))
	return changes
}

// DeleteCostCode removes a cost code no project budgets against
func (l *Ledger) DeleteCostCode(ctx context.Context, id uuid.UUID, actor shared.Actor) error {
	return l.run(ctx, func(ctx context.Context) error {
		cc, err := l.getCostCode(ctx, id)
		if err != nil {
			return err
		}
		used, err := l.budgets.ExistsForCostCode(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return shared.NewInvariantError(shared.CodeNotDeletable,
				fmt.Sprintf("Cost code %s is used by project budgets and cannot be deleted", cc.Code))
		}
		if err := l.codes.Delete(ctx, id); err != nil {
			return err
		}

		_, err = l.audit.Log(ctx, audit.LogRequest{
			Action:      audit.ActionCostCodeDeleted,
			EntityType:  entityCostCode,
			EntityID:    cc.ID,
			EntityName:  cc.Code,
			Actor:       actor,
			Description: fmt.Sprintf("Deleted cost code %s %s", cc.Code, cc.Name),
		})
		return err
	})
}

// GetCostCode returns a cost code by ID
func (l *Ledger) GetCostCode(ctx context.Context, id uuid.UUID) (*costing.CostCode, error) {
	return l.getCostCode(ctx, id)
}

func (l *Ledger) getCostCode(ctx context.Context, id uuid.UUID) (*costing.CostCode, error) {
	cc, err := l.codes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cc == nil {
		return nil, shared.NewNotFoundError("Cost code")
	}
	return cc, nil
}

// GetCostCodeByCode returns a cost code by its code
func (l *Ledger) GetCostCodeByCode(ctx context.Context, code string) (*costing.CostCode, error) {
	cc, err := l.codes.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if cc == nil {
		return nil, shared.NewNotFoundError("Cost code")
	}
	return cc, nil
}

// ListCostCodes returns cost codes matching the filter in catalog order
func (l *Ledger) ListCostCodes(ctx context.Context, filter costing.CostCodeFilter) ([]costing.CostCode, error) {
	return l.codes.FindAll(ctx, filter)
}

// SuggestCostCodes ranks active cost codes for a free-text description
func (l *Ledger) SuggestCostCodes(ctx context.Context, description string, limit int) ([]costing.Suggestion, error) {
	codes, err := l.codes.FindAll(ctx, costing.CostCodeFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return costing.Suggest(codes, description, limit), nil
}

// GetCostCodeHierarchy returns the division, category and subcategory tree of active codes
func (l *Ledger) GetCostCodeHierarchy(ctx context.Context) ([]*costing.HierarchyNode, error) {
	codes, err := l.codes.FindAll(ctx, costing.CostCodeFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	return costing.BuildHierarchy(codes), nil
}
