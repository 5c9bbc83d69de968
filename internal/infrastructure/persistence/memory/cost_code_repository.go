package memory

import (
	"context"
	"strings"

	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
)

// CostCodeRepository implements costing.CostCodeRepository on the memory store
type CostCodeRepository struct {
	store *Store
}

// NewCostCodeRepository creates a new CostCodeRepository
func NewCostCodeRepository(store *Store) *CostCodeRepository {
	return &CostCodeRepository{store: store}
}

// FindByID finds a cost code by ID
func (r *CostCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*costing.CostCode, error) {
	cc, ok := r.store.read(ctx).costCodes.get(id)
	if !ok {
		return nil, nil
	}
	return cc.Clone(), nil
}

// FindByCode finds a cost code by its code, case-sensitively
func (r *CostCodeRepository) FindByCode(ctx context.Context, code string) (*costing.CostCode, error) {
	var found *costing.CostCode
	r.store.read(ctx).costCodes.each(func(cc *costing.CostCode) bool {
		if cc.Code == code {
			found = cc.Clone()
			return false
		}
		return true
	})
	return found, nil
}

// FindAll returns the cost codes matching the filter in catalog order
func (r *CostCodeRepository) FindAll(ctx context.Context, filter costing.CostCodeFilter) ([]costing.CostCode, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]costing.CostCode, 0)
	r.store.read(ctx).costCodes.each(func(cc *costing.CostCode) bool {
		switch {
		case filter.ActiveOnly && !cc.IsActive:
		case filter.Type != nil && cc.Type != *filter.Type:
		case filter.Division != "" && cc.Division != filter.Division:
		case search != "" && !matchesCostCodeSearch(cc, search):
		default:
			result = append(result, *cc.Clone())
		}
		return true
	})
	return shared.Paginate(result, filter.Filter), nil
}

func matchesCostCodeSearch(cc *costing.CostCode, search string) bool {
	return strings.Contains(strings.ToLower(cc.Code), search) ||
		strings.Contains(strings.ToLower(cc.Name), search) ||
		strings.Contains(strings.ToLower(cc.Description), search)
}

// Save creates or updates a cost code
func (r *CostCodeRepository) Save(ctx context.Context, costCode *costing.CostCode) error {
	stored := costCode.Clone()
	stored.ClearDomainEvents()
	return r.store.write(ctx, func(t *tables) error {
		t.costCodes.put(stored.ID, stored)
		return nil
	})
}

// Delete removes a cost code
func (r *CostCodeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(ctx, func(t *tables) error {
		if !t.costCodes.remove(id) {
			return shared.NewNotFoundError("Cost code")
		}
		return nil
	})
}

// Count returns the size of the catalog
func (r *CostCodeRepository) Count(ctx context.Context) (int64, error) {
	return int64(r.store.read(ctx).costCodes.len()), nil
}

var _ costing.CostCodeRepository = (*CostCodeRepository)(nil)
