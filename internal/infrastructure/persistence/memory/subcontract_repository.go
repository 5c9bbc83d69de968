package memory

import (
	"context"
	"strings"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/google/uuid"
)

// SubcontractRepository implements subcontract.SubcontractRepository on the memory store
type SubcontractRepository struct {
	store *Store
}

// NewSubcontractRepository creates a new SubcontractRepository
func NewSubcontractRepository(store *Store) *SubcontractRepository {
	return &SubcontractRepository{store: store}
}

// FindByID finds a subcontract by ID
func (r *SubcontractRepository) FindByID(ctx context.Context, id uuid.UUID) (*subcontract.Subcontract, error) {
	sc, ok := r.store.read(ctx).subcontracts.get(id)
	if !ok {
		return nil, nil
	}
	return sc.Clone(), nil
}

// FindAll returns subcontracts matching the filter, oldest first
func (r *SubcontractRepository) FindAll(ctx context.Context, filter subcontract.SubcontractFilter) ([]subcontract.Subcontract, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	result := make([]subcontract.Subcontract, 0)
	r.store.read(ctx).subcontracts.each(func(sc *subcontract.Subcontract) bool {
		switch {
		case filter.ProjectID != nil && sc.ProjectID != *filter.ProjectID:
		case filter.SubcontractorID != nil && sc.SubcontractorID != *filter.SubcontractorID:
		case filter.Status != nil && sc.Status != *filter.Status:
		case search != "" && !strings.Contains(strings.ToLower(sc.ContractNumber+" "+sc.Title+" "+sc.SubcontractorName), search):
		default:
			result = append(result, *sc.Clone())
		}
		return true
	})
	return shared.Paginate(result, filter.Filter), nil
}

// FindByProject returns every subcontract of a project
func (r *SubcontractRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]subcontract.Subcontract, error) {
	return r.FindAll(ctx, subcontract.SubcontractFilter{ProjectID: &projectID})
}

// CountByNumberPrefix counts contracts whose number starts with prefix
func (r *SubcontractRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int, error) {
	count := 0
	r.store.read(ctx).subcontracts.each(func(sc *subcontract.Subcontract) bool {
		if strings.HasPrefix(sc.ContractNumber, prefix) {
			count++
		}
		return true
	})
	return count, nil
}

// Save creates or updates a subcontract
func (r *SubcontractRepository) Save(ctx context.Context, sc *subcontract.Subcontract) error {
	stored := sc.Clone()
	stored.ClearDomainEvents()
	return r.store.write(ctx, func(t *tables) error {
		t.subcontracts.put(stored.ID, stored)
		return nil
	})
}

// Delete removes a subcontract
func (r *SubcontractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.write(ctx, func(t *tables) error {
		if !t.subcontracts.remove(id) {
			return shared.NewNotFoundError("Subcontract")
		}
		return nil
	})
}

var _ subcontract.SubcontractRepository = (*SubcontractRepository)(nil)
