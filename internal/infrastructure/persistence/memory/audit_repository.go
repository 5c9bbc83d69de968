package memory

import (
	"context"

	"github.com/erp/jobcost/internal/domain/audit"
)

// AuditRepository implements audit.Repository on the memory store
type AuditRepository struct {
	store *Store
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(store *Store) *AuditRepository {
	return &AuditRepository{store: store}
}

// Append stores a new entry
func (r *AuditRepository) Append(ctx context.Context, entry *audit.Entry) error {
	stored := *entry
	stored.Changes = append([]audit.Change(nil), entry.Changes...)
	return r.store.write(ctx, func(t *tables) error {
		t.auditLog = append(t.auditLog, &stored)
		return nil
	})
}

// Find returns entries matching the filter, newest first
func (r *AuditRepository) Find(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	log := r.store.read(ctx).auditLog
	result := make([]audit.Entry, 0)
	for i := len(log) - 1; i >= 0; i-- {
		if !filter.Matches(log[i]) {
			continue
		}
		result = append(result, *log[i])
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}
	return result, nil
}

var _ audit.Repository = (*AuditRepository)(nil)
