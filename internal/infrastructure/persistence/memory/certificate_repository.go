package memory

import (
	"context"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/erp/jobcost/internal/domain/subcontract"
	"github.com/google/uuid"
)

// CertificateRepository implements subcontract.CertificateRepository on the memory store
type CertificateRepository struct {
	store *Store
}

// NewCertificateRepository creates a new CertificateRepository
func NewCertificateRepository(store *Store) *CertificateRepository {
	return &CertificateRepository{store: store}
}

// FindByID finds a certificate by ID
func (r *CertificateRepository) FindByID(ctx context.Context, id uuid.UUID) (*subcontract.ProgressCertificate, error) {
	cert, ok := r.store.read(ctx).certificates.get(id)
	if !ok {
		return nil, nil
	}
	return cert.Clone(), nil
}

// FindAll returns certificates matching the filter, oldest first
func (r *CertificateRepository) FindAll(ctx context.Context, filter subcontract.CertificateFilter) ([]subcontract.ProgressCertificate, error) {
	result := make([]subcontract.ProgressCertificate, 0)
	r.store.read(ctx).certificates.each(func(c *subcontract.ProgressCertificate) bool {
		switch {
		case filter.ProjectID != nil && c.ProjectID != *filter.ProjectID:
		case filter.SubcontractID != nil && c.SubcontractID != *filter.SubcontractID:
		case filter.Status != nil && c.Status != *filter.Status:
		default:
			result = append(result, *c.Clone())
		}
		return true
	})
	return shared.Paginate(result, filter.Filter), nil
}

// FindBySubcontract returns the certificates of one subcontract, oldest first
func (r *CertificateRepository) FindBySubcontract(ctx context.Context, subcontractID uuid.UUID) ([]subcontract.ProgressCertificate, error) {
	return r.FindAll(ctx, subcontract.CertificateFilter{SubcontractID: &subcontractID})
}

// FindByProject returns every certificate of a project
func (r *CertificateRepository) FindByProject(ctx context.Context, projectID uuid.UUID) ([]subcontract.ProgressCertificate, error) {
	return r.FindAll(ctx, subcontract.CertificateFilter{ProjectID: &projectID})
}

// Save creates or updates a certificate
func (r *CertificateRepository) Save(ctx context.Context, cert *subcontract.ProgressCertificate) error {
	stored := cert.Clone()
	stored.ClearDomainEvents()
	return r.store.write(ctx, func(t *tables) error {
		t.certificates.put(stored.ID, stored)
		return nil
	})
}

// DeleteBySubcontract removes every certificate of a subcontract
func (r *CertificateRepository) DeleteBySubcontract(ctx context.Context, subcontractID uuid.UUID) error {
	return r.store.write(ctx, func(t *tables) error {
		ids := make([]uuid.UUID, 0)
		t.certificates.each(func(c *subcontract.ProgressCertificate) bool {
			if c.SubcontractID == subcontractID {
				ids = append(ids, c.ID)
			}
			return true
		})
		for _, id := range ids {
			t.certificates.remove(id)
		}
		return nil
	})
}

var _ subcontract.CertificateRepository = (*CertificateRepository)(nil)
