package subcontract

import (
	"context"
	"fmt"

	"github.com/erp/jobcost/internal/domain/shared"
	"github.com/google/uuid"
)

// SubcontractFilter defines filtering options for subcontract queries
type SubcontractFilter struct {
	shared.Filter
	ProjectID       *uuid.UUID
	SubcontractorID *uuid.UUID
	Status          *SubcontractStatus
}

// CertificateFilter defines filtering options for certificate queries
type CertificateFilter struct {
	shared.Filter
	ProjectID     *uuid.UUID
	SubcontractID *uuid.UUID
	Status        *CertificateStatus
}

// SubcontractRepository defines the interface for subcontract persistence
type SubcontractRepository interface {
	// FindByID finds a subcontract by ID, returning nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*Subcontract, error)

	// FindAll returns subcontracts matching the filter, oldest first
	FindAll(ctx context.Context, filter SubcontractFilter) ([]Subcontract, error)

	// FindByProject returns every subcontract of a project
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]Subcontract, error)

	// CountByNumberPrefix counts contracts whose number starts with prefix
	CountByNumberPrefix(ctx context.Context, prefix string) (int, error)

	// Save creates or updates a subcontract
	Save(ctx context.Context, sc *Subcontract) error

	// Delete removes a subcontract
	Delete(ctx context.Context, id uuid.UUID) error
}

// CertificateRepository defines the interface for progress certificate persistence
type CertificateRepository interface {
	// FindByID finds a certificate by ID, returning nil when absent
	FindByID(ctx context.Context, id uuid.UUID) (*ProgressCertificate, error)

	// FindAll returns certificates matching the filter, oldest first
	FindAll(ctx context.Context, filter CertificateFilter) ([]ProgressCertificate, error)

	// FindBySubcontract returns the certificates of one subcontract, oldest first
	FindBySubcontract(ctx context.Context, subcontractID uuid.UUID) ([]ProgressCertificate, error)

	// FindByProject returns every certificate of a project
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]ProgressCertificate, error)

	// Save creates or updates a certificate
	Save(ctx context.Context, cert *ProgressCertificate) error

	// DeleteBySubcontract removes every certificate of a subcontract
	DeleteBySubcontract(ctx context.Context, subcontractID uuid.UUID) error
}

// ContractNumberPrefix returns the numbering prefix for a year, e.g. "SC-2026-"
func ContractNumberPrefix(year int) string {
	return fmt.Sprintf("SC-%d-", year)
}

// FormatContractNumber formats a contract number such as SC-2026-007
func FormatContractNumber(year, seq int) string {
	return fmt.Sprintf("%s%03d", ContractNumberPrefix(year), seq)
}

// FormatCertificateNumber formats a certificate number such as SC-2026-007-PC03
func FormatCertificateNumber(contractNumber string, seq int) string {
	return fmt.Sprintf("%s-PC%02d", contractNumber, seq)
}
