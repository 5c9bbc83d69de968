package costing

import (
	"context"
	"io"

	"github.com/erp/jobcost/internal/domain/audit"
	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/erp/jobcost/internal/domain/shared"
	csvimport "github.com/erp/jobcost/internal/infrastructure/import"
	"go.uber.org/zap"
)

// maxImportErrors caps the row errors reported back from an import
const maxImportErrors = 100

// SeedDefaultCatalog loads the built-in catalog into an empty catalog and
// returns the number of codes created. A populated catalog is left alone.
func (l *Ledger) SeedDefaultCatalog(ctx context.Context) (int, error) {
	created := 0
	err := l.run(ctx, func(ctx context.Context) error {
		count, err := l.codes.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		for _, spec := range costing.DefaultCatalog() {
			if _, err := l.createCostCode(ctx, spec); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if created > 0 {
		l.logger.Info("default cost code catalog seeded", zap.Int("count", created))
	}
	return created, nil
}

// ImportCatalog adds the cost codes of a CSV catalog file. Rows that fail
// validation are reported, codes already in the catalog are skipped, and the
// valid remainder is created in one transaction.
func (l *Ledger) ImportCatalog(ctx context.Context, r io.Reader, actor shared.Actor) (*CatalogImportResult, error) {
	parsed, err := csvimport.ParseCatalog(r, maxImportErrors)
	if err != nil {
		return nil, shared.NewValidationError("Invalid catalog file", err.Error())
	}

	result := &CatalogImportResult{
		TotalRows:   parsed.TotalRows,
		ErrorRows:   parsed.Errors.TotalCount(),
		Errors:      parsed.Errors.Errors(),
		IsTruncated: parsed.Errors.IsTruncated(),
	}

	err = l.run(ctx, func(ctx context.Context) error {
		for _, rec := range parsed.Records {
			existing, err := l.codes.FindByCode(ctx, rec.Spec.Code)
			if err != nil {
				return err
			}
			if existing != nil {
				result.SkippedRows++
				continue
			}
			cc, err := l.createCostCode(ctx, rec.Spec)
			if err != nil {
				if shared.IsValidation(err) {
					result.ErrorRows++
					result.Errors = append(result.Errors, csvimport.RowError{
						Row:     rec.Line,
						Code:    csvimport.ErrCodeImportInvalidValue,
						Message: err.Error(),
						Value:   rec.Spec.Code,
					})
					continue
				}
				return err
			}
			result.ImportedRows++

			if _, err := l.audit.Log(ctx, audit.LogRequest{
				Action:      audit.ActionCostCodeCreated,
				EntityType:  entityCostCode,
				EntityID:    cc.ID,
				EntityName:  cc.Code,
				Actor:       actor,
				Description: "Imported cost code " + cc.Code + " " + cc.Name,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("cost code catalog imported",
		zap.Int("total_rows", result.TotalRows),
		zap.Int("imported", result.ImportedRows),
		zap.Int("skipped", result.SkippedRows),
		zap.Int("errors", result.ErrorRows),
	)
	return result, nil
}
