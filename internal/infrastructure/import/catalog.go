package csvimport

import (
	"fmt"
	"io"
	"strings"

	"github.com/erp/jobcost/internal/domain/costing"
)

// Catalog CSV columns
const (
	ColumnCode        = "code"
	ColumnName        = "name"
	ColumnDescription = "description"
	ColumnDivision    = "division"
	ColumnCategory    = "category"
	ColumnSubcategory = "subcategory"
	ColumnType        = "type"
	ColumnUnit        = "unit"
	ColumnTags        = "tags"
)

var requiredCatalogColumns = []string{ColumnCode, ColumnName, ColumnDivision, ColumnType}

// CatalogRecord is one cost code read from a catalog file
type CatalogRecord struct {
	Line int
	Spec costing.CostCodeSpec
}

// CatalogResult is the outcome of parsing a catalog file
type CatalogResult struct {
	Records   []CatalogRecord
	TotalRows int
	Errors    *ErrorCollection
}

// ParseCatalog reads a cost code catalog with the header
// code,name,description,division,category,subcategory,type,unit,tags.
// Tags are separated by ';' or '|'. Invalid rows are reported in Errors and
// skipped; a file-level problem is returned as error.
func ParseCatalog(r io.Reader, maxErrors int) (*CatalogResult, error) {
	parser, err := NewCSVParser(r)
	if err != nil {
		return nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, err
	}
	if missing := parser.ValidateHeaders(requiredCatalogColumns); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrMissingHeader, strings.Join(missing, ", "))
	}

	result := &CatalogResult{
		Records: make([]CatalogRecord, 0),
		Errors:  NewErrorCollection(maxErrors),
	}
	seen := make(map[string]bool)

	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.TotalRows++
			result.Errors.Add(RowError{Row: parser.currentRow, Code: ErrCodeImportMalformedRow, Message: err.Error()})
			continue
		}
		if row.IsEmpty() {
			continue
		}
		result.TotalRows++

		rec, ok := catalogRecord(row, result.Errors)
		if !ok {
			continue
		}
		if seen[rec.Spec.Code] {
			result.Errors.AddDuplicateError(row.LineNumber, ColumnCode, rec.Spec.Code)
			continue
		}
		seen[rec.Spec.Code] = true
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func catalogRecord(row *Row, errs *ErrorCollection) (CatalogRecord, bool) {
	ok := true
	for _, col := range requiredCatalogColumns {
		if row.Get(col) == "" {
			errs.AddRequiredError(row.LineNumber, col)
			ok = false
		}
	}

	typ := costing.CostCodeType(strings.ToLower(row.Get(ColumnType)))
	if row.Get(ColumnType) != "" && !typ.IsValid() {
		errs.Add(RowError{
			Row:     row.LineNumber,
			Column:  ColumnType,
			Code:    ErrCodeImportInvalidValue,
			Message: "type must be one of labor, material, equipment, subcontract, other",
			Value:   row.Get(ColumnType),
		})
		ok = false
	}
	if !ok {
		return CatalogRecord{}, false
	}

	return CatalogRecord{
		Line: row.LineNumber,
		Spec: costing.CostCodeSpec{
			Code:          row.Get(ColumnCode),
			Name:          row.Get(ColumnName),
			Description:   row.Get(ColumnDescription),
			Division:      row.Get(ColumnDivision),
			Category:      row.Get(ColumnCategory),
			Subcategory:   row.Get(ColumnSubcategory),
			Type:          typ,
			UnitOfMeasure: row.Get(ColumnUnit),
			Tags:          splitTags(row.Get(ColumnTags)),
		},
	}, true
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == '|' })
}
