package costing

import (
	"strings"

	"github.com/erp/jobcost/internal/domain/shared"
)

// CostCodeType represents the kind of cost a code buckets
type CostCodeType string

const (
	CostCodeTypeLabor       CostCodeType = "labor"
	CostCodeTypeMaterial    CostCodeType = "material"
	CostCodeTypeEquipment   CostCodeType = "equipment"
	CostCodeTypeSubcontract CostCodeType = "subcontract"
	CostCodeTypeOther       CostCodeType = "other"
)

// IsValid checks if the type is a valid CostCodeType
func (t CostCodeType) IsValid() bool {
	switch t {
	case CostCodeTypeLabor, CostCodeTypeMaterial, CostCodeTypeEquipment,
		CostCodeTypeSubcontract, CostCodeTypeOther:
		return true
	}
	return false
}

// String returns the string representation of CostCodeType
func (t CostCodeType) String() string {
	return string(t)
}

// CostCode is a Work Breakdown Structure classification unit.
// The code itself is immutable once created.
type CostCode struct {
	shared.BaseAggregateRoot
	Code          string       `json:"code"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Division      string       `json:"division"`
	Category      string       `json:"category"`
	Subcategory   string       `json:"subcategory"`
	Type          CostCodeType `json:"type"`
	UnitOfMeasure string       `json:"unit_of_measure"`
	Tags          []string     `json:"tags"`
	IsActive      bool         `json:"is_active"`
	IsDefault     bool         `json:"is_default"`
}

// CostCodeSpec carries the attributes used to create a cost code
type CostCodeSpec struct {
	Code          string
	Name          string
	Description   string
	Division      string
	Category      string
	Subcategory   string
	Type          CostCodeType
	UnitOfMeasure string
	Tags          []string
	IsDefault     bool
}

// NewCostCode creates a new active cost code
func NewCostCode(spec CostCodeSpec) (*CostCode, error) {
	code := strings.TrimSpace(spec.Code)
	if code == "" {
		return nil, shared.NewValidationError("Cost code is required")
	}
	if len(code) > 30 {
		return nil, shared.NewValidationError("Cost code cannot exceed 30 characters")
	}
	if strings.TrimSpace(spec.Name) == "" {
		return nil, shared.NewValidationError("Cost code name is required")
	}
	if strings.TrimSpace(spec.Division) == "" {
		return nil, shared.NewValidationError("Cost code division is required")
	}
	if !spec.Type.IsValid() {
		return nil, shared.NewValidationError("Cost code type must be one of labor, material, equipment, subcontract, other")
	}

	cc := &CostCode{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              strings.TrimSpace(spec.Name),
		Description:       spec.Description,
		Division:          spec.Division,
		Category:          spec.Category,
		Subcategory:       spec.Subcategory,
		Type:              spec.Type,
		UnitOfMeasure:     spec.UnitOfMeasure,
		Tags:              normalizeTags(spec.Tags),
		IsActive:          true,
		IsDefault:         spec.IsDefault,
	}

	cc.AddDomainEvent(NewCostCodeCreatedEvent(cc))

	return cc, nil
}

// Update changes the descriptive attributes of the cost code
func (c *CostCode) Update(name, description, unitOfMeasure string, tags []string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewValidationError("Cost code name is required")
	}
	c.Name = strings.TrimSpace(name)
	c.Description = description
	c.UnitOfMeasure = unitOfMeasure
	c.Tags = normalizeTags(tags)
	c.Touch()
	c.IncrementVersion()
	return nil
}

// Activate marks the cost code as usable for new classifications
func (c *CostCode) Activate() {
	c.IsActive = true
	c.Touch()
}

// Deactivate hides the cost code from suggestions and the hierarchy
func (c *CostCode) Deactivate() {
	c.IsActive = false
	c.Touch()
}

// Clone returns a deep copy safe to hand across the repository boundary
func (c *CostCode) Clone() *CostCode {
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	return &cp
}

func normalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			result = append(result, t)
		}
	}
	return result
}
