package costing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogFixture(t *testing.T) []CostCode {
	t.Helper()
	specs := []CostCodeSpec{
		{Code: "03-300", Name: "Concrete", Description: "Ready-mix supply and pour", Division: "03 Concrete",
			Type: CostCodeTypeMaterial, Tags: []string{"concrete", "pour"}},
		{Code: "03-200", Name: "Reinforcement", Description: "Rebar supply", Division: "03 Concrete",
			Type: CostCodeTypeMaterial, Tags: []string{"rebar"}},
		{Code: "26-100", Name: "Electrical Wiring", Description: "Conduit and wire", Division: "26 Electrical",
			Type: CostCodeTypeSubcontract, Tags: []string{"electrical", "wire"}},
		{Code: "26-200", Name: "Electrical Fixtures", Description: "Lighting fixtures", Division: "26 Electrical",
			Type: CostCodeTypeSubcontract, Tags: []string{"electrical"}},
	}
	codes := make([]CostCode, 0, len(specs))
	for _, s := range specs {
		cc, err := NewCostCode(s)
		require.NoError(t, err)
		codes = append(codes, *cc)
	}
	return codes
}

func TestScoreCostCode(t *testing.T) {
	codes := catalogFixture(t)

	// name contains whole description (+10), "concrete" word in name (+2), tag "concrete" (+5)
	assert.Equal(t, 17, ScoreCostCode(codes[0], "concrete"))

	// "rebar" and "supply" match the description (+2 each), tag "rebar" (+5); "for" is too short
	assert.Equal(t, 9, ScoreCostCode(codes[1], "rebar supply for deck"))

	assert.Equal(t, 0, ScoreCostCode(codes[2], "asphalt"))
}

func TestSuggest_RanksByScore(t *testing.T) {
	codes := catalogFixture(t)

	result := Suggest(codes, "Concrete pour for foundation", 5)
	require.NotEmpty(t, result)
	assert.Equal(t, "03-300", result[0].CostCode.Code)
	for _, s := range result {
		assert.Positive(t, s.Score)
	}
}

func TestSuggest_CaseInsensitive(t *testing.T) {
	codes := catalogFixture(t)

	result := Suggest(codes, "REBAR DELIVERY", 5)
	require.Len(t, result, 1)
	assert.Equal(t, "03-200", result[0].CostCode.Code)
}

func TestSuggest_StableTies(t *testing.T) {
	codes := catalogFixture(t)

	// Both electrical codes score the same tag match; catalog order is kept.
	result := Suggest(codes, "electrical", 5)
	require.Len(t, result, 2)
	assert.Equal(t, "26-100", result[0].CostCode.Code)
	assert.Equal(t, "26-200", result[1].CostCode.Code)
	assert.Equal(t, result[0].Score, result[1].Score)
}

func TestSuggest_LimitAndInactive(t *testing.T) {
	codes := catalogFixture(t)
	codes[2].IsActive = false

	result := Suggest(codes, "electrical", 5)
	require.Len(t, result, 1)
	assert.Equal(t, "26-200", result[0].CostCode.Code)

	codes[2].IsActive = true
	assert.Len(t, Suggest(codes, "electrical", 1), 1)
}

func TestSuggest_EmptyDescription(t *testing.T) {
	assert.Empty(t, Suggest(catalogFixture(t), "   ", 5))
}

func TestBuildHierarchy(t *testing.T) {
	specs := []CostCodeSpec{
		{Code: "A1", Name: "A1", Division: "01", Category: "Supervision", Type: CostCodeTypeLabor},
		{Code: "A2", Name: "A2", Division: "01", Category: "Site", Subcategory: "Equipment", Type: CostCodeTypeEquipment},
		{Code: "A3", Name: "A3", Division: "01", Category: "Site", Type: CostCodeTypeOther},
		{Code: "B1", Name: "B1", Division: "03", Category: "Formwork", Type: CostCodeTypeMaterial},
		{Code: "Z1", Name: "Z1", Division: "99", Type: CostCodeTypeOther},
		{Code: "X1", Name: "X1", Division: "50", Type: CostCodeTypeOther},
	}
	codes := make([]CostCode, 0, len(specs))
	for _, s := range specs {
		cc, err := NewCostCode(s)
		require.NoError(t, err)
		codes = append(codes, *cc)
	}
	codes[5].IsActive = false

	tree := BuildHierarchy(codes)
	require.Len(t, tree, 3)
	assert.Equal(t, "01", tree[0].Name)
	assert.Equal(t, "03", tree[1].Name)
	assert.Equal(t, "99", tree[2].Name)

	div01 := tree[0]
	require.Len(t, div01.Children, 2)
	assert.Equal(t, "Supervision", div01.Children[0].Name)
	site := div01.Children[1]
	assert.Equal(t, "Site", site.Name)
	require.Len(t, site.CostCodes, 1)
	assert.Equal(t, "A3", site.CostCodes[0].Code)
	require.Len(t, site.Children, 1)
	assert.Equal(t, "Equipment", site.Children[0].Name)
	assert.Equal(t, "A2", site.Children[0].CostCodes[0].Code)

	require.Len(t, tree[2].CostCodes, 1)
	assert.Equal(t, "Z1", tree[2].CostCodes[0].Code)
}
