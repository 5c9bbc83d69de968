package costing

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Suggestion scoring weights
const (
	scoreNameMatch = 10
	scoreWordMatch = 2
	scoreTagMatch  = 5

	minWordLength = 4

	// DefaultSuggestionLimit is used when the caller passes a non-positive limit
	DefaultSuggestionLimit = 5
)

// Suggestion is a scored cost-code match for a free-text description
type Suggestion struct {
	CostCode CostCode `json:"cost_code"`
	Score    int      `json:"score"`
}

// ScoreCostCode scores one cost code against a case-folded description:
// +10 when the name contains the whole description, +2 for every description
// word longer than three characters found in the name or description, and +5
// for every tag that appears in the description.
func ScoreCostCode(cc CostCode, foldedDescription string) int {
	caser := cases.Fold()
	name := caser.String(cc.Name)
	desc := caser.String(cc.Description)

	score := 0
	if strings.Contains(name, foldedDescription) {
		score += scoreNameMatch
	}
	for _, word := range strings.Fields(foldedDescription) {
		if utf8.RuneCountInString(word) < minWordLength {
			continue
		}
		if strings.Contains(name, word) || strings.Contains(desc, word) {
			score += scoreWordMatch
		}
	}
	for _, tag := range cc.Tags {
		t := caser.String(tag)
		if t != "" && strings.Contains(foldedDescription, t) {
			score += scoreTagMatch
		}
	}
	return score
}

// Suggest ranks active cost codes for a description. Only non-zero scores are
// returned; equal scores keep catalog order.
func Suggest(codes []CostCode, description string, limit int) []Suggestion {
	folded := strings.TrimSpace(cases.Fold().String(description))
	if folded == "" {
		return []Suggestion{}
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	matches := make([]Suggestion, 0)
	for _, cc := range codes {
		if !cc.IsActive {
			continue
		}
		if score := ScoreCostCode(cc, folded); score > 0 {
			matches = append(matches, Suggestion{CostCode: cc, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
