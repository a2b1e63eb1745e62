package consolidation

import (
	"fmt"
	"strings"

	"idhub/internal/consolidation/providers"
	"idhub/internal/matching"
)

// Conflict detection thresholds. The critical-field checks only engage below
// criticalCheckConfidence: above it the aggregate evidence already vouches
// for the match and residual field noise is not worth surfacing. Name
// mismatches need corroborating doubt (confidence below nameConflictConfidence)
// before they become conflicts at all.
const (
	criticalCheckConfidence = 0.7
	nameConflictConfidence  = 0.8
	nameConflictSimilarity  = 0.7
	nameVerifySimilarity    = 0.95
)

// criticalFields are checked for hard disagreement. Date of birth and gender
// are foundational: two sources disagreeing on either is critical-eligible.
var criticalFields = []string{
	providers.FieldDateOfBirth,
	providers.FieldGender,
}

// DetectConflicts compares field values across the bundle's sources under
// the aggregated confidence and emits conflicts plus independent
// recommendations.
//
// Rule priority:
//  1. Critical fields (date of birth, gender): checked only when overall
//     confidence < 0.7; more than one distinct value is a critical conflict
//     with a consensus suggested value.
//  2. Full name: a bare name mismatch must never alone prove two different
//     persons. Similarity < 0.7 becomes a medium conflict only when
//     confidence < 0.8 corroborates it, and always yields a correction
//     recommendation. Similarity in [0.7, 0.95) is a minor variant: verify
//     recommendation only, no conflict. At or above 0.95, nothing.
//
// Pure domain logic - no I/O, no side effects.
func DetectConflicts(bundle Bundle, confidence float64) ([]Conflict, []Recommendation) {
	var conflicts []Conflict
	var recommendations []Recommendation

	if confidence < criticalCheckConfidence {
		for _, field := range criticalFields {
			if c, ok := detectCriticalConflict(bundle, field); ok {
				conflicts = append(conflicts, c)
			}
		}
	}

	nameConflict, nameRec, hasConflict, hasRec := detectNameDisagreement(bundle, confidence)
	if hasConflict {
		conflicts = append(conflicts, nameConflict)
	}
	if hasRec {
		recommendations = append(recommendations, nameRec)
	}

	return conflicts, recommendations
}

// detectCriticalConflict emits a critical conflict when sources disagree on
// a foundational field.
func detectCriticalConflict(bundle Bundle, field string) (Conflict, bool) {
	items := bundle.fieldValues(field)
	if len(items) < 2 || distinctValues(items) < 2 {
		return Conflict{}, false
	}

	suggested, _ := matching.Resolve(items)
	supporters := matching.Supporters(items, suggested)

	return Conflict{
		Field:          field,
		Sources:        toScoredValues(items),
		Severity:       SeverityCritical,
		SuggestedValue: suggested,
		Reason: fmt.Sprintf("%d sources disagree on %s; %q carries the greatest source authority (%s)",
			len(items), field, suggested, strings.Join(supporters, ", ")),
	}, true
}

// detectNameDisagreement applies the name severity policy.
func detectNameDisagreement(bundle Bundle, confidence float64) (Conflict, Recommendation, bool, bool) {
	items := bundle.fieldValues(providers.FieldFullName)
	if len(items) < 2 {
		return Conflict{}, Recommendation{}, false, false
	}

	similarity := minPairwiseSimilarity(items)
	if similarity >= nameVerifySimilarity {
		return Conflict{}, Recommendation{}, false, false
	}

	suggested, _ := matching.Resolve(items)
	sources := make([]string, 0, len(items))
	for _, item := range items {
		sources = append(sources, item.Source)
	}

	if similarity >= nameConflictSimilarity {
		// Minor variant, e.g. an added middle initial: flag for human
		// verification, do not call it a conflict.
		rec := Recommendation{
			Kind:           RecommendationVerify,
			Field:          providers.FieldFullName,
			CurrentValue:   firstValue(items),
			SuggestedValue: suggested,
			Confidence:     similarity,
			Reasoning:      fmt.Sprintf("name variants are %.0f%% similar; likely the same person with a formatting difference", similarity*100),
			Sources:        sources,
		}
		return Conflict{}, rec, false, true
	}

	rec := Recommendation{
		Kind:           RecommendationCorrection,
		Field:          providers.FieldFullName,
		CurrentValue:   firstValue(items),
		SuggestedValue: suggested,
		Confidence:     1 - similarity,
		Reasoning:      fmt.Sprintf("name variants are only %.0f%% similar; the highest-authority value should replace the others", similarity*100),
		Sources:        sources,
	}

	if confidence >= nameConflictConfidence {
		// High aggregate confidence: the mismatch alone does not prove
		// two different persons. Recommendation only.
		return Conflict{}, rec, false, true
	}

	conflict := Conflict{
		Field:          providers.FieldFullName,
		Sources:        toScoredValues(items),
		Severity:       SeverityMedium,
		SuggestedValue: suggested,
		Reason: fmt.Sprintf("name similarity %.2f across %d sources with overall confidence %.2f",
			similarity, len(items), confidence),
	}
	return conflict, rec, true, true
}

func minPairwiseSimilarity(items []matching.ScoredField[string]) float64 {
	lowest := 1.0
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if s := matching.Similarity(items[i].Value, items[j].Value); s < lowest {
				lowest = s
			}
		}
	}
	return lowest
}

func distinctValues(items []matching.ScoredField[string]) int {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		seen[item.Value] = struct{}{}
	}
	return len(seen)
}

func toScoredValues(items []matching.ScoredField[string]) []ScoredValue {
	out := make([]ScoredValue, 0, len(items))
	for _, item := range items {
		out = append(out, ScoredValue{Source: item.Source, Value: item.Value, Weight: item.Weight})
	}
	return out
}

func firstValue(items []matching.ScoredField[string]) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].Value
}
