package consolidation

import (
	"time"

	"idhub/internal/consolidation/providers"
	"idhub/internal/matching"
)

// Severity grades how foundational a field disagreement is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityWeights feed the consistency dimension of data quality. Each
// conflict erodes consistency in proportion to its severity.
var severityWeights = map[Severity]float64{
	SeverityLow:      0.05,
	SeverityMedium:   0.10,
	SeverityHigh:     0.15,
	SeverityCritical: 0.25,
}

// sourceAuthority ranks how much trust a source carries when arbitrating
// conflicting field values. Birth certificate (civil registry) outranks
// passport, which outranks the national registry; enrollment intake is
// self-reported and ranks lowest.
var sourceAuthority = map[string]float64{
	string(providers.RegistryCivil):       1.0,
	string(providers.RegistryImmigration): 0.9,
	string(providers.RegistryNational):    0.8,
	string(providers.RegistryVehicle):     0.7,
	string(providers.RegistryElections):   0.6,
	string(providers.RegistryPolice):      0.5,
	SourceIntake:                          0.4,
}

// SourceIntake labels self-reported request values in conflict output.
const SourceIntake = "intake"

// authorityOrder lists sources in descending authority so consensus
// tie-breaks stay deterministic.
var authorityOrder = []string{
	string(providers.RegistryCivil),
	string(providers.RegistryImmigration),
	string(providers.RegistryNational),
	string(providers.RegistryVehicle),
	string(providers.RegistryElections),
	string(providers.RegistryPolice),
	SourceIntake,
}

// ScoredValue is one source's value for a disputed field, with the source's
// authority weight. Ephemeral: built per comparison, retained only inside the
// Conflict that reports it.
type ScoredValue struct {
	Source string  `json:"source"`
	Value  string  `json:"value"`
	Weight float64 `json:"weight"`
}

// Conflict reports a detected disagreement between sources on one field.
//
// Invariants:
//   - Sources lists only values that were actually present in at least two
//     source records (counting intake)
//   - Severity correlates with how foundational the field is: date of birth
//     and gender are critical-eligible, full name tops out at medium
//   - Immutable after creation: downstream resolution produces a
//     ConflictDecision, it never mutates the Conflict
type Conflict struct {
	Field          string        `json:"field"`
	Sources        []ScoredValue `json:"sources"`
	Severity       Severity      `json:"severity"`
	SuggestedValue string        `json:"suggested_value,omitempty"`
	Reason         string        `json:"reason"`
}

// RecommendationKind classifies machine-generated advice.
type RecommendationKind string

const (
	RecommendationCorrection RecommendationKind = "correction"
	RecommendationMerge      RecommendationKind = "merge"
	RecommendationFlag       RecommendationKind = "flag"
	RecommendationVerify     RecommendationKind = "verify"
)

// Recommendation is advisory output produced alongside conflicts but
// independent of them: minor name variants yield a verify recommendation
// with no matching conflict.
type Recommendation struct {
	Kind           RecommendationKind `json:"kind"`
	Field          string             `json:"field"`
	CurrentValue   string             `json:"current_value"`
	SuggestedValue string             `json:"suggested_value"`
	Confidence     float64            `json:"confidence"`
	Reasoning      string             `json:"reasoning"`
	Sources        []string           `json:"sources"`
}

// DataQuality blends completeness, consistency and accuracy. Overall is
// always the unweighted mean of the other three; it is derived, never set
// independently.
type DataQuality struct {
	Completeness float64 `json:"completeness"`
	Consistency  float64 `json:"consistency"`
	Accuracy     float64 `json:"accuracy"`
	Overall      float64 `json:"overall"`
}

// MatchScores carries the independent scores and their aggregation.
type MatchScores struct {
	Biometric   *float64 `json:"biometric,omitempty"`
	Demographic float64  `json:"demographic"`
	Document    float64  `json:"document"`
	Overall     float64  `json:"overall"`
}

// ConsolidatedProfile is the unified per-request view merging all provider
// records for one identity candidate. Constructed once per consolidation
// request and read-only afterward; it is a view, not a stored entity, and
// carries no identity of its own.
type ConsolidatedProfile struct {
	Name            string                                      `json:"name"`
	DateOfBirth     string                                      `json:"date_of_birth"`
	Records         map[providers.RegistryType]*providers.Record `json:"records"`
	LinkedRecords   []string                                    `json:"linked_records"`
	Scores          MatchScores                                 `json:"scores"`
	Quality         DataQuality                                 `json:"quality"`
	Conflicts       []Conflict                                  `json:"conflicts"`
	Recommendations []Recommendation                            `json:"recommendations"`
	ProviderErrors  map[string]string                           `json:"provider_errors,omitempty"`
	GeneratedAt     time.Time                                   `json:"generated_at"`
}

// Request is the consolidation input. Name and DateOfBirth are required;
// everything else narrows or enriches the search.
type Request struct {
	Name            string                                 `json:"name"`
	DateOfBirth     string                                 `json:"date_of_birth"`
	Phone           string                                 `json:"phone,omitempty"`
	NationalID      string                                 `json:"national_id,omitempty"`
	DocumentNumbers map[providers.RegistryType]string      `json:"document_numbers,omitempty"`
	Biometric       *matching.BiometricEvidence            `json:"biometric,omitempty"`
}

// Bundle is the per-request working set fed into the scoring and conflict
// rules: the self-reported intake values plus whatever the registries
// returned. Owned by the orchestrator for the duration of one request.
type Bundle struct {
	IntakeName string
	IntakeDOB  string
	Records    map[providers.RegistryType]*providers.Record
}

// fieldValues collects (source, value, weight) tuples for one canonical
// field across all sources, in descending authority order. Intake
// contributes only for the fields it actually supplies.
func (b Bundle) fieldValues(field string) []matching.ScoredField[string] {
	var items []matching.ScoredField[string]
	for _, source := range authorityOrder {
		var value string
		if source == SourceIntake {
			switch field {
			case providers.FieldFullName:
				value = b.IntakeName
			case providers.FieldDateOfBirth:
				value = b.IntakeDOB
			}
		} else if r, ok := b.Records[providers.RegistryType(source)]; ok {
			value = r.Field(field)
		}
		if value == "" {
			continue
		}
		items = append(items, matching.ScoredField[string]{
			Source: source,
			Value:  value,
			Weight: sourceAuthority[source],
		})
	}
	return items
}

// ConflictDecision records a human arbitration of a Conflict. Decisions are
// append-only audit records; the Conflict itself is never mutated.
type ConflictDecision struct {
	ID          string    `json:"id"`
	Field       string    `json:"field"`
	ChosenValue string    `json:"chosen_value"`
	DecidedBy   string    `json:"decided_by"`
	Reason      string    `json:"reason"`
	DecidedAt   time.Time `json:"decided_at"`
}
