package consolidation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idhub/internal/consolidation/providers"
)

func bundleWith(records map[providers.RegistryType]map[string]string) Bundle {
	b := Bundle{
		IntakeName: "John Doe",
		IntakeDOB:  "1990-05-15",
		Records:    make(map[providers.RegistryType]*providers.Record),
	}
	for registry, fields := range records {
		b.Records[registry] = &providers.Record{
			SubjectID: "S-" + string(registry),
			Fields:    fields,
			Verified:  true,
		}
	}
	return b
}

func TestAgreeingSourcesNeverConflictOnDateOfBirth(t *testing.T) {
	bundle := bundleWith(map[providers.RegistryType]map[string]string{
		providers.RegistryCivil: {
			providers.FieldFullName:    "John Doe",
			providers.FieldDateOfBirth: "1990-05-15",
		},
		providers.RegistryImmigration: {
			providers.FieldFullName:    "John Doe",
			providers.FieldDateOfBirth: "1990-05-15",
		},
	})

	// Even at rock-bottom confidence agreement is agreement.
	conflicts, recs := DetectConflicts(bundle, 0.1)
	assert.Empty(t, conflicts)
	assert.Empty(t, recs)
}

func TestDisagreeingDateOfBirthIsCritical(t *testing.T) {
	bundle := bundleWith(map[providers.RegistryType]map[string]string{
		providers.RegistryCivil: {
			providers.FieldFullName:    "John Doe",
			providers.FieldDateOfBirth: "1990-05-15",
		},
		providers.RegistryImmigration: {
			providers.FieldFullName:    "John Doe",
			providers.FieldDateOfBirth: "1990-06-15",
		},
	})

	conflicts, _ := DetectConflicts(bundle, 0.5)
	require.Len(t, conflicts, 1)

	c := conflicts[0]
	assert.Equal(t, providers.FieldDateOfBirth, c.Field)
	assert.Equal(t, SeverityCritical, c.Severity)
	// Intake sides with the civil registry, but even alone the birth
	// certificate outweighs the passport.
	assert.Equal(t, "1990-05-15", c.SuggestedValue)
	assert.Len(t, c.Sources, 3)
}

func TestHighConfidenceSuppressesCriticalChecks(t *testing.T) {
	bundle := bundleWith(map[providers.RegistryType]map[string]string{
		providers.RegistryCivil: {
			providers.FieldFullName:    "John Doe",
			providers.FieldDateOfBirth: "1990-05-15",
		},
		providers.RegistryImmigration: {
			providers.FieldFullName:    "John Doe",
			providers.FieldDateOfBirth: "1990-06-15",
		},
	})

	conflicts, _ := DetectConflicts(bundle, 0.75)
	assert.Empty(t, conflicts)
}

func TestGenderDisagreementIsCritical(t *testing.T) {
	bundle := bundleWith(map[providers.RegistryType]map[string]string{
		providers.RegistryCivil: {
			providers.FieldFullName: "John Doe",
			providers.FieldGender:   "male",
		},
		providers.RegistryNational: {
			providers.FieldFullName: "John Doe",
			providers.FieldGender:   "female",
		},
	})

	conflicts, _ := DetectConflicts(bundle, 0.5)
	require.Len(t, conflicts, 1)
	assert.Equal(t, providers.FieldGender, conflicts[0].Field)
	assert.Equal(t, SeverityCritical, conflicts[0].Severity)
	assert.Equal(t, "male", conflicts[0].SuggestedValue)
}

func TestNameVariantYieldsVerifyOnly(t *testing.T) {
	bundle := bundleWith(map[providers.RegistryType]map[string]string{
		providers.RegistryCivil: {
			providers.FieldFullName: "John M. Doe",
		},
	})

	conflicts, recs := DetectConflicts(bundle, 0.9)
	assert.Empty(t, conflicts)
	require.Len(t, recs, 1)
	assert.Equal(t, RecommendationVerify, recs[0].Kind)
	assert.Equal(t, providers.FieldFullName, recs[0].Field)
}

func TestDissimilarNamesConflictOnlyWithLowConfidence(t *testing.T) {
	records := map[providers.RegistryType]map[string]string{
		providers.RegistryCivil: {
			providers.FieldFullName: "Rachel Zubkov",
		},
	}

	lowConflicts, lowRecs := DetectConflicts(bundleWith(records), 0.5)
	require.Len(t, lowConflicts, 1)
	assert.Equal(t, SeverityMedium, lowConflicts[0].Severity)
	require.Len(t, lowRecs, 1)
	assert.Equal(t, RecommendationCorrection, lowRecs[0].Kind)

	// Strong aggregate evidence: the mismatch alone does not prove two
	// different persons, so only the recommendation survives.
	highConflicts, highRecs := DetectConflicts(bundleWith(records), 0.85)
	assert.Empty(t, highConflicts)
	require.Len(t, highRecs, 1)
	assert.Equal(t, RecommendationCorrection, highRecs[0].Kind)
}

func TestIdenticalNamesProduceNothing(t *testing.T) {
	bundle := bundleWith(map[providers.RegistryType]map[string]string{
		providers.RegistryCivil: {
			providers.FieldFullName: "John Doe",
		},
	})

	conflicts, recs := DetectConflicts(bundle, 0.5)
	assert.Empty(t, conflicts)
	assert.Empty(t, recs)
}

func TestScoreQuality(t *testing.T) {
	records := map[providers.RegistryType]*providers.Record{
		providers.RegistryNational: {SubjectID: "N-1"},
		providers.RegistryCivil:    {SubjectID: "C-1"},
	}

	q := ScoreQuality(records, nil, 0.8, 1.0)
	assert.InDelta(t, 0.4, q.Completeness, 1e-9)
	assert.InDelta(t, 0.9, q.Consistency, 1e-9)
	assert.InDelta(t, 1.0, q.Accuracy, 1e-9)
	assert.InDelta(t, (0.4+0.9+1.0)/3, q.Overall, 1e-9)
}

func TestScoreQualityConflictPenalty(t *testing.T) {
	conflicts := []Conflict{
		{Severity: SeverityCritical},
		{Severity: SeverityMedium},
	}

	q := ScoreQuality(nil, conflicts, 0.6, 0)
	assert.Zero(t, q.Completeness)
	// (1 - 0.25 - 0.10 + 0.6) / 2
	assert.InDelta(t, 0.625, q.Consistency, 1e-9)
	assert.Zero(t, q.Accuracy)
}

func TestScoreQualityConsistencyFloorsAtZero(t *testing.T) {
	conflicts := []Conflict{
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
		{Severity: SeverityCritical},
	}

	q := ScoreQuality(nil, conflicts, 0.2, 0)
	// Penalty exceeds 1; the base is floored, leaving only confidence.
	assert.InDelta(t, 0.1, q.Consistency, 1e-9)
}
