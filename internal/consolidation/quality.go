package consolidation

import "idhub/internal/consolidation/providers"

// canonicalSlots are the five linked-record slots that count toward
// completeness: national registry, birth certificate, passport, driver
// license, voter card. Police records are investigative context, not an
// identity document, so they do not raise completeness.
var canonicalSlots = []providers.RegistryType{
	providers.RegistryNational,
	providers.RegistryCivil,
	providers.RegistryImmigration,
	providers.RegistryVehicle,
	providers.RegistryElections,
}

// ScoreQuality derives the data quality dimensions for one consolidation:
//
//   - completeness: filled canonical slots / 5
//   - consistency: ((1 - Σ severityWeight(conflict)) floored at 0, averaged
//     with the overall confidence)
//   - accuracy: the document score, directly
//   - overall: unweighted mean of the three
//
// Pure domain logic - no I/O, no side effects.
func ScoreQuality(records map[providers.RegistryType]*providers.Record, conflicts []Conflict, confidence, documentScore float64) DataQuality {
	filled := 0
	for _, slot := range canonicalSlots {
		if records[slot] != nil {
			filled++
		}
	}
	completeness := float64(filled) / float64(len(canonicalSlots))

	var conflictPenalty float64
	for _, c := range conflicts {
		conflictPenalty += severityWeights[c.Severity]
	}
	base := 1 - conflictPenalty
	if base < 0 {
		base = 0
	}
	consistency := (base + confidence) / 2

	accuracy := documentScore

	return DataQuality{
		Completeness: completeness,
		Consistency:  consistency,
		Accuracy:     accuracy,
		Overall:      (completeness + consistency + accuracy) / 3,
	}
}
