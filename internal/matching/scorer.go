package matching

// This file holds the independent match scorers. All functions here are pure
// domain logic - no I/O, no side effects - so the rules stay centralized and
// testable.

// Biometric channel weights. Fingerprint evidence dominates because face
// match ratios degrade with photo age.
const (
	fingerprintWeight = 0.7
	faceWeight        = 0.3
)

// Demographic signal weights. Date of birth is the strongest demographic
// discriminator, gender the weakest comparable one.
const (
	dobSignalWeight    = 0.5
	genderSignalWeight = 0.3
	pobSignalWeight    = 0.2
)

// neutralDemographicScore is returned when fewer than two sources supply any
// comparable field: no evidence for or against a match.
const neutralDemographicScore = 0.5

// DocumentType identifies the canonical document-bearing registries.
type DocumentType string

const (
	DocumentBirthCertificate DocumentType = "birth_certificate"
	DocumentPassport         DocumentType = "passport"
	DocumentDriverLicense    DocumentType = "driver_license"
	DocumentVoterCard        DocumentType = "voter_card"
)

// documentTrustWeights are the fixed per-document trust weights. The birth
// certificate weight assumes the issuing registry verified the record.
var documentTrustWeights = map[DocumentType]float64{
	DocumentBirthCertificate: 1.0,
	DocumentPassport:         0.9,
	DocumentDriverLicense:    0.7,
	DocumentVoterCard:        0.6,
}

// BiometricEvidence carries externally supplied match ratios in [0, 1].
// A real biometric matcher plugs in upstream and fills these; the scorer
// only combines them.
type BiometricEvidence struct {
	Fingerprint *float64
	Face        *float64
}

// DemographicSample is one source's view of the comparable demographic
// fields. Empty fields are treated as not supplied.
type DemographicSample struct {
	Source       string
	DateOfBirth  string
	Gender       string
	PlaceOfBirth string
}

// BiometricScore combines the supplied match ratios into one score. Returns
// nil when no biometric evidence was supplied at all. When only one channel
// is present its weight absorbs the whole score.
func BiometricScore(ev *BiometricEvidence) *float64 {
	if ev == nil || (ev.Fingerprint == nil && ev.Face == nil) {
		return nil
	}

	var score, totalWeight float64
	if ev.Fingerprint != nil {
		score += fingerprintWeight * clamp01(*ev.Fingerprint)
		totalWeight += fingerprintWeight
	}
	if ev.Face != nil {
		score += faceWeight * clamp01(*ev.Face)
		totalWeight += faceWeight
	}
	score /= totalWeight
	return &score
}

// DemographicScore averages the pairwise-agreement signals that are actually
// comparable across the supplied samples:
//
//  1. date-of-birth equality (weight 0.5)
//  2. gender equality (weight 0.3)
//  3. place-of-birth fuzzy similarity (weight 0.2)
//
// A signal is comparable only when at least two sources supply the field.
// With no comparable signal the score is a neutral 0.5.
func DemographicScore(samples []DemographicSample) float64 {
	var score, totalWeight float64

	if s, ok := pairwiseEquality(samples, func(d DemographicSample) string { return d.DateOfBirth }); ok {
		score += dobSignalWeight * s
		totalWeight += dobSignalWeight
	}
	if s, ok := pairwiseEquality(samples, func(d DemographicSample) string { return d.Gender }); ok {
		score += genderSignalWeight * s
		totalWeight += genderSignalWeight
	}
	if s, ok := pairwiseSimilarity(samples, func(d DemographicSample) string { return d.PlaceOfBirth }); ok {
		score += pobSignalWeight * s
		totalWeight += pobSignalWeight
	}

	if totalWeight == 0 {
		return neutralDemographicScore
	}
	return score / totalWeight
}

// DocumentScore averages the trust weights of the documents actually present.
// No documents means no document evidence: 0.
func DocumentScore(present []DocumentType) float64 {
	if len(present) == 0 {
		return 0
	}
	var sum float64
	for _, doc := range present {
		sum += documentTrustWeights[doc]
	}
	return sum / float64(len(present))
}

// pairwiseEquality returns the fraction of agreeing pairs among sources that
// supply the field. ok is false when fewer than two sources supply it.
func pairwiseEquality(samples []DemographicSample, field func(DemographicSample) string) (float64, bool) {
	values := supplied(samples, field)
	if len(values) < 2 {
		return 0, false
	}
	agree, pairs := 0, 0
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			pairs++
			if values[i] == values[j] {
				agree++
			}
		}
	}
	return float64(agree) / float64(pairs), true
}

// pairwiseSimilarity averages the fuzzy similarity over all pairs of sources
// that supply the field. ok is false when fewer than two sources supply it.
func pairwiseSimilarity(samples []DemographicSample, field func(DemographicSample) string) (float64, bool) {
	values := supplied(samples, field)
	if len(values) < 2 {
		return 0, false
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(values); i++ {
		for j := i + 1; j < len(values); j++ {
			pairs++
			sum += Similarity(values[i], values[j])
		}
	}
	return sum / float64(pairs), true
}

func supplied(samples []DemographicSample, field func(DemographicSample) string) []string {
	var values []string
	for _, s := range samples {
		if v := field(s); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
