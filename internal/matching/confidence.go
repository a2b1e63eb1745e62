package matching

// Aggregation weights. Biometric evidence, when available, dominates identity
// decisions; demographic and document evidence alone must still produce an
// actionable score.
const (
	biometricConfWeight    = 0.6
	demographicConfWeight  = 0.3
	documentConfWeight     = 0.1
	demographicOnlyWeight  = 0.7
	documentFallbackWeight = 0.3
)

// OverallConfidence combines the independent scores into one same-person
// confidence in [0, 1]. With biometric evidence present:
// 0.6·biometric + 0.3·demographic + 0.1·document. Without it:
// 0.7·demographic + 0.3·document.
func OverallConfidence(biometric *float64, demographic, document float64) float64 {
	if biometric != nil {
		return clamp01(biometricConfWeight*clamp01(*biometric) +
			demographicConfWeight*clamp01(demographic) +
			documentConfWeight*clamp01(document))
	}
	return clamp01(demographicOnlyWeight*clamp01(demographic) +
		documentFallbackWeight*clamp01(document))
}
