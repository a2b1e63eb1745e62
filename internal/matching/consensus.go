package matching

// ScoredField is an ephemeral (source, value, weight) tuple built per
// comparison. The weight is the source's authority for the field being
// arbitrated.
type ScoredField[T comparable] struct {
	Source string
	Value  T
	Weight float64
}

// Resolve groups the items by value, sums the weights per group, and returns
// the value whose sources carry the greatest total weight. Ties break in favor
// of the group encountered first, so callers pass items in descending
// authority order to make the outcome deterministic. The returned value is
// always one of the inputs; ok is false only for an empty input.
func Resolve[T comparable](items []ScoredField[T]) (value T, ok bool) {
	if len(items) == 0 {
		var zero T
		return zero, false
	}

	totals := make(map[T]float64, len(items))
	order := make([]T, 0, len(items))
	for _, item := range items {
		if _, seen := totals[item.Value]; !seen {
			order = append(order, item.Value)
		}
		totals[item.Value] += item.Weight
	}

	best := order[0]
	for _, v := range order[1:] {
		if totals[v] > totals[best] {
			best = v
		}
	}
	return best, true
}

// Supporters returns the sources backing a given value, preserving input
// order. Used to build conflict reasons.
func Supporters[T comparable](items []ScoredField[T], value T) []string {
	var sources []string
	for _, item := range items {
		if item.Value == value {
			sources = append(sources, item.Source)
		}
	}
	return sources
}
