package matching

import "strings"

// Similarity returns a coarse string similarity in [0, 1]. Inputs are
// whitespace-trimmed and compared case-insensitively; an exact match after
// normalization scores 1.0. Otherwise the score is character overlap: the
// fraction of the longer string's characters that individually occur anywhere
// in the shorter one, so characters missing from the shorter input dilute the
// score. Not positional and not an edit distance: it tolerates reordering,
// which keeps an added middle initial in the "verify" band rather than the
// conflict band. Equal-length inputs score the mean of both directions so the
// measure stays symmetric.
//
// A production deployment can swap in a normalized Levenshtein or phonetic
// measure behind this signature without touching callers.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	if len(ra) == len(rb) {
		return (overlapFraction(ra, rb) + overlapFraction(rb, ra)) / 2
	}
	longer, shorter := ra, rb
	if len(rb) > len(ra) {
		longer, shorter = rb, ra
	}
	return overlapFraction(longer, shorter)
}

// overlapFraction returns the fraction of `of` runes occurring anywhere in `in`.
func overlapFraction(of, in []rune) float64 {
	haystack := string(in)
	matches := 0
	for _, r := range of {
		if strings.ContainsRune(haystack, r) {
			matches++
		}
	}
	return float64(matches) / float64(len(of))
}
