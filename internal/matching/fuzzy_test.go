package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity_ExactMatch(t *testing.T) {
	for _, s := range []string{"John Doe", "a", "Maria-José", "  padded  "} {
		assert.Equal(t, 1.0, Similarity(s, s), "identical input %q", s)
	}
}

func TestSimilarity_Normalization(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("John Doe", "  JOHN DOE "))
	assert.Equal(t, 1.0, Similarity("", "   "))
}

func TestSimilarity_EmptyVersusNonEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("", "John"))
	assert.Equal(t, 0.0, Similarity("John", ""))
}

func TestSimilarity_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"John Doe", "John M. Doe"},
		{"ab", "aa"}, // equal length, asymmetric overlap directions
		{"Jane", "Janet"},
		{"xyz", "abc"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "pair %v", p)
	}
}

func TestSimilarity_Range(t *testing.T) {
	pairs := [][2]string{
		{"John Doe", "John M. Doe"},
		{"abcdef", "xyz"},
		{"a", "b"},
	}
	for _, p := range pairs {
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestSimilarity_MinorNameVariant(t *testing.T) {
	// An added middle initial lands in the "verify, not conflict" band:
	// 9 of the 11 characters of "john m. doe" occur in "john doe".
	s := Similarity("John Doe", "John M. Doe")
	assert.InDelta(t, 9.0/11.0, s, 1e-9)
	assert.Greater(t, s, 0.7)
	assert.Less(t, s, 0.95)
}

func TestSimilarity_DisjointStrings(t *testing.T) {
	assert.Equal(t, 0.0, Similarity("xyz", "abc"))
}
