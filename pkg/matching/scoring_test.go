package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshteinDistance(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{name: "identical", a: "perez", b: "perez", expected: 0},
		{name: "single substitution", a: "perez", b: "peres", expected: 1},
		{name: "single insertion", a: "prez", b: "perez", expected: 1},
		{name: "single deletion", a: "perezz", b: "perez", expected: 1},
		{name: "empty vs value", a: "", b: "perez", expected: 5},
		{name: "both empty", a: "", b: "", expected: 0},
		{name: "completely different", a: "abc", b: "xyz", expected: 3},
		{name: "kitten sitting", a: "kitten", b: "sitting", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, scorer.LevenshteinDistance(tt.a, tt.b))
		})
	}
}

func TestLevenshteinDistanceSymmetry(t *testing.T) {
	scorer := NewScorer()

	pairs := [][2]string{
		{"juan perez", "juan peres"},
		{"maria", "mario"},
		{"", "abc"},
		{"12345678", "12345679"},
	}

	for _, p := range pairs {
		assert.Equal(t, scorer.LevenshteinDistance(p[0], p[1]), scorer.LevenshteinDistance(p[1], p[0]))
	}
}

func TestSimilarity(t *testing.T) {
	scorer := NewScorer()

	t.Run("identical non-empty is 1", func(t *testing.T) {
		assert.Equal(t, 1.0, scorer.Similarity("juan perez", "juan perez", 0.8))
	})

	t.Run("empty never matches", func(t *testing.T) {
		assert.Equal(t, 0.0, scorer.Similarity("", "juan", 0.0))
		assert.Equal(t, 0.0, scorer.Similarity("juan", "", 0.0))
		assert.Equal(t, 0.0, scorer.Similarity("", "", 0.0))
	})

	t.Run("below threshold collapses to zero", func(t *testing.T) {
		// "abc" vs "xyz": raw similarity 0, threshold 0.8
		assert.Equal(t, 0.0, scorer.Similarity("abc", "xyz", 0.8))
		// one edit in 5 chars = 0.8, threshold 0.9 so not accepted
		assert.Equal(t, 0.0, scorer.Similarity("perez", "peres", 0.9))
	})

	t.Run("at or above threshold returns raw value", func(t *testing.T) {
		// one edit in 5 chars = 0.8 exactly
		assert.InDelta(t, 0.8, scorer.Similarity("perez", "peres", 0.8), 1e-9)
		// one edit in 10 chars = 0.9
		assert.InDelta(t, 0.9, scorer.Similarity("juan perez", "juan peres", 0.8), 1e-9)
	})
}
