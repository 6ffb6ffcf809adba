package matching

// Scorer provides the string comparison primitives used by criteria
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// LevenshteinDistance calculates the edit distance between two strings
// (insert, delete and substitute all cost 1).
func (s *Scorer) LevenshteinDistance(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two-row dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

// Similarity returns an edit-distance similarity in [0,1], gated by a
// threshold: values below the threshold collapse to 0 so a near-miss a human
// would not accept is a non-match, not a small positive score.
func (s *Scorer) Similarity(a, b string, threshold float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	maxLen := max(len(a), len(b))
	distance := s.LevenshteinDistance(a, b)
	raw := 1.0 - float64(distance)/float64(maxLen)

	if raw < threshold {
		return 0.0
	}
	return raw
}
