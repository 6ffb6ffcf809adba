package matching

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// DefaultFuzzyThreshold is used when a fuzzy criterion does not set one.
const DefaultFuzzyThreshold = 0.8

// Evaluator applies a single criterion to a raw field pair. The mode set is
// closed: adding a comparison mode means extending the switch below, while
// the weight/field/threshold table stays data-driven configuration.
type Evaluator struct {
	scorer *Scorer
}

// NewEvaluator creates a new criterion evaluator
func NewEvaluator() *Evaluator {
	return &Evaluator{scorer: NewScorer()}
}

// Evaluate compares the record and person values for one criterion.
// Missing or empty values never match, under any mode.
func (e *Evaluator) Evaluate(rawA, rawB string, criterion models.MatchCriterion) models.CriterionResult {
	result := models.CriterionResult{Name: criterion.Name}

	if strings.TrimSpace(rawA) == "" || strings.TrimSpace(rawB) == "" {
		return result
	}

	weight := float64(criterion.Weight)

	switch criterion.Mode {
	case models.CriterionModeExact:
		a := normalizers.Default(rawA)
		b := normalizers.Default(rawB)
		if a != "" && a == b {
			result.Matched = true
			result.Score = weight
		}

	case models.CriterionModeFuzzy:
		a := normalizers.Default(rawA)
		b := normalizers.Default(rawB)
		threshold := criterion.Threshold
		if threshold <= 0 {
			threshold = DefaultFuzzyThreshold
		}
		sim := e.scorer.Similarity(a, b, threshold)
		if sim > 0 {
			result.Matched = true
			result.Score = weight * sim
		}

	case models.CriterionModeContains:
		a := normalizers.Default(rawA)
		b := normalizers.Default(rawB)
		if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
			result.Matched = true
			result.Score = weight
		}

	case models.CriterionModeNormalized:
		name := "default"
		if criterion.Normalizer != nil && *criterion.Normalizer != "" {
			name = *criterion.Normalizer
		}
		a := normalizers.Apply(rawA, name)
		b := normalizers.Apply(rawB, name)
		if a != "" && a == b {
			result.Matched = true
			result.Score = weight
		}
	}

	return result
}
