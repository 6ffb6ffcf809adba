package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestEvaluateExact(t *testing.T) {
	evaluator := NewEvaluator()
	criterion := models.MatchCriterion{Name: "name", Field: models.FieldFullName, Mode: models.CriterionModeExact, Weight: 50}

	t.Run("match after normalization", func(t *testing.T) {
		result := evaluator.Evaluate("Juan Pérez", "juan perez", criterion)
		assert.True(t, result.Matched)
		assert.Equal(t, 50.0, result.Score)
	})

	t.Run("no match", func(t *testing.T) {
		result := evaluator.Evaluate("Juan Pérez", "Maria Soto", criterion)
		assert.False(t, result.Matched)
		assert.Equal(t, 0.0, result.Score)
	})

	t.Run("missing value never matches", func(t *testing.T) {
		result := evaluator.Evaluate("", "juan perez", criterion)
		assert.False(t, result.Matched)
		assert.Equal(t, 0.0, result.Score)

		result = evaluator.Evaluate("juan perez", "   ", criterion)
		assert.False(t, result.Matched)
	})
}

func TestEvaluateFuzzy(t *testing.T) {
	evaluator := NewEvaluator()
	criterion := models.MatchCriterion{Name: "name", Field: models.FieldFullName, Mode: models.CriterionModeFuzzy, Weight: 50, Threshold: 0.8}

	t.Run("partial score reflects similarity", func(t *testing.T) {
		// one edit over 10 chars: similarity 0.9, score 45
		result := evaluator.Evaluate("Juan Perez", "Juan Peres", criterion)
		assert.True(t, result.Matched)
		assert.InDelta(t, 45.0, result.Score, 1e-9)
	})

	t.Run("identical scores full weight", func(t *testing.T) {
		result := evaluator.Evaluate("Juan Pérez", "Juan Perez", criterion)
		assert.True(t, result.Matched)
		assert.InDelta(t, 50.0, result.Score, 1e-9)
	})

	t.Run("sub-threshold is a non-match, not a small score", func(t *testing.T) {
		result := evaluator.Evaluate("Juan Perez", "Pedro Gonzalez", criterion)
		assert.False(t, result.Matched)
		assert.Equal(t, 0.0, result.Score)
	})

	t.Run("zero threshold uses default", func(t *testing.T) {
		loose := criterion
		loose.Threshold = 0
		result := evaluator.Evaluate("Juan Perez", "Juan Peres", loose)
		assert.True(t, result.Matched)
	})
}

func TestEvaluateContains(t *testing.T) {
	evaluator := NewEvaluator()
	criterion := models.MatchCriterion{Name: "address", Field: models.FieldAddress, Mode: models.CriterionModeContains, Weight: 20}

	result := evaluator.Evaluate("Av. Providencia 1234", "providencia 1234", criterion)
	assert.True(t, result.Matched)
	assert.Equal(t, 20.0, result.Score)

	result = evaluator.Evaluate("Av. Providencia 1234", "Las Condes 99", criterion)
	assert.False(t, result.Matched)
}

func TestEvaluateNormalized(t *testing.T) {
	evaluator := NewEvaluator()
	criterion := models.MatchCriterion{
		Name:       "phone",
		Field:      models.FieldPhone,
		Mode:       models.CriterionModeNormalized,
		Weight:     30,
		Normalizer: strPtr("nphone"),
	}

	t.Run("prefix variance tolerated", func(t *testing.T) {
		result := evaluator.Evaluate("+56 9 1234 5678", "912345678", criterion)
		assert.True(t, result.Matched)
		assert.Equal(t, 30.0, result.Score)
	})

	t.Run("different subscriber numbers", func(t *testing.T) {
		result := evaluator.Evaluate("+56 9 1234 5678", "987654321", criterion)
		assert.False(t, result.Matched)
	})

	t.Run("nil normalizer falls back to default", func(t *testing.T) {
		c := criterion
		c.Normalizer = nil
		result := evaluator.Evaluate("Foo Bar", "foo bar", c)
		assert.True(t, result.Matched)
	})
}
