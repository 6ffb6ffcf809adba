package matching

import (
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func testCriteria() []models.MatchCriterion {
	return []models.MatchCriterion{
		{Name: "rut", Field: models.FieldRUT, Mode: models.CriterionModeNormalized, Weight: 100, Normalizer: strPtr("nrut")},
		{Name: "email", Field: models.FieldEmail, Mode: models.CriterionModeFuzzy, Weight: 80, Threshold: 0.9},
		{Name: "name", Field: models.FieldFullName, Mode: models.CriterionModeFuzzy, Weight: 50, Threshold: 0.8},
	}
}

func TestValidateCriteria(t *testing.T) {
	engine := NewEngine(testLogger())

	t.Run("valid set", func(t *testing.T) {
		assert.NoError(t, engine.ValidateCriteria(testCriteria()))
	})

	t.Run("empty set is fatal", func(t *testing.T) {
		err := engine.ValidateCriteria(nil)
		require.Error(t, err)
		var cfgErr *models.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("zero total weight is fatal", func(t *testing.T) {
		err := engine.ValidateCriteria([]models.MatchCriterion{
			{Name: "rut", Field: models.FieldRUT, Mode: models.CriterionModeExact, Weight: 0},
		})
		var cfgErr *models.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("unknown mode is fatal", func(t *testing.T) {
		err := engine.ValidateCriteria([]models.MatchCriterion{
			{Name: "rut", Field: models.FieldRUT, Mode: "phonetic", Weight: 10},
		})
		var cfgErr *models.ConfigurationError
		assert.ErrorAs(t, err, &cfgErr)
	})
}

func TestScorePerfectMatch(t *testing.T) {
	engine := NewEngine(testLogger())

	record := &models.ContactRecord{
		SourceID: "crm-1",
		Fields: map[string]string{
			models.FieldFullName: "Juan Pérez",
			models.FieldRUT:      "12345678-5",
			models.FieldEmail:    "juan@x.com",
		},
	}
	person := &models.Person{ID: "p1", RUT: "12345678-5", FullName: "Juan Perez", Email: "juan@x.com"}

	eval := engine.Score(record, person, testCriteria())

	assert.Equal(t, 230, eval.MaxPossible)
	assert.InDelta(t, 230.0, eval.TotalScore, 1e-9)
	assert.InDelta(t, 100.0, eval.Confidence, 1e-9)
	assert.ElementsMatch(t, []string{"rut", "email", "name"}, eval.MatchedCriteria)

	disposition, band := Route(eval.Confidence)
	assert.Equal(t, models.DispositionAutoAssigned, disposition)
	assert.Equal(t, models.BandExcellent, band)
}

func TestScoreMissingFieldsPenalizeConfidence(t *testing.T) {
	engine := NewEngine(testLogger())

	record := &models.ContactRecord{
		SourceID: "crm-2",
		Fields:   map[string]string{models.FieldRUT: "12345678-5"},
	}
	person := &models.Person{ID: "p1", RUT: "12345678-5", FullName: "Juan Perez", Email: "juan@x.com"}

	eval := engine.Score(record, person, testCriteria())

	// rut weight alone: 100 of 230
	assert.Equal(t, 230, eval.MaxPossible)
	assert.InDelta(t, 100.0, eval.TotalScore, 1e-9)
	assert.InDelta(t, 100.0/230.0*100, eval.Confidence, 1e-9)
	assert.Equal(t, []string{"rut"}, eval.MatchedCriteria)
}

func TestScoreDominantIDCriterionAutoAssigns(t *testing.T) {
	engine := NewEngine(testLogger())

	criteria := []models.MatchCriterion{
		{Name: "rut", Field: models.FieldRUT, Mode: models.CriterionModeNormalized, Weight: 100, Normalizer: strPtr("nrut")},
		{Name: "name", Field: models.FieldFullName, Mode: models.CriterionModeFuzzy, Weight: 5, Threshold: 0.8},
	}

	record := &models.ContactRecord{
		SourceID: "crm-3",
		Fields:   map[string]string{models.FieldRUT: "12.345.678-5"},
	}
	person := &models.Person{ID: "p1", RUT: "12345678-5"}

	eval := engine.Score(record, person, criteria)
	assert.InDelta(t, 100.0/105.0*100, eval.Confidence, 1e-9)

	disposition, _ := Route(eval.Confidence)
	assert.Equal(t, models.DispositionAutoAssigned, disposition)
}

func TestScoreConfidenceAlwaysInRange(t *testing.T) {
	engine := NewEngine(testLogger())
	criteria := testCriteria()

	records := []*models.ContactRecord{
		{SourceID: "a", Fields: map[string]string{}},
		{SourceID: "b", Fields: map[string]string{models.FieldFullName: "X"}},
		{SourceID: "c", Fields: map[string]string{models.FieldRUT: "1-9", models.FieldEmail: "a@b.cl", models.FieldFullName: "Ana Soto"}},
	}
	persons := []models.Person{
		{ID: "p1"},
		{ID: "p2", RUT: "1-9", FullName: "Ana Soto", Email: "a@b.cl"},
		{ID: "p3", RUT: "99999999-9", FullName: "Zoe Qux", Email: "zoe@qux.io"},
	}

	for _, record := range records {
		result := engine.ScoreAll(record, persons, criteria)
		for _, eval := range result.Evaluations {
			assert.GreaterOrEqual(t, eval.Confidence, 0.0)
			assert.LessOrEqual(t, eval.Confidence, 100.0)
		}
	}
}

func TestScoreAllSortsByConfidence(t *testing.T) {
	engine := NewEngine(testLogger())

	record := &models.ContactRecord{
		SourceID: "crm-4",
		Fields: map[string]string{
			models.FieldRUT:      "12345678-5",
			models.FieldFullName: "Juan Perez",
			models.FieldEmail:    "juan@x.com",
		},
	}
	persons := []models.Person{
		{ID: "weak", FullName: "Juana Paredes"},
		{ID: "strong", RUT: "12345678-5", FullName: "Juan Perez", Email: "juan@x.com"},
		{ID: "medium", FullName: "Juan Perez", Email: "juan@x.com"},
	}

	result := engine.ScoreAll(record, persons, testCriteria())
	require.Len(t, result.Evaluations, 3)
	assert.Equal(t, "strong", result.Evaluations[0].Person.ID)
	assert.GreaterOrEqual(t, result.Evaluations[0].Confidence, result.Evaluations[1].Confidence)
	assert.GreaterOrEqual(t, result.Evaluations[1].Confidence, result.Evaluations[2].Confidence)
}

func TestRecommendations(t *testing.T) {
	engine := NewEngine(testLogger())

	t.Run("missing national id requests enrichment", func(t *testing.T) {
		record := &models.ContactRecord{
			SourceID: "r",
			Fields: map[string]string{
				models.FieldFullName: "Juan Perez",
				models.FieldEmail:    "juan@x.com",
			},
		}
		person := &models.Person{ID: "p", RUT: "12345678-5", FullName: "Juan Perez", Email: "juan@x.com"}
		eval := engine.Score(record, person, testCriteria())
		assert.Contains(t, eval.Recommendations, "national id missing, request enrichment from source")
	})

	t.Run("excellent match flagged as auto-assign eligible", func(t *testing.T) {
		record := &models.ContactRecord{
			SourceID: "r",
			Fields: map[string]string{
				models.FieldRUT:      "12345678-5",
				models.FieldFullName: "Juan Perez",
				models.FieldEmail:    "juan@x.com",
			},
		}
		person := &models.Person{ID: "p", RUT: "12345678-5", FullName: "Juan Perez", Email: "juan@x.com"}
		eval := engine.Score(record, person, testCriteria())
		assert.Contains(t, eval.Recommendations, "excellent match, eligible for auto-assignment")
	})
}
