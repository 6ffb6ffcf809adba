// Package matching implements weighted multi-criterion contact matching
package matching

import (
	"fmt"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Engine scores contact records against registry persons using a configured
// criterion set. It holds no mutable state; the criterion set is passed per
// call so a batch run sees one immutable snapshot.
type Engine struct {
	logger    ectologger.Logger
	evaluator *Evaluator
}

// NewEngine creates a new match engine
func NewEngine(logger ectologger.Logger) *Engine {
	return &Engine{
		logger:    logger,
		evaluator: NewEvaluator(),
	}
}

// ValidateCriteria checks the criterion set before any record is processed.
// A set that can never produce a meaningful confidence is fatal for the
// whole batch.
func (e *Engine) ValidateCriteria(criteria []models.MatchCriterion) error {
	if len(criteria) == 0 {
		return &models.ConfigurationError{Reason: "criterion set is empty"}
	}

	totalWeight := 0
	for _, c := range criteria {
		if c.Weight < 0 {
			return &models.ConfigurationError{Reason: fmt.Sprintf("criterion %q has negative weight %d", c.Name, c.Weight)}
		}
		if !knownMode(c.Mode) {
			return &models.ConfigurationError{Reason: fmt.Sprintf("criterion %q has unknown mode %q", c.Name, c.Mode)}
		}
		totalWeight += c.Weight
	}

	if totalWeight == 0 {
		return &models.ConfigurationError{Reason: "total criterion weight is zero"}
	}

	return nil
}

// Score evaluates every criterion for a (record, person) pair and aggregates
// the weighted partial scores into a confidence percentage. Max possible
// always reflects the full criterion set, so confidence penalizes missing
// fields rather than silently shrinking the denominator.
func (e *Engine) Score(record *models.ContactRecord, person *models.Person, criteria []models.MatchCriterion) models.MatchEvaluation {
	eval := models.MatchEvaluation{
		Person:  person,
		Results: make([]models.CriterionResult, 0, len(criteria)),
	}

	for _, criterion := range criteria {
		rawA := record.Field(criterion.Field)
		rawB := person.FieldValue(criterion.Field)

		result := e.evaluator.Evaluate(rawA, rawB, criterion)

		eval.TotalScore += result.Score
		eval.MaxPossible += criterion.Weight
		eval.Results = append(eval.Results, result)
		if result.Matched {
			eval.MatchedCriteria = append(eval.MatchedCriteria, criterion.Name)
		}
	}

	if eval.MaxPossible > 0 {
		eval.Confidence = eval.TotalScore / float64(eval.MaxPossible) * 100
	}

	eval.Recommendations = e.buildRecommendations(record, &eval, criteria)

	return eval
}

// ScoreAll scores a record against every candidate and returns the
// evaluations sorted by confidence descending.
func (e *Engine) ScoreAll(record *models.ContactRecord, candidates []models.Person, criteria []models.MatchCriterion) *models.MatchResult {
	result := &models.MatchResult{
		SourceID:    record.SourceID,
		Evaluations: make([]models.MatchEvaluation, 0, len(candidates)),
	}

	for i := range candidates {
		result.Evaluations = append(result.Evaluations, e.Score(record, &candidates[i], criteria))
	}

	sort.SliceStable(result.Evaluations, func(i, j int) bool {
		return result.Evaluations[i].Confidence > result.Evaluations[j].Confidence
	})

	return result
}

// buildRecommendations derives advisory annotations for a scored pair. They
// are surfaced to reviewers and never alter the routed decision.
func (e *Engine) buildRecommendations(record *models.ContactRecord, eval *models.MatchEvaluation, criteria []models.MatchCriterion) []string {
	var recs []string

	switch {
	case eval.Confidence >= ThresholdExcellent:
		recs = append(recs, "excellent match, eligible for auto-assignment")
	case eval.Confidence >= ThresholdGood:
		recs = append(recs, "good match, review recommended before assignment")
	case eval.Confidence >= ThresholdFair:
		recs = append(recs, "fair match, manual review required")
	default:
		recs = append(recs, "weak match, no reliable identity signal")
	}

	matched := make(map[string]bool, len(eval.MatchedCriteria))
	for _, name := range eval.MatchedCriteria {
		matched[name] = true
	}

	for _, c := range criteria {
		if c.Field != models.FieldRUT || matched[c.Name] {
			continue
		}
		if record.HasField(models.FieldRUT) {
			recs = append(recs, "national id present but did not match, verify before assignment")
		} else {
			recs = append(recs, "national id missing, request enrichment from source")
		}
		break
	}

	return recs
}

func knownMode(mode models.CriterionMode) bool {
	for _, m := range models.KnownCriterionModes {
		if m == mode {
			return true
		}
	}
	return false
}
