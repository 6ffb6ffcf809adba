package models

// MatchEvaluation is the scored comparison of one record against one person.
type MatchEvaluation struct {
	Person          *Person           `json:"person"`
	TotalScore      float64           `json:"total_score"`
	MaxPossible     int               `json:"max_possible"` // sum of all criterion weights, regardless of data completeness
	Confidence      float64           `json:"confidence"`   // total/max*100, always in [0,100]
	MatchedCriteria []string          `json:"matched_criteria"`
	Results         []CriterionResult `json:"results"`
	Recommendations []string          `json:"recommendations"` // advisory only; never alters the decision
}

// MatchResult is the full evaluation set for one record, sorted by
// confidence descending.
type MatchResult struct {
	SourceID    string            `json:"source_id"`
	Evaluations []MatchEvaluation `json:"evaluations"`
}

// Best returns the highest-confidence evaluation, or nil when there were no
// candidates.
func (r *MatchResult) Best() *MatchEvaluation {
	if len(r.Evaluations) == 0 {
		return nil
	}
	return &r.Evaluations[0]
}
