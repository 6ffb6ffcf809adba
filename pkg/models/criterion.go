package models

import "time"

// CriterionMode defines how a field pair is compared
type CriterionMode string

const (
	CriterionModeExact      CriterionMode = "exact"      // equal after default normalization
	CriterionModeFuzzy      CriterionMode = "fuzzy"      // edit-distance similarity against a threshold
	CriterionModeContains   CriterionMode = "contains"   // either value is a substring of the other
	CriterionModeNormalized CriterionMode = "normalized" // equal after a field-specific normalizer (e.g. nphone)
)

// KnownCriterionModes lists every mode the evaluator implements. The
// criterion table is configuration; the mode set is code.
var KnownCriterionModes = []CriterionMode{
	CriterionModeExact,
	CriterionModeFuzzy,
	CriterionModeContains,
	CriterionModeNormalized,
}

// MatchCriterion is one weighted, independently-evaluated field-comparison
// rule. Weights are immutable during a batch run; the criterion set is
// loaded once per run.
type MatchCriterion struct {
	ID         string        `json:"id" db:"id"`
	TenantID   string        `json:"tenant_id" db:"tenant_id"`
	Name       string        `json:"name" db:"name"`
	Field      string        `json:"field" db:"field"`
	Mode       CriterionMode `json:"mode" db:"mode"`
	Weight     int           `json:"weight" db:"weight"`
	Threshold  float64       `json:"threshold" db:"threshold"`   // fuzzy only
	Normalizer *string       `json:"normalizer" db:"normalizer"` // normalized mode only
	IsActive   bool          `json:"is_active" db:"is_active"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

// CriterionResult is the outcome of evaluating one criterion for one
// (record, person) pair. Ephemeral.
type CriterionResult struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"` // 0..weight; fuzzy criteria score weight*similarity
	Matched bool    `json:"matched"`
}

// CreateCriterionRequest is the request to create a match criterion
type CreateCriterionRequest struct {
	Name       string        `json:"name" validate:"required"`
	Field      string        `json:"field" validate:"required"`
	Mode       CriterionMode `json:"mode" validate:"required"`
	Weight     int           `json:"weight" validate:"required,gt=0"`
	Threshold  float64       `json:"threshold"`
	Normalizer *string       `json:"normalizer,omitempty"`
	IsActive   bool          `json:"is_active"`
}

// UpdateCriterionRequest is the request to update a match criterion
type UpdateCriterionRequest struct {
	Name       *string        `json:"name,omitempty"`
	Field      *string        `json:"field,omitempty"`
	Mode       *CriterionMode `json:"mode,omitempty"`
	Weight     *int           `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Threshold  *float64       `json:"threshold,omitempty"`
	Normalizer *string        `json:"normalizer,omitempty"`
	IsActive   *bool          `json:"is_active,omitempty"`
}
