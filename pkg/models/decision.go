package models

import (
	"encoding/json"
	"time"
)

// Disposition is the terminal classification of a scored match
type Disposition string

const (
	DispositionAutoAssigned Disposition = "auto_assigned"
	DispositionNeedsReview  Disposition = "needs_review"
	DispositionRejected     Disposition = "rejected"
)

// ConfidenceBand is the finer-grained band behind a disposition. Good and
// fair both route to needs_review; the band is kept for review-queue
// prioritization.
type ConfidenceBand string

const (
	BandExcellent ConfidenceBand = "excellent" // >= 95
	BandGood      ConfidenceBand = "good"      // >= 80
	BandFair      ConfidenceBand = "fair"      // >= 60
	BandNone      ConfidenceBand = "none"      // < 60
)

// Decision records the outcome for one processed record. Rows are
// append-only: corrections (reviewer approval/discard) are new rows, never
// updates.
type Decision struct {
	ID              string          `json:"id" db:"id"`
	TenantID        string          `json:"tenant_id" db:"tenant_id"`
	SourceID        string          `json:"source_id" db:"source_id"`
	Source          string          `json:"source" db:"source"`
	PersonID        *string         `json:"person_id,omitempty" db:"person_id"`
	Disposition     Disposition     `json:"disposition" db:"disposition"`
	Band            ConfidenceBand  `json:"band" db:"band"`
	Confidence      float64         `json:"confidence" db:"confidence"`
	MatchedCriteria json.RawMessage `json:"matched_criteria" db:"matched_criteria"`
	RawRecord       json.RawMessage `json:"raw_record" db:"raw_record"`
	ReviewedBy      *string         `json:"reviewed_by,omitempty" db:"reviewed_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// MatchedCriteriaNames unmarshals the stored criterion name list.
func (d *Decision) MatchedCriteriaNames() []string {
	var names []string
	if len(d.MatchedCriteria) > 0 {
		_ = json.Unmarshal(d.MatchedCriteria, &names)
	}
	return names
}
