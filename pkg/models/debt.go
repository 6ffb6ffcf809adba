package models

import (
	"encoding/json"
	"time"
)

// Debt is the durable obligation created when a record auto-assigns (or a
// reviewer approves a match). Provenance fields are stored verbatim so an
// audit can reconstruct why the link was made.
type Debt struct {
	ID              string          `json:"id" db:"id"`
	TenantID        string          `json:"tenant_id" db:"tenant_id"`
	PersonID        string          `json:"person_id" db:"person_id"`
	SourceID        string          `json:"source_id" db:"source_id"`
	Source          string          `json:"source" db:"source"`
	Amount          float64         `json:"amount" db:"amount"`
	DueDate         *time.Time      `json:"due_date,omitempty" db:"due_date"`
	Description     string          `json:"description" db:"description"`
	Confidence      float64         `json:"confidence" db:"confidence"`
	MatchedCriteria json.RawMessage `json:"matched_criteria" db:"matched_criteria"`
	RawRecord       json.RawMessage `json:"raw_record" db:"raw_record"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}
