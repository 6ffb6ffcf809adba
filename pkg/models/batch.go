package models

import "time"

// Stage constants classify where a per-record failure happened. Persist
// failures are kept distinct from lookup failures because they mean a
// decision was computed but not durably applied.
const (
	StageValidate = "validate"
	StageLookup   = "lookup"
	StagePersist  = "persist"
)

// RecordError describes one failed record in a batch run.
type RecordError struct {
	Index    int    `json:"index"`
	SourceID string `json:"source_id"`
	Field    string `json:"field,omitempty"`
	Stage    string `json:"stage"`
	Message  string `json:"message"`
}

// BatchSummary accumulates the outcome of one batch run. Every record ends
// up in exactly one of: a disposition count, ValidationErrors, Errors, or
// Skipped.
type BatchSummary struct {
	Processed        int           `json:"processed"`
	Matched          int           `json:"matched"` // at least one candidate was scored
	AutoAssigned     int           `json:"auto_assigned"`
	NeedsReview      int           `json:"needs_review"`
	Rejected         int           `json:"rejected"`
	Skipped          int           `json:"skipped"` // already decided in a previous run
	ValidationErrors []RecordError `json:"validation_errors"`
	Errors           []RecordError `json:"errors"`
	Elapsed          time.Duration `json:"elapsed"`
}

// Decided returns the number of records that produced a decision this run.
func (s *BatchSummary) Decided() int {
	return s.AutoAssigned + s.NeedsReview + s.Rejected
}
