package models

import "fmt"

// ConfigurationError means the criterion set cannot produce a meaningful
// confidence for any record. It is fatal for the whole batch and is the only
// error allowed to abort a run.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid matching configuration: %s", e.Reason)
}

// ValidationFailure carries the field-level errors and warnings for a record
// that failed pre-scoring validation.
type ValidationFailure struct {
	SourceID string
	Errors   []FieldError
	Warnings []FieldError
}

func (e *ValidationFailure) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("record %s failed validation", e.SourceID)
	}
	return fmt.Sprintf("record %s failed validation: %s", e.SourceID, e.Errors[0].Message)
}

// FieldError is a single validation finding.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
