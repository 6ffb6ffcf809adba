package models

// Well-known field keys for contact records. Upstream ingestion (CRM
// adapters, spreadsheet parsers) is responsible for mapping provider
// columns onto these keys before a record reaches the engine.
const (
	FieldRUT         = "rut"
	FieldFullName    = "full_name"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldAddress     = "address"
	FieldAmount      = "amount"
	FieldDueDate     = "due_date"
	FieldDescription = "description"
)

// ContactRecord is a single externally-sourced contact, already parsed to a
// flat field map. Records are never mutated by the engine.
type ContactRecord struct {
	SourceID string            `json:"source_id" validate:"required"` // provider-side identifier, used for idempotence
	Source   string            `json:"source"`                        // e.g. "hubspot", "csv-upload"
	Fields   map[string]string `json:"fields" validate:"required"`
}

// Field returns the raw value for a field key, or "" when absent.
func (r *ContactRecord) Field(key string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[key]
}

// HasField reports whether a field is present and non-empty.
func (r *ContactRecord) HasField(key string) bool {
	return r.Field(key) != ""
}
