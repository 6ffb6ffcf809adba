package models

import "time"

// Person is a known individual in the registry. Read-only input to scoring.
type Person struct {
	ID        string     `json:"id" db:"id"`
	TenantID  string     `json:"tenant_id" db:"tenant_id"`
	RUT       string     `json:"rut" db:"rut"`
	FullName  string     `json:"full_name" db:"full_name"`
	Email     string     `json:"email" db:"email"`
	Phone     string     `json:"phone" db:"phone"`
	Address   string     `json:"address" db:"address"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// FieldValue maps a contact field key onto the person's corresponding value.
// Unknown keys return "".
func (p *Person) FieldValue(key string) string {
	switch key {
	case FieldRUT:
		return p.RUT
	case FieldFullName:
		return p.FullName
	case FieldEmail:
		return p.Email
	case FieldPhone:
		return p.Phone
	case FieldAddress:
		return p.Address
	default:
		return ""
	}
}
