// Package validation implements pre-scoring sanity checks for contact records
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Result is the outcome of validating one record. Warnings do not block
// scoring; errors do.
type Result struct {
	Valid    bool                `json:"valid"`
	Errors   []models.FieldError `json:"errors"`
	Warnings []models.FieldError `json:"warnings"`
}

// Validator performs field-level checks on contact records before they enter
// scoring.
type Validator struct {
	validate *validator.Validate
}

// New creates a new record validator
func New() *Validator {
	return &Validator{
		validate: validator.New(),
	}
}

// ValidateRecord applies all checks. A record needs a usable full name and at
// least one identifying field; without those it cannot be scored meaningfully
// and is excluded before matching is attempted.
func (v *Validator) ValidateRecord(record *models.ContactRecord) Result {
	result := Result{Valid: true}

	addError := func(field, message string) {
		result.Valid = false
		result.Errors = append(result.Errors, models.FieldError{Field: field, Message: message})
	}
	addWarning := func(field, message string) {
		result.Warnings = append(result.Warnings, models.FieldError{Field: field, Message: message})
	}

	name := strings.TrimSpace(record.Field(models.FieldFullName))
	if len(name) < 2 {
		addError(models.FieldFullName, "full name is required and must be at least 2 characters")
	}

	rut := record.Field(models.FieldRUT)
	email := record.Field(models.FieldEmail)
	phone := record.Field(models.FieldPhone)

	if rut == "" && email == "" && phone == "" {
		addError("", "record has no identifying field (rut, email or phone)")
	}

	if rut != "" && !ValidRUT(rut) {
		addError(models.FieldRUT, fmt.Sprintf("rut %q has an invalid check digit", rut))
	}

	if email != "" {
		if err := v.validate.Var(email, "email"); err != nil {
			addError(models.FieldEmail, fmt.Sprintf("email %q is not a valid address", email))
		}
	}

	// Phone is the least reliable identifying field; a bad shape is a
	// warning, not a hard error.
	if phone != "" && !validMobilePhone(phone) {
		addWarning(models.FieldPhone, fmt.Sprintf("phone %q does not look like a national mobile number", phone))
	}

	if amount := record.Field(models.FieldAmount); amount != "" {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
		if err != nil {
			addError(models.FieldAmount, fmt.Sprintf("amount %q is not a number", amount))
		} else if parsed <= 0 {
			addError(models.FieldAmount, fmt.Sprintf("amount must be greater than zero, got %s", amount))
		}
	}

	return result
}

// ValidRUT checks the modulus-11 check digit of a RUT. The check character
// is case-insensitive; formatting (dots, hyphen) is ignored.
func ValidRUT(rut string) bool {
	cleaned := normalizers.NormalizeRUT(rut)
	if len(cleaned) < 2 {
		return false
	}

	body := cleaned[:len(cleaned)-1]
	check := cleaned[len(cleaned)-1]

	if len(body) == 0 {
		return false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return false
		}
	}

	// Positional multiplier cycles 2..7 from the rightmost digit.
	sum := 0
	multiplier := 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * multiplier
		multiplier++
		if multiplier > 7 {
			multiplier = 2
		}
	}

	remainder := 11 - (sum % 11)
	var expected byte
	switch remainder {
	case 11:
		expected = '0'
	case 10:
		expected = 'K'
	default:
		expected = byte('0' + remainder)
	}

	return check == expected
}

// validMobilePhone accepts a national mobile number: 8 subscriber digits,
// optionally preceded by the mobile prefix 9 and/or the country code.
func validMobilePhone(phone string) bool {
	digits := normalizers.DigitsOnly(phone)
	switch len(digits) {
	case 8:
		return true
	case 9:
		return digits[0] == '9'
	case 11:
		return strings.HasPrefix(digits, "56") && digits[2] == '9'
	default:
		return false
	}
}
