// Package normalizers provides field normalization functions for matching
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("default", Default)
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("nphone", NormalizePhone)
	Register("nemail", NormalizeEmail)
	Register("nrut", NormalizeRUT)
	Register("digits_only", DigitsOnly)
	Register("alphanumeric", Alphanumeric)
	Register("fold_accents", FoldAccents)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names return the
// value unchanged.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// Built-in normalizers

// Default is the standard comparison form: diacritics folded, lowercased,
// everything outside alphanumeric/space removed, whitespace collapsed and
// trimmed. "Juan  Pérez!" and "juan perez" normalize equal.
func Default(s string) string {
	s = strings.ToLower(FoldAccents(s))

	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
			prevSpace = false
		} else if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// NormalizePhone strips all non-digit characters and keeps only the trailing
// 8 digits (the local subscriber number). Deliberately lossy so that
// "+56 9 1234 5678", "912345678" and "12345678" all compare equal regardless
// of country/area-code prefix.
func NormalizePhone(s string) string {
	digits := DigitsOnly(s)
	if len(digits) > 8 {
		digits = digits[len(digits)-8:]
	}
	return digits
}

// NormalizeEmail normalizes an email address (trim, lowercase). No character
// stripping: punctuation in emails is meaningful.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeRUT strips dots, hyphens and whitespace from a RUT and uppercases
// the check character, so "12.345.678-k" becomes "12345678K".
func NormalizeRUT(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == 'k' || r == 'K' {
			result.WriteRune(unicode.ToUpper(r))
		}
	}
	return result.String()
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// FoldAccents removes combining marks after NFD decomposition, so "Pérez"
// becomes "Perez" and "Muñoz" becomes "Munoz".
func FoldAccents(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return norm.NFC.String(result.String())
}
