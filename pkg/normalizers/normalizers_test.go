package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases", input: "Juan Perez", expected: "juan perez"},
		{name: "folds diacritics", input: "Juan Pérez", expected: "juan perez"},
		{name: "strips punctuation", input: "O'Brien, John!", expected: "obrien john"},
		{name: "collapses whitespace", input: "  Juan   Pérez  ", expected: "juan perez"},
		{name: "empty stays empty", input: "", expected: ""},
		{name: "only punctuation", input: "---", expected: ""},
		{name: "keeps digits", input: "Depto 402-B", expected: "depto 402b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Default(tt.input))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips formatting", input: "+56 9 1234 5678", expected: "12345678"},
		{name: "drops country and mobile prefix", input: "56912345678", expected: "12345678"},
		{name: "bare subscriber number unchanged", input: "12345678", expected: "12345678"},
		{name: "short number kept as is", input: "4567", expected: "4567"},
		{name: "empty", input: "", expected: ""},
		{name: "letters ignored", input: "tel: 912345678", expected: "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "juan@x.com", NormalizeEmail("  Juan@X.com "))
	// punctuation must survive
	assert.Equal(t, "j.perez+crm@x.cl", NormalizeEmail("J.Perez+CRM@x.cl"))
}

func TestNormalizeRUT(t *testing.T) {
	assert.Equal(t, "12345678K", NormalizeRUT("12.345.678-k"))
	assert.Equal(t, "123456785", NormalizeRUT("12345678-5"))
	assert.Equal(t, "", NormalizeRUT(""))
}

func TestApplyUnknownNormalizerReturnsValue(t *testing.T) {
	assert.Equal(t, "Foo", Apply("Foo", "nope"))
}

func TestFoldAccents(t *testing.T) {
	assert.Equal(t, "Munoz", FoldAccents("Muñoz"))
	assert.Equal(t, "Perez", FoldAccents("Pérez"))
	assert.Equal(t, "plain", FoldAccents("plain"))
}
