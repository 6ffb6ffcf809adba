package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestValidRUT(t *testing.T) {
	tests := []struct {
		name  string
		rut   string
		valid bool
	}{
		{name: "valid plain", rut: "12345678-5", valid: true},
		{name: "valid with dots", rut: "12.345.678-5", valid: true},
		{name: "valid short", rut: "1-9", valid: true},
		{name: "valid k check uppercase", rut: "20347878-K", valid: true},
		{name: "valid k check lowercase", rut: "20347878-k", valid: true},
		{name: "wrong check digit", rut: "12345678-4", valid: false},
		{name: "empty", rut: "", valid: false},
		{name: "letters in body", rut: "12a45678-5", valid: false},
		{name: "check digit only", rut: "5", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidRUT(tt.rut))
		})
	}
}

func TestValidateRecordRequiredFields(t *testing.T) {
	v := New()

	t.Run("valid record", func(t *testing.T) {
		record := &models.ContactRecord{
			SourceID: "r1",
			Fields: map[string]string{
				models.FieldFullName: "Juan Pérez",
				models.FieldRUT:      "12345678-5",
			},
		}
		result := v.ValidateRecord(record)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Errors)
	})

	t.Run("name too short", func(t *testing.T) {
		record := &models.ContactRecord{
			SourceID: "r2",
			Fields: map[string]string{
				models.FieldFullName: " J ",
				models.FieldEmail:    "j@x.com",
			},
		}
		result := v.ValidateRecord(record)
		require.False(t, result.Valid)
		assert.Equal(t, models.FieldFullName, result.Errors[0].Field)
	})

	t.Run("no identifying field is rejected before scoring", func(t *testing.T) {
		record := &models.ContactRecord{
			SourceID: "r3",
			Fields:   map[string]string{models.FieldFullName: "J. Perez"},
		}
		result := v.ValidateRecord(record)
		assert.False(t, result.Valid)
	})
}

func TestValidateRecordFieldShapes(t *testing.T) {
	v := New()

	base := func() *models.ContactRecord {
		return &models.ContactRecord{
			SourceID: "r",
			Fields: map[string]string{
				models.FieldFullName: "Juan Pérez",
				models.FieldRUT:      "12345678-5",
			},
		}
	}

	t.Run("bad rut check digit", func(t *testing.T) {
		record := base()
		record.Fields[models.FieldRUT] = "12345678-4"
		result := v.ValidateRecord(record)
		assert.False(t, result.Valid)
	})

	t.Run("bad email shape", func(t *testing.T) {
		record := base()
		record.Fields[models.FieldEmail] = "not-an-email"
		result := v.ValidateRecord(record)
		assert.False(t, result.Valid)
	})

	t.Run("bad phone is a warning only", func(t *testing.T) {
		record := base()
		record.Fields[models.FieldPhone] = "123"
		result := v.ValidateRecord(record)
		assert.True(t, result.Valid)
		require.Len(t, result.Warnings, 1)
		assert.Equal(t, models.FieldPhone, result.Warnings[0].Field)
	})

	t.Run("valid mobile phone", func(t *testing.T) {
		record := base()
		record.Fields[models.FieldPhone] = "+56 9 1234 5678"
		result := v.ValidateRecord(record)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Warnings)
	})

	t.Run("amount must parse", func(t *testing.T) {
		record := base()
		record.Fields[models.FieldAmount] = "12x00"
		result := v.ValidateRecord(record)
		assert.False(t, result.Valid)
	})

	t.Run("amount must be positive", func(t *testing.T) {
		record := base()
		record.Fields[models.FieldAmount] = "-100"
		result := v.ValidateRecord(record)
		assert.False(t, result.Valid)
	})

	t.Run("valid amount", func(t *testing.T) {
		record := base()
		record.Fields[models.FieldAmount] = "150000.50"
		result := v.ValidateRecord(record)
		assert.True(t, result.Valid)
	})
}
