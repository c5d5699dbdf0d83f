package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testPayload struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := testPayload{
			Email:    "jo@example.com",
			Password: "secret123",
		}

		err := ValidateStruct(&s)
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		s := testPayload{
			Email: "jo@example.com",
		}

		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Password")
	})

	t.Run("invalid email", func(t *testing.T) {
		s := testPayload{
			Email:    "invalid-email",
			Password: "secret123",
		}

		err := ValidateStruct(&s)
		assert.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Email")
	})

	t.Run("password too short", func(t *testing.T) {
		s := testPayload{
			Email:    "jo@example.com",
			Password: "abc",
		}

		err := ValidateStruct(&s)
		assert.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields["Password"], "at least 6")
	})
}

func TestValidateUUID(t *testing.T) {
	tests := []struct {
		name      string
		uuid      string
		wantError bool
	}{
		{
			name:      "valid UUID",
			uuid:      "550e8400-e29b-41d4-a716-446655440000",
			wantError: false,
		},
		{
			name:      "invalid UUID - wrong format",
			uuid:      "not-a-uuid",
			wantError: true,
		},
		{
			name:      "empty string",
			uuid:      "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUUID(tt.uuid)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		wantError bool
	}{
		{
			name:      "valid email",
			email:     "jo@example.com",
			wantError: false,
		},
		{
			name:      "valid email with plus tag",
			email:     "jo+sync@example.com",
			wantError: false,
		},
		{
			name:      "missing at sign",
			email:     "jo.example.com",
			wantError: true,
		},
		{
			name:      "missing domain",
			email:     "jo@",
			wantError: true,
		},
		{
			name:      "empty string",
			email:     "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("value", "field"))

	err := ValidateRequired("", "source")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "source is required")
}
