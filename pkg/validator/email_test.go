package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailValidate_Valid(t *testing.T) {
	validator := NewEmailValidator()

	validEmails := []struct {
		input    string
		expected string
		name     string
	}{
		{"asha@example.com", "asha@example.com", "Plain"},
		{"  Asha@Example.COM ", "asha@example.com", "Mixed case with spaces"},
		{"first.last+tag@sub.example.lk", "first.last+tag@sub.example.lk", "Plus tag and subdomain"},
	}

	for _, tc := range validEmails {
		t.Run(tc.name, func(t *testing.T) {
			sanitized, err := validator.Validate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, sanitized)
		})
	}
}

func TestEmailValidate_Invalid(t *testing.T) {
	validator := NewEmailValidator()

	invalidEmails := []struct {
		input       string
		expectedErr error
		name        string
	}{
		{"", ErrEmptyEmail, "Empty"},
		{"   ", ErrEmptyEmail, "Whitespace"},
		{"asha", ErrInvalidEmail, "No at sign"},
		{"asha@localhost", ErrInvalidEmail, "No dotted domain"},
		{"asha @example.com", ErrInvalidEmail, "Inner space"},
		{"Asha <asha@example.com>", ErrInvalidEmail, "Display name"},
	}

	for _, tc := range invalidEmails {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.input)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("secret"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(""))
}
