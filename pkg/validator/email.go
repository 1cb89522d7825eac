package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
)

var (
	// ErrEmptyEmail indicates the email is empty
	ErrEmptyEmail = errors.New("email cannot be empty")

	// ErrInvalidEmail indicates the email is not a plain address
	ErrInvalidEmail = errors.New("invalid email format")
)

// emailRegex requires a dotted domain after the @
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EmailValidator handles email validation
type EmailValidator struct{}

// NewEmailValidator creates a new email validator instance
func NewEmailValidator() *EmailValidator {
	return &EmailValidator{}
}

// Validate checks an email address and returns it trimmed and lowercased
func (v *EmailValidator) Validate(email string) (string, error) {
	sanitized := v.Sanitize(email)
	if sanitized == "" {
		return "", ErrEmptyEmail
	}

	if !emailRegex.MatchString(sanitized) {
		return "", ErrInvalidEmail
	}

	// Reject display-name forms such as "Asha <asha@example.com>"
	addr, err := mail.ParseAddress(sanitized)
	if err != nil || addr.Address != sanitized {
		return "", ErrInvalidEmail
	}

	return sanitized, nil
}

// Sanitize trims whitespace and lowercases the address
func (v *EmailValidator) Sanitize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValid is a convenience method that returns true if email is valid
func (v *EmailValidator) IsValid(email string) bool {
	_, err := v.Validate(email)
	return err == nil
}
