package validator

import (
	"fmt"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 6

// ValidatePassword checks the password length
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	return nil
}
