// internal/domain/common/validation.go
package common

import (
	"errors"
	"regexp"
	"strings"
)

// ValidationError rejects user input before any network call.
// Message is already phrased for the shopper.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return "validation: " + e.Field + ": " + e.Message
}

func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits = regexp.MustCompile(`\D`)
)

// IsEmail is the storefront's loose email check (something@domain.tld).
func IsEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// Digits strips everything but 0-9.
func Digits(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// Blank reports whether s is empty after trimming.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
