package common

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmail(t *testing.T) {
	for in, want := range map[string]bool{
		"a@b.co":         true,
		" a@b.co ":       true,
		"a@b":            false,
		"a b@c.d":        false,
		"@b.co":          false,
		"first@sub.d.in": true,
	} {
		assert.Equal(t, want, IsEmail(in), in)
	}
}

func TestDigitsAndBlank(t *testing.T) {
	assert.Equal(t, "9876543210", Digits("(98765) 43-210"))
	assert.True(t, Blank(" \t"))
	assert.False(t, Blank(" x "))
}

func TestValidationError(t *testing.T) {
	err := fmt.Errorf("checkout: %w", NewValidationError("email", "Please enter a valid email address"))
	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(fmt.Errorf("other")))
	assert.Equal(t, "validation: email: Please enter a valid email address", NewValidationError("email", "Please enter a valid email address").Error())
	assert.Equal(t, "validation: x", (&ValidationError{Message: "x"}).Error())
}
