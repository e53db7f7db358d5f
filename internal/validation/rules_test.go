package validation

import (
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/trustcore/internal/errors"
)

func assertRule(t *testing.T, rule validation.Rule, valid, invalid []string) {
	t.Helper()
	for _, v := range valid {
		assert.NoError(t, rule.Validate(v), "expected %q to be valid", v)
	}
	for _, v := range invalid {
		assert.Error(t, rule.Validate(v), "expected %q to be invalid", v)
	}
}

func TestEmail(t *testing.T) {
	assertRule(t, Email,
		[]string{"user@example.com", "first.last+tag@sub.example.co"},
		[]string{"plain", "user@", "@example.com", "user@example"},
	)
}

func TestNoWhitespace(t *testing.T) {
	assertRule(t, NoWhitespace,
		[]string{"validstring", "valid string"},
		[]string{" lead", "trail ", " both "},
	)
}

func TestNotBlank(t *testing.T) {
	assertRule(t, NotBlank,
		[]string{"validstring", " x "},
		[]string{"   ", "\t\t", "\n\n", " \t\n "},
	)
}

func TestTOTPCode(t *testing.T) {
	assertRule(t, TOTPCode,
		[]string{"000000", "123456"},
		[]string{"12345", "1234567", "12a456", " 123456", "１２３４５６"},
	)
}

func TestIdentifier(t *testing.T) {
	assertRule(t, Identifier,
		[]string{"alice", "user:42", "contact/phone", "svc-account_1", "a@b.c"},
		[]string{"-leading", "has space", "tab\there", "/root"},
	)
}

func TestWrapValidationError(t *testing.T) {
	t.Run("NilReturnsNil", func(t *testing.T) {
		assert.NoError(t, WrapValidationError(nil))
	})

	t.Run("WrapsAsInvalidInput", func(t *testing.T) {
		err := WrapValidationError(assert.AnError)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		assert.Contains(t, err.Error(), assert.AnError.Error())
	})
}
