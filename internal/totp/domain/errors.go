package domain

import (
	"github.com/allisson/trustcore/internal/errors"
)

var (
	// ErrPrincipalIDRequired indicates an operation was called without a principal.
	ErrPrincipalIDRequired = errors.Wrap(errors.ErrInvalidInput, "principal id is required")

	// ErrSecretNotFound indicates the principal has no TOTP secret.
	ErrSecretNotFound = errors.Wrap(errors.ErrNotFound, "totp secret not found")

	// ErrAlreadyEnabled indicates setup was requested for a principal whose second factor is on.
	ErrAlreadyEnabled = errors.Wrap(errors.ErrConflict, "totp is already enabled")

	// ErrNotEnabled indicates the operation requires an enabled second factor.
	ErrNotEnabled = errors.Wrap(errors.ErrConflict, "totp is not enabled")

	// ErrInvalidCode indicates a TOTP code failed verification.
	ErrInvalidCode = errors.Wrap(errors.ErrUnauthorized, "invalid totp code")
)
