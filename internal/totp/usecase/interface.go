// Package usecase implements the per-principal TOTP lifecycle.
package usecase

import (
	"context"

	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
)

// SecretRepository persists TOTP secrets.
type SecretRepository interface {
	Get(ctx context.Context, principalID string) (*totpDomain.Secret, error)
	Save(ctx context.Context, secret *totpDomain.Secret) error
	Delete(ctx context.Context, principalID string) error
	Flush(ctx context.Context) error
}

// SecretLifecycle provisions, verifies and revokes TOTP secrets.
//
// The state machine per principal is none -> provisional -> enabled -> none. Boolean results
// report whether the submitted proof was accepted; errors are reserved for invalid input and
// storage failures.
type SecretLifecycle interface {
	// StartSetup generates a provisional secret, replacing any earlier provisional one.
	StartSetup(ctx context.Context, principalID, accountLabel string) (*totpDomain.SetupOutput, error)

	// VerifyCode checks code against the principal's secret in any state.
	VerifyCode(ctx context.Context, principalID, code string) (bool, error)

	// ConfirmEnable promotes a provisional secret to enabled when code is valid.
	ConfirmEnable(ctx context.Context, principalID, code string) (bool, error)

	// Disable removes an enabled secret when code is valid.
	Disable(ctx context.Context, principalID, code string) (bool, error)

	// IsEnabled reports whether the principal has an enabled secret.
	IsEnabled(ctx context.Context, principalID string) (bool, error)

	// GenerateRecoveryCodes replaces the principal's recovery codes. It requires an enabled
	// secret and a valid code.
	GenerateRecoveryCodes(ctx context.Context, principalID, code string) ([]string, error)

	// DisableWithRecoveryCode removes an enabled secret when recoveryCode matches.
	DisableWithRecoveryCode(ctx context.Context, principalID, recoveryCode string) (bool, error)
}
