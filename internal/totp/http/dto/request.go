// Package dto provides request and response payloads for the TOTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/trustcore/internal/validation"
)

// SetupRequest starts provisioning. AccountLabel defaults to the principal email, then id.
type SetupRequest struct {
	AccountLabel string `json:"account_label"`
}

func (r *SetupRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AccountLabel,
			customValidation.NoWhitespace,
			validation.Length(0, 255),
		),
	)
}

// CodeRequest carries a six-digit TOTP code.
type CodeRequest struct {
	Code string `json:"code"`
}

func (r *CodeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code,
			validation.Required,
			customValidation.TOTPCode,
		),
	)
}

// RecoveryCodeRequest carries a recovery code.
type RecoveryCodeRequest struct {
	RecoveryCode string `json:"recovery_code"`
}

func (r *RecoveryCodeRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.RecoveryCode,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(16, 32),
		),
	)
}
