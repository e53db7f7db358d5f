package dto

import (
	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
)

// SetupResponse is returned once; the secret is not retrievable afterwards.
type SetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
}

// MapSetupOutputToResponse converts a setup output to an API response.
func MapSetupOutputToResponse(output *totpDomain.SetupOutput) SetupResponse {
	return SetupResponse{Secret: output.Secret, ProvisioningURI: output.ProvisioningURI}
}

// VerifyResponse reports whether a code was accepted.
type VerifyResponse struct {
	Valid bool `json:"valid"`
}

// StatusResponse reports the principal's second factor status.
type StatusResponse struct {
	Enabled bool `json:"enabled"`
}

// RecoveryCodesResponse lists freshly issued recovery codes.
type RecoveryCodesResponse struct {
	RecoveryCodes []string `json:"recovery_codes"`
}
