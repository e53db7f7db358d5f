// Package domain defines the per-principal TOTP secret and its lifecycle states.
package domain

import (
	"time"
)

// State is the lifecycle state of a TOTP secret.
type State string

const (
	// StateProvisional marks a secret that has not yet been confirmed with a valid code.
	StateProvisional State = "provisional"
	// StateEnabled marks a confirmed secret; the principal's second factor is on.
	StateEnabled State = "enabled"
)

// KeyPrefix namespaces TOTP secrets inside the encrypted store.
const KeyPrefix = "totp:"

// Secret is the TOTP seed for one principal.
type Secret struct {
	PrincipalID        string     `json:"principal_id"`
	SecretBase32       string     `json:"secret"`
	State              State      `json:"state"`
	AccountLabel       string     `json:"account_label"`
	CreatedAt          time.Time  `json:"created_at"`
	EnabledAt          *time.Time `json:"enabled_at,omitempty"`
	RecoveryCodeHashes []string   `json:"recovery_code_hashes,omitempty"`
}

// StoreKey returns the encrypted store key for principalID.
func StoreKey(principalID string) string {
	return KeyPrefix + principalID
}

// IsEnabled reports whether the secret has been confirmed.
func (s *Secret) IsEnabled() bool {
	return s != nil && s.State == StateEnabled
}

// SetupOutput is returned when provisioning starts.
type SetupOutput struct {
	Secret          string
	ProvisioningURI string
}

// IsWellFormedCode reports whether code is exactly six ASCII digits.
func IsWellFormedCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
