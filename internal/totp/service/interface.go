// Package service provides TOTP code generation, verification and recovery code hashing.
package service

import "time"

// OTPService creates and validates RFC 6238 codes.
type OTPService interface {
	// Generate creates a 160-bit base32 secret and its otpauth:// provisioning URI.
	Generate(issuer, accountName string) (secret, provisioningURI string, err error)

	// Validate reports whether code matches secret at the given instant, allowing one
	// 30-second step of drift in either direction.
	Validate(code, secret string, at time.Time) bool
}

// RecoveryCodeService issues single-use recovery codes and checks them against stored hashes.
type RecoveryCodeService interface {
	// Generate returns count plain codes and their hashes, index-aligned.
	Generate(count int) (codes []string, hashes []string, err error)

	// Match returns the index of the hash that code matches.
	Match(code string, hashes []string) (index int, ok bool)
}
