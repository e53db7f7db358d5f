// Package service provides the ciphers, key sources and key lifecycle used by the encrypted store.
package service

import (
	"context"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt seals plaintext under a fresh random nonce and returns ciphertext and nonce.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt opens ciphertext using the provided nonce and AAD.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// KeySource produces the installation key for a fresh session.
type KeySource interface {
	// Load returns a new EncryptionKey. Callers own the returned key bytes.
	Load(ctx context.Context) (*cryptoDomain.EncryptionKey, error)
}

// KeyProvider hands out the cipher built from the resident installation key.
type KeyProvider interface {
	// Cipher returns the cached AEAD, loading the key on first use.
	// It fails with ErrCryptoUnavailable when no key can be obtained.
	Cipher(ctx context.Context) (AEAD, error)

	// Reset drops the cached cipher and destroys the session key slot.
	Reset()
}
