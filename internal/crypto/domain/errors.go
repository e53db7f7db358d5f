package domain

import (
	"github.com/allisson/trustcore/internal/errors"
)

// Cryptographic error definitions.
var (
	// ErrUnsupportedAlgorithm indicates the requested algorithm is neither AESGCM nor ChaCha20.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrInvalidKeySize indicates key material that is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidKeyFormat indicates a JSON Web Key that could not be parsed or is not symmetric.
	ErrInvalidKeyFormat = errors.Wrap(errors.ErrInvalidInput, "invalid key format")

	// ErrDecryptionFailed indicates authentication failed or the record is malformed.
	// The encrypted store recovers from it by reporting the value as absent.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")

	// ErrCryptoUnavailable indicates no key material is resident and none could be loaded.
	// No store operation that touches ciphertext can proceed.
	ErrCryptoUnavailable = errors.Wrap(errors.ErrUnavailable, "encryption key unavailable")
)
