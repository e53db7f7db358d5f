package domain

// Algorithm names the AEAD used to seal stored records.
//
// Both algorithms take a 256-bit key and a 12-byte nonce, so records written
// under either share the same iv||ciphertext layout.
type Algorithm string

const (
	// AESGCM is AES-256 in Galois/Counter Mode.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the length in bytes of every encryption key.
const KeySize = 32

// NonceSize is the length in bytes of the per-record IV.
const NonceSize = 12

// ParseAlgorithm converts a configuration value into an Algorithm.
func ParseAlgorithm(value string) (Algorithm, error) {
	switch Algorithm(value) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
