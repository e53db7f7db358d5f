package domain

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/uuid"
)

// JWK algorithm identifiers for the supported AEADs.
const (
	jwkAlgAESGCM   = "A256GCM"
	jwkAlgChaCha20 = "C20P"
	jwkUseEnc      = "enc"
)

// EncryptionKey is the single installation key that seals every stored record.
//
// It is exchanged as a symmetric JSON Web Key (kty "oct"). The key id is informational:
// records do not reference it, so importing a different key makes existing data unreadable.
type EncryptionKey struct {
	ID        string
	Algorithm Algorithm
	Key       []byte
}

// NewEncryptionKey generates a random 256-bit key for alg with a UUIDv7 id.
func NewEncryptionKey(alg Algorithm) (*EncryptionKey, error) {
	if _, err := ParseAlgorithm(string(alg)); err != nil {
		return nil, err
	}

	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		Zero(key)
		return nil, fmt.Errorf("failed to generate key id: %w", err)
	}

	return &EncryptionKey{ID: id.String(), Algorithm: alg, Key: key}, nil
}

// MarshalJWK encodes the key as a JSON Web Key.
func (k *EncryptionKey) MarshalJWK() ([]byte, error) {
	if len(k.Key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	alg, err := jwkAlgorithm(k.Algorithm)
	if err != nil {
		return nil, err
	}

	jwk := jose.JSONWebKey{
		Key:       k.Key,
		KeyID:     k.ID,
		Algorithm: alg,
		Use:       jwkUseEnc,
	}
	return json.Marshal(jwk)
}

// Zero clears the key bytes.
func (k *EncryptionKey) Zero() {
	if k == nil {
		return
	}
	Zero(k.Key)
}

// ParseJWK decodes a symmetric JSON Web Key produced by MarshalJWK.
func ParseJWK(data []byte) (*EncryptionKey, error) {
	var jwk jose.JSONWebKey
	if err := json.Unmarshal(data, &jwk); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyFormat, err)
	}

	raw, ok := jwk.Key.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: key is not symmetric", ErrInvalidKeyFormat)
	}
	if len(raw) != KeySize {
		Zero(raw)
		return nil, ErrInvalidKeySize
	}

	alg, err := algorithmFromJWK(jwk.Algorithm)
	if err != nil {
		Zero(raw)
		return nil, err
	}

	return &EncryptionKey{ID: jwk.KeyID, Algorithm: alg, Key: raw}, nil
}

func jwkAlgorithm(alg Algorithm) (string, error) {
	switch alg {
	case AESGCM:
		return jwkAlgAESGCM, nil
	case ChaCha20:
		return jwkAlgChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

// algorithmFromJWK maps the "alg" member back to an Algorithm. A missing member
// defaults to AESGCM.
func algorithmFromJWK(alg string) (Algorithm, error) {
	switch alg {
	case jwkAlgAESGCM, "":
		return AESGCM, nil
	case jwkAlgChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
