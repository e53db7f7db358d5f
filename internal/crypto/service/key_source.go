package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	"github.com/allisson/trustcore/internal/errors"
)

// argon2id parameters for passphrase-derived keys.
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	// MinSaltSize is the shortest accepted salt for passphrase derivation.
	MinSaltSize = 16
)

// ErrKeySourceNotConfigured indicates no key material was configured at all.
var ErrKeySourceNotConfigured = errors.Wrap(
	cryptoDomain.ErrCryptoUnavailable,
	"no encryption key, wrapped key or passphrase configured",
)

// jwkKeySource parses a JSON Web Key held in configuration.
type jwkKeySource struct {
	jwk string
}

// NewJWKKeySource returns a KeySource for a plaintext JSON Web Key.
func NewJWKKeySource(jwk string) KeySource {
	return &jwkKeySource{jwk: jwk}
}

func (s *jwkKeySource) Load(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	return cryptoDomain.ParseJWK([]byte(s.jwk))
}

// kmsKeySource unwraps a KMS-encrypted JSON Web Key.
type kmsKeySource struct {
	kmsService KMSService
	keyURI     string
	wrapped    string
}

// NewKMSKeySource returns a KeySource that decrypts wrapped (base64 KMS ciphertext)
// with the keeper at keyURI.
func NewKMSKeySource(kmsService KMSService, keyURI, wrapped string) KeySource {
	return &kmsKeySource{kmsService: kmsService, keyURI: keyURI, wrapped: wrapped}
}

func (s *kmsKeySource) Load(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(s.wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped key is not base64: %v", cryptoDomain.ErrInvalidKeyFormat, err)
	}

	keeper, err := s.kmsService.OpenKeeper(ctx, s.keyURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = keeper.Close()
	}()

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to unwrap encryption key: %w", err)
	}
	defer cryptoDomain.Zero(plaintext)

	return cryptoDomain.ParseJWK(plaintext)
}

// WrapKey encrypts the JWK encoding of key with the keeper at keyURI and returns it base64 encoded.
func WrapKey(
	ctx context.Context,
	kmsService KMSService,
	keyURI string,
	key *cryptoDomain.EncryptionKey,
) (string, error) {
	jwk, err := key.MarshalJWK()
	if err != nil {
		return "", err
	}
	defer cryptoDomain.Zero(jwk)

	keeper, err := kmsService.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = keeper.Close()
	}()

	ciphertext, err := keeper.Encrypt(ctx, jwk)
	if err != nil {
		return "", fmt.Errorf("failed to wrap encryption key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// passphraseKeySource derives the key with argon2id.
type passphraseKeySource struct {
	passphrase []byte
	salt       []byte
	algorithm  cryptoDomain.Algorithm
}

// NewPassphraseKeySource returns a KeySource deriving a key from passphrase and a base64 salt.
func NewPassphraseKeySource(passphrase, salt string, alg cryptoDomain.Algorithm) (KeySource, error) {
	if passphrase == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "passphrase is required")
	}

	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidInput, "salt must be base64 encoded")
	}
	if len(rawSalt) < MinSaltSize {
		return nil, errors.Wrap(errors.ErrInvalidInput, "salt must be at least 16 bytes")
	}

	return &passphraseKeySource{passphrase: []byte(passphrase), salt: rawSalt, algorithm: alg}, nil
}

func (s *passphraseKeySource) Load(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	key := argon2.IDKey(s.passphrase, s.salt, argon2Time, argon2Memory, argon2Threads, cryptoDomain.KeySize)
	return &cryptoDomain.EncryptionKey{ID: "passphrase", Algorithm: s.algorithm, Key: key}, nil
}

// KeySourceConfig selects a key source. The first configured option wins in the order
// JWK, wrapped JWK, passphrase.
type KeySourceConfig struct {
	JWK        string
	Wrapped    string
	KMSKeyURI  string
	Passphrase string
	Salt       string
	Algorithm  cryptoDomain.Algorithm
}

// NewKeySource builds the KeySource described by cfg.
func NewKeySource(cfg KeySourceConfig, kmsService KMSService) (KeySource, error) {
	switch {
	case cfg.JWK != "":
		return NewJWKKeySource(cfg.JWK), nil
	case cfg.Wrapped != "":
		if cfg.KMSKeyURI == "" {
			return nil, errors.Wrap(errors.ErrInvalidInput, "KMS_KEY_URI is required to unwrap the encryption key")
		}
		return NewKMSKeySource(kmsService, cfg.KMSKeyURI, cfg.Wrapped), nil
	case cfg.Passphrase != "":
		return NewPassphraseKeySource(cfg.Passphrase, cfg.Salt, cfg.Algorithm)
	default:
		return nil, ErrKeySourceNotConfigured
	}
}
