package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
)

// saltSize is the length of salts generated for passphrase derivation.
const saltSize = 32

// RunCreateEncryptionKey generates a new installation key and prints it as a JWK, or as a
// KMS-wrapped JWK when kmsKeyURI is set. The plaintext key is zeroed before returning.
func RunCreateEncryptionKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	w io.Writer,
	algorithm string,
	kmsKeyURI string,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	alg, err := cryptoDomain.ParseAlgorithm(algorithm)
	if err != nil {
		return fmt.Errorf("invalid algorithm %q: %w", algorithm, err)
	}

	key, err := cryptoDomain.NewEncryptionKey(alg)
	if err != nil {
		return fmt.Errorf("failed to generate encryption key: %w", err)
	}
	defer key.Zero()

	output := map[string]string{"key_id": key.ID, "algorithm": string(alg)}

	if kmsKeyURI != "" {
		wrapped, err := cryptoService.WrapKey(ctx, kmsService, kmsKeyURI, key)
		if err != nil {
			return fmt.Errorf("failed to wrap encryption key: %w", err)
		}
		output["ENCRYPTION_KEY_WRAPPED"] = wrapped
		output["KMS_KEY_URI"] = kmsKeyURI
	} else {
		jwk, err := key.MarshalJWK()
		if err != nil {
			return fmt.Errorf("failed to encode encryption key: %w", err)
		}
		output["ENCRYPTION_KEY"] = string(jwk)
		cryptoDomain.Zero(jwk)
	}

	logger.Info("encryption key created",
		slog.String("key_id", key.ID),
		slog.String("algorithm", string(alg)),
		slog.Bool("kms_wrapped", kmsKeyURI != ""),
	)

	if format == "json" {
		return writeJSON(w, output)
	}

	_, _ = fmt.Fprintln(w, "# Encryption key configuration")
	_, _ = fmt.Fprintln(w, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "ENCRYPTION_ALGORITHM=\"%s\"\n", alg)
	if kmsKeyURI != "" {
		_, _ = fmt.Fprintf(w, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
		_, _ = fmt.Fprintf(w, "ENCRYPTION_KEY_WRAPPED=\"%s\"\n", output["ENCRYPTION_KEY_WRAPPED"])
	} else {
		_, _ = fmt.Fprintf(w, "ENCRYPTION_KEY='%s'\n", output["ENCRYPTION_KEY"])
	}
	return nil
}

// RunCreateEncryptionSalt prints a random base64 salt for ENCRYPTION_SALT.
func RunCreateEncryptionSalt(w io.Writer, format string) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(salt)

	if format == "json" {
		return writeJSON(w, map[string]string{"ENCRYPTION_SALT": encoded})
	}
	_, err := fmt.Fprintf(w, "ENCRYPTION_SALT=\"%s\"\n", encoded)
	return err
}
