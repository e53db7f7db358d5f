// Package repository persists TOTP secrets through the encrypted store.
package repository

import (
	"context"
	"encoding/json"

	apperrors "github.com/allisson/trustcore/internal/errors"
	storeUseCase "github.com/allisson/trustcore/internal/store/usecase"
	totpDomain "github.com/allisson/trustcore/internal/totp/domain"
)

// StoreSecretRepository keeps one JSON-encoded secret per principal under "totp:<principalId>".
type StoreSecretRepository struct {
	store storeUseCase.EncryptedStore
}

// NewStoreSecretRepository creates a repository over store.
func NewStoreSecretRepository(store storeUseCase.EncryptedStore) *StoreSecretRepository {
	return &StoreSecretRepository{store: store}
}

// Get returns ErrSecretNotFound when the principal has no secret or it cannot be decrypted.
func (r *StoreSecretRepository) Get(ctx context.Context, principalID string) (*totpDomain.Secret, error) {
	data, found, err := r.store.Get(ctx, totpDomain.StoreKey(principalID))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read totp secret")
	}
	if !found {
		return nil, totpDomain.ErrSecretNotFound
	}

	var secret totpDomain.Secret
	if err := json.Unmarshal(data, &secret); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode totp secret")
	}
	return &secret, nil
}

// Save stages the secret in the store buffer.
func (r *StoreSecretRepository) Save(ctx context.Context, secret *totpDomain.Secret) error {
	data, err := json.Marshal(secret)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode totp secret")
	}
	if err := r.store.Put(ctx, totpDomain.StoreKey(secret.PrincipalID), data); err != nil {
		return apperrors.Wrap(err, "failed to save totp secret")
	}
	return nil
}

func (r *StoreSecretRepository) Delete(ctx context.Context, principalID string) error {
	if err := r.store.Remove(ctx, totpDomain.StoreKey(principalID)); err != nil {
		return apperrors.Wrap(err, "failed to delete totp secret")
	}
	return nil
}

// Flush makes staged secrets durable.
func (r *StoreSecretRepository) Flush(ctx context.Context) error {
	return r.store.Flush(ctx)
}
