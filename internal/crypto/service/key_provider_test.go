package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

type countingKeySource struct {
	calls atomic.Int32
	alg   cryptoDomain.Algorithm
	err   error
	raw   []byte
}

func (s *countingKeySource) Load(ctx context.Context) (*cryptoDomain.EncryptionKey, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	key := append([]byte(nil), s.raw...)
	return &cryptoDomain.EncryptionKey{ID: "test", Algorithm: s.alg, Key: key}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeyProvider_Cipher(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_LoadsOnce", func(t *testing.T) {
		source := &countingKeySource{alg: cryptoDomain.AESGCM, raw: randomKey(t)}
		slot := NewKeySlot()
		provider := NewKeyProvider(source, slot, NewAEADManager(), discardLogger())

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				cipher, err := provider.Cipher(ctx)
				assert.NoError(t, err)
				assert.NotNil(t, cipher)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), source.calls.Load())
		assert.True(t, slot.Loaded())
	})

	t.Run("Success_CiphersShareKey", func(t *testing.T) {
		raw := randomKey(t)
		first := NewKeyProvider(&countingKeySource{alg: cryptoDomain.ChaCha20, raw: raw}, NewKeySlot(), NewAEADManager(), discardLogger())
		second := NewKeyProvider(&countingKeySource{alg: cryptoDomain.ChaCha20, raw: raw}, NewKeySlot(), NewAEADManager(), discardLogger())

		c1, err := first.Cipher(ctx)
		require.NoError(t, err)
		c2, err := second.Cipher(ctx)
		require.NoError(t, err)

		ciphertext, nonce, err := c1.Encrypt([]byte("value"), []byte("k"))
		require.NoError(t, err)
		plaintext, err := c2.Decrypt(ciphertext, nonce, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), plaintext)
	})

	t.Run("Success_UsesSealedSlotWithoutSource", func(t *testing.T) {
		slot := NewKeySlot()
		require.NoError(t, slot.Seal(&cryptoDomain.EncryptionKey{ID: "x", Algorithm: cryptoDomain.AESGCM, Key: randomKey(t)}))

		cipher, err := NewKeyProvider(nil, slot, NewAEADManager(), discardLogger()).Cipher(ctx)
		require.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("Success_ResetReloads", func(t *testing.T) {
		source := &countingKeySource{alg: cryptoDomain.AESGCM, raw: randomKey(t)}
		slot := NewKeySlot()
		provider := NewKeyProvider(source, slot, NewAEADManager(), discardLogger())

		_, err := provider.Cipher(ctx)
		require.NoError(t, err)

		provider.Reset()
		assert.False(t, slot.Loaded())

		_, err = provider.Cipher(ctx)
		require.NoError(t, err)
		assert.Equal(t, int32(2), source.calls.Load())
	})

	t.Run("Error_SourceFails", func(t *testing.T) {
		source := &countingKeySource{err: errors.New("kms down")}
		provider := NewKeyProvider(source, NewKeySlot(), NewAEADManager(), discardLogger())

		_, err := provider.Cipher(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrCryptoUnavailable)
		assert.Contains(t, err.Error(), "kms down")
	})

	t.Run("Error_NoSourceEmptySlot", func(t *testing.T) {
		_, err := NewKeyProvider(nil, NewKeySlot(), NewAEADManager(), discardLogger()).Cipher(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrCryptoUnavailable)
	})

	t.Run("Error_UnsupportedAlgorithm", func(t *testing.T) {
		source := &countingKeySource{alg: cryptoDomain.Algorithm("des"), raw: randomKey(t)}
		_, err := NewKeyProvider(source, NewKeySlot(), NewAEADManager(), discardLogger()).Cipher(ctx)
		assert.ErrorIs(t, err, cryptoDomain.ErrCryptoUnavailable)
	})
}
