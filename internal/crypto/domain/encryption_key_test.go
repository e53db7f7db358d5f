package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/trustcore/internal/errors"
)

func TestNewEncryptionKey(t *testing.T) {
	t.Run("Success_AESGCM", func(t *testing.T) {
		key, err := NewEncryptionKey(AESGCM)
		require.NoError(t, err)
		assert.Len(t, key.Key, KeySize)
		assert.NotEmpty(t, key.ID)
		assert.Equal(t, AESGCM, key.Algorithm)
	})

	t.Run("Success_DistinctKeys", func(t *testing.T) {
		a, err := NewEncryptionKey(ChaCha20)
		require.NoError(t, err)
		b, err := NewEncryptionKey(ChaCha20)
		require.NoError(t, err)
		assert.NotEqual(t, a.Key, b.Key)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("Error_UnsupportedAlgorithm", func(t *testing.T) {
		key, err := NewEncryptionKey("rot13")
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
		assert.Nil(t, key)
	})
}

func TestEncryptionKey_JWKRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AESGCM, ChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			key, err := NewEncryptionKey(alg)
			require.NoError(t, err)

			data, err := key.MarshalJWK()
			require.NoError(t, err)

			var fields map[string]any
			require.NoError(t, json.Unmarshal(data, &fields))
			assert.Equal(t, "oct", fields["kty"])
			assert.Equal(t, "enc", fields["use"])
			assert.Equal(t, key.ID, fields["kid"])

			parsed, err := ParseJWK(data)
			require.NoError(t, err)
			assert.Equal(t, key.Key, parsed.Key)
			assert.Equal(t, key.ID, parsed.ID)
			assert.Equal(t, alg, parsed.Algorithm)
		})
	}
}

func TestParseJWK_Errors(t *testing.T) {
	t.Run("Error_NotJSON", func(t *testing.T) {
		_, err := ParseJWK([]byte("not-json"))
		assert.ErrorIs(t, err, ErrInvalidKeyFormat)
		assert.True(t, errors.Is(err, errors.ErrInvalidInput))
	})

	t.Run("Error_ShortKey", func(t *testing.T) {
		key := &EncryptionKey{ID: "short", Algorithm: AESGCM, Key: make([]byte, 16)}
		_, err := key.MarshalJWK()
		assert.ErrorIs(t, err, ErrInvalidKeySize)

		data := []byte(`{"kty":"oct","k":"AAAAAAAAAAAAAAAAAAAAAA","alg":"A256GCM"}`)
		_, err = ParseJWK(data)
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})

	t.Run("Error_UnknownAlgorithm", func(t *testing.T) {
		data := []byte(`{"kty":"oct","k":"AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA","alg":"A128KW"}`)
		_, err := ParseJWK(data)
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})
}

func TestEncryptionKey_Zero(t *testing.T) {
	key, err := NewEncryptionKey(AESGCM)
	require.NoError(t, err)

	key.Zero()
	assert.Equal(t, make([]byte, KeySize), key.Key)

	var nilKey *EncryptionKey
	assert.NotPanics(t, func() { nilKey.Zero() })
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("chacha20-poly1305")
	require.NoError(t, err)
	assert.Equal(t, ChaCha20, alg)

	_, err = ParseAlgorithm("des")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}
