package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("Success_WipesKeyMaterial", func(t *testing.T) {
		key, err := NewEncryptionKey(AESGCM)
		if !assert.NoError(t, err) {
			return
		}

		Zero(key.Key)
		assert.True(t, bytes.Equal(make([]byte, len(key.Key)), key.Key))
	})

	t.Run("Success_NilAndEmpty", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero(nil) })
		assert.NotPanics(t, func() { Zero([]byte{}) })
	})
}
