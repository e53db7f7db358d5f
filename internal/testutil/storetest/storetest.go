// Package storetest builds encrypted stores for tests in other packages.
package storetest

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
	"github.com/allisson/trustcore/internal/store/backend"
	storeUseCase "github.com/allisson/trustcore/internal/store/usecase"
)

// StoreFixture is an encrypted store over a temporary flat-file backend.
type StoreFixture struct {
	Store   storeUseCase.EncryptedStore
	Backend backend.Backend
	Clock   *clockwork.FakeClock
}

// NewEncryptedStore builds a store with a fresh random key and a fake clock. The store is
// closed when the test finishes.
func NewEncryptedStore(t *testing.T) *StoreFixture {
	t.Helper()

	key, err := cryptoDomain.NewEncryptionKey(cryptoDomain.AESGCM)
	require.NoError(t, err)
	jwk, err := key.MarshalJWK()
	require.NoError(t, err)
	key.Zero()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	keys := cryptoService.NewKeyProvider(
		cryptoService.NewJWKKeySource(string(jwk)),
		cryptoService.NewKeySlot(),
		cryptoService.NewAEADManager(),
		logger,
	)

	fileBackend, err := backend.NewFileBackend(filepath.Join(t.TempDir(), "records"))
	require.NoError(t, err)

	clock := clockwork.NewFakeClock()
	store := storeUseCase.NewEncryptedStore(fileBackend, keys, clock, 100*time.Millisecond, logger)
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})

	return &StoreFixture{Store: store, Backend: fileBackend, Clock: clock}
}
