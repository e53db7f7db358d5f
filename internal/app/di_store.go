package app

import (
	"fmt"

	"github.com/allisson/trustcore/internal/store/backend"
	storeUseCase "github.com/allisson/trustcore/internal/store/usecase"
)

// StoreBackend returns the durable backend: bbolt, or the flat-file fallback when the
// bbolt file cannot be opened.
func (c *Container) StoreBackend() (backend.Backend, error) {
	var err error
	c.storeBackendInit.Do(func() {
		c.storeBackend, err = backend.Open(backend.Config{
			Path:        c.config.StorePath,
			FallbackDir: c.config.StoreFallbackDir,
			OpenTimeout: c.config.StoreOpenTimeout,
		}, c.Logger())
		if err != nil {
			c.setInitError("storeBackend", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("storeBackend"); storedErr != nil {
		return nil, storedErr
	}
	return c.storeBackend, nil
}

// EncryptedStore returns the buffered encrypted store shared by the TOTP secrets and,
// in store mode, the permission requests.
func (c *Container) EncryptedStore() (storeUseCase.EncryptedStore, error) {
	var err error
	c.encryptedStoreInit.Do(func() {
		c.encryptedStore, err = c.initEncryptedStore()
		if err != nil {
			c.setInitError("encryptedStore", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("encryptedStore"); storedErr != nil {
		return nil, storedErr
	}
	return c.encryptedStore, nil
}

func (c *Container) initEncryptedStore() (storeUseCase.EncryptedStore, error) {
	b, err := c.StoreBackend()
	if err != nil {
		return nil, fmt.Errorf("failed to get backend for encrypted store: %w", err)
	}

	keys, err := c.KeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for encrypted store: %w", err)
	}

	store := storeUseCase.NewEncryptedStore(b, keys, c.Clock(), c.config.StoreFlushDelay, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for encrypted store: %w", err)
		}
		return storeUseCase.NewEncryptedStoreWithMetrics(store, businessMetrics), nil
	}

	return store, nil
}
