package app

import (
	"errors"
	"fmt"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
)

// KMSService returns the KMS service used to unwrap a wrapped installation key.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// AEADManager returns the AEAD manager service.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// KeySlot returns the session slot holding the resident installation key.
func (c *Container) KeySlot() *cryptoService.KeySlot {
	c.keySlotInit.Do(func() {
		c.keySlot = cryptoService.NewKeySlot()
	})
	return c.keySlot
}

// KeySource returns the configured source of the installation key: a JWK, a KMS-wrapped
// JWK or a passphrase, in that order of preference.
func (c *Container) KeySource() (cryptoService.KeySource, error) {
	var err error
	c.keySourceInit.Do(func() {
		c.keySource, err = c.initKeySource()
		if err != nil {
			c.setInitError("keySource", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("keySource"); storedErr != nil {
		return nil, storedErr
	}
	return c.keySource, nil
}

// KeyProvider returns the lazily loading cipher provider used by the encrypted store.
func (c *Container) KeyProvider() (cryptoService.KeyProvider, error) {
	var err error
	c.keyProviderInit.Do(func() {
		c.keyProvider, err = c.initKeyProvider()
		if err != nil {
			c.setInitError("keyProvider", err)
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr := c.initError("keyProvider"); storedErr != nil {
		return nil, storedErr
	}
	return c.keyProvider, nil
}

func (c *Container) initKeySource() (cryptoService.KeySource, error) {
	alg, err := cryptoDomain.ParseAlgorithm(c.config.EncryptionAlgorithm)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption algorithm: %w", err)
	}

	source, err := cryptoService.NewKeySource(cryptoService.KeySourceConfig{
		JWK:        c.config.EncryptionKey,
		Wrapped:    c.config.EncryptionKeyWrapped,
		KMSKeyURI:  c.config.KMSKeyURI,
		Passphrase: c.config.EncryptionPassphrase,
		Salt:       c.config.EncryptionSalt,
		Algorithm:  alg,
	}, c.KMSService())
	if err != nil {
		return nil, fmt.Errorf("failed to configure key source: %w", err)
	}
	return source, nil
}

// initKeyProvider tolerates a missing key source: the store then reports the crypto
// facility as unavailable on first use instead of failing at startup.
func (c *Container) initKeyProvider() (cryptoService.KeyProvider, error) {
	source, err := c.KeySource()
	switch {
	case errors.Is(err, cryptoService.ErrKeySourceNotConfigured):
		c.Logger().Warn("encryption key not configured, encrypted store will be unavailable")
	case err != nil:
		return nil, fmt.Errorf("failed to get key source for key provider: %w", err)
	}
	return cryptoService.NewKeyProvider(source, c.KeySlot(), c.AEADManager(), c.Logger()), nil
}
