package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// keyProvider caches one AEAD for the process lifetime and keeps the key that built it
// in the session KeySlot.
type keyProvider struct {
	source      KeySource
	slot        *KeySlot
	aeadManager AEADManager
	logger      *slog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	cipher AEAD
}

// NewKeyProvider creates a KeyProvider. source may be nil, in which case only a key
// already sealed in slot can be used.
func NewKeyProvider(source KeySource, slot *KeySlot, aeadManager AEADManager, logger *slog.Logger) KeyProvider {
	return &keyProvider{
		source:      source,
		slot:        slot,
		aeadManager: aeadManager,
		logger:      logger,
	}
}

func (p *keyProvider) Cipher(ctx context.Context) (AEAD, error) {
	p.mu.RLock()
	cached := p.cipher
	p.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := p.group.Do("cipher", func() (any, error) {
		return p.load(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(AEAD), nil
}

func (p *keyProvider) load(ctx context.Context) (AEAD, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cipher != nil {
		return p.cipher, nil
	}

	if !p.slot.Loaded() {
		if p.source == nil {
			return nil, cryptoDomain.ErrCryptoUnavailable
		}
		key, err := p.source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrCryptoUnavailable, err)
		}
		if err := p.slot.Seal(key); err != nil {
			key.Zero()
			return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrCryptoUnavailable, err)
		}
		p.logger.Info("encryption key loaded into session slot", slog.String("key_id", p.slot.KeyID()))
	}

	buf, alg, err := p.slot.Open()
	if err != nil {
		return nil, err
	}
	defer buf.Destroy()

	aead, err := p.aeadManager.CreateCipher(buf.Bytes(), alg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrCryptoUnavailable, err)
	}

	p.cipher = aead
	return aead, nil
}

func (p *keyProvider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cipher = nil
	p.slot.Clear()
}
