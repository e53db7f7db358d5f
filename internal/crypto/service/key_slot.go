package service

import (
	"sync"

	"github.com/awnumar/memguard"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
)

// KeySlot holds the installation key for the current session in a memguard enclave.
// The slot lives only in process memory: a new process starts with an empty slot and
// must load the key again from its KeySource.
type KeySlot struct {
	mu        sync.Mutex
	enclave   *memguard.Enclave
	algorithm cryptoDomain.Algorithm
	keyID     string
}

// NewKeySlot creates an empty slot.
func NewKeySlot() *KeySlot {
	return &KeySlot{}
}

// Seal moves key into the slot. The caller's key bytes are wiped.
func (s *KeySlot) Seal(key *cryptoDomain.EncryptionKey) error {
	if len(key.Key) != cryptoDomain.KeySize {
		return cryptoDomain.ErrInvalidKeySize
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = memguard.NewEnclave(key.Key)
	s.algorithm = key.Algorithm
	s.keyID = key.ID
	return nil
}

// Open decrypts the slot into a locked buffer. Callers must Destroy the buffer.
func (s *KeySlot) Open() (*memguard.LockedBuffer, cryptoDomain.Algorithm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enclave == nil {
		return nil, "", cryptoDomain.ErrCryptoUnavailable
	}

	buf, err := s.enclave.Open()
	if err != nil {
		return nil, "", cryptoDomain.ErrCryptoUnavailable
	}
	return buf, s.algorithm, nil
}

// Loaded reports whether the slot currently holds a key.
func (s *KeySlot) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enclave != nil
}

// KeyID returns the id of the resident key.
func (s *KeySlot) KeyID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyID
}

// Clear drops the enclave. Its sealed contents become unreachable.
func (s *KeySlot) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclave = nil
	s.algorithm = ""
	s.keyID = ""
}
