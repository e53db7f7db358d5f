package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	cryptoDomain "github.com/allisson/trustcore/internal/crypto/domain"
	cryptoService "github.com/allisson/trustcore/internal/crypto/service"
	"github.com/allisson/trustcore/internal/store/backend"
	storeDomain "github.com/allisson/trustcore/internal/store/domain"
)

// DefaultFlushDelay is the debounce delay when none is configured.
const DefaultFlushDelay = 100 * time.Millisecond

type bufferedValue struct {
	value   []byte
	version uint64
}

type encryptedStore struct {
	backend backend.Backend
	keys    cryptoService.KeyProvider
	clock   clockwork.Clock
	delay   time.Duration
	logger  *slog.Logger

	// mu guards everything below it.
	mu         sync.Mutex
	buffer     map[string]bufferedValue
	version    uint64
	timer      clockwork.Timer
	generation uint64
	closed     bool

	// flushMu makes draining single-flight and orders Remove/Wipe after a running drain.
	flushMu sync.Mutex
}

// NewEncryptedStore creates an EncryptedStore over b. A non-positive delay uses DefaultFlushDelay.
func NewEncryptedStore(
	b backend.Backend,
	keys cryptoService.KeyProvider,
	clock clockwork.Clock,
	delay time.Duration,
	logger *slog.Logger,
) EncryptedStore {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	return &encryptedStore{
		backend: b,
		keys:    keys,
		clock:   clock,
		delay:   delay,
		logger:  logger,
		buffer:  make(map[string]bufferedValue),
	}
}

func (s *encryptedStore) Put(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return storeDomain.ErrKeyRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return storeDomain.ErrStoreClosed
	}

	s.version++
	s.buffer[key] = bufferedValue{value: clone(value), version: s.version}

	if s.timer == nil {
		s.generation++
		gen := s.generation
		s.timer = s.clock.AfterFunc(s.delay, func() {
			s.autoFlush(gen)
		})
	}
	return nil
}

func (s *encryptedStore) autoFlush(gen uint64) {
	s.mu.Lock()
	if s.generation != gen || s.timer == nil {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	if err := s.drain(context.Background()); err != nil {
		s.logger.Error("automatic store flush failed", slog.Any("error", err))
	}
}

// stopTimerLocked cancels the pending flush. Bumping the generation makes a callback
// that already fired return without draining.
func (s *encryptedStore) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.generation++
}

func (s *encryptedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, storeDomain.ErrKeyRequired
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, false, storeDomain.ErrStoreClosed
	}
	if buffered, ok := s.buffer[key]; ok {
		s.mu.Unlock()
		return clone(buffered.value), true, nil
	}
	s.mu.Unlock()

	cipher, err := s.keys.Cipher(ctx)
	if err != nil {
		return nil, false, err
	}

	raw, found, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read record %q: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}

	plaintext, ok := s.open(cipher, key, raw)
	return plaintext, ok, nil
}

func (s *encryptedStore) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	result := make(map[string][]byte, len(keys))
	missing := make([]string, 0, len(keys))

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, storeDomain.ErrStoreClosed
	}
	for _, key := range keys {
		if key == "" {
			s.mu.Unlock()
			return nil, storeDomain.ErrKeyRequired
		}
		if buffered, ok := s.buffer[key]; ok {
			result[key] = clone(buffered.value)
			continue
		}
		missing = append(missing, key)
	}
	s.mu.Unlock()

	if len(missing) == 0 {
		return result, nil
	}

	cipher, err := s.keys.Cipher(ctx)
	if err != nil {
		return nil, err
	}

	raws, err := s.backend.GetMany(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	for key, raw := range raws {
		if plaintext, ok := s.open(cipher, key, raw); ok {
			result[key] = plaintext
		}
	}
	return result, nil
}

// open decodes and decrypts raw. Any failure is reported as absent.
func (s *encryptedStore) open(cipher cryptoService.AEAD, key string, raw []byte) ([]byte, bool) {
	record, err := storeDomain.DecodeRecord(key, raw)
	if err != nil {
		s.logger.Warn("discarding malformed record", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}

	plaintext, err := cipher.Decrypt(record.Ciphertext, record.IV, []byte(key))
	if err != nil {
		s.logger.Warn("record failed to decrypt", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	return plaintext, true
}

func (s *encryptedStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return storeDomain.ErrKeyRequired
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return storeDomain.ErrStoreClosed
	}
	delete(s.buffer, key)
	s.mu.Unlock()

	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

func (s *encryptedStore) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()

	return s.drain(ctx)
}

// drain persists a snapshot of the buffer. Entries are removed only when their version
// is unchanged, so a Put racing the drain keeps its newer value buffered.
func (s *encryptedStore) drain(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	snapshot := make(map[string]bufferedValue, len(s.buffer))
	for key, value := range s.buffer {
		snapshot[key] = value
	}
	s.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	ctx = context.WithoutCancel(ctx)

	cipher, err := s.keys.Cipher(ctx)
	if err != nil {
		return err
	}

	persisted, failures := s.writeBatch(ctx, cipher, snapshot)
	if persisted == nil {
		persisted, failures = s.writeEach(ctx, cipher, snapshot)
	}

	s.mu.Lock()
	for _, key := range persisted {
		if current, ok := s.buffer[key]; ok && current.version == snapshot[key].version {
			delete(s.buffer, key)
		}
	}
	s.mu.Unlock()

	if len(failures) > 0 {
		return &storeDomain.FlushError{Failures: failures}
	}
	return nil
}

// writeBatch encrypts every entry and writes them in one PutMany. It returns nil
// persisted keys when the caller should fall back to per-entry writes.
func (s *encryptedStore) writeBatch(
	ctx context.Context,
	cipher cryptoService.AEAD,
	snapshot map[string]bufferedValue,
) ([]string, map[string]error) {
	records := make(map[string][]byte, len(snapshot))
	for key, entry := range snapshot {
		encoded, err := seal(cipher, key, entry.value)
		if err != nil {
			s.logger.Warn("batch encryption failed, writing entries individually", slog.Any("error", err))
			return nil, nil
		}
		records[key] = encoded
	}

	if err := s.backend.PutMany(ctx, records); err != nil {
		s.logger.Warn("batch write failed, writing entries individually", slog.Any("error", err))
		return nil, nil
	}

	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *encryptedStore) writeEach(
	ctx context.Context,
	cipher cryptoService.AEAD,
	snapshot map[string]bufferedValue,
) ([]string, map[string]error) {
	persisted := make([]string, 0, len(snapshot))
	failures := make(map[string]error)

	for key, entry := range snapshot {
		encoded, err := seal(cipher, key, entry.value)
		if err != nil {
			failures[key] = err
			continue
		}
		if err := s.backend.Put(ctx, key, encoded); err != nil {
			failures[key] = err
			continue
		}
		persisted = append(persisted, key)
	}
	return persisted, failures
}

func seal(cipher cryptoService.AEAD, key string, plaintext []byte) ([]byte, error) {
	ciphertext, nonce, err := cipher.Encrypt(plaintext, []byte(key))
	if err != nil {
		return nil, err
	}
	if len(nonce) != cryptoDomain.NonceSize {
		return nil, fmt.Errorf("unexpected nonce size %d", len(nonce))
	}
	record := storeDomain.StoredRecord{Key: key, IV: nonce, Ciphertext: ciphertext}
	return record.Encode(), nil
}

func (s *encryptedStore) ClearBuffer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.buffer = make(map[string]bufferedValue)
}

func (s *encryptedStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buffer)
}

func (s *encryptedStore) Wipe(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	s.stopTimerLocked()
	s.buffer = make(map[string]bufferedValue)
	s.closed = true
	s.mu.Unlock()

	s.keys.Reset()

	if err := s.backend.Destroy(ctx); err != nil {
		return fmt.Errorf("destroy store: %w", err)
	}
	return nil
}

func (s *encryptedStore) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	// Writes are refused from here on, so nothing can be buffered behind the final drain.
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()

	flushErr := s.drain(ctx)
	return errors.Join(flushErr, s.backend.Close())
}

func clone(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
