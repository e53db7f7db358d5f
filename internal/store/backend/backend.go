// Package backend provides durable byte-level persistence for the encrypted store.
// Values handed to a Backend are already encrypted; backends never see plaintext.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backend persists encoded records by logical key.
type Backend interface {
	// Name identifies the implementation ("bbolt" or "file").
	Name() string

	// Get returns the value for key. found is false when no record exists.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// GetMany returns the values present for keys in one read. Missing keys are omitted.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)

	// Put writes a single record.
	Put(ctx context.Context, key string, value []byte) error

	// PutMany writes all records atomically where the implementation supports it.
	PutMany(ctx context.Context, records map[string][]byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// ForEach calls fn for every record. Returning an error from fn stops the iteration.
	ForEach(ctx context.Context, fn func(key string, value []byte) error) error

	// Destroy closes the backend and removes all of its data.
	Destroy(ctx context.Context) error

	// Close releases the backend.
	Close() error
}

// Config locates the durable files.
type Config struct {
	Path        string
	FallbackDir string
	OpenTimeout time.Duration
}

// Open returns a bbolt backend at cfg.Path, or a flat-file backend under cfg.FallbackDir
// when bbolt cannot be opened.
func Open(cfg Config, logger *slog.Logger) (Backend, error) {
	boltBackend, boltErr := NewBoltBackend(cfg.Path, cfg.OpenTimeout)
	if boltErr == nil {
		return boltBackend, nil
	}

	logger.Warn("bbolt store unavailable, using flat-file backend",
		slog.String("path", cfg.Path),
		slog.String("fallback_dir", cfg.FallbackDir),
		slog.Any("error", boltErr),
	)

	fileBackend, err := NewFileBackend(cfg.FallbackDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: bbolt: %v: file: %w", boltErr, err)
	}
	return fileBackend, nil
}
