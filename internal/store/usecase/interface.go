// Package usecase implements the buffered, debounced, encrypted key-value store.
package usecase

import (
	"context"
)

// EncryptedStore persists values encrypted under the installation key.
//
// Writes are staged in an in-memory buffer that is authoritative until flushed. A
// debounced timer drains the buffer shortly after the first unflushed write.
type EncryptedStore interface {
	// Put stages value under key and schedules a flush if none is pending.
	Put(ctx context.Context, key string, value []byte) error

	// Get returns the buffered or durable value. A missing or undecryptable record
	// reports found=false.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// GetMany is Get for several keys with one backend read. Absent keys are omitted.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)

	// Remove drops any buffered value and deletes the durable record.
	Remove(ctx context.Context, key string) error

	// Flush drains the buffer synchronously.
	Flush(ctx context.Context) error

	// ClearBuffer discards unflushed writes.
	ClearBuffer()

	// Pending returns the number of unflushed keys.
	Pending() int

	// Wipe destroys durable data and key material and closes the store.
	Wipe(ctx context.Context) error

	// Close flushes and releases the backend.
	Close(ctx context.Context) error
}
