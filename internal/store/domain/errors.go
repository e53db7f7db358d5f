package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/allisson/trustcore/internal/errors"
)

var (
	// ErrKeyRequired indicates an empty logical key.
	ErrKeyRequired = errors.Wrap(errors.ErrInvalidInput, "store key is required")

	// ErrMalformedRecord indicates a durable value shorter than the nonce.
	ErrMalformedRecord = errors.Wrap(errors.ErrInvalidInput, "malformed stored record")

	// ErrStoreClosed indicates an operation on a closed or wiped store.
	ErrStoreClosed = errors.Wrap(errors.ErrUnavailable, "store is closed")

	// ErrPersistenceFailure indicates at least one buffered entry could not be written.
	ErrPersistenceFailure = errors.New("persistence failure")
)

// FlushError lists the keys a flush could not persist. Those entries remain buffered.
type FlushError struct {
	Failures map[string]error
}

func (e *FlushError) Error() string {
	keys := make([]string, 0, len(e.Failures))
	for key := range e.Failures {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", key, e.Failures[key]))
	}
	return fmt.Sprintf("%s: %d entries failed (%s)", ErrPersistenceFailure, len(keys), strings.Join(parts, "; "))
}

func (e *FlushError) Unwrap() error {
	return ErrPersistenceFailure
}
