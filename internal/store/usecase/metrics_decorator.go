package usecase

import (
	"context"
	"time"

	"github.com/allisson/trustcore/internal/metrics"
)

const metricsDomain = "store"

// encryptedStoreWithMetrics decorates EncryptedStore with metrics instrumentation.
type encryptedStoreWithMetrics struct {
	next    EncryptedStore
	metrics metrics.BusinessMetrics
}

// NewEncryptedStoreWithMetrics wraps an EncryptedStore with metrics recording.
func NewEncryptedStoreWithMetrics(store EncryptedStore, m metrics.BusinessMetrics) EncryptedStore {
	return &encryptedStoreWithMetrics{next: store, metrics: m}
}

func (e *encryptedStoreWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.Status(err)
	e.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	e.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (e *encryptedStoreWithMetrics) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := e.next.Put(ctx, key, value)
	e.record(ctx, "put", start, err)
	return err
}

func (e *encryptedStoreWithMetrics) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	value, found, err := e.next.Get(ctx, key)
	e.record(ctx, "get", start, err)
	return value, found, err
}

func (e *encryptedStoreWithMetrics) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	start := time.Now()
	values, err := e.next.GetMany(ctx, keys)
	e.record(ctx, "get_many", start, err)
	return values, err
}

func (e *encryptedStoreWithMetrics) Remove(ctx context.Context, key string) error {
	start := time.Now()
	err := e.next.Remove(ctx, key)
	e.record(ctx, "remove", start, err)
	return err
}

// Flush also records how many entries were pending when the drain started.
func (e *encryptedStoreWithMetrics) Flush(ctx context.Context) error {
	start := time.Now()
	pending := e.next.Pending()
	err := e.next.Flush(ctx)
	e.record(ctx, "flush", start, err)
	e.metrics.RecordBatchSize(ctx, metricsDomain, "flush", pending)
	return err
}

func (e *encryptedStoreWithMetrics) ClearBuffer() {
	e.next.ClearBuffer()
}

func (e *encryptedStoreWithMetrics) Pending() int {
	return e.next.Pending()
}

func (e *encryptedStoreWithMetrics) Wipe(ctx context.Context) error {
	start := time.Now()
	err := e.next.Wipe(ctx)
	e.record(ctx, "wipe", start, err)
	return err
}

func (e *encryptedStoreWithMetrics) Close(ctx context.Context) error {
	return e.next.Close(ctx)
}
