package backend

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var recordsBucket = []byte("records")

// BoltBackend stores records in a single bbolt bucket.
type BoltBackend struct {
	db   *bolt.DB
	path string
}

// NewBoltBackend opens or creates the database at path. The file is 0600 and its
// directory 0700. timeout bounds the wait for the file lock.
func NewBoltBackend(path string, timeout time.Duration) (*BoltBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &BoltBackend{db: db, path: path}, nil
}

func (b *BoltBackend) Name() string {
	return "bbolt"
}

func (b *BoltBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(recordsBucket).Get([]byte(key)); v != nil {
			value = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

func (b *BoltBackend) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	values := make(map[string][]byte, len(keys))
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		for _, key := range keys {
			if v := bucket.Get([]byte(key)); v != nil {
				values[key] = append([]byte(nil), v...)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (b *BoltBackend) Put(ctx context.Context, key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Put([]byte(key), value)
	})
}

// PutMany writes every record in one transaction: either all land or none do.
func (b *BoltBackend) PutMany(ctx context.Context, records map[string][]byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(recordsBucket)
		for key, value := range records {
			if err := bucket.Put([]byte(key), value); err != nil {
				return fmt.Errorf("put %q: %w", key, err)
			}
		}
		return nil
	})
}

func (b *BoltBackend) Delete(ctx context.Context, key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).Delete([]byte(key))
	})
}

func (b *BoltBackend) ForEach(ctx context.Context, fn func(key string, value []byte) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(k, v []byte) error {
			return fn(string(k), append([]byte(nil), v...))
		})
	})
}

func (b *BoltBackend) Destroy(ctx context.Context) error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close bolt db: %w", err)
	}
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove bolt db: %w", err)
	}
	return nil
}

func (b *BoltBackend) Close() error {
	return b.db.Close()
}
