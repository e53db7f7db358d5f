package backend

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	recordExt = ".rec"
	dirPerm   = 0o700
	filePerm  = 0o600
)

// FileBackend stores one file per key under dir. File names are the hex encoded key,
// so any key maps to a safe name.
type FileBackend struct {
	mu  sync.RWMutex
	dir string
}

// NewFileBackend creates dir if needed and returns a backend rooted there.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create record directory: %w", err)
	}
	if err := os.Chmod(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("set record directory permissions: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (f *FileBackend) Name() string {
	return "file"
}

func (f *FileBackend) pathFor(key string) string {
	return filepath.Join(f.dir, hex.EncodeToString([]byte(key))+recordExt)
}

func (f *FileBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.read(key)
}

func (f *FileBackend) read(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.pathFor(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read record %q: %w", key, err)
	}
	return data, true, nil
}

func (f *FileBackend) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	values := make(map[string][]byte, len(keys))
	for _, key := range keys {
		data, found, err := f.read(key)
		if err != nil {
			return nil, err
		}
		if found {
			values[key] = data
		}
	}
	return values, nil
}

func (f *FileBackend) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return writeSecureFile(f.pathFor(key), value)
}

// PutMany writes each record with its own atomic rename. A failure part way leaves
// the earlier records written.
func (f *FileBackend) PutMany(ctx context.Context, records map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, value := range records {
		if err := writeSecureFile(f.pathFor(key), value); err != nil {
			return fmt.Errorf("put %q: %w", key, err)
		}
	}
	return nil
}

func (f *FileBackend) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

func (f *FileBackend) ForEach(ctx context.Context, fn func(key string, value []byte) error) error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		rawKey, err := hex.DecodeString(strings.TrimSuffix(name, recordExt))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(f.dir, name))
		if err != nil {
			return fmt.Errorf("read record %q: %w", rawKey, err)
		}
		if err := fn(string(rawKey), data); err != nil {
			return err
		}
	}
	return nil
}

func (f *FileBackend) Destroy(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.RemoveAll(f.dir); err != nil {
		return fmt.Errorf("remove record directory: %w", err)
	}
	return nil
}

func (f *FileBackend) Close() error {
	return nil
}

// writeSecureFile writes data to a temp file in the same directory, syncs it, and
// renames it over path so readers never observe a partial record.
func writeSecureFile(path string, data []byte) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	cleanup := func(cause error) error {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
		return cause
	}

	if _, err := tmpFile.Write(data); err != nil {
		return cleanup(fmt.Errorf("failed to write temp file: %w", err))
	}
	if err := tmpFile.Sync(); err != nil {
		return cleanup(fmt.Errorf("failed to sync temp file: %w", err))
	}
	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, filePerm); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
