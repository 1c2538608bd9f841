package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var _ Store = (*FileStore)(nil)

// FileStore keeps one file per key under <dir>/<namespace>/<key>.json.
// Writes go through a temp file and rename so readers never see partial data.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(namespace, key string) string {
	return filepath.Join(s.dir, namespace, key+".json")
}

func (s *FileStore) Get(_ context.Context, namespace, key string) ([]byte, error) {
	if err := validateNames(namespace, key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(namespace, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

func (s *FileStore) Set(_ context.Context, namespace, key string, value []byte) error {
	if err := validateNames(namespace, key); err != nil {
		return err
	}

	nsDir := filepath.Join(s.dir, namespace)
	if err := os.MkdirAll(nsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create namespace directory: %w", err)
	}

	tmp, err := os.CreateTemp(nsDir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write %s/%s: %w", namespace, key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path(namespace, key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s/%s: %w", namespace, key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, namespace, key string) error {
	if err := validateNames(namespace, key); err != nil {
		return err
	}

	err := os.Remove(s.path(namespace, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Ping checks that the storage directory is still reachable
func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("storage directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", s.dir)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
