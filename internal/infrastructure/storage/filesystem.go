package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps checkpoints as files under a root directory
type FileStore struct {
	root string
}

var _ CheckpointStore = (*FileStore)(nil)

// NewFileStore creates the root directory if needed
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Exists reports whether a checkpoint file is present
func (s *FileStore) Exists(_ context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// Get reads a checkpoint, decompressing .zst keys
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read checkpoint %s: %w", key, err)
	}
	if isCompressed(key) {
		return decompress(bytes.NewReader(data))
	}
	return data, nil
}

// Put writes a checkpoint atomically via a temp file and rename
func (s *FileStore) Put(_ context.Context, key string, data []byte) error {
	if isCompressed(key) {
		var err error
		if data, err = compress(data); err != nil {
			return err
		}
	}

	dest := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("rename checkpoint %s: %w", key, err)
	}
	return nil
}
