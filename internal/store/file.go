package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ylingtech/updatewatch/internal/platform"
)

// FileBackend keeps each record in its own JSON file under a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend returns a backend rooted at dir. The directory is created on
// first write.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

// Dir returns the directory holding the record files.
func (b *FileBackend) Dir() string {
	return b.dir
}

func (b *FileBackend) path(kind Kind) string {
	return filepath.Join(b.dir, string(kind)+".json")
}

// Read returns the raw bytes of a record, or ErrNotFound.
func (b *FileBackend) Read(_ context.Context, kind Kind) ([]byte, error) {
	data, err := os.ReadFile(b.path(kind))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading record file: %w", err)
	}
	return data, nil
}

// Write replaces a record. The value is written to a temp file and renamed
// into place so a crash never leaves a half-written record.
func (b *FileBackend) Write(_ context.Context, kind Kind, data []byte) error {
	if err := platform.EnsureSecureDir(b.dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(b.dir, "."+string(kind)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp record file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp record file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp record file: %w", err)
	}
	if err := platform.Chmod(tmpPath, platform.FilePermSecure); err != nil {
		return fmt.Errorf("restricting record file: %w", err)
	}
	if err := os.Rename(tmpPath, b.path(kind)); err != nil {
		return fmt.Errorf("installing record file: %w", err)
	}
	return nil
}

// Delete removes a record file. A missing file is not an error.
func (b *FileBackend) Delete(_ context.Context, kind Kind) error {
	if err := os.Remove(b.path(kind)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing record file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (b *FileBackend) Close() error { return nil }
