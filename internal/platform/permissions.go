package platform

import (
	"fmt"
	"os"
	"runtime"
)

// Permission constants for persisted state.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// EnsureSecureDir creates dir with owner-only permissions, tightening the
// mode if the directory already exists.
func EnsureSecureDir(dir string) error {
	if err := os.MkdirAll(dir, DirPermSecure); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := Chmod(dir, DirPermSecure); err != nil {
		return fmt.Errorf("restricting directory %s: %w", dir, err)
	}
	return nil
}
