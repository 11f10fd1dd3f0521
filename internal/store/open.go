package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// sqliteFileName is used when the configured path is a directory.
const sqliteFileName = "updates.db"

// Open creates the named backend. For "file" path is a directory; for
// "sqlite" it is a database file, or a directory to hold updates.db.
func Open(ctx context.Context, name, path string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendFile:
		return NewFileBackend(path), nil
	case BackendSQLite:
		dbPath := path
		if filepath.Ext(dbPath) == "" {
			dbPath = filepath.Join(path, sqliteFileName)
		}
		return OpenSQLite(ctx, dbPath)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %s, %s or %s)", name, BackendFile, BackendSQLite, BackendMemory)
	}
}
