package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/ylingtech/updatewatch/internal/platform"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const createRecordsTable = `CREATE TABLE IF NOT EXISTS update_records (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteBackend keeps records as rows in a single SQLite table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// buildSQLiteDSN creates a WAL-mode DSN for the given path.
func buildSQLiteDSN(dbPath string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(dbPath),
	}
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(3000)")
	u.RawQuery = q.Encode()
	return u.String()
}

// OpenSQLite opens (creating if needed) the database at dbPath.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLiteBackend, error) {
	if err := platform.EnsureSecureDir(filepath.Dir(dbPath)); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", buildSQLiteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, createRecordsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create records table: %w", err)
	}
	return &SQLiteBackend{db: db, path: dbPath}, nil
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string {
	return b.path
}

// Read returns the stored value for kind, or ErrNotFound.
func (b *SQLiteBackend) Read(ctx context.Context, kind Kind) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM update_records WHERE key = ?`, string(kind)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query record: %w", err)
	}
	return value, nil
}

// Write upserts the value for kind.
func (b *SQLiteBackend) Write(ctx context.Context, kind Kind, data []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO update_records (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(kind), data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Delete removes the row for kind.
func (b *SQLiteBackend) Delete(ctx context.Context, kind Kind) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM update_records WHERE key = ?`, string(kind)); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
