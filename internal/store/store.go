package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ylingtech/updatewatch/internal/logging"
	"github.com/ylingtech/updatewatch/internal/version"
)

// Kind names one persisted record.
type Kind string

// Record keys. They double as file names and SQLite keys.
const (
	KindApplied Kind = "app_update_applied"
	KindSnooze  Kind = "app_update_snoozed"
	KindDismiss Kind = "app_update_dismissed"
)

// Kinds lists every record kind in the order Clear removes them.
var Kinds = []Kind{KindApplied, KindSnooze, KindDismiss}

// ErrNotFound is returned by a Backend when a key has no value.
var ErrNotFound = errors.New("record not found")

// Backend is raw key/value storage for serialized records.
type Backend interface {
	Read(ctx context.Context, kind Kind) ([]byte, error)
	Write(ctx context.Context, kind Kind, data []byte) error
	Delete(ctx context.Context, kind Kind) error
	Close() error
}

// ReadError reports a record that exists but could not be read or decoded.
type ReadError struct {
	Kind Kind
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Kind, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failed write or delete.
type WriteError struct {
	Kind Kind
	Op   string // "write" or "delete"
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Records is a point-in-time view of all three records. Nil means absent.
type Records struct {
	Applied *version.AppliedRecord
	Snooze  *version.SnoozeRecord
	Dismiss *version.DismissRecord
}

// Store reads and writes typed update records.
type Store struct {
	backend Backend
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovered read errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New wraps backend in a Store.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Applied returns the last applied record, or nil.
func (s *Store) Applied(ctx context.Context) *version.AppliedRecord {
	return read(ctx, s, KindApplied, func(r *version.AppliedRecord) bool {
		return r.Version != ""
	})
}

// Snooze returns the snooze record, or nil.
func (s *Store) Snooze(ctx context.Context) *version.SnoozeRecord {
	return read(ctx, s, KindSnooze, func(r *version.SnoozeRecord) bool {
		return r.Version != "" && r.SnoozedAt > 0
	})
}

// Dismiss returns the dismiss record, or nil.
func (s *Store) Dismiss(ctx context.Context) *version.DismissRecord {
	return read(ctx, s, KindDismiss, func(r *version.DismissRecord) bool {
		return *r != ""
	})
}

// Load reads all three records.
func (s *Store) Load(ctx context.Context) Records {
	return Records{
		Applied: s.Applied(ctx),
		Snooze:  s.Snooze(ctx),
		Dismiss: s.Dismiss(ctx),
	}
}

// SetApplied persists the applied record.
func (s *Store) SetApplied(ctx context.Context, rec version.AppliedRecord) error {
	return s.write(ctx, KindApplied, rec)
}

// SetSnooze persists the snooze record.
func (s *Store) SetSnooze(ctx context.Context, rec version.SnoozeRecord) error {
	return s.write(ctx, KindSnooze, rec)
}

// SetDismiss persists the dismiss record.
func (s *Store) SetDismiss(ctx context.Context, rec version.DismissRecord) error {
	return s.write(ctx, KindDismiss, rec)
}

// Remove deletes one record. Removing an absent record is not an error.
func (s *Store) Remove(ctx context.Context, kind Kind) error {
	if err := s.backend.Delete(ctx, kind); err != nil && !errors.Is(err, ErrNotFound) {
		return &WriteError{Kind: kind, Op: "delete", Err: err}
	}
	return nil
}

// Clear removes every record. Each removal is attempted even if an earlier
// one fails.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, kind := range Kinds {
		if err := s.Remove(ctx, kind); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) write(ctx context.Context, kind Kind, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &WriteError{Kind: kind, Op: "write", Err: fmt.Errorf("marshaling record: %w", err)}
	}
	if err := s.backend.Write(ctx, kind, data); err != nil {
		return &WriteError{Kind: kind, Op: "write", Err: err}
	}
	return nil
}

// read decodes one record. Corrupt values are logged, deleted and reported
// as absent; backend failures are logged and reported as absent.
func read[T any](ctx context.Context, s *Store, kind Kind, valid func(*T) bool) *T {
	data, err := s.backend.Read(ctx, kind)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("update record unreadable, treating as absent",
			"kind", kind, "error", &ReadError{Kind: kind, Err: err})
		return nil
	}

	var rec T
	decodeErr := json.Unmarshal(data, &rec)
	if decodeErr == nil && !valid(&rec) {
		decodeErr = errors.New("record is missing required fields")
	}
	if decodeErr != nil {
		s.logger.Warn("update record corrupt, discarding",
			"kind", kind, "error", &ReadError{Kind: kind, Err: decodeErr})
		if err := s.backend.Delete(ctx, kind); err != nil && !errors.Is(err, ErrNotFound) {
			s.logger.Warn("failed to discard corrupt update record", "kind", kind, "error", err)
		}
		return nil
	}
	return &rec
}
