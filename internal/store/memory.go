package store

import (
	"context"
	"sync"
)

// MemoryBackend keeps records in process memory. It backs store.backend=memory
// and tests, and can be told to fail writes.
type MemoryBackend struct {
	mu       sync.Mutex
	data     map[Kind][]byte
	writeErr error
	writes   int
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[Kind][]byte)}
}

// FailWrites makes every subsequent Write and Delete return err. Pass nil to
// restore normal behavior.
func (b *MemoryBackend) FailWrites(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writeErr = err
}

// Writes returns how many successful writes and deletes have happened.
func (b *MemoryBackend) Writes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writes
}

// Read returns a copy of the stored bytes, or ErrNotFound.
func (b *MemoryBackend) Read(_ context.Context, kind Kind) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[kind]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Write stores a copy of data.
func (b *MemoryBackend) Write(_ context.Context, kind Kind, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.data[kind] = append([]byte(nil), data...)
	b.writes++
	return nil
}

// Delete removes a key.
func (b *MemoryBackend) Delete(_ context.Context, kind Kind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	delete(b.data, kind)
	b.writes++
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() error { return nil }
