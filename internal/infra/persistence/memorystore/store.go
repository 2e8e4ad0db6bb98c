// Package memorystore implements the persistence store in process memory.
// State does not survive a restart; intended for tests and ephemeral runs.
package memorystore

import (
	"context"
	"sync"

	"github.com/vietddude/lifeline/internal/infra/persistence"
)

// Store is an in-memory persistence store.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New creates an empty store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Save persists a blob under a key.
func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[key] = cp
	return nil
}

// Load returns the blob stored under a key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, persistence.ErrKeyNotFound
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
