// Package badgerstore implements the persistence store on an embedded
// BadgerDB database, the default backend for local durable state.
package badgerstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/vietddude/lifeline/internal/infra/persistence"
)

// Config holds BadgerDB settings.
type Config struct {
	Path       string `yaml:"path"`
	SyncWrites bool   `yaml:"sync_writes"`
	InMemory   bool   `yaml:"in_memory"`
}

// Store is a Badger-backed persistence store.
type Store struct {
	db *badger.DB
}

// New opens (or creates) the database at cfg.Path.
func New(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithInMemory(true).WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}
	return &Store{db: db}, nil
}

// Save persists a blob under a key.
func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), blob)
	})
	if err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under a key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, persistence.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", key, err)
	}
	return blob, nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
