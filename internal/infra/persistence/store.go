// Package persistence defines the durable key-value store port used for
// offline queue snapshots and cached responses.
package persistence

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned when a key has no stored value.
var ErrKeyNotFound = errors.New("key not found")

// Store is a durable key-value blob store.
type Store interface {
	// Save persists a blob under a key, replacing any previous value.
	Save(ctx context.Context, key string, blob []byte) error

	// Load returns the blob stored under a key, or ErrKeyNotFound.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}
