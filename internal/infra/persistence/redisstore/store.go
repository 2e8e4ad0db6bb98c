// Package redisstore implements the persistence store on Redis, for
// deployments where durable state must be shared across hosts.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/lifeline/internal/infra/persistence"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}

// Store is a Redis-backed persistence store.
type Store struct {
	rdb *redis.Client
}

// New connects to Redis and verifies the connection.
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{rdb: rdb}, nil
}

func storeKey(key string) string {
	return fmt.Sprintf("lifeline:state:%s", key)
}

// Save persists a blob under a key.
func (s *Store) Save(ctx context.Context, key string, blob []byte) error {
	if err := s.rdb.Set(ctx, storeKey(key), blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %q: %w", key, err)
	}
	return nil
}

// Load returns the blob stored under a key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.rdb.Get(ctx, storeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %q: %w", key, err)
	}
	return blob, nil
}

// Delete removes a key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, storeKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.rdb.Close()
}
