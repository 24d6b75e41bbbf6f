// Package store keeps the simulated editor's documents (node dumps, asset
// records, metas and project settings) as JSON blobs under string keys.
package store

import (
	"context"
	"errors"
)

// Store defines the interface for all document backends
type Store interface {
	// Get retrieves a document
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a document, replacing any previous one
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes a document
	Delete(ctx context.Context, key string) error

	// Keys lists the keys starting with prefix, sorted
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases the backend
	Close() error
}

// Config holds common configuration for store backends
type Config struct {
	// Prefix is prepended to all keys
	Prefix string
}

// DefaultConfig returns a default store configuration
func DefaultConfig() Config {
	return Config{Prefix: "creatorbridge:"}
}

// ErrMiss is returned when a key is not in the store
type ErrMiss struct {
	Key string
}

func (e ErrMiss) Error() string {
	return "store miss: " + e.Key
}

// IsMiss checks if an error is a store miss
func IsMiss(err error) bool {
	var miss ErrMiss
	return errors.As(err, &miss)
}
