package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements an in-process store
type MemoryStore struct {
	data   sync.Map
	config Config
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(DefaultConfig())
}

// NewMemoryStoreWithConfig creates a new in-memory store with custom configuration
func NewMemoryStoreWithConfig(config Config) *MemoryStore {
	return &MemoryStore{config: config}
}

// Get retrieves a document
func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	value, ok := m.data.Load(m.config.Prefix + key)
	if !ok {
		return nil, ErrMiss{Key: key}
	}
	return append([]byte(nil), value.([]byte)...), nil
}

// Put stores a document
func (m *MemoryStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.data.Store(m.config.Prefix+key, append([]byte(nil), value...))
	return nil
}

// Delete removes a document
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.data.Delete(m.config.Prefix + key)
	return nil
}

// Keys lists the keys starting with prefix
func (m *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	full := m.config.Prefix + prefix
	var keys []string
	m.data.Range(func(k, _ any) bool {
		if s := k.(string); strings.HasPrefix(s, full) {
			keys = append(keys, strings.TrimPrefix(s, m.config.Prefix))
		}
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
