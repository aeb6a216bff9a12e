package session

import (
	"context"
	"errors"
	"sync"
)

// Keys under which the session is persisted.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrCorrupt is wrapped by storages whose persisted state cannot be parsed.
// The store purges the affected key when it sees it.
var ErrCorrupt = errors.New("corrupt session storage")

// Storage is durable key-value storage for the two session entries.
type Storage interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Watcher is implemented by storages that can report changes made by other
// processes. Watch blocks until ctx is done, calling onChange after each
// external modification.
type Watcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// MemoryStorage is a thread-safe, in-memory Storage.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
