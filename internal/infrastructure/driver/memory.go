package driver

import (
	"sync"
	"time"
)

// MemoryKV KeyValueDB implementation backed by a process-local map.
// Serves as the client cache store when no redis instance is
// configured, and as the storage fake in tests
type MemoryKV struct {
	mu      sync.RWMutex
	values  map[string]string
	expires map[string]time.Time
}

var _ KeyValueDB = &MemoryKV{}

// NewMemoryKV create an empty in-process store
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values:  make(map[string]string),
		expires: make(map[string]time.Time),
	}
}

// Set implement KeyValueDB
func (m *MemoryKV) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	delete(m.expires, key)
	return nil
}

// SetEX implement KeyValueDB
func (m *MemoryKV) SetEX(key string, value string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.expires[key] = time.Now().Add(expiration)
	return nil
}

// Get implement KeyValueDB
func (m *MemoryKV) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if exp, ok := m.expires[key]; ok && time.Now().After(exp) {
		return "", ErrKeyNotFound
	}
	value, ok := m.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

// Exists implement KeyValueDB
func (m *MemoryKV) Exists(key string) (bool, error) {
	_, err := m.Get(key)
	if err == ErrKeyNotFound {
		return false, nil
	}
	return err == nil, err
}

// Ping implement KeyValueDB
func (m *MemoryKV) Ping() error {
	return nil
}
