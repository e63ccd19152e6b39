package store

import "sync"

// Memory is an in-process store for tests and --ephemeral runs.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
	sets int
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

// Get returns the value under key.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

// Delete removes key.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Sets returns how many Set calls the store has served.
func (m *Memory) Sets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sets
}
