package sessions

import (
	"context"
	"sync"
)

// Memory is an in-process Store guarded by a read-write mutex.
// Suitable for single-instance deployments and tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(_ context.Context, id string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data[id], nil
}

func (m *Memory) Set(_ context.Context, id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = text
	return nil
}

func (m *Memory) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}
