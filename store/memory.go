package store

import (
	"context"
	"sync"

	"github.com/use-agent/recipebox/models"
)

// Memory is an in-process Store. It is safe for concurrent use and keeps
// its own copies, so callers cannot change stored records after Put.
type Memory struct {
	mu     sync.RWMutex
	store  map[string]*models.StoredSummary
	closed bool
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{store: make(map[string]*models.StoredSummary)}
}

func (m *Memory) Put(_ context.Context, key string, s *models.StoredSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return unavailable("put", errClosed)
	}
	m.store[key] = stamp(key, s)
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (*models.StoredSummary, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, unavailable("get", errClosed)
	}
	s, ok := m.store[key]
	if !ok {
		return nil, false, nil
	}
	c := *s
	return &c, true, nil
}

func (m *Memory) List(_ context.Context) (map[string]*models.StoredSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, unavailable("list", errClosed)
	}
	out := make(map[string]*models.StoredSummary, len(m.store))
	for k, s := range m.store {
		c := *s
		out[k] = &c
	}
	return out, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return unavailable("delete", errClosed)
	}
	delete(m.store, key)
	return nil
}

// Close drops all entries. Later calls fail with STORAGE_UNAVAILABLE.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.store = nil
	return nil
}
