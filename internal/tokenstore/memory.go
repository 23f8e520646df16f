package tokenstore

import (
	"context"
	"sync"
)

// memoryStore keeps the record in process memory. Used by tests and by the
// noop backend, where nothing should survive a restart.
type memoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemory creates an in-memory token store.
func NewMemory() Store {
	return &memoryStore{}
}

func (m *memoryStore) Save(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.rec = &cp
	return nil
}

func (m *memoryStore) Load(_ context.Context) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, ErrNotFound
	}
	cp := *m.rec
	return &cp, nil
}

func (m *memoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}

func (m *memoryStore) Ping(_ context.Context) error { return nil }

func (m *memoryStore) Close() error { return nil }
