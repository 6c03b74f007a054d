package settings

import (
	"context"
	"sync"
)

// MemoryStore guarda las preferencias en memoria. Para tests y modo dev.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryStore crea un MemoryStore con valores iniciales opcionales.
func NewMemoryStore(initial map[string]string) *MemoryStore {
	m := &MemoryStore{values: map[string]string{}}
	for k, v := range initial {
		m.values[k] = v
	}
	return m
}

func (m *MemoryStore) Load(context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.values[k] = v
	}
	return nil
}
