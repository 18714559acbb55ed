package storage

import (
	"context"
	"sync"
)

type memoryAdapter struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemory returns an in-process Adapter. Used by tests and as the
// fallback when no database is configured.
func NewMemory() Adapter {
	return &memoryAdapter{data: make(map[string]string)}
}

func (a *memoryAdapter) Get(_ context.Context, key string) (string, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v, ok := a.data[key]
	return v, ok, nil
}

func (a *memoryAdapter) Set(_ context.Context, key, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data[key] = value
	return nil
}

func (a *memoryAdapter) Remove(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.data, key)
	return nil
}
