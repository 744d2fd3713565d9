// Package memory is an in-process session backend for tests and ephemeral
// runs. Nothing survives the process.
package memory

import (
	"context"
	"maps"
	"sync"
)

// Backend implements session.Backend with a mutex-guarded map.
type Backend struct {
	mu   sync.RWMutex
	data map[string]string
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{data: make(map[string]string)}
}

func (b *Backend) Get(_ context.Context, key string) (string, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *Backend) Set(_ context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func (b *Backend) SetMany(_ context.Context, kv map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	maps.Copy(b.data, kv)
	return nil
}

func (b *Backend) Remove(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.data, k)
	}
	return nil
}

func (b *Backend) Close() error { return nil }

// Len returns the number of stored keys.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}
