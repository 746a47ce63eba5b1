package storage

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is an in-process Client, used for tests and dry runs.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}, types: map[string]string{}}
}

// Put seeds an object.
func (m *Memory) Put(loc Location, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[loc.String()] = append([]byte(nil), data...)
}

// Download returns a copy of the stored object.
func (m *Memory) Download(_ context.Context, loc Location) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[loc.String()]
	if !ok {
		return nil, fmt.Errorf("object %s: not found", loc)
	}
	return append([]byte(nil), data...), nil
}

// Upload stores r under loc.
func (m *Memory) Upload(_ context.Context, loc Location, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read upload body: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[loc.String()] = data
	m.types[loc.String()] = contentType
	return nil
}

// ContentType returns the content type recorded for loc.
func (m *Memory) ContentType(loc Location) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.types[loc.String()]
}
