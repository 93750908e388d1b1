package store

import (
	"context"
	"sync"
)

// MockStore is a test double for the Store interface
// It allows tests to control behavior and verify interactions
type MockStore struct {
	mu sync.Mutex

	// Data holds the stored text (key -> value)
	Data map[string]string

	// Track method calls for verification in tests
	GetCalls    []string
	SetCalls    []string
	DeleteCalls []string
	CloseCalled bool

	// Control behavior for error scenarios
	GetError    error
	SetError    error
	DeleteError error
	CloseError  error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{
		Data:        map[string]string{},
		GetCalls:    []string{},
		SetCalls:    []string{},
		DeleteCalls: []string{},
	}
}

// Get implements the Store interface
func (m *MockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, key)
	if m.GetError != nil {
		return "", m.GetError
	}

	val, exists := m.Data[key]
	if !exists {
		return "", ErrNotFound
	}
	return val, nil
}

// Set implements the Store interface
func (m *MockStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SetCalls = append(m.SetCalls, key)
	if m.SetError != nil {
		return m.SetError
	}
	m.Data[key] = value
	return nil
}

// Delete implements the Store interface
func (m *MockStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, key)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	delete(m.Data, key)
	return nil
}

// Close implements the Store interface
// Tracks that close was called and returns configured error if any
func (m *MockStore) Close() error {
	m.CloseCalled = true
	return m.CloseError
}

// SetCount returns how many writes hit the given key
func (m *MockStore) SetCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, k := range m.SetCalls {
		if k == key {
			n++
		}
	}
	return n
}
