package geoapi

import (
	"context"
	"sync"
)

// MockFetcher is a test double for the Fetcher interface
// It allows tests to control responses and count network requests
type MockFetcher struct {
	mu sync.Mutex

	// Control behavior
	Response *Response
	Err      error
	// Hook runs before returning, e.g. to block or to panic
	Hook func(ctx context.Context, query string)

	// Track method calls for verification in tests
	FetchCalls []string
}

// NewMockFetcher creates a mock that answers every request with status and body
func NewMockFetcher(status int, body string) *MockFetcher {
	return &MockFetcher{
		Response:   &Response{StatusCode: status, Body: []byte(body)},
		FetchCalls: []string{},
	}
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context, query string) (*Response, error) {
	m.mu.Lock()
	m.FetchCalls = append(m.FetchCalls, query)
	hook, resp, err := m.Hook, m.Response, m.Err
	m.mu.Unlock()

	if hook != nil {
		hook(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Calls returns the number of requests made so far
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.FetchCalls)
}
