package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by backends when a key has never been written
var ErrNotFound = errors.New("key not found")

// Store is a key-value text persistence medium
// Implementations: file, memory, Redis and MySQL, plus MockStore for tests
type Store interface {
	// Get returns the text stored under key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set durably writes text under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close cleans up resources (database connections, file handles, etc.)
	Close() error
}

// Fixed persistence keys for the two collections
const (
	HistoryKey = "ipTrackerHistory"
	CacheKey   = "ipTrackerCache"
)
