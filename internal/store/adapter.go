package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
)

// Adapter is the persistence boundary used by the history and cache managers
//
// It never surfaces errors: a failed or missing read degrades to "absent",
// a failed write is logged and dropped. Every write goes straight to the
// backend, there is no batching.
type Adapter struct {
	backend Store
	name    string // backend label for logs and metrics
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewAdapter wraps a backend
//
// Parameters:
//   - backend: any Store implementation
//   - name: label used in logs and metrics (e.g. "file", "redis")
//   - m: metrics collector (optional, can be nil)
//   - log: logger (optional, can be nil)
func NewAdapter(backend Store, name string, m *metrics.Metrics, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Adapter{
		backend: backend,
		name:    name,
		metrics: m,
		logger:  log.WithComponent("StoreAdapter"),
	}
}

// Load returns the text under key; ok is false when absent or unreadable
func (a *Adapter) Load(key string) (string, bool) {
	start := time.Now()
	val, err := a.backend.Get(context.Background(), key)
	a.observe("get", start, err)

	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.logger.Warn().Err(err).Str("key", key).Msg("Failed to read from store, using default")
		}
		return "", false
	}
	return val, true
}

// Save writes text under key
func (a *Adapter) Save(key, text string) {
	start := time.Now()
	err := a.backend.Set(context.Background(), key, text)
	a.observe("set", start, err)

	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("Failed to write to store")
	}
}

// Remove deletes key
func (a *Adapter) Remove(key string) {
	start := time.Now()
	err := a.backend.Delete(context.Background(), key)
	a.observe("delete", start, err)

	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("Failed to delete from store")
	}
}

// Close closes the underlying backend
func (a *Adapter) Close() error {
	return a.backend.Close()
}

func (a *Adapter) observe(op string, start time.Time, err error) {
	if a.metrics == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	a.metrics.DatastoreOpsTotal.WithLabelValues(a.name, op, status).Inc()
	a.metrics.DatastoreOpDuration.WithLabelValues(a.name, op).Observe(time.Since(start).Seconds())
}

// LoadJSON decodes the JSON collection under key
// An absent or corrupted value yields def
func LoadJSON[T any](a *Adapter, key string, def T) T {
	text, ok := a.Load(key)
	if !ok {
		return def
	}

	var out T
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		a.logger.Warn().Err(err).Str("key", key).Msg("Stored value is corrupted, using default")
		return def
	}
	return out
}

// SaveJSON serializes the whole collection and writes it under key
func SaveJSON[T any](a *Adapter, key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		a.logger.Error().Err(err).Str("key", key).Msg("Failed to encode value for store")
		return
	}
	a.Save(key, string(data))
}
