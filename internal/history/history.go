package history

import (
	"sync"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/store"
)

// MaxEntries is the history capacity; older entries fall off the end
const MaxEntries = 8

// Listener is notified with the new list after every change
type Listener func(entries []string)

// Manager keeps the ordered, deduplicated search history
//
// Entries are most-recent-first and unique. The whole list is read from and
// written back to the store on every change.
type Manager struct {
	mu        sync.Mutex
	store     *store.Adapter
	listeners []Listener
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

// NewManager creates a history manager backed by the given adapter
func NewManager(s *store.Adapter, m *metrics.Metrics, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Manager{
		store:   s,
		metrics: m,
		logger:  log.WithComponent("History"),
	}
}

// Subscribe registers a listener for history changes
func (h *Manager) Subscribe(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

// List returns the history, most recent first
func (h *Manager) List() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

// Add moves query to the front of the history
// An existing copy is removed first; the list is then cut to MaxEntries.
// Empty queries (the caller's own IP) are never recorded.
func (h *Manager) Add(query string) {
	if query == "" {
		return
	}

	next, listeners := h.push(query)

	h.logger.Debug().Str("query", query).Int("size", len(next)).Msg("History updated")
	h.notify(listeners, next)
}

// Clear deletes the persisted history
func (h *Manager) Clear() {
	listeners := h.remove()

	h.logger.Info().Msg("History cleared")
	h.notify(listeners, []string{})
}

func (h *Manager) push(query string) ([]string, []Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.load()
	next := make([]string, 0, len(entries)+1)
	next = append(next, query)
	for _, e := range entries {
		if e != query {
			next = append(next, e)
		}
	}
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}

	store.SaveJSON(h.store, store.HistoryKey, next)
	return next, h.snapshotListeners()
}

func (h *Manager) remove() []Listener {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.store.Remove(store.HistoryKey)
	return h.snapshotListeners()
}

// load must be called with mutex locked
func (h *Manager) load() []string {
	entries := store.LoadJSON(h.store, store.HistoryKey, []string{})
	if entries == nil {
		entries = []string{}
	}
	return entries
}

func (h *Manager) snapshotListeners() []Listener {
	out := make([]Listener, len(h.listeners))
	copy(out, h.listeners)
	return out
}

// notify runs outside the lock so listeners may call List
func (h *Manager) notify(listeners []Listener, entries []string) {
	if h.metrics != nil {
		h.metrics.HistoryEntries.Set(float64(len(entries)))
	}
	for _, l := range listeners {
		cp := make([]string, len(entries))
		copy(cp, entries)
		h.call(l, cp)
	}
}

// call runs one listener; a panicking listener is logged and skipped
// The history is already persisted when listeners run.
func (h *Manager) call(l Listener, entries []string) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error().Interface("panic", r).Msg("History listener panicked")
		}
	}()
	l(entries)
}
