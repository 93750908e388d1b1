package presenter

import (
	"sync"

	"github.com/evyataryagoni/iptracker/internal/models"
)

// MapCall is one recorded RenderMap invocation
type MapCall struct {
	Lat, Lng float64
}

// HistoryCall is one recorded RenderHistory invocation
type HistoryCall struct {
	Entries  []string
	Expanded bool
}

// MockPresenter is a test double for the Presenter interface
// It records every call in order so tests can assert on side effects
type MockPresenter struct {
	mu sync.Mutex

	// Calls holds method names in call order
	Calls []string

	Results       []models.LookupResult
	Errors        []string
	ClearCalls    int
	HistoryCalls  []HistoryCall
	MapCalls      []MapCall
	PanicOnRender bool // first Render panics, for recovery tests
}

// NewMockPresenter creates an empty recorder
func NewMockPresenter() *MockPresenter {
	return &MockPresenter{}
}

func (m *MockPresenter) Render(result models.LookupResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "Render")
	if m.PanicOnRender {
		m.PanicOnRender = false
		panic("render failed")
	}
	m.Results = append(m.Results, result)
}

func (m *MockPresenter) RenderError(message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "RenderError")
	m.Errors = append(m.Errors, message)
}

func (m *MockPresenter) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "ClearError")
	m.ClearCalls++
}

func (m *MockPresenter) RenderHistory(entries []string, expanded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "RenderHistory")
	cp := make([]string, len(entries))
	copy(cp, entries)
	m.HistoryCalls = append(m.HistoryCalls, HistoryCall{Entries: cp, Expanded: expanded})
}

func (m *MockPresenter) RenderMap(lat, lng float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, "RenderMap")
	m.MapCalls = append(m.MapCalls, MapCall{Lat: lat, Lng: lng})
}

// LastHistory returns the most recent RenderHistory call
func (m *MockPresenter) LastHistory() (HistoryCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.HistoryCalls) == 0 {
		return HistoryCall{}, false
	}
	return m.HistoryCalls[len(m.HistoryCalls)-1], true
}
