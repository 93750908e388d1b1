package controller

import (
	"context"
	"net/http"
	"reflect"
	"sync"
	"testing"

	"github.com/evyataryagoni/iptracker/internal/cache"
	"github.com/evyataryagoni/iptracker/internal/geoapi"
	"github.com/evyataryagoni/iptracker/internal/history"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/presenter"
	"github.com/evyataryagoni/iptracker/internal/service"
	"github.com/evyataryagoni/iptracker/internal/store"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

const okBody = `{"ip":"203.0.113.7","location":{"city":"Springfield","region":"IL","country":"US","lat":1,"lng":2,"timezone":"-05:00"},"isp":"ACME"}`

type fixture struct {
	ctrl    *Controller
	view    *presenter.MockPresenter
	fetcher *geoapi.MockFetcher
	history *history.Manager
	cache   *cache.Cache
	store   *store.MockStore
	metrics *metrics.Metrics
}

func newFixture(fetcher *geoapi.MockFetcher) *fixture {
	mockStore := store.NewMockStore()
	adapter := store.NewAdapter(mockStore, "mock", nil, logger.Nop())
	m := metrics.New()
	c := cache.New(adapter, m, logger.Nop())
	h := history.NewManager(adapter, m, logger.Nop())
	lookups := service.NewLookupService(fetcher, c, h, m, logger.Nop())
	view := presenter.NewMockPresenter()

	return &fixture{
		ctrl:    New(lookups, h, c, view, m, logger.Nop()),
		view:    view,
		fetcher: fetcher,
		history: h,
		cache:   c,
		store:   mockStore,
		metrics: m,
	}
}

// TestController_PageLoad tests the own-IP lookup on startup
func TestController_PageLoad(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))

	out := f.ctrl.PageLoad(context.Background())

	if out.Kind != service.Success {
		t.Fatalf("expected success, got %s", out.Kind)
	}
	if !reflect.DeepEqual(f.view.MapCalls, []presenter.MapCall{{Lat: 1, Lng: 2}}) {
		t.Errorf("expected exactly one map render at (1,2), got %v", f.view.MapCalls)
	}
	if f.store.SetCount(store.HistoryKey) != 0 || f.store.SetCount(store.CacheKey) != 0 {
		t.Error("expected no history or cache writes on page load")
	}
	if h, ok := f.view.LastHistory(); !ok || len(h.Entries) != 0 {
		t.Errorf("expected empty history drawn on page load, got %+v", h)
	}
}

// TestController_Submit_RendersHistory tests that a successful lookup redraws history
func TestController_Submit_RendersHistory(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))

	f.ctrl.Submit(context.Background(), " example.com ")

	h, ok := f.view.LastHistory()
	if !ok {
		t.Fatal("expected history to be drawn")
	}
	if !reflect.DeepEqual(h.Entries, []string{"example.com"}) {
		t.Errorf("expected [example.com], got %v", h.Entries)
	}
}

// TestController_UseHistoryEntry tests repeating a stored query from cache
func TestController_UseHistoryEntry(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))
	f.ctrl.Submit(context.Background(), "a.com")
	f.ctrl.Submit(context.Background(), "b.com")

	out := f.ctrl.UseHistoryEntry(context.Background(), "a.com")

	if out.Kind != service.CacheHit {
		t.Errorf("expected cache hit, got %s", out.Kind)
	}
	if f.fetcher.Calls() != 2 {
		t.Errorf("expected 2 network requests, got %d", f.fetcher.Calls())
	}
	if got := f.history.List(); !reflect.DeepEqual(got, []string{"a.com", "b.com"}) {
		t.Errorf("expected a.com moved to front, got %v", got)
	}
}

// TestController_ClearHistory tests that clearing redraws an empty panel
func TestController_ClearHistory(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))
	f.ctrl.Submit(context.Background(), "a.com")

	f.ctrl.ClearHistory()

	h, _ := f.view.LastHistory()
	if len(h.Entries) != 0 {
		t.Errorf("expected empty history drawn, got %v", h.Entries)
	}
	if len(f.history.List()) != 0 {
		t.Error("expected history to be empty")
	}
}

// TestController_ClearCache tests that a cleared cache forces a new request
func TestController_ClearCache(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))
	f.ctrl.Submit(context.Background(), "a.com")

	f.ctrl.ClearCache()
	out := f.ctrl.Submit(context.Background(), "a.com")

	if out.Kind != service.Success {
		t.Errorf("expected network lookup after clear, got %s", out.Kind)
	}
	if f.fetcher.Calls() != 2 {
		t.Errorf("expected 2 network requests, got %d", f.fetcher.Calls())
	}
}

// TestController_ToggleHistory tests the expanded flag
func TestController_ToggleHistory(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))
	f.history.Add("a.com")

	if !f.ctrl.ToggleHistory() {
		t.Fatal("expected expanded after first toggle")
	}
	h, _ := f.view.LastHistory()
	if !h.Expanded {
		t.Error("expected expanded history drawn")
	}

	if f.ctrl.ToggleHistory() {
		t.Error("expected collapsed after second toggle")
	}
	f.history.Add("b.com")
	h, _ = f.view.LastHistory()
	if h.Expanded {
		t.Error("expected subscription to use the collapsed state")
	}
}

// TestController_SetHistoryExpanded tests that only a change redraws
func TestController_SetHistoryExpanded(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))

	f.ctrl.SetHistoryExpanded(false)
	if len(f.view.HistoryCalls) != 0 {
		t.Error("expected no redraw without a change")
	}

	f.ctrl.SetHistoryExpanded(true)
	if len(f.view.HistoryCalls) != 1 || !f.ctrl.Expanded() {
		t.Errorf("expected one expanded redraw, got %+v", f.view.HistoryCalls)
	}
}

// TestController_InputEdited tests that typing clears the error
func TestController_InputEdited(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))

	f.ctrl.InputEdited()

	if f.view.ClearCalls != 1 {
		t.Errorf("expected 1 ClearError call, got %d", f.view.ClearCalls)
	}
}

// TestController_OverlappingLookups tests that a superseded lookup never draws
func TestController_OverlappingLookups(t *testing.T) {
	// Arrange
	fetcher := geoapi.NewMockFetcher(http.StatusOK, okBody)
	started := make(chan struct{})
	release := make(chan struct{})
	fetcher.Hook = func(_ context.Context, query string) {
		if query == "slow.com" {
			close(started)
			<-release
		}
	}
	f := newFixture(fetcher)

	// Act
	var slow Outcome
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slow = f.ctrl.Submit(context.Background(), "slow.com")
	}()
	<-started

	fast := f.ctrl.Submit(context.Background(), "fast.com")
	rendersAfterFast := len(f.view.Results)
	close(release)
	wg.Wait()

	// Assert
	if fast.Stale {
		t.Error("expected latest lookup to be current")
	}
	if !slow.Stale {
		t.Error("expected first lookup to be stale")
	}
	if slow.RequestID >= fast.RequestID {
		t.Errorf("expected increasing request ids, got %d then %d", slow.RequestID, fast.RequestID)
	}
	if len(f.view.Results) != rendersAfterFast {
		t.Errorf("expected stale lookup not to draw, got %d renders", len(f.view.Results))
	}
	if len(f.view.MapCalls) != 1 {
		t.Errorf("expected only the latest lookup on the map, got %d", len(f.view.MapCalls))
	}
	if _, ok := f.cache.Get("slow.com"); !ok {
		t.Error("expected stale success to still be cached")
	}
	if got := f.history.List(); !reflect.DeepEqual(got, []string{"slow.com", "fast.com"}) {
		t.Errorf("expected both queries in history, got %v", got)
	}
	if v := testutil.ToFloat64(f.metrics.StaleLookupsDiscarded); v != 1 {
		t.Errorf("expected 1 discarded lookup, got %v", v)
	}
}

// TestController_Submit_BlankIgnored tests that blank input never reaches the API
func TestController_Submit_BlankIgnored(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))

	for _, raw := range []string{"", "   ", "\t\n"} {
		out := f.ctrl.Submit(context.Background(), raw)

		if out.Kind != service.Ignored {
			t.Errorf("%q: expected ignored, got %s", raw, out.Kind)
		}
		if out.RequestID != 0 || out.Stale {
			t.Errorf("%q: expected no request id, got %+v", raw, out)
		}
	}

	if n := f.fetcher.Calls(); n != 0 {
		t.Errorf("expected no upstream requests, got %d", n)
	}
	if len(f.view.Calls) != 0 {
		t.Errorf("expected nothing drawn, got %v", f.view.Calls)
	}
	if f.store.SetCount(store.HistoryKey) != 0 || f.store.SetCount(store.CacheKey) != 0 {
		t.Error("expected no history or cache writes")
	}
}

// TestController_Snapshot tests staleness as seen while reading the view
func TestController_Snapshot(t *testing.T) {
	f := newFixture(geoapi.NewMockFetcher(http.StatusOK, okBody))

	first := f.ctrl.Submit(context.Background(), "first.com")
	second := f.ctrl.Submit(context.Background(), "second.com")

	read := 0
	if stale := f.ctrl.Snapshot(first.RequestID, func() { read++ }); !stale {
		t.Error("expected superseded lookup to be stale")
	}
	if stale := f.ctrl.Snapshot(second.RequestID, func() { read++ }); stale {
		t.Error("expected latest lookup to be current")
	}
	if stale := f.ctrl.Snapshot(0, func() { read++ }); stale {
		t.Error("expected id 0 never to be stale")
	}
	if read != 3 {
		t.Errorf("expected read to run every time, ran %d", read)
	}
}
