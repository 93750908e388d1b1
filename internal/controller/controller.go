package controller

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/evyataryagoni/iptracker/internal/cache"
	"github.com/evyataryagoni/iptracker/internal/history"
	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/evyataryagoni/iptracker/internal/metrics"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/presenter"
	"github.com/evyataryagoni/iptracker/internal/service"
)

// Outcome is a lookup outcome as seen by the controller
// Stale is set when a newer lookup started before this one finished;
// its draws from that point on were dropped.
type Outcome struct {
	service.Outcome
	RequestID uint64
	Stale     bool
}

// Controller owns the widget state and turns user events into lookups
//
// It holds the presenter, the history-expanded flag and the id of the
// latest lookup. Every lookup gets the next id; a lookup whose id is no
// longer the latest when it draws is discarded, so the screen always shows
// the most recently submitted query. Cache and history writes of a
// superseded lookup still happen.
type Controller struct {
	lookups *service.LookupService
	history *history.Manager
	cache   *cache.Cache
	view    presenter.Presenter

	mu       sync.Mutex
	expanded bool

	// drawMu orders guarded draws against new lookups taking over the view
	drawMu sync.Mutex
	latest atomic.Uint64

	metrics *metrics.Metrics
	logger  *logger.Logger
}

// New builds a controller and subscribes it to history changes
// Construct one per presenter, not one per request.
func New(lookups *service.LookupService, h *history.Manager, c *cache.Cache, p presenter.Presenter, m *metrics.Metrics, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewDefault()
	}
	ctrl := &Controller{
		lookups: lookups,
		history: h,
		cache:   c,
		view:    p,
		metrics: m,
		logger:  log.WithComponent("Controller"),
	}
	h.Subscribe(func(entries []string) {
		ctrl.view.RenderHistory(entries, ctrl.Expanded())
	})
	return ctrl
}

// PageLoad draws the stored history and looks up the caller's own address
func (c *Controller) PageLoad(ctx context.Context) Outcome {
	c.ShowHistory()
	return c.lookup(ctx, "")
}

// Submit looks up whatever the user typed
// Blank input is ignored; only PageLoad asks about the caller's own IP.
func (c *Controller) Submit(ctx context.Context, raw string) Outcome {
	query := strings.TrimSpace(raw)
	if query == "" {
		return Outcome{Outcome: service.Outcome{Kind: service.Ignored}}
	}
	return c.lookup(ctx, query)
}

// UseHistoryEntry repeats a stored query
func (c *Controller) UseHistoryEntry(ctx context.Context, query string) Outcome {
	return c.lookup(ctx, query)
}

// ClearHistory empties the history; the subscription redraws it
func (c *Controller) ClearHistory() {
	c.history.Clear()
}

// ClearCache drops every cached result
func (c *Controller) ClearCache() {
	c.cache.Clear()
}

// ToggleHistory flips between the collapsed and expanded history
func (c *Controller) ToggleHistory() bool {
	c.mu.Lock()
	c.expanded = !c.expanded
	expanded := c.expanded
	c.mu.Unlock()

	c.view.RenderHistory(c.history.List(), expanded)
	return expanded
}

// SetHistoryExpanded sets the history panel state and redraws it
func (c *Controller) SetHistoryExpanded(expanded bool) {
	c.mu.Lock()
	changed := c.expanded != expanded
	c.expanded = expanded
	c.mu.Unlock()

	if changed {
		c.ShowHistory()
	}
}

// Expanded reports whether the history panel shows every entry
func (c *Controller) Expanded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expanded
}

// ShowHistory draws the current history
func (c *Controller) ShowHistory() {
	c.view.RenderHistory(c.history.List(), c.Expanded())
}

// InputEdited clears a visible error as soon as the user types
func (c *Controller) InputEdited() {
	c.view.ClearError()
}

func (c *Controller) lookup(ctx context.Context, query string) Outcome {
	c.drawMu.Lock()
	id := c.latest.Add(1)
	c.drawMu.Unlock()
	guard := &staleGuard{id: id, ctrl: c}

	out := c.lookups.Lookup(ctx, query, guard)

	stale := id != c.latest.Load()
	if stale {
		c.logger.Debug().
			Uint64("request_id", id).
			Str("query", out.Query).
			Msg("Superseded lookup finished")
	}
	return Outcome{Outcome: out, RequestID: id, Stale: stale}
}

// staleGuard forwards draws only while its lookup is the latest one
type staleGuard struct {
	id        uint64
	ctrl      *Controller
	discarded atomic.Bool
}

// draw runs fn only if this lookup still owns the view
func (g *staleGuard) draw(fn func()) {
	g.ctrl.drawMu.Lock()
	defer g.ctrl.drawMu.Unlock()

	if g.id == g.ctrl.latest.Load() {
		fn()
		return
	}
	if g.discarded.CompareAndSwap(false, true) && g.ctrl.metrics != nil {
		g.ctrl.metrics.StaleLookupsDiscarded.Inc()
	}
}

func (g *staleGuard) Render(result models.LookupResult) {
	g.draw(func() { g.ctrl.view.Render(result) })
}

func (g *staleGuard) RenderError(message string) {
	g.draw(func() { g.ctrl.view.RenderError(message) })
}

func (g *staleGuard) ClearError() {
	g.draw(g.ctrl.view.ClearError)
}

func (g *staleGuard) RenderHistory(entries []string, expanded bool) {
	g.draw(func() { g.ctrl.view.RenderHistory(entries, expanded) })
}

func (g *staleGuard) RenderMap(lat, lng float64) {
	g.draw(func() { g.ctrl.view.RenderMap(lat, lng) })
}

// Snapshot runs read while no lookup can draw and reports whether the
// lookup with the given id has been superseded. Reading the view inside
// read keeps the two consistent. id 0 means no lookup ran and is never stale.
func (c *Controller) Snapshot(id uint64, read func()) (stale bool) {
	c.drawMu.Lock()
	defer c.drawMu.Unlock()

	read()
	return id != 0 && id != c.latest.Load()
}

// HistoryEntry returns the i-th stored query, most recent first
func (c *Controller) HistoryEntry(i int) (string, bool) {
	entries := c.history.List()
	if i < 0 || i >= len(entries) {
		return "", false
	}
	return entries[i], true
}
