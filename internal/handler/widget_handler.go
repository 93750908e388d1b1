package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/evyataryagoni/iptracker/internal/controller"
	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/evyataryagoni/iptracker/internal/presenter"
	"github.com/go-chi/chi/v5"
)

// WidgetHandler exposes the lookup widget over HTTP
//
// The server hosts one widget: a single controller drawing into a
// ViewPresenter. Every endpoint drives the controller and answers with the
// resulting view, so the JSON body is what a browser would show.
type WidgetHandler struct {
	ctrl *controller.Controller
	view *presenter.ViewPresenter
}

// LookupResponse is the view after a lookup plus how the lookup ended
type LookupResponse struct {
	presenter.View
	Outcome   string                  `json:"outcome"`
	Query     string                  `json:"query"`
	RequestID uint64                  `json:"request_id"`
	Stale     bool                    `json:"stale"` // a newer lookup owns the view
	Failure   *models.ErrorDescriptor `json:"failure,omitempty"`
}

// NewWidgetHandler creates a handler over the controller and the view it draws into
func NewWidgetHandler(ctrl *controller.Controller, view *presenter.ViewPresenter) *WidgetHandler {
	return &WidgetHandler{ctrl: ctrl, view: view}
}

// Lookup handles GET /v1/lookup?q=<query>&expanded=<bool>
// Without q it behaves like a page load and looks up the caller's own IP.
// A blank q is ignored: the outcome is "ignored" and the view is unchanged.
func (h *WidgetHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	if !h.applyExpanded(w, r) {
		return
	}

	var out controller.Outcome
	if values := r.URL.Query(); values.Has("q") {
		out = h.ctrl.Submit(r.Context(), values.Get("q"))
	} else {
		out = h.ctrl.PageLoad(r.Context())
	}

	h.respondLookup(w, out)
}

// UseHistoryEntry handles GET /v1/history/{index}
func (h *WidgetHandler) UseHistoryEntry(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "History index must be a number")
		return
	}

	query, ok := h.ctrl.HistoryEntry(index)
	if !ok {
		h.respondError(w, http.StatusNotFound, "No history entry at that index")
		return
	}

	h.respondLookup(w, h.ctrl.UseHistoryEntry(r.Context(), query))
}

// History handles GET /v1/history?expanded=<bool>
func (h *WidgetHandler) History(w http.ResponseWriter, r *http.Request) {
	if !h.applyExpanded(w, r) {
		return
	}
	h.ctrl.ShowHistory()

	h.respondJSON(w, http.StatusOK, presenter.View{History: h.view.View().History})
}

// ToggleHistory handles POST /v1/history/toggle
func (h *WidgetHandler) ToggleHistory(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ToggleHistory()
	h.respondJSON(w, http.StatusOK, presenter.View{History: h.view.View().History})
}

// ClearHistory handles DELETE /v1/history
func (h *WidgetHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// ClearCache handles DELETE /v1/cache
func (h *WidgetHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// ClearError handles DELETE /v1/error, sent when the user edits the input
func (h *WidgetHandler) ClearError(w http.ResponseWriter, r *http.Request) {
	h.ctrl.InputEdited()
	w.WriteHeader(http.StatusNoContent)
}

// View handles GET /v1/view
func (h *WidgetHandler) View(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.view.View())
}

// applyExpanded reads the optional expanded flag; false means a response was written
func (h *WidgetHandler) applyExpanded(w http.ResponseWriter, r *http.Request) bool {
	raw := r.URL.Query().Get("expanded")
	if raw == "" {
		return true
	}

	expanded, err := strconv.ParseBool(raw)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid 'expanded' query parameter")
		return false
	}
	h.ctrl.SetHistoryExpanded(expanded)
	return true
}

// respondLookup pairs the outcome with the view; stale is decided together
// with the snapshot so a stale=false body only holds this lookup's draws
func (h *WidgetHandler) respondLookup(w http.ResponseWriter, out controller.Outcome) {
	var view presenter.View
	stale := h.ctrl.Snapshot(out.RequestID, func() { view = h.view.View() })

	h.respondJSON(w, http.StatusOK, LookupResponse{
		View:      view,
		Outcome:   string(out.Kind),
		Query:     out.Query,
		RequestID: out.RequestID,
		Stale:     stale,
		Failure:   out.Error,
	})
}

// respondJSON writes a JSON response with the given status code
func (h *WidgetHandler) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are already sent
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response with consistent formatting
func (h *WidgetHandler) respondError(w http.ResponseWriter, statusCode int, message string) {
	h.respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
