package v1

import (
	"github.com/evyataryagoni/iptracker/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all /v1 widget routes
func SetupRoutes(widget *handler.WidgetHandler) chi.Router {
	r := chi.NewRouter()

	// GET /v1/lookup?q=<query>&expanded=<bool>
	r.Get("/lookup", widget.Lookup)
	r.Get("/view", widget.View)
	r.Delete("/error", widget.ClearError)

	r.Route("/history", func(r chi.Router) {
		r.Get("/", widget.History)
		r.Delete("/", widget.ClearHistory)
		r.Post("/toggle", widget.ToggleHistory)
		r.Get("/{index}", widget.UseHistoryEntry)
	})

	r.Delete("/cache", widget.ClearCache)

	return r
}
