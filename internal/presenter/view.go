package presenter

import (
	"sync"

	"github.com/evyataryagoni/iptracker/internal/models"
)

// TileURL is the OpenStreetMap tile template clients draw the map with
const TileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"

// Marker is where the map is centered
type Marker struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Zoom    int     `json:"zoom"`
	TileURL string  `json:"tile_url"`
}

// HistoryPanel is the rendered search history
type HistoryPanel struct {
	Entries  []string `json:"entries"`
	Total    int      `json:"total"`
	Expanded bool     `json:"expanded"`
}

// View is the complete widget state after a sequence of render calls
type View struct {
	Card    *Card                `json:"card,omitempty"`
	Result  *models.LookupResult `json:"result,omitempty"`
	Error   string               `json:"error,omitempty"`
	History *HistoryPanel        `json:"history,omitempty"`
	Map     *Marker              `json:"map,omitempty"`
}

// ViewPresenter records render calls into a View
// The HTTP host serializes the View as its response body.
type ViewPresenter struct {
	mu         sync.Mutex
	view       View
	mapRenders int
}

// NewViewPresenter creates an empty view
func NewViewPresenter() *ViewPresenter {
	return &ViewPresenter{}
}

func (p *ViewPresenter) Render(result models.LookupResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	card := FormatCard(result)
	p.view.Card = &card
	r := result
	p.view.Result = &r
}

func (p *ViewPresenter) RenderError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Error = message
}

func (p *ViewPresenter) ClearError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view.Error = ""
}

func (p *ViewPresenter) RenderHistory(entries []string, expanded bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	visible := VisibleHistory(entries, expanded)
	shown := make([]string, len(visible))
	copy(shown, visible)
	p.view.History = &HistoryPanel{
		Entries:  shown,
		Total:    len(entries),
		Expanded: expanded,
	}
}

func (p *ViewPresenter) RenderMap(lat, lng float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.mapRenders++
	p.view.Map = &Marker{Lat: lat, Lng: lng, Zoom: MapZoom, TileURL: TileURL}
}

// View returns a snapshot of the current state
func (p *ViewPresenter) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// MapRenders counts RenderMap calls; the map is the expensive part to redraw
func (p *ViewPresenter) MapRenders() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mapRenders
}
