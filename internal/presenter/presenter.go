package presenter

import (
	"fmt"
	"strings"

	"github.com/evyataryagoni/iptracker/internal/models"
)

// Presenter is what the lookup core draws through
// It never learns how things are displayed.
type Presenter interface {
	Render(result models.LookupResult)
	RenderError(message string)
	ClearError()
	RenderHistory(entries []string, expanded bool)
	RenderMap(lat, lng float64)
}

// CollapsedHistorySize is how many history entries show while collapsed
const CollapsedHistorySize = 3

// MapZoom is the zoom level used when centering on a result
const MapZoom = 13

// Card is the formatted results card
type Card struct {
	IP       string `json:"ip"`
	Location string `json:"location"`
	Timezone string `json:"timezone"`
	ISP      string `json:"isp"`
}

// FormatCard turns a result into display strings; missing values show as "-"
func FormatCard(r models.LookupResult) Card {
	card := Card{
		IP:       dash(r.IP),
		Location: "-",
		Timezone: "-",
		ISP:      dash(r.ISP),
	}
	if loc := r.Location; loc != nil {
		card.Location = strings.TrimSpace(fmt.Sprintf("%s, %s, %s %s",
			loc.City, loc.Region, loc.Country, loc.PostalCode))
		card.Timezone = "UTC " + loc.Timezone
	}
	return card
}

// VisibleHistory trims the list to what a collapsed panel shows
func VisibleHistory(entries []string, expanded bool) []string {
	if expanded || len(entries) <= CollapsedHistorySize {
		return entries
	}
	return entries[:CollapsedHistorySize]
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
