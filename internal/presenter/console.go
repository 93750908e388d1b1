package presenter

import (
	"fmt"
	"io"

	"github.com/evyataryagoni/iptracker/internal/models"
	"github.com/fatih/color"
)

// ConsolePresenter draws the widget to a terminal
type ConsolePresenter struct {
	out      io.Writer
	errColor *color.Color
	label    *color.Color
}

// NewConsolePresenter writes to out; colors follow fatih/color's NO_COLOR/tty detection
func NewConsolePresenter(out io.Writer) *ConsolePresenter {
	return &ConsolePresenter{
		out:      out,
		errColor: color.New(color.FgRed, color.Bold),
		label:    color.New(color.Faint),
	}
}

func (p *ConsolePresenter) Render(result models.LookupResult) {
	card := FormatCard(result)
	p.row("IP Address", card.IP)
	p.row("Location", card.Location)
	p.row("Timezone", card.Timezone)
	p.row("ISP", card.ISP)
}

func (p *ConsolePresenter) RenderError(message string) {
	p.errColor.Fprintf(p.out, "✖ %s\n", message)
}

// ClearError is a no-op: terminal output cannot be taken back
func (p *ConsolePresenter) ClearError() {}

func (p *ConsolePresenter) RenderHistory(entries []string, expanded bool) {
	if len(entries) == 0 {
		fmt.Fprintln(p.out, "No search history.")
		return
	}

	visible := VisibleHistory(entries, expanded)
	fmt.Fprintln(p.out, "Recent searches:")
	for i, e := range visible {
		fmt.Fprintf(p.out, "  %d. %s\n", i+1, e)
	}
	if hidden := len(entries) - len(visible); hidden > 0 {
		p.label.Fprintf(p.out, "  … %d more\n", hidden)
	}
}

func (p *ConsolePresenter) RenderMap(lat, lng float64) {
	p.row("Map", fmt.Sprintf("https://www.openstreetmap.org/?mlat=%.5f&mlon=%.5f#map=%d/%.5f/%.5f",
		lat, lng, MapZoom, lat, lng))
}

func (p *ConsolePresenter) row(label, value string) {
	p.label.Fprintf(p.out, "%-11s", label)
	fmt.Fprintf(p.out, " %s\n", value)
}
