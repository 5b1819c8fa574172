package tui

import "github.com/charmbracelet/lipgloss"

// Color palette - keeping it minimal and accessible.
var (
	ColorPrimary = lipgloss.Color("39")  // Blue
	ColorSuccess = lipgloss.Color("34")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
)

// Symbols for visual feedback.
const (
	SymbolCheck   = "✓"
	SymbolPending = "◐"
	SymbolWait    = "…"
)

type styles struct {
	waiting     lipgloss.Style
	unavailable lipgloss.Style
	available   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		waiting:     r.NewStyle().Foreground(ColorPrimary),
		unavailable: r.NewStyle().Foreground(ColorWarning),
		available:   r.NewStyle().Foreground(ColorSuccess).Bold(true),
	}
}
