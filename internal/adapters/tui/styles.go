package tui

import "github.com/charmbracelet/lipgloss"

// Styles groups the lipgloss styles used by the views.
type Styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Selected lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	OK       lipgloss.Style
	Focused  lipgloss.Style
	Ratings  map[string]lipgloss.Style
}

// DefaultStyles returns the standard palette.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1E3A8A")).Padding(0, 1),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#2563EB")),
		Muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")),
		Error:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B91C1C")),
		OK:       lipgloss.NewStyle().Foreground(lipgloss.Color("#15803D")),
		Focused:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB")),
		Ratings: map[string]lipgloss.Style{
			"1": lipgloss.NewStyle().Foreground(lipgloss.Color("#B91C1C")),
			"2": lipgloss.NewStyle().Foreground(lipgloss.Color("#B45309")),
			"3": lipgloss.NewStyle().Foreground(lipgloss.Color("#1D4ED8")),
			"4": lipgloss.NewStyle().Foreground(lipgloss.Color("#15803D")),
		},
	}
}
