// Package styles holds the shared lipgloss styles for careguide's
// terminal surfaces.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette colors. The CarePlus brand green is used for active elements.
const (
	ColorPrimary = "35"  // brand green
	ColorAccent  = "214" // warm highlight
	ColorError   = "196"
	ColorMuted   = "240"
	ColorSubtle  = "238"
)

var (
	Title = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorPrimary)).
		Bold(true)

	Muted = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))

	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorError))

	Accent = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorAccent)).
		Bold(true)

	StatusBar = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color(ColorSubtle)).
			Padding(0, 1)

	Selected = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color(ColorPrimary))

	Enabled  = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimary))
	Disabled = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorMuted))
)
