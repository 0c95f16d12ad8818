package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Color palette
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	neonOrange  = lipgloss.Color("#FF6700")
	neonRed     = lipgloss.Color("#FF3131")
	darkBg2     = lipgloss.Color("#1A1E37")
	dimWhite    = lipgloss.Color("#B0B0B0")

	// Header style
	headerStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true).
			Padding(0, 1)

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Background(darkBg2).
			Padding(0, 2)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(neonMagenta).
			Bold(true)

	// Stats styles
	statsLabelStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(neonYellow)

	// Status styles
	successStyle = lipgloss.NewStyle().
			Foreground(neonGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(neonRed).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(neonOrange)

	runningStyle = lipgloss.NewStyle().
			Foreground(neonYellow)

	pendingStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	// Log styles
	logInfoStyle = lipgloss.NewStyle().
			Foreground(dimWhite)

	logTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#606060"))

	// Footer style
	footerStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Padding(0, 1)
)
