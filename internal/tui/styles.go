package tui

import "github.com/charmbracelet/lipgloss"

// Status glyphs.
const (
	glyphPending = "○"
	glyphActive  = "▶"
	glyphDone    = "✓"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	activeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)
