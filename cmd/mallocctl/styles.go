package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Color palette
	allocColor    = lipgloss.Color("#7D56F4")
	freeColor     = lipgloss.Color("#04B575")
	sentinelColor = lipgloss.Color("#666666")
	errorColor    = lipgloss.Color("#FF4B4B")

	allocStyle = lipgloss.NewStyle().
			Foreground(allocColor).
			Bold(true)

	freeStyle = lipgloss.NewStyle().
			Foreground(freeColor)

	sentinelStyle = lipgloss.NewStyle().
			Foreground(sentinelColor)

	offsetStyle = lipgloss.NewStyle().
			Foreground(sentinelColor).
			Italic(true)

	okStyle = lipgloss.NewStyle().
		Foreground(freeColor).
		Bold(true)

	errStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	legendStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(sentinelColor).
			Padding(0, 1)
)

// render applies style unless --no-color is set.
func render(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}
