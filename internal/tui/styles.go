package tui

import "github.com/charmbracelet/lipgloss"

// Korean exchanges colour rises red and falls blue.
var (
	primaryColor   = lipgloss.Color("#7C3AED")
	accentColor    = lipgloss.Color("#F59E0B")
	riseColor      = lipgloss.Color("#F87171")
	fallColor      = lipgloss.Color("#60A5FA")
	borderColor    = lipgloss.Color("#374151")
	textColor      = lipgloss.Color("#F9FAFB")
	secondaryColor = lipgloss.Color("#9CA3AF")
	mutedColor     = lipgloss.Color("#6B7280")
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(textColor).
				Background(borderColor)

	cursorRowStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	rowStyle = lipgloss.NewStyle().
			Foreground(textColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	riseStyle = lipgloss.NewStyle().Foreground(riseColor)
	fallStyle = lipgloss.NewStyle().Foreground(fallColor)
	evenStyle = lipgloss.NewStyle().Foreground(textColor)

	tabStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(textColor).
			Background(borderColor).
			Bold(true).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Padding(0, 1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)
)

func directionStyle(rate float64) lipgloss.Style {
	switch {
	case rate > 0:
		return riseStyle
	case rate < 0:
		return fallStyle
	default:
		return evenStyle
	}
}
