package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#00D4FF")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
	colorText    = lipgloss.Color("#E5E7EB")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)

	feedHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorMuted)

	eventStyle    = lipgloss.NewStyle().Foreground(colorText)
	errorEvStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	anomalyStyle  = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	edgeStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	patternStyle  = lipgloss.NewStyle().Foreground(colorSuccess)

	helpStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

func severityStyle(class string) lipgloss.Style {
	switch class {
	case "error", "critical":
		return errorEvStyle
	case "warning":
		return anomalyStyle
	default:
		return eventStyle
	}
}
