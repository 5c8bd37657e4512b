// Package tui renders the studyctl terminal views.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	Subtle  = lipgloss.Color("#6b7280")
	Accent  = lipgloss.Color("#8b5cf6")
	Success = lipgloss.Color("#10b981")
	Warning = lipgloss.Color("#eab308")

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(Accent)
	HelpStyle  = lipgloss.NewStyle().Foreground(Subtle)
	ClockStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	BoxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Subtle).
			Padding(0, 2)
)

func phaseStyle(phase string) lipgloss.Style {
	switch phase {
	case "running":
		return lipgloss.NewStyle().Foreground(Success).Bold(true)
	case "paused":
		return lipgloss.NewStyle().Foreground(Warning).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(Subtle)
}
