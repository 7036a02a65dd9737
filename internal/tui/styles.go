package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/synheart/synheart-breath/internal/breath"
)

var (
	subtle   = lipgloss.Color("#a6adc8")
	border   = lipgloss.Color("#45475a")
	sapphire = lipgloss.Color("#74c7ec")
	mauve    = lipgloss.Color("#cba6f7")
	peach    = lipgloss.Color("#fab387")
	green    = lipgloss.Color("#a6e3a1")

	paneStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Foreground(sapphire).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(subtle)
	valueStyle = lipgloss.NewStyle().Bold(true)
)

func phaseStyle(p breath.Phase) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Width(8)
	switch p {
	case breath.Inhale:
		return s.Foreground(mauve)
	case breath.Exhale:
		return s.Foreground(sapphire)
	case breath.Hold:
		return s.Foreground(peach)
	default:
		return s.Foreground(subtle)
	}
}
