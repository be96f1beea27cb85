package tui

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header    lipgloss.Style
	status    lipgloss.Style
	errorLine lipgloss.Style
	you       lipgloss.Style
	aura      lipgloss.Style
	meter     lipgloss.Style
	help      lipgloss.Style
}

func newTheme() theme {
	violet := lipgloss.Color("99")
	teal := lipgloss.Color("36")
	rose := lipgloss.Color("204")
	muted := lipgloss.Color("243")

	return theme{
		header: lipgloss.NewStyle().
			Foreground(violet).
			Bold(true).
			Padding(0, 1),
		status:    lipgloss.NewStyle().Foreground(teal).Bold(true).Padding(0, 1),
		errorLine: lipgloss.NewStyle().Foreground(rose),
		you:       lipgloss.NewStyle().Foreground(teal).Bold(true),
		aura:      lipgloss.NewStyle().Foreground(violet).Bold(true),
		meter:     lipgloss.NewStyle().Foreground(teal),
		help:      lipgloss.NewStyle().Foreground(muted),
	}
}
