package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title          lipgloss.Style
	label          lipgloss.Style
	button         lipgloss.Style
	focusedButton  lipgloss.Style
	disabledButton lipgloss.Style
	pane           lipgloss.Style
	paneTitle      lipgloss.Style
	status         lipgloss.Style
	help           lipgloss.Style
}

func newStyles() styles {
	accent := lipgloss.AdaptiveColor{Light: "#005F87", Dark: "#5FD7FF"}
	muted := lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}

	button := lipgloss.NewStyle().
		Padding(0, 2).
		MarginRight(1).
		Border(lipgloss.RoundedBorder())

	return styles{
		title:          lipgloss.NewStyle().Bold(true).Foreground(accent).MarginBottom(1),
		label:          lipgloss.NewStyle().Width(10),
		button:         button.BorderForeground(muted),
		focusedButton:  button.BorderForeground(accent).Foreground(accent).Bold(true),
		disabledButton: button.BorderForeground(muted).Foreground(muted),
		pane: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(muted).
			Padding(0, 1),
		paneTitle: lipgloss.NewStyle().Bold(true),
		status:    lipgloss.NewStyle().Foreground(accent),
		help:      lipgloss.NewStyle().Foreground(muted).MarginTop(1),
	}
}
