package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	successColor = lipgloss.Color("42")  // Green
	errorColor   = lipgloss.Color("196") // Red
	mutedColor   = lipgloss.Color("245") // Gray
	accentColor  = lipgloss.Color("39")  // Cyan

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor)

	failStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	skipStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	detailStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			PaddingLeft(8)

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)
