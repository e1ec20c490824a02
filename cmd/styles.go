package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/CosmoTheDev/vulnbyhost/models"
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#7C3AED")).
	MarginBottom(1)

var successStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#10B981"))

var warnStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F59E0B"))

var dimStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#6B7280"))

func severityText(s models.Severity) lipgloss.Style {
	return lipgloss.NewStyle().Bold(s >= models.SeverityHigh).Foreground(lipgloss.Color(s.Color().Hex()))
}
