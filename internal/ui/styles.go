// Package ui renders the command-line report of a resolved timeline.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors used throughout the report.
var (
	ColorRed    = lipgloss.Color("#FF0000")
	ColorGreen  = lipgloss.Color("#00FF00")
	ColorYellow = lipgloss.Color("#FFFF00")
	ColorCyan   = lipgloss.Color("#00FFFF")
	ColorGray   = lipgloss.Color("#666666")
)

// Base styles reused by report sections.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	TimestampStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SourceStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	ForeignSourceStyle = lipgloss.NewStyle().
				Foreground(ColorYellow)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	OKStyle = lipgloss.NewStyle().
		Foreground(ColorGreen).
		Bold(true)
)
