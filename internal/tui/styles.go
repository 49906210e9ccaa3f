package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPage   = lipgloss.Color("12")  // bright blue
	colorSaved  = lipgloss.Color("10")  // bright green
	colorMuted  = lipgloss.Color("240") // gray
	colorCursor = lipgloss.Color("11")  // bright yellow
	colorFrame  = lipgloss.Color("238") // dark gray

	styleInput       = lipgloss.NewStyle().Foreground(colorPage).Bold(true)
	styleInputPrompt = styleInput

	styleListSelected = lipgloss.NewStyle().Foreground(colorCursor).Bold(true)
	styleSnippet      = lipgloss.NewStyle().Foreground(colorMuted)
	styleEmpty        = lipgloss.NewStyle().Foreground(colorMuted).Align(lipgloss.Center, lipgloss.Center)

	// source badges are fixed width so titles line up
	styleSourcePage  = lipgloss.NewStyle().Foreground(colorPage).Width(5)
	styleSourceSaved = lipgloss.NewStyle().Foreground(colorSaved).Width(5)

	stylePanelBorder  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFrame)
	styleActiveBorder = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorPage)

	styleStatusBar = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
)
