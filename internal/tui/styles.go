package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#00D9FF")
	muted  = lipgloss.Color("#666666")
	warn   = lipgloss.Color("#FF8800")

	headerStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	positionStyle = lipgloss.NewStyle().Foreground(muted)
	feedStyle     = lipgloss.NewStyle().Foreground(muted)
	titleStyle    = lipgloss.NewStyle().Bold(true)
	excerptStyle  = lipgloss.NewStyle().Foreground(muted).PaddingLeft(2)
	statusStyle   = lipgloss.NewStyle().Foreground(warn)
)
