package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	headingStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	hintStyle     = lipgloss.NewStyle().Faint(true).Italic(true)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	badgeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	metaStyle     = lipgloss.NewStyle().Faint(true)
	errTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)
