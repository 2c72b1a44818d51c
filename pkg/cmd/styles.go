package cmd

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0AF"))

	PathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#778899"))

	CountStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C")).
			Width(5).
			Align(lipgloss.Right)

	FolderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BD93F9"))

	KeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0AF")).
			Width(32)

	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555"))

	MutedStyle = lipgloss.NewStyle().
			Faint(true)
)
