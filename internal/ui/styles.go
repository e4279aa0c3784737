package ui

import "github.com/charmbracelet/lipgloss"

var (
	TabStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("#8b949e"))

	ActiveTabStyle = TabStyle.
			Foreground(lipgloss.Color("#f0f6fc")).
			Bold(true).
			Underline(true)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#30363d")).
			Padding(1, 2)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f0f6fc"))

	DescriptionStyle = lipgloss.NewStyle().
				Italic(true).
				Foreground(lipgloss.Color("#8b949e"))

	MetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6e7681"))

	LinkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#58a6ff")).
			Underline(true)

	SavedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d29922"))

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0f6fc")).
			Background(lipgloss.Color("#1f6feb"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f85149"))

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8b949e")).
			Background(lipgloss.Color("#161b22"))
)
