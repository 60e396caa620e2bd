package cli

import "github.com/charmbracelet/lipgloss"

var (
	userPromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3")).Bold(true)
	botPromptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E")).Italic(true)
	headerStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
)
