package ui

import "github.com/charmbracelet/lipgloss"

// Row styles for task listings.
var (
	StyleOverdue = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	StyleToday   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	StyleStarted = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	StyleNow     = lipgloss.NewStyle().Reverse(true)
	StyleFaint   = lipgloss.NewStyle().Faint(true)
	StyleHeader  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Styled renders text with style when the terminal accepts color.
func Styled(style lipgloss.Style, text string) string {
	if !ansiEnabled() {
		return text
	}
	return style.Render(text)
}

// RowStyle reports the style for a row, and false when color is off.
func RowStyle(style lipgloss.Style) (lipgloss.Style, bool) {
	return style, ansiEnabled()
}
