package ui

import (
	"os"
	"strings"

	"github.com/amonks/myt/internal/ids"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var idPrefixStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

// colorDisabled is set when configuration turns color off.
var colorDisabled bool

// SetColor enables or disables styled output for the process.
func SetColor(enabled bool) {
	colorDisabled = !enabled
}

// HighlightID returns an ID with its unique prefix highlighted.
func HighlightID(id string, prefixLen int) string {
	if id == "" {
		return id
	}

	if prefixLen <= 0 || prefixLen > len(id) {
		return id
	}

	if !ansiEnabled() {
		return id
	}

	return idPrefixStyle.Render(id[:prefixLen]) + id[prefixLen:]
}

func ansiEnabled() bool {
	if colorDisabled {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// UniqueIDPrefixLengths returns the shortest unique prefix length for each ID.
func UniqueIDPrefixLengths(values []string) map[string]int {
	return ids.UniquePrefixLengths(values)
}

// PrefixLength looks up the unique prefix length for id, ignoring case.
func PrefixLength(lengths map[string]int, id string) int {
	if lengths == nil || id == "" {
		return 0
	}
	return lengths[strings.ToLower(id)]
}
