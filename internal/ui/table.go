package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
	"golang.org/x/term"
)

const tableCellMaxWidth = 50
const tableCellEllipsis = "..."

// tableViewportWidth reports the terminal width, or 0 when unknown.
var tableViewportWidth = func() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// TableBuilder collects rows and renders a formatted table.
type TableBuilder struct {
	headers []string
	rows    [][]string
	styles  []*lipgloss.Style
}

// NewTableBuilder returns a builder with preallocated rows.
func NewTableBuilder(headers []string, capacity int) *TableBuilder {
	return &TableBuilder{
		headers: headers,
		rows:    make([][]string, 0, capacity),
		styles:  make([]*lipgloss.Style, 0, capacity),
	}
}

// AddRow appends a row to the table.
func (builder *TableBuilder) AddRow(row []string) {
	builder.rows = append(builder.rows, row)
	builder.styles = append(builder.styles, nil)
}

// AddStyledRow appends a row rendered with style.
func (builder *TableBuilder) AddStyledRow(row []string, style lipgloss.Style) {
	builder.rows = append(builder.rows, row)
	builder.styles = append(builder.styles, &style)
}

// String renders the table output.
func (builder *TableBuilder) String() string {
	return formatTable(builder.headers, builder.rows, builder.styles)
}

// FormatTable renders headers and rows as an aligned table. When the
// terminal is narrower than the table, the last column is truncated.
func FormatTable(headers []string, rows [][]string) string {
	return formatTable(headers, rows, nil)
}

func formatTable(headers []string, rows [][]string, styles []*lipgloss.Style) string {
	normalizedHeaders := make([]string, len(headers))
	for i, header := range headers {
		normalizedHeaders[i] = normalizeTableCell(header)
	}

	normalizedRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		normalizedRow := make([]string, len(row))
		for i, cell := range row {
			normalizedRow[i] = normalizeTableCell(cell)
		}
		normalizedRows = append(normalizedRows, normalizedRow)
	}

	widths := make([]int, len(normalizedHeaders))
	for i, header := range normalizedHeaders {
		widths[i] = displayWidth(header)
	}

	for _, row := range normalizedRows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if displayLen := displayWidth(cell); displayLen > widths[i] {
				widths[i] = displayLen
			}
		}
	}
	fitViewport(widths, normalizedHeaders)

	var builder strings.Builder
	writeRow := func(row []string, style *lipgloss.Style) {
		var line strings.Builder
		for i, cell := range row {
			if i < len(widths) && displayWidth(cell) > widths[i] {
				cell = truncate.StringWithTail(cell, uint(widths[i]), tableCellEllipsis)
			}
			line.WriteString(cell)
			if i < len(widths) {
				line.WriteString(strings.Repeat(" ", max(widths[i]-displayWidth(cell), 0)))
			}
			if i < len(row)-1 {
				line.WriteString("  ")
			}
		}
		rendered := line.String()
		if style != nil {
			rendered = style.Render(rendered)
		}
		builder.WriteString(rendered)
		builder.WriteByte('\n')
	}

	writeRow(normalizedHeaders, nil)
	for i, row := range normalizedRows {
		var style *lipgloss.Style
		if i < len(styles) {
			style = styles[i]
		}
		writeRow(row, style)
	}

	return builder.String()
}

// fitViewport shrinks the last column so the table fits the terminal.
func fitViewport(widths []int, headers []string) {
	viewport := tableViewportWidth()
	if viewport <= 0 || len(widths) == 0 {
		return
	}

	total := 2 * (len(widths) - 1)
	for _, width := range widths {
		total += width
	}
	if total <= viewport {
		return
	}

	last := len(widths) - 1
	minimum := displayWidth(headers[last])
	widths[last] = max(widths[last]-(total-viewport), minimum)
}

// TruncateTableCell limits cell width while preserving visible characters.
func TruncateTableCell(value string) string {
	value = normalizeTableCell(value)
	if displayWidth(value) <= tableCellMaxWidth {
		return value
	}
	return truncate.StringWithTail(value, tableCellMaxWidth, tableCellEllipsis)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(stripANSICodes(value))
}

func normalizeTableCell(value string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(value)
}

func stripANSICodes(input string) string {
	var builder strings.Builder
	inEscape := false
	for i := 0; i < len(input); i++ {
		char := input[i]
		if inEscape {
			if char == 'm' {
				inEscape = false
			}
			continue
		}
		if char == '\x1b' {
			inEscape = true
			continue
		}
		builder.WriteByte(char)
	}
	return builder.String()
}
