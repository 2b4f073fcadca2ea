package ui

import (
	"strings"
	"testing"
)

func withViewport(t *testing.T, width int) {
	t.Helper()

	originalWidth := tableViewportWidth
	tableViewportWidth = func() int {
		return width
	}
	t.Cleanup(func() {
		tableViewportWidth = originalWidth
	})
}

func TestTruncateTableCellCountsRunes(t *testing.T) {
	value := strings.Repeat("a", tableCellMaxWidth-1) + "é"

	got := TruncateTableCell(value)

	if got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestTruncateTableCellShortensLongValues(t *testing.T) {
	value := strings.Repeat("b", tableCellMaxWidth+10)

	got := TruncateTableCell(value)

	if width := displayWidth(got); width != tableCellMaxWidth {
		t.Fatalf("expected width %d, got %d", tableCellMaxWidth, width)
	}
	if !strings.HasSuffix(got, tableCellEllipsis) {
		t.Fatalf("expected ellipsis, got %q", got)
	}
}

func TestTruncateTableCellNormalizesLineBreaks(t *testing.T) {
	value := "Hello\nWorld\r\nAgain\tTab"

	got := TruncateTableCell(value)

	if got != "Hello World Again Tab" {
		t.Fatalf("expected line breaks to normalize, got %q", got)
	}
}

func TestTruncateTableCellIgnoresANSICodes(t *testing.T) {
	value := "\x1b[1m\x1b[36m" + strings.Repeat("a", tableCellMaxWidth) + "\x1b[0m"

	got := TruncateTableCell(value)

	if got != value {
		t.Fatalf("expected value to remain untruncated, got %q", got)
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if got := displayWidth("日本"); got != 4 {
		t.Fatalf("expected width 4, got %d", got)
	}
}

func TestFormatTableNormalizesLineBreaks(t *testing.T) {
	withViewport(t, 0)

	headers := []string{"COL"}
	rows := [][]string{{"Hello\nWorld\r\nAgain\tTab"}}

	got := FormatTable(headers, rows)

	expected := "COL                  \nHello World Again Tab\n"
	if got != expected {
		t.Fatalf("expected normalized table output, got %q", got)
	}
}

func TestFormatTableAlignsColumns(t *testing.T) {
	withViewport(t, 0)

	got := FormatTable([]string{"ID", "DESCRIPTION"}, [][]string{{"1", "buy milk"}, {"12", "call mom"}})

	expected := "ID  DESCRIPTION\n1   buy milk   \n12  call mom   \n"
	if got != expected {
		t.Fatalf("expected aligned table, got %q", got)
	}
}

func TestFormatTableUsesViewportWidth(t *testing.T) {
	withViewport(t, 10)

	headers := []string{"COL1", "COL2"}
	rows := [][]string{{"A", "B"}}

	got := FormatTable(headers, rows)

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	for _, line := range lines {
		if width := displayWidth(line); width != 10 {
			t.Fatalf("expected table width 10, got %d in %q", width, line)
		}
	}
}

func TestFormatTableTruncatesLastColumnToViewport(t *testing.T) {
	withViewport(t, 20)

	got := FormatTable([]string{"ID", "DESCRIPTION"}, [][]string{{"1", strings.Repeat("x", 40)}})

	for _, line := range strings.Split(strings.TrimSuffix(got, "\n"), "\n") {
		if width := displayWidth(line); width != 20 {
			t.Fatalf("expected width 20, got %d in %q", width, line)
		}
	}
	if !strings.Contains(got, tableCellEllipsis) {
		t.Fatalf("expected truncated description, got %q", got)
	}
}

func TestTableBuilderStyledRowsKeepText(t *testing.T) {
	withViewport(t, 0)

	builder := NewTableBuilder([]string{"ID"}, 1)
	builder.AddStyledRow([]string{"7"}, StyleOverdue)

	if got := stripANSICodes(builder.String()); got != "ID\n7 \n" {
		t.Fatalf("expected plain text to survive styling, got %q", got)
	}
}
