package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/amonks/myt/internal/ui"
	"github.com/amonks/myt/task"
	"github.com/charmbracelet/lipgloss"
)

const uuidDisplayLength = 8

// printTaskTable prints tasks in a table format.
func printTaskTable(tasks []task.Task, today time.Time) {
	fmt.Print(formatTaskTable(tasks, ui.HighlightID, today))
}

func formatTaskTable(tasks []task.Task, highlight func(string, int) string, today time.Time) string {
	builder := ui.NewTableBuilder([]string{"ID", "UUID", "PRI", "STATUS", "DUE", "HIDE", "GROUPS", "TAGS", "DESCRIPTION"}, len(tasks))
	prefixLengths := uuidPrefixLengths(tasks)

	for _, t := range tasks {
		row := []string{
			task.FormatID(t.ID),
			highlight(shortUUID(t.UUID), ui.PrefixLength(prefixLengths, t.UUID)),
			string(t.Priority),
			statusLabel(t, today),
			ui.FormatDay(t.Due),
			ui.FormatDay(t.Hide),
			dashIfEmpty(t.Groups),
			dashIfEmpty(strings.Join(t.Tags, ",")),
			ui.TruncateTableCell(descriptionLabel(t)),
		}
		if style, ok := rowStyle(t, today); ok {
			builder.AddStyledRow(row, style)
		} else {
			builder.AddRow(row)
		}
	}

	return builder.String()
}

// uuidPrefixLengths keys unique prefix lengths by full UUID. Lengths are
// capped at the displayed width.
func uuidPrefixLengths(tasks []task.Task) map[string]int {
	uuids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		uuids = append(uuids, t.UUID)
	}
	lengths := ui.UniqueIDPrefixLengths(uuids)
	for id, length := range lengths {
		lengths[id] = min(length, uuidDisplayLength)
	}
	return lengths
}

func shortUUID(id string) string {
	if len(id) <= uuidDisplayLength {
		return id
	}
	return id[:uuidDisplayLength]
}

// statusLabel is the status plus the first applicable marker.
func statusLabel(t task.Task, today time.Time) string {
	status := string(t.Status)
	switch {
	case t.Now:
		return status + " NOW"
	case t.Area != task.AreaPending:
		return status
	case t.Overdue(today):
		return status + " OVERDUE"
	case t.DueToday(today):
		return status + " TODAY"
	case t.Hidden(today):
		return status + " HIDDEN"
	}
	return status
}

func descriptionLabel(t task.Task) string {
	if t.Recur == nil {
		return t.Description
	}
	return fmt.Sprintf("%s (%s)", t.Description, t.Recur.String())
}

func rowStyle(t task.Task, today time.Time) (lipgloss.Style, bool) {
	switch {
	case t.Now:
		return ui.RowStyle(ui.StyleNow)
	case t.Area != task.AreaPending, t.Hidden(today):
		return ui.RowStyle(ui.StyleFaint)
	case t.Overdue(today):
		return ui.RowStyle(ui.StyleOverdue)
	case t.DueToday(today):
		return ui.RowStyle(ui.StyleToday)
	case t.Status == task.StatusStarted:
		return ui.RowStyle(ui.StyleStarted)
	}
	return lipgloss.Style{}, false
}

func dashIfEmpty(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func printCounts(counts task.Counts) {
	fmt.Printf("Total pending tasks: %d, of which hidden: %d\n", counts.Pending, counts.Hidden)
}
