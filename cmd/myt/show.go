package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/amonks/myt/internal/age"
	"github.com/amonks/myt/internal/markdown"
	"github.com/amonks/myt/internal/ui"
	"github.com/amonks/myt/task"
	"github.com/spf13/cobra"
)

const (
	detailLineWidth  = 80
	detailTimeLayout = "2006-01-02 15:04:05"
)

var showCmd = &cobra.Command{
	Use:   "show [filter...]",
	Short: "Show detailed information about matching tasks",
	RunE:  runShow,
}

var showOutput outputFormat

var historyCmd = &cobra.Command{
	Use:   "history [filter...]",
	Short: "List every stored version of matching tasks",
	RunE:  runHistory,
}

var historyOutput outputFormat

func init() {
	rootCmd.AddCommand(showCmd, historyCmd)
	showOutput.register(showCmd.Flags())
	historyOutput.register(historyCmd.Flags())
}

func runShow(cmd *cobra.Command, args []string) error {
	if err := showOutput.validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Release()

	tasks, err := resolveArgs(ctx, store, args)
	if err != nil {
		return err
	}

	if showOutput.machine() {
		return showOutput.encode(toTaskOutputs(tasks))
	}
	if len(tasks) == 0 {
		fmt.Println(noTasksMessage)
		return nil
	}

	for i, t := range tasks {
		if i > 0 {
			fmt.Println("---")
		}
		versions, err := store.History(ctx, t.UUID)
		if err != nil {
			return err
		}
		var occurrences []time.Time
		if base := recurringBase(t); base != "" {
			if occurrences, err = store.Occurrences(ctx, base); err != nil {
				return err
			}
		}
		fmt.Print(formatTaskDetail(t, versions, occurrences, store.Today(), store.Now()))
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := historyOutput.validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Release()

	tasks, err := resolveArgs(ctx, store, args)
	if err != nil {
		return err
	}

	var versions []task.Task
	for _, t := range tasks {
		history, err := store.History(ctx, t.UUID)
		if err != nil {
			return err
		}
		versions = append(versions, history...)
	}

	if historyOutput.machine() {
		return historyOutput.encode(toTaskOutputs(versions))
	}
	if len(versions) == 0 {
		fmt.Println(noTasksMessage)
		return nil
	}
	fmt.Print(formatHistoryTable(versions, store.Now()))
	return nil
}

func resolveArgs(ctx context.Context, store *task.Store, args []string) ([]task.Task, error) {
	f, err := parseFilter(store, args)
	if err != nil {
		return nil, err
	}
	return store.ResolveTasks(ctx, f)
}

func recurringBase(t task.Task) string {
	switch t.Type {
	case task.TypeBase:
		return t.UUID
	case task.TypeDerived:
		return t.BaseUUID
	default:
		return ""
	}
}

// formatTaskDetail renders one task. versions is its full history, oldest
// first.
func formatTaskDetail(t task.Task, versions []task.Task, occurrences []time.Time, today, now time.Time) string {
	var b strings.Builder
	line := func(label, value string) {
		fmt.Fprintf(&b, "%-12s %s\n", label+":", value)
	}

	line("ID", task.FormatID(t.ID))
	line("UUID", t.UUID)
	line("Version", fmt.Sprintf("%d", t.Version))
	line("Priority", fmt.Sprintf("%s (%s)", t.Priority.Name(), t.Priority))
	line("Status", statusLabel(t, today))
	line("Area", string(t.Area))
	line("Due", ui.FormatDue(t.Due, today))
	line("Hide", ui.FormatDay(t.Hide))
	line("Groups", dashIfEmpty(t.Groups))
	line("Tags", dashIfEmpty(strings.Join(t.Tags, ", ")))
	line("Type", string(t.Type))
	if t.Recur != nil {
		rule := fmt.Sprintf("%s (%s)", t.Recur.String(), t.Recur.Mode.Name())
		if t.RecurEnd != nil {
			rule += " until " + ui.FormatDay(t.RecurEnd)
		}
		line("Recurrence", rule)
	}
	if t.BaseUUID != "" {
		line("Template", t.BaseUUID)
	}
	if t.Now {
		line("Now", "yes")
	}

	createdTimes := make([]time.Time, 0, len(versions))
	for _, version := range versions {
		createdTimes = append(createdTimes, version.CreatedAt)
	}
	if created := age.FirstSeen(createdTimes...); !created.IsZero() {
		line("Created", fmt.Sprintf("%s (%s)", created.Local().Format(detailTimeLayout), ui.FormatTimeAgo(created, now)))
	}
	line("Updated", fmt.Sprintf("%s (%s)", t.CreatedAt.Local().Format(detailTimeLayout), ui.FormatTimeAgo(t.CreatedAt, now)))
	line("Event", t.EventID)

	fmt.Fprintf(&b, "\nDescription:\n%s\n", renderMarkdownOrDash(t.Description))

	if len(occurrences) > 0 {
		var list strings.Builder
		for _, day := range occurrences {
			fmt.Fprintf(&list, "- %s\n", ui.FormatDay(&day))
		}
		fmt.Fprintf(&b, "\nOccurrences:\n%s\n", renderMarkdownOrDash(list.String()))
	}
	return b.String()
}

func renderMarkdownOrDash(value string) string {
	rendered := markdown.SafeRender(detailLineWidth, 2, []byte(value))
	if len(rendered) == 0 {
		return "  -"
	}
	return string(rendered)
}

func formatHistoryTable(versions []task.Task, now time.Time) string {
	builder := ui.NewTableBuilder([]string{"VER", "ID", "STATUS", "AREA", "DUE", "HIDE", "AGE", "EVENT", "DESCRIPTION"}, len(versions))
	for _, v := range versions {
		builder.AddRow([]string{
			fmt.Sprintf("%d", v.Version),
			task.FormatID(v.ID),
			string(v.Status),
			string(v.Area),
			ui.FormatDay(v.Due),
			ui.FormatDay(v.Hide),
			ui.FormatTimeAgeShort(v.CreatedAt, now),
			shortEventID(v.EventID),
			ui.TruncateTableCell(v.Description),
		})
	}
	return builder.String()
}

// shortEventID keeps the timestamp prefix and the start of the random part.
func shortEventID(id string) string {
	const keep = len("200601-0215-0405-") + 8
	if len(id) <= keep {
		return id
	}
	return id[:keep]
}
