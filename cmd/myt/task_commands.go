package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/amonks/myt/internal/dates"
	"github.com/amonks/myt/internal/editor"
	"github.com/amonks/myt/task"
	"github.com/spf13/cobra"
)

const noTasksMessage = "No applicable tasks."

// add
var addCmd = &cobra.Command{
	Use:   "add [description...]",
	Short: "Add a task",
	Long: `Add a task.

The description comes from --desc or the positional words. With --recur the
task becomes a recurring template and its first occurrences are created.
Use --edit to fill in the task as TOML in $EDITOR.`,
	RunE: runAdd,
}

var (
	addFields fieldFlags
	addEdit   bool
)

// modify
var modifyCmd = &cobra.Command{
	Use:   "modify [filter...]",
	Short: "Change fields of matching tasks",
	Long: `Change fields of matching tasks.

Pass 'clr' to clear a field. --tag takes changes: -old removes a tag,
+new or new adds one. Changing the recurrence of an occurrence needs
--all-instances, which applies the change to the whole recurring set.`,
	RunE: runModify,
}

var (
	modifyFields       fieldFlags
	modifyAllInstances bool
)

var startCmd = &cobra.Command{
	Use:   "start [filter...]",
	Short: "Mark matching tasks as started",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilteredAction(cmd, args, "start", "Started", (*task.Store).Start)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop [filter...]",
	Short: "Move started tasks back to to-do",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilteredAction(cmd, args, "stop", "Stopped", (*task.Store).Stop)
	},
}

var doneCmd = &cobra.Command{
	Use:     "done [filter...]",
	Aliases: []string{"complete"},
	Short:   "Complete matching tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilteredAction(cmd, args, "done", "Completed", (*task.Store).Complete)
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert [filter...]",
	Short: "Reopen completed tasks (filter with DONE)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runFilteredAction(cmd, args, "revert", "Reverted", (*task.Store).Revert)
	},
}

// delete
var deleteCmd = &cobra.Command{
	Use:   "delete [filter...]",
	Short: "Move matching tasks to the bin",
	RunE:  runDelete,
}

var deleteAllInstances bool

var nowCmd = &cobra.Command{
	Use:   "now [filter...]",
	Short: "Toggle the now flag on a single task",
	RunE:  runNow,
}

var emptyCmd = &cobra.Command{
	Use:   "empty",
	Short: "Permanently remove every task in the bin",
	Args:  cobra.NoArgs,
	RunE:  runEmpty,
}

var recurCmd = &cobra.Command{
	Use:   "recur",
	Short: "Create due occurrences of recurring tasks now",
	Args:  cobra.NoArgs,
	RunE:  runRecur,
}

func init() {
	rootCmd.AddCommand(addCmd, modifyCmd, startCmd, stopCmd, doneCmd, revertCmd, deleteCmd, nowCmd, emptyCmd, recurCmd)

	addFields.register(addCmd, false)
	addCmd.Flags().BoolVarP(&addEdit, "edit", "e", false, "Open $EDITOR to fill in the task")

	modifyFields.register(modifyCmd, true)
	modifyCmd.Flags().BoolVar(&modifyAllInstances, "all-instances", false, "Apply to every occurrence of a recurring task (--ai)")

	deleteCmd.Flags().BoolVar(&deleteAllInstances, "all-instances", false, "Also delete the recurring template and its pending occurrences (--ai)")

	addFieldFlagAliases(addCmd, modifyCmd, deleteCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	description := addFields.desc
	if !cmd.Flags().Changed("desc") {
		description = descriptionFromArgs(args)
	}
	opts := addFields.addOptions(description)

	if addEdit {
		data := editor.DefaultCreateData()
		data.Description = description
		if addFields.priority != "" {
			data.Priority = addFields.priority
		}
		data.Due, data.Hide, data.Groups = addFields.due, addFields.hide, addFields.group
		data.Recur, data.RecurEnd = addFields.recur, addFields.end
		data.Tags = strings.FieldsFunc(addFields.tag, func(r rune) bool { return r == ',' })
		parsed, err := editor.EditTaskWithData(data)
		if err != nil {
			return err
		}
		opts = parsed.ToAddOptions()
	}

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Release()

	result, err := store.Add(ctx, opts)
	if err != nil {
		return err
	}

	created := result.Tasks[0]
	if created.Type == task.TypeBase {
		fmt.Printf("Added recurring task %s: %s\n", shortUUID(created.UUID), descriptionLabel(created))
		printOccurrences(result.Visible())
	} else {
		fmt.Printf("Added task %s: %s\n", taskLabel(created), created.Description)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	printCounts(counts)
	return nil
}

func runModify(cmd *cobra.Command, args []string) error {
	if !hasChangedFlags(cmd, fieldFlagNames...) {
		return errors.New("nothing to modify: pass at least one field flag")
	}
	opts := modifyFields.modifyOptions(cmd)
	opts.AllInstances = modifyAllInstances

	return runFilteredAction(cmd, args, "modify", "Modified", func(store *task.Store, ctx context.Context, f task.Filter) (task.Result, error) {
		return store.Modify(ctx, f, opts)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	opts := task.DeleteOptions{AllInstances: deleteAllInstances}
	return runFilteredAction(cmd, args, "delete", "Deleted", func(store *task.Store, ctx context.Context, f task.Filter) (task.Result, error) {
		return store.Delete(ctx, f, opts)
	})
}

func runNow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Release()

	f, err := parseFilter(store, args)
	if err != nil {
		return err
	}

	result, err := store.ToggleNow(ctx, f)
	if err != nil {
		return err
	}
	if result.Empty() {
		fmt.Println(noTasksMessage)
		return nil
	}
	for _, t := range result.Tasks {
		state := "off"
		if t.Now {
			state = "on"
		}
		fmt.Printf("Now %s %s: %s\n", state, taskLabel(t), t.Description)
	}
	return nil
}

func runEmpty(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Release()

	ok, err := askToProceed("Permanently remove every task in the bin?")
	if err != nil || !ok {
		return err
	}

	purged, err := store.EmptyBin(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d tasks from the bin.\n", purged)
	return nil
}

func runRecur(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Release()

	result, err := store.Materialize(ctx)
	if err != nil {
		return err
	}
	if result.Empty() {
		fmt.Println("No new occurrences.")
		return nil
	}
	printOccurrences(result.Tasks)
	return nil
}

type filteredAction func(store *task.Store, ctx context.Context, f task.Filter) (task.Result, error)

// runFilteredAction parses the filter, confirms unfiltered runs, applies
// action, and reports every written task.
func runFilteredAction(cmd *cobra.Command, args []string, name, verb string, action filteredAction) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Release()

	f, err := parseFilter(store, args)
	if err != nil {
		return err
	}

	ok, err := confirmBroad(name, !f.IsEmpty())
	if err != nil || !ok {
		return err
	}

	result, err := action(store, ctx, f)
	if err != nil {
		return err
	}
	printResult(verb, result)
	return nil
}

func printResult(verb string, result task.Result) {
	if result.Empty() {
		fmt.Println(noTasksMessage)
		return
	}
	for _, t := range result.Tasks {
		fmt.Printf("%s %s: %s\n", verb, taskLabel(t), t.Description)
	}
}

func printOccurrences(tasks []task.Task) {
	for _, t := range tasks {
		fmt.Printf("Created occurrence %s: %s (due %s)\n", taskLabel(t), t.Description, dates.Format(t.Due))
	}
}

// taskLabel names a task in messages: its sequence number when it has one,
// otherwise a short UUID.
func taskLabel(t task.Task) string {
	switch {
	case t.Type == task.TypeBase:
		return "template " + shortUUID(t.UUID)
	case t.ID > 0:
		return strconv.Itoa(t.ID)
	default:
		return shortUUID(t.UUID)
	}
}
