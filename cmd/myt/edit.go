package main

import (
	"fmt"

	"github.com/amonks/myt/internal/editor"
	"github.com/amonks/myt/task"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit <filter...>",
	Short: "Edit a single task in $EDITOR",
	Long: `Edit a single task in $EDITOR.

The task opens as TOML fields followed by a '---' line and the description.
Only fields that change are written, as one new version.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
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
	switch len(tasks) {
	case 0:
		fmt.Println(noTasksMessage)
		return nil
	case 1:
	default:
		return fmt.Errorf("edit needs exactly one task, filter matched %d", len(tasks))
	}

	existing := tasks[0]
	parsed, err := editor.EditTask(&existing)
	if err != nil {
		return err
	}

	opts := parsed.ToModifyOptions(existing)
	if opts == (task.ModifyOptions{}) {
		fmt.Println("No changes made.")
		return nil
	}

	result, err := store.Modify(ctx, task.ByUUID(existing.UUID), opts)
	if err != nil {
		return err
	}
	printResult("Modified", result)
	return nil
}
