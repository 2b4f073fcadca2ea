package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var viewCmd = &cobra.Command{
	Use:     "view [filter...]",
	Aliases: []string{"list", "ls"},
	Short:   "List matching tasks",
	Long: `List matching tasks.

Without a filter, shows pending tasks that are not hidden, ordered by due
date. DONE and BIN switch to completed and deleted tasks.`,
	RunE: runView,
}

var viewOutput outputFormat

func init() {
	rootCmd.AddCommand(viewCmd)
	viewOutput.register(viewCmd.Flags())
}

func runView(cmd *cobra.Command, args []string) error {
	if err := viewOutput.validate(); err != nil {
		return err
	}

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

	tasks, err := store.ResolveTasks(ctx, f)
	if err != nil {
		return err
	}

	if viewOutput.machine() {
		return viewOutput.encode(toTaskOutputs(tasks))
	}

	if len(tasks) == 0 {
		fmt.Println(noTasksMessage)
	} else {
		printTaskTable(tasks, store.Today())
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	printCounts(counts)
	return nil
}
