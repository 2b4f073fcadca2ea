// Package main implements the myt CLI tool.
package main

import (
	"errors"
	"os"

	"github.com/amonks/myt/task"
	"github.com/spf13/cobra"
)

const (
	exitFailure    = 1
	exitValidation = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps an error to the process exit status. Input that was rejected
// before anything was written exits 2, everything else 1.
func exitCode(err error) int {
	var exitErr interface{ ExitCode() int }
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if task.IsValidation(err) {
		return exitValidation
	}
	return exitFailure
}

var rootCmd = &cobra.Command{
	Use:   "myt",
	Short: "myt - a personal task tracker",
	Long: `myt tracks personal tasks, including recurring ones.

Most commands take a filter: bare keywords (OVERDUE, TODAY, HIDDEN, DONE,
BIN, STARTED, NOW) and field terms such as id:1,2, gr:HOME, tg:bills,
de:milk, or due:lt:+7. Terms are combined with AND; lens keywords are
combined with OR.`,
	SilenceUsage: true,
}

var (
	globalDBPath     string
	globalConfigPath string
	globalVerbose    bool
	globalYes        bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalDBPath, "db", "", "Task database path (overrides $MYT_DB and config)")
	flags.StringVar(&globalConfigPath, "config", "", "Config file path (default ~/.config/myt/config.toml)")
	flags.BoolVar(&globalVerbose, "verbose", false, "Log store activity to stderr")
	flags.BoolVarP(&globalYes, "yes", "y", false, "Apply commands without filters without asking")
}
