package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/amonks/myt/task"
)

func TestRootCommandName(t *testing.T) {
	if rootCmd.Use != "myt" {
		t.Fatalf("expected root command name myt, got %q", rootCmd.Use)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	for _, name := range []string{"add", "modify", "start", "stop", "done", "revert", "delete", "now", "view", "show", "history", "edit", "empty", "recur", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("expected subcommand %q, got %v (%v)", name, cmd, err)
		}
	}
}

type codedError struct{ code int }

func (e codedError) Error() string { return "coded" }
func (e codedError) ExitCode() int { return e.code }

func TestExitCode(t *testing.T) {
	_, validationErr := task.ParseFilter([]string{"SOMEDAY"}, time.Time{})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "plain error", err: errors.New("boom"), want: exitFailure},
		{name: "validation", err: validationErr, want: exitValidation},
		{name: "wrapped validation", err: fmt.Errorf("context: %w", validationErr), want: exitValidation},
		{name: "storage", err: &task.StorageError{Op: "write", Err: errors.New("disk full")}, want: exitFailure},
		{name: "explicit code", err: codedError{code: 7}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Fatalf("exitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
