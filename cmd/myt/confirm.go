package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	internalstrings "github.com/amonks/myt/internal/strings"
	"golang.org/x/term"
)

// errConfirmationRequired is returned when a broad command runs without a
// terminal to ask on and without --yes.
var errConfirmationRequired = errors.New("confirmation needs a terminal; pass --yes to go ahead")

// confirmBroad asks before a command without filters touches every task.
func confirmBroad(action string, hasFilter bool) (bool, error) {
	if hasFilter {
		return true, nil
	}
	return askToProceed(fmt.Sprintf("No filters given for %s, are you sure?", action))
}

// askToProceed reports whether to go ahead; a declined prompt prints a notice.
func askToProceed(question string) (bool, error) {
	if globalYes {
		return true, nil
	}
	ok, err := confirm(os.Stdin, os.Stdout, question)
	if err != nil {
		return false, err
	}
	if !ok {
		fmt.Println("No changes made.")
	}
	return ok, nil
}

// confirm prompts on out and reads a yes/no answer from in, which must be a
// terminal.
func confirm(in *os.File, out io.Writer, question string) (bool, error) {
	if !term.IsTerminal(int(in.Fd())) {
		return false, errConfirmationRequired
	}

	fmt.Fprintf(out, "%s [y/n] ", question)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	switch internalstrings.NormalizeLowerTrimSpace(answer) {
	case "y", "ye", "yes":
		return true, nil
	default:
		return false, nil
	}
}
