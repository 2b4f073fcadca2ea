package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/amonks/myt/internal/config"
	"github.com/amonks/myt/internal/ui"
	"github.com/amonks/myt/recur"
	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help [command]",
	Short: "Help about any command",
	Args:  cobra.ArbitraryArgs,
	RunE:  runHelp,
}

var helpFiltersCmd = &cobra.Command{
	Use:   "filters",
	Short: "Show filter syntax",
	Args:  cobra.NoArgs,
	RunE:  runHelpFilters,
}

var helpRecurCmd = &cobra.Command{
	Use:   "recur",
	Short: "Show recurrence modes and horizons",
	Args:  cobra.NoArgs,
	RunE:  runHelpRecur,
}

func init() {
	rootCmd.SetHelpCommand(helpCmd)
	helpCmd.AddCommand(helpFiltersCmd, helpRecurCmd)
}

func runHelp(cmd *cobra.Command, args []string) error {
	root := cmd.Root()
	if len(args) == 0 {
		return root.Help()
	}

	target, _, err := root.Find(args)
	if err != nil || target == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Unknown help topic %q\n", strings.Join(args, " "))
		return root.Help()
	}

	return target.Help()
}

const filterHelp = `Filters select tasks. Terms are combined with AND.

  id:1,2            sequence numbers; ignores every other term
  uuid:ab12,cd34    uuids or unique uuid prefixes, in any area
  NOW               the task marked now; ignores every other term
  de:TEXT           description contains TEXT (case-insensitive)
  pr:H,M            priorities H, M, N, L
  gr:HOME           groups starting with HOME
  tg:a,b            any of the listed tags
  due:OP:DATE       also hide: and end:; OP is eq, lt, le, gt, ge,
                    bt:DATE:DATE, or any
  OVERDUE TODAY HIDDEN STARTED
                    lenses on pending tasks; several lenses are ORed
  DONE | BIN        search completed tasks or the bin instead

Dates are YYYY-MM-DD or +N/-N days from today.
Without a lens, hidden tasks are left out.
`

func runHelpFilters(cmd *cobra.Command, args []string) error {
	_, err := fmt.Fprint(cmd.OutOrStdout(), filterHelp)
	return err
}

func runHelpRecur(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(globalConfigPath)
	if err != nil {
		return err
	}
	horizons, err := cfg.Horizons()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(recur.ValidModes()))
	for _, mode := range recur.ValidModes() {
		values := "-"
		if mode.IsExtended() {
			values = modeValues(mode)
		}
		rows = append(rows, []string{string(mode), mode.Name(), values, strconv.Itoa(horizons.Days(mode))})
	}

	var builder strings.Builder
	builder.WriteString(ui.FormatTable([]string{"MODE", "NAME", "VALUES", "HORIZON"}, rows))
	builder.WriteString("\nExtended modes take a value list, e.g. WD1,5 or MD 1,15.\n")
	builder.WriteString("Days past the end of a short month fall on its last day (MD31 on Feb 28).\n")
	builder.WriteString("Horizons are days ahead and can be set under [recurrence.horizon] in config.toml.\n")
	_, err = fmt.Fprint(cmd.OutOrStdout(), builder.String())
	return err
}

func modeValues(mode recur.Mode) string {
	switch mode {
	case recur.Weekdays:
		return "1-7 (Mon-Sun)"
	case recur.MonthDays:
		return "1-31"
	case recur.Months:
		return "1-12"
	default:
		return "-"
	}
}
