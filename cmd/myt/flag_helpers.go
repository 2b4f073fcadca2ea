package main

import (
	"strings"

	"github.com/amonks/myt/task"
	"github.com/spf13/cobra"
)

// fieldFlags holds the task field flags shared by add and modify.
type fieldFlags struct {
	desc     string
	priority string
	due      string
	hide     string
	group    string
	tag      string
	recur    string
	end      string
}

var fieldFlagNames = []string{"desc", "priority", "due", "hide", "group", "tag", "recur", "end"}

func (f *fieldFlags) register(cmd *cobra.Command, modify bool) {
	clearHint := ""
	if modify {
		clearHint = "; 'clr' clears"
	}
	flags := cmd.Flags()
	flags.StringVar(&f.desc, "desc", "", "Short description (--de)")
	flags.StringVar(&f.priority, "priority", "", "Priority H, M, N, or L (--pr)"+clearHint)
	flags.StringVar(&f.due, "due", "", "Due date YYYY-MM-DD or +N/-N days (--du)"+clearHint)
	flags.StringVar(&f.hide, "hide", "", "Hide until YYYY-MM-DD, +N from today, or -N before due (--hi)"+clearHint)
	flags.StringVar(&f.group, "group", "", "Dot separated group, e.g. HOME.BILLS (--gr)"+clearHint)
	tagHelp := "Comma separated tags (--tg)"
	if modify {
		tagHelp = "Tag changes: -old removes, +new or new adds (--tg); 'clr' clears"
	}
	flags.StringVar(&f.tag, "tag", "", tagHelp)
	flags.StringVar(&f.recur, "recur", "", "Recurrence rule: D, W, BW, M, Q, SA, Y, WD1,5, MD1,15, MY1,7 (--re)"+clearHint)
	flags.StringVar(&f.end, "end", "", "Last date a recurring task repeats (--en)"+clearHint)
}

func (f *fieldFlags) addOptions(description string) task.AddOptions {
	return task.AddOptions{
		Description: description,
		Priority:    f.priority,
		Due:         f.due,
		Hide:        f.hide,
		Groups:      f.group,
		Tags:        f.tag,
		Recur:       f.recur,
		RecurEnd:    f.end,
	}
}

func (f *fieldFlags) modifyOptions(cmd *cobra.Command) task.ModifyOptions {
	change := func(name, value string) task.Change {
		if !cmd.Flags().Changed(name) {
			return task.Change{}
		}
		return task.SetTo(value)
	}
	return task.ModifyOptions{
		Description: change("desc", f.desc),
		Priority:    change("priority", f.priority),
		Due:         change("due", f.due),
		Hide:        change("hide", f.hide),
		Groups:      change("group", f.group),
		Tags:        change("tag", f.tag),
		Recur:       change("recur", f.recur),
		RecurEnd:    change("end", f.end),
	}
}

func hasChangedFlags(cmd *cobra.Command, flags ...string) bool {
	for _, flag := range flags {
		if cmd.Flags().Changed(flag) {
			return true
		}
	}
	return false
}

// descriptionFromArgs joins positional words into a description.
func descriptionFromArgs(args []string) string {
	return strings.Join(args, " ")
}
