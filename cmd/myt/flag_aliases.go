package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// fieldFlagAliases maps short and long spellings to the canonical field flag.
var fieldFlagAliases = map[string]string{
	"de":          "desc",
	"description": "desc",
	"pr":          "priority",
	"du":          "due",
	"hi":          "hide",
	"gr":          "group",
	"groups":      "group",
	"tg":          "tag",
	"tags":        "tag",
	"re":          "recur",
	"en":          "end",
	"recur-end":   "end",
	"ai":          "all-instances",
}

func addFieldFlagAliases(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		setFlagAliases(cmd.Flags(), fieldFlagAliases)
	}
}

func setFlagAliases(flags *pflag.FlagSet, aliases map[string]string) {
	if len(aliases) == 0 {
		return
	}

	normalize := flags.GetNormalizeFunc()
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if alias, ok := aliases[name]; ok {
			name = alias
		}
		return normalize(f, name)
	})
}
