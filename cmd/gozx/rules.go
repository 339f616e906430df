package main

import (
	"github.com/2x3systems/gozx/libzx/runner"
	"github.com/markkurossi/tabulate"
	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rules and strategies run, reduce and bench accept",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			tab := tabulate.New(tabulate.UnicodeLight)
			tab.Header("Name").SetAlign(tabulate.ML)
			tab.Header("Kind").SetAlign(tabulate.ML)
			for _, e := range runner.ListRules() {
				row := tab.Row()
				row.Column(e.Name)
				row.Column(string(e.Kind))
			}
			tab.Print(cmd.OutOrStdout())
		},
	}
}
