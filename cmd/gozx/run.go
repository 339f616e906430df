package main

import (
	"io"

	"github.com/2x3systems/gozx/libzx/codec"
	"github.com/2x3systems/gozx/libzx/runner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file]",
		Short: "Apply a sequence of rules and strategies to one diagram",
		Long: `Runs each name in --rules on the diagram in turn (reading text from stdin when no
file is given) and prints a table of rewrite counts and timings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.cfg.OpenStore()
			if err != nil {
				return err
			}
			defer st.Close()

			d, err := st.NewDiagram()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				var src []byte
				if src, err = io.ReadAll(cmd.InOrStdin()); err == nil {
					err = codec.Decode(d, src, codec.Text)
				}
			} else {
				err = codec.LoadFile(d, args[0])
			}
			if err != nil {
				return err
			}

			r := runner.New(a.cfg.RunnerOpts())
			results := r.RunAll(cmd.Context(), d, a.cfg.Runner.Rules)
			runner.WriteTable(cmd.OutOrStdout(), results)

			if out, _ := cmd.Flags().GetString("out"); out != "" {
				if err = codec.WriteFile(d, out); err != nil {
					return err
				}
			}
			if sum := runner.Summarize(results); sum.Failed > 0 {
				return errors.Errorf("%d of %d runs failed", sum.Failed, sum.Runs)
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringSliceP("rules", "r", nil, "comma separated rules and strategies, run in order")
	fs.StringP("out", "o", "", "write the rewritten diagram to this file")
	bindFlag(fs, "rules", "runner.rules")
	return cmd
}
