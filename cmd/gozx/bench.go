package main

import (
	"path/filepath"

	"github.com/2x3systems/gozx/libzx/codec"
	"github.com/2x3systems/gozx/libzx/runner"
	"github.com/2x3systems/gozx/zx"
	"github.com/spf13/cobra"
)

func newBenchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench [files...]",
		Short: "Run rules and strategies on many diagrams concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.cfg.OpenStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ds := make([]zx.Diagram, len(args))
			for i, pathname := range args {
				if ds[i], err = st.NewDiagram(); err != nil {
					return err
				}
				if err = codec.LoadFile(ds[i], pathname); err != nil {
					return err
				}
			}

			r := runner.New(a.cfg.RunnerOpts())
			batches, err := r.Bench(cmd.Context(), ds, a.cfg.Runner.Rules)
			if err != nil {
				return err
			}

			var results []runner.Result
			for i, batch := range batches {
				for _, res := range batch {
					res.Diagram = filepath.Base(args[i])
					results = append(results, res)
				}
			}
			runner.WriteTable(cmd.OutOrStdout(), results)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringSliceP("rules", "r", nil, "comma separated rules and strategies run on every diagram")
	fs.IntP("workers", "w", 0, "diagrams reduced at once (default: all)")
	bindFlag(fs, "rules", "runner.rules")
	bindFlag(fs, "workers", "runner.workers")
	return cmd
}
