package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/2x3systems/gozx/libzx/codec"
	"github.com/2x3systems/gozx/libzx/config"
	"github.com/2x3systems/gozx/libzx/oracle"
	"github.com/2x3systems/gozx/libzx/runner"
	"github.com/2x3systems/gozx/zx"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
)

var ErrNotEquivalent = errors.New("reduced diagram is not equivalent to its input")

func newReduceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reduce [files...]",
		Short: "Simplify each diagram file with a strategy",
		Long: `Loads each file (.zx, .yaml or .qasm) into the configured store, runs the
strategy on it and writes the result into --out, or to stdout when --out is empty.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.reduce(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
		},
	}

	fs := cmd.Flags()
	fs.StringP("strategy", "s", "", "strategy to run (see 'gozx rules')")
	fs.StringP("out", "o", "", "output directory")
	fs.String("format", "", "output format: zx, yaml or qasm (default: the input's)")
	fs.Bool("verify", false, "check each result against its input's linear map")
	fs.Int("max-iterations", 0, "cap on each strategy loop")
	fs.Bool("pivot-boundary", false, "let pivot_simp pivot on boundary spiders")
	bindFlag(fs, "strategy", "reduce.strategy")
	bindFlag(fs, "out", "reduce.out_dir")
	bindFlag(fs, "format", "reduce.format")
	bindFlag(fs, "verify", "reduce.verify")
	bindFlag(fs, "max-iterations", "reduce.max_iterations")
	bindFlag(fs, "pivot-boundary", "reduce.pivot_boundary")
	return cmd
}

func (a *app) reduce(ctx context.Context, stdout, stderr io.Writer, files []string) error {
	st, err := a.cfg.OpenStore()
	if err != nil {
		return err
	}
	defer st.Close()

	format, err := a.cfg.OutFormat()
	if err != nil {
		return err
	}

	r := runner.New(a.cfg.RunnerOpts())
	results := make([]runner.Result, 0, len(files))
	for _, pathname := range files {
		res, err := a.reduceFile(ctx, st, r, pathname, format, stdout)
		if err != nil {
			klog.Errorf("%s: %v", pathname, err)
		}
		results = append(results, res)
		if ctx.Err() != nil {
			break
		}
	}

	if !a.cfg.Logging.Quiet {
		runner.WriteTable(stderr, results)
	}
	if sum := runner.Summarize(results); sum.Failed > 0 {
		return errors.Errorf("%d of %d reductions failed", sum.Failed, len(files))
	}
	return ctx.Err()
}

func (a *app) reduceFile(ctx context.Context, st *config.Store, r *runner.Runner, pathname string, format codec.Format, w io.Writer) (runner.Result, error) {
	res := runner.Result{
		Diagram: filepath.Base(pathname),
		Name:    a.cfg.Reduce.Strategy,
	}
	fail := func(err error) (runner.Result, error) {
		res.Err = err
		return res, err
	}

	d, err := st.NewDiagram()
	if err != nil {
		return fail(err)
	}
	if err = codec.LoadFile(d, pathname); err != nil {
		return fail(err)
	}

	var orig zx.Diagram
	if a.cfg.Reduce.Verify {
		if orig, err = d.Clone(); err != nil {
			return fail(err)
		}
	}

	res, err = r.Run(ctx, d, a.cfg.Reduce.Strategy)
	res.Diagram = filepath.Base(pathname)
	if err != nil {
		return res, err
	}

	if orig != nil {
		same, err := oracle.EquivalentWith(orig, d, oracle.Opts{
			PreserveScalar: true,
			Tolerance:      a.cfg.Reduce.Tolerance,
		})
		if err == nil && !same {
			err = ErrNotEquivalent
		}
		if err != nil {
			return fail(err)
		}
		klog.V(1).Infof("%s: verified", pathname)
	}

	if format == "" {
		format = outFormatFor(pathname)
	}
	if a.cfg.Reduce.OutDir == "" {
		err = codec.Encode(w, d, format)
	} else {
		err = writeOut(d, a.cfg.Reduce.OutDir, pathname, format)
	}
	if err != nil {
		return fail(err)
	}
	return res, nil
}

// outFormatFor keeps the input's format, except that reduced circuits are written as text
// since they rarely extract back into gates.
func outFormatFor(pathname string) codec.Format {
	format, err := codec.FormatOf(pathname)
	if err != nil || format == codec.QASM {
		return codec.Text
	}
	return format
}

func writeOut(d zx.Diagram, dir, pathname string, format codec.Format) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	base := filepath.Base(pathname)
	base = strings.TrimSuffix(base, filepath.Ext(base)) + format.Ext()
	outPath := filepath.Join(dir, base)
	if err := codec.WriteFile(d, outPath); err != nil {
		return err
	}
	klog.V(1).Infof("wrote %s", outPath)
	return nil
}
