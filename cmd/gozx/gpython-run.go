package main

import (
	"fmt"
	"io"
	"time"

	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"
	"github.com/spf13/cobra"

	_ "github.com/2x3systems/gozx/zxpy"
	_ "github.com/go-python/gpython/stdlib"
)

const replStartup = `import zx
print("gozx", zx.LIB_VERSION, "backends:", ", ".join(zx.BACKENDS))
`

func newPyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "py [script.py] [args...]",
		Short: "Run a Python script with the zx module, or start a REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			pathname := ""
			if len(args) > 0 {
				pathname = args[0]
			}
			return goGpython(cmd.OutOrStdout(), pathname, args)
		},
	}
}

func goGpython(out io.Writer, pathname string, args []string) error {
	opts := py.DefaultContextOpts()
	opts.SysArgs = args
	ctx := py.NewContext(opts)

	var err error
	if len(pathname) == 0 {
		replCtx := repl.New(ctx)

		_, err = py.RunSrc(ctx, replStartup, "<startup>", replCtx.Module)
		if err == nil {
			cli.RunREPL(replCtx)
		}

	} else {
		startTime := time.Now()
		fmt.Fprintf(out, "<<<>>>   executing '%s'   <<<>>>\n", pathname)

		_, err = py.RunFile(ctx, pathname, py.CompileOpts{}, nil)

		if err == nil {
			fmt.Fprintf(out, "<<<>>>   execution complete: %v   <<<>>>\n", time.Since(startTime))
		}
	}

	// Closing the context releases any catalogs the script opened.
	ctx.Close()
	<-ctx.Done()

	if err != nil {
		py.TracebackDump(err)
	}
	return err
}
