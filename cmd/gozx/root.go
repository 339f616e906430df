package main

import (
	"flag"
	"strconv"

	"github.com/2x3systems/gozx/libzx/config"
	"github.com/2x3systems/gozx/zxpy"
	"github.com/plan-systems/klog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configKey annotates a flag with the config key it overrides.
const configKey = "gozx_config_key"

var klogFlags = flag.NewFlagSet("klog", flag.ContinueOnError)

func init() {
	klog.InitFlags(klogFlags)
	klogFlags.Set("logtostderr", "true")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{
		v: config.New(),
	}

	root := &cobra.Command{
		Use:   "gozx",
		Short: "Rewrite and simplify ZX-calculus diagrams",
		Long: `gozx loads ZX diagrams from text, YAML or QASM files, rewrites them with
the spider, pivot and local complementation rules, and checks the results
against their linear maps.`,
		Version:      zxpy.LIB_VERSION,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ./config.yaml)")
	pf.IntP("verbosity", "v", 0, "log verbosity level")
	pf.BoolP("quiet", "q", false, "suppress per-pass progress")
	pf.String("backend", "", "diagram store: memory, badger or pebble")
	pf.String("store-dir", "", "badger or pebble directory (empty keeps the store in memory)")
	bindFlag(pf, "verbosity", "logging.verbosity")
	bindFlag(pf, "quiet", "logging.quiet")
	bindFlag(pf, "backend", "store.backend")
	bindFlag(pf, "store-dir", "store.dir")

	root.AddCommand(
		newReduceCmd(a),
		newRunCmd(a),
		newBenchCmd(a),
		newRulesCmd(),
		newPyCmd(),
	)
	return root
}

func bindFlag(fs *pflag.FlagSet, name, key string) {
	_ = fs.SetAnnotation(name, configKey, []string{key})
}

// init binds the flags of the command being run, then loads and validates the config.
// Binding happens here so commands sharing a config key do not shadow each other.
func (a *app) init(cmd *cobra.Command) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys := f.Annotations[configKey]; len(keys) > 0 && err == nil {
			err = a.v.BindPFlag(keys[0], f)
		}
	})
	if err != nil {
		return err
	}

	if err = config.ReadInConfig(a.v, a.cfgFile); err != nil {
		return err
	}
	if a.cfg, err = config.Decode(a.v); err != nil {
		return err
	}

	klogFlags.Set("v", strconv.Itoa(a.cfg.Logging.Verbosity))
	return nil
}
