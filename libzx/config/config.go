// Package config loads gozx settings from a YAML file, a .env file and GOZX_ environment variables.
package config

import (
	"io"
	"os"
	"strings"

	"github.com/2x3systems/gozx/libzx/catalog"
	"github.com/2x3systems/gozx/libzx/codec"
	"github.com/2x3systems/gozx/libzx/memstore"
	"github.com/2x3systems/gozx/libzx/runner"
	"github.com/2x3systems/gozx/libzx/simplify"
	"github.com/2x3systems/gozx/zx"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	ErrBadConfig = errors.New("invalid configuration")
)

// EnvPrefix prefixes every environment override, e.g. GOZX_STORE_BACKEND=pebble.
const EnvPrefix = "GOZX"

type Config struct {
	Store   StoreConfig   `mapstructure:"store"`
	Reduce  ReduceConfig  `mapstructure:"reduce"`
	Runner  RunnerConfig  `mapstructure:"runner"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StoreConfig picks the backend diagrams are loaded into.
type StoreConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=memory badger pebble"`
	Dir        string `mapstructure:"dir"` // empty keeps a KV store in memory
	SyncWrites bool   `mapstructure:"sync_writes"`
	CacheSize  int    `mapstructure:"cache_size" validate:"min=0"`
}

type ReduceConfig struct {
	Strategy      string  `mapstructure:"strategy" validate:"required"`
	MaxIterations int     `mapstructure:"max_iterations" validate:"min=1"`
	PivotBoundary bool    `mapstructure:"pivot_boundary"`
	Verify        bool    `mapstructure:"verify"`
	Tolerance     float64 `mapstructure:"tolerance" validate:"gt=0"`
	OutDir        string  `mapstructure:"out_dir"`
	Format        string  `mapstructure:"format" validate:"omitempty,oneof=zx yaml qasm"`
}

type RunnerConfig struct {
	Rules   []string `mapstructure:"rules"`
	Workers int      `mapstructure:"workers" validate:"min=0"`
}

type LoggingConfig struct {
	Verbosity int  `mapstructure:"verbosity" validate:"min=0,max=9"`
	Quiet     bool `mapstructure:"quiet"`
}

// Load reads cfgFile (or config.yaml from the usual places when cfgFile is empty), merges a .env
// file if present, applies GOZX_ overrides and validates the result.
func Load(cfgFile string) (*Config, error) {
	v := New()
	if err := ReadInConfig(v, cfgFile); err != nil {
		return nil, err
	}
	return Decode(v)
}

// ReadInConfig merges cfgFile and .env into v.  A missing default config.yaml is not an error.
func ReadInConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.gozx")
		v.AddConfigPath("/etc/gozx")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "reading config file")
		}
	}

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig()
	return nil
}

// New returns a viper instance holding the defaults and the GOZX_ environment binding.
// Commands bind their flags into it before calling Decode.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Read loads YAML settings from r on top of the defaults.
func Read(r io.Reader) (*Config, error) {
	v := New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	return Decode(v)
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.backend", memstore.BackendName)
	v.SetDefault("store.dir", "")
	v.SetDefault("store.sync_writes", false)
	v.SetDefault("store.cache_size", 4096)

	v.SetDefault("reduce.strategy", "full_reduce")
	v.SetDefault("reduce.max_iterations", simplify.DefaultMaxIterations)
	v.SetDefault("reduce.pivot_boundary", false)
	v.SetDefault("reduce.verify", false)
	v.SetDefault("reduce.tolerance", 1e-6)
	v.SetDefault("reduce.out_dir", "")
	v.SetDefault("reduce.format", "")

	v.SetDefault("runner.rules", []string{"spider_simp", "to_gh", "id_simp", "pivot_simp", "lcomp_simp"})
	v.SetDefault("runner.workers", 0)

	v.SetDefault("logging.verbosity", 0)
	v.SetDefault("logging.quiet", false)
}

var validate = validator.New()

// Validate checks field constraints and that every named strategy and rule exists.
func (cfg *Config) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return errors.Wrap(ErrBadConfig, err.Error())
	}
	if _, err := simplify.StrategyByName(cfg.Reduce.Strategy); err != nil {
		return errors.Wrap(ErrBadConfig, err.Error())
	}
	for _, name := range cfg.Runner.Rules {
		if _, err := runner.Lookup(name); err != nil {
			return errors.Wrap(ErrBadConfig, err.Error())
		}
	}
	return nil
}

// SimplifyOpts maps the reduce settings onto simplify.Opts.
func (cfg *Config) SimplifyOpts(stats *simplify.Stats) *simplify.Opts {
	return &simplify.Opts{
		Stats:         stats,
		MaxIterations: cfg.Reduce.MaxIterations,
		PivotBoundary: cfg.Reduce.PivotBoundary,
		Quiet:         cfg.Logging.Quiet,
	}
}

// RunnerOpts maps the runner settings onto runner.Opts.
func (cfg *Config) RunnerOpts() runner.Opts {
	return runner.Opts{
		MaxIterations: cfg.Reduce.MaxIterations,
		PivotBoundary: cfg.Reduce.PivotBoundary,
		Workers:       cfg.Runner.Workers,
		Quiet:         cfg.Logging.Quiet,
	}
}

// OutFormat is the configured output format, or "" to reuse each input's format.
func (cfg *Config) OutFormat() (codec.Format, error) {
	if cfg.Reduce.Format == "" {
		return "", nil
	}
	return codec.ParseFormat(cfg.Reduce.Format)
}

// Store is an open diagram backend.
type Store struct {
	zx.Opener
	Backend string
	closer  io.Closer
}

func (st *Store) Close() error {
	if st.closer == nil {
		return nil
	}
	return st.closer.Close()
}

// OpenStore opens the configured backend.  A KV store with a Dir is created on disk if missing.
func (cfg *Config) OpenStore() (*Store, error) {
	sc := cfg.Store
	if sc.Backend == memstore.BackendName {
		return &Store{Opener: memstore.Opener, Backend: sc.Backend}, nil
	}
	if sc.Dir != "" {
		if err := os.MkdirAll(sc.Dir, 0755); err != nil {
			return nil, err
		}
	}
	cat, err := catalog.OpenCatalog(catalog.Opts{
		Engine:     sc.Backend,
		DbPathName: sc.Dir,
		SyncWrites: sc.SyncWrites,
		CacheSize:  sc.CacheSize,
	})
	if err != nil {
		return nil, err
	}
	return &Store{Opener: cat, Backend: sc.Backend, closer: cat}, nil
}
