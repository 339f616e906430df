package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2x3systems/gozx/libzx/codec"
	"github.com/2x3systems/gozx/libzx/config"
	"github.com/2x3systems/gozx/libzx/simplify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := config.Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "full_reduce", cfg.Reduce.Strategy)
	assert.Equal(t, simplify.DefaultMaxIterations, cfg.Reduce.MaxIterations)
	assert.NotEmpty(t, cfg.Runner.Rules)

	format, err := cfg.OutFormat()
	require.NoError(t, err)
	assert.Equal(t, codec.Format(""), format)

	st, err := cfg.OpenStore()
	require.NoError(t, err)
	defer st.Close()
	d, err := st.NewDiagram()
	require.NoError(t, err)
	assert.Equal(t, "memory", d.Backend())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	pathname := filepath.Join(dir, "gozx.yaml")
	require.NoError(t, os.WriteFile(pathname, []byte(`
store:
  backend: pebble
reduce:
  strategy: clifford_simp
  max_iterations: 7
  format: yaml
runner:
  rules: [spider_fusion, pivot_simp]
  workers: 3
`), 0644))

	t.Setenv("GOZX_REDUCE_PIVOT_BOUNDARY", "true")
	cfg, err := config.Load(pathname)
	require.NoError(t, err)
	assert.Equal(t, "pebble", cfg.Store.Backend)
	assert.Equal(t, "clifford_simp", cfg.Reduce.Strategy)
	assert.True(t, cfg.Reduce.PivotBoundary)
	assert.Equal(t, []string{"spider_fusion", "pivot_simp"}, cfg.Runner.Rules)

	opts := cfg.SimplifyOpts(nil)
	assert.Equal(t, 7, opts.MaxIterations)
	assert.True(t, opts.PivotBoundary)
	assert.Equal(t, 3, cfg.RunnerOpts().Workers)

	format, err := cfg.OutFormat()
	require.NoError(t, err)
	assert.Equal(t, codec.YAML, format)

	st, err := cfg.OpenStore()
	require.NoError(t, err)
	d, err := st.NewDiagram()
	require.NoError(t, err)
	assert.Equal(t, "pebble", d.Backend())
	require.NoError(t, st.Close())

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GOZX_STORE_BACKEND", "badger")
	t.Setenv("GOZX_LOGGING_VERBOSITY", "2")
	cfg, err := config.Read(strings.NewReader("store:\n  backend: pebble\n"))
	require.NoError(t, err)
	assert.Equal(t, "badger", cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Logging.Verbosity)
}

func TestInvalid(t *testing.T) {
	for _, src := range []string{
		"store: {backend: sqlite}",
		"reduce: {strategy: teleport_reduce}",
		"reduce: {max_iterations: 0}",
		"reduce: {format: json}",
		"runner: {rules: [spider_fusion, unfuse]}",
		"logging: {verbosity: 12}",
	} {
		_, err := config.Read(strings.NewReader(src))
		assert.ErrorIs(t, err, config.ErrBadConfig, src)
	}
}
