package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2x3systems/gozx/libzx/codec"
	"github.com/2x3systems/gozx/libzx/zxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := bytes.Buffer{}, bytes.Buffer{}
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReduce(t *testing.T) {
	for _, backend := range []string{"memory", "badger", "pebble"} {
		t.Run(backend, func(t *testing.T) {
			outDir := t.TempDir()
			_, stderr, err := execute(t, "reduce", "--backend", backend, "--verify", "-o", outDir,
				"testdata/conj.qasm", "testdata/wire.zx")
			require.NoError(t, err)
			assert.Contains(t, stderr, "conj.qasm")
			assert.Contains(t, stderr, "0 failed")

			// the t and tdg spiders cancel, leaving a bare wire
			d := zxtest.New()
			require.NoError(t, codec.LoadFile(d, filepath.Join(outDir, "wire.zx")))
			n, err := d.NumVertices()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			_, err = os.Stat(filepath.Join(outDir, "conj.zx"))
			assert.NoError(t, err)
		})
	}
}

func TestReduceStdout(t *testing.T) {
	stdout, _, err := execute(t, "reduce", "-q", "--format", "yaml", "-s", "spider_simp", "testdata/wire.zx")
	require.NoError(t, err)

	d := zxtest.New()
	require.NoError(t, codec.Decode(d, []byte(stdout), codec.YAML))
	n, err := d.NumVertices()
	require.NoError(t, err)
	assert.Equal(t, 3, n) // fused but not yet removed
}

func TestReduceErrors(t *testing.T) {
	_, _, err := execute(t, "reduce", "-q", "testdata/missing.zx")
	assert.Error(t, err)

	_, _, err = execute(t, "reduce", "--strategy", "teleport_reduce", "testdata/wire.zx")
	assert.Error(t, err)

	_, _, err = execute(t, "reduce", "--backend", "sqlite", "testdata/wire.zx")
	assert.Error(t, err)
}

func TestRunRules(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.yaml")
	stdout, _, err := execute(t, "run", "-r", "spider_fusion,id_simp", "-o", out, "testdata/wire.zx")
	require.NoError(t, err)
	assert.Contains(t, stdout, "spider_fusion")
	assert.Contains(t, stdout, "TOTAL")

	d := zxtest.New()
	require.NoError(t, codec.LoadFile(d, out))
	n, err := d.NumEdges()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stdout, _, err = execute(t, "run", "--rules", "spider_fusion,nope", "testdata/wire.zx")
	assert.Error(t, err)
	assert.Contains(t, stdout, "1 failed")
}

func TestBench(t *testing.T) {
	stdout, _, err := execute(t, "bench", "-w", "2", "-r", "clifford_simp,full_reduce",
		"testdata/conj.qasm", "testdata/wire.zx")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wire.zx")
	assert.Contains(t, stdout, "4 runs")
}

func TestConfigFile(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "gozx.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("runner:\n  rules: [to_gh, spider_simp]\n"), 0644))

	stdout, _, err := execute(t, "run", "--config", cfgFile, "testdata/wire.zx")
	require.NoError(t, err)
	assert.Contains(t, stdout, "to_gh")
	assert.NotContains(t, stdout, "lcomp_simp")
}

func TestRulesList(t *testing.T) {
	stdout, _, err := execute(t, "rules")
	require.NoError(t, err)
	for _, name := range []string{"spider_fusion", "lcomp", "full_reduce", "reduce_scalar"} {
		assert.Contains(t, stdout, name)
	}
}

func TestPyScript(t *testing.T) {
	stdout, _, err := execute(t, "py", "testdata/catalog.py")
	require.NoError(t, err)
	assert.Contains(t, stdout, "execution complete")
}
