package codec_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/2x3systems/gozx/libzx/circuit"
	"github.com/2x3systems/gozx/libzx/codec"
	"github.com/2x3systems/gozx/libzx/oracle"
	"github.com/2x3systems/gozx/libzx/zxtest"
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chain = `
in 1; out 4;
scalar pow -1 phase(1/4);
1: B @0,0; 2: Z(1/4) @0,1; 3: X(a + 1/2) @0.5,2; 4: B @0,3;
1 - 2 ~ 3 - 4;
3 ~ 7
`

func TestLoadText(t *testing.T) {
	d := zxtest.New()
	require.NoError(t, codec.LoadText(d, chain))

	n, err := d.NumVertices()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	ins, err := d.Inputs()
	require.NoError(t, err)
	outs, err := d.Outputs()
	require.NoError(t, err)
	assert.Equal(t, []zx.VtxID{1}, ins)
	assert.Equal(t, []zx.VtxID{4}, outs)

	ph, err := d.Phase(3)
	require.NoError(t, err)
	assert.True(t, ph.Equal(phase.MustParse("1/2 + a")), "%v", ph)
	q, err := d.Qubit(3)
	require.NoError(t, err)
	assert.Equal(t, 0.5, q)

	et, err := d.EdgeType(zx.FormEdge(2, 3))
	require.NoError(t, err)
	assert.Equal(t, zx.Hadamard, et)

	// 7 was never declared: a phase-0 Z spider
	vt, err := d.Type(5)
	require.NoError(t, err)
	assert.Equal(t, zx.Z, vt)

	s, err := d.Scalar()
	require.NoError(t, err)
	assert.Equal(t, -1, s.Power2)
	assert.True(t, s.Phase.Equal(phase.Quarter))
}

func TestTextErrors(t *testing.T) {
	for src, want := range map[string]error{
		"1: Q;":         zx.ErrBadVertexType,
		"1: Z; 1: X;":   codec.ErrBadFormat,
		"in 9; 1: B;":   codec.ErrBadFormat,
		"1: Z(1/0);":    phase.ErrBadPhase,
		"1 - ;":         codec.ErrBadFormat,
		"scalar pow x;": codec.ErrBadFormat,
		"1: Z @0;":      codec.ErrBadFormat,
	} {
		err := codec.LoadText(zxtest.New(), src)
		if !errors.Is(err, want) {
			t.Fatalf("%q: expected %v, got %v", src, want, err)
		}
	}
}

func circuitDiagram(t *testing.T) zx.Diagram {
	t.Helper()
	c, err := circuit.Parse("qreg q[2]; h q[0]; cx q[0], q[1]; t q[1]; rz(theta) q[0]; cz q[1], q[0];")
	require.NoError(t, err)
	d := zxtest.New()
	require.NoError(t, c.ToGraph(d))
	require.NoError(t, d.SetVData(3, "label", "ctl"))
	require.NoError(t, d.UpdateScalar(func(s *zx.Scalar) {
		s.AddNode(phase.New(1, 3))
		s.AddSpiderPair(phase.Quarter, phase.New(1, 3))
	}))
	return d
}

func TestRoundTrip(t *testing.T) {
	params := map[string]float64{"theta": 0.3}
	for _, format := range []codec.Format{codec.Text, codec.YAML} {
		t.Run(string(format), func(t *testing.T) {
			for _, be := range zxtest.Backends(t) {
				src := circuitDiagram(t)
				buf := bytes.Buffer{}
				require.NoError(t, codec.Encode(&buf, src, format))

				dst, err := be.Opener.NewDiagram()
				require.NoError(t, err)
				require.NoError(t, codec.Decode(dst, buf.Bytes(), format), buf.String())
				assert.Equal(t, zxtest.Snapshot(t, src), zxtest.Snapshot(t, dst), be.Name)

				same, err := oracle.EquivalentWith(src, dst, oracle.Opts{PreserveScalar: true, Params: params})
				require.NoError(t, err)
				assert.True(t, same, be.Name)
			}
		})
	}
}

func TestYAMLData(t *testing.T) {
	src := circuitDiagram(t)
	buf := bytes.Buffer{}
	require.NoError(t, codec.WriteYAML(&buf, src))
	assert.Contains(t, buf.String(), "label: ctl")

	dst := zxtest.New()
	require.NoError(t, codec.LoadYAML(dst, buf.Bytes()))
	label, err := dst.VData(3, "label", "")
	require.NoError(t, err)
	assert.Equal(t, "ctl", label)

	err = codec.LoadYAML(zxtest.New(), []byte("vertices: [{id: 1, type: Z}]\nedges: [{s: 1, t: 2, type: plain}]\n"))
	assert.ErrorIs(t, err, codec.ErrBadFormat)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	qasm := filepath.Join(dir, "bell.qasm")
	require.NoError(t, os.WriteFile(qasm, []byte("OPENQASM 2.0;\nqreg q[2];\nh q[0];\nswap q[0], q[1];\n"), 0644))

	d := zxtest.New()
	require.NoError(t, codec.LoadFile(d, qasm))
	require.NoError(t, zx.Validate(d))

	out := filepath.Join(dir, "bell.yml")
	require.NoError(t, codec.WriteFile(d, out))
	again := zxtest.New()
	require.NoError(t, codec.LoadFile(again, out))
	assert.Equal(t, zxtest.Snapshot(t, d), zxtest.Snapshot(t, again))

	// the wire-only circuit extracts back to QASM
	back := filepath.Join(dir, "back.qasm")
	require.NoError(t, codec.WriteFile(again, back))
	text, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(text), "OPENQASM 2.0;"), string(text))

	err = codec.LoadFile(again, out)
	assert.ErrorIs(t, err, zx.ErrNotEmpty)

	_, err = codec.FormatOf("diagram.json")
	assert.ErrorIs(t, err, codec.ErrUnknownFormat)
	f, err := codec.ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, codec.YAML, f)
}
