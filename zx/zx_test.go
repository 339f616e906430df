package zx_test

import (
	"bytes"
	"math/cmplx"
	"testing"

	"github.com/2x3systems/gozx/libzx/memstore"
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarNodes(t *testing.T) {
	for _, str := range []string{"0", "1/2", "3/2", "1/4", "5/4", "a"} {
		p := phase.MustParse(str)
		params := map[string]float64{"a": 0.3}

		s := zx.Scalar{}
		s.AddNode(p)
		got, err := s.Complex(params)
		require.NoError(t, err, str)

		f, err := p.Float(params)
		require.NoError(t, err)
		want := 1 + cmplx.Exp(complex(0, 3.141592653589793*f))
		assert.InDelta(t, real(want), real(got), 1e-9, str)
		assert.InDelta(t, imag(want), imag(got), 1e-9, str)
	}

	s := zx.Scalar{}
	s.AddNode(phase.One)
	assert.True(t, s.IsZero)
	assert.Equal(t, "0", s.String())
}

func TestScalarPairs(t *testing.T) {
	expi := func(f float64) complex128 {
		return cmplx.Exp(complex(0, 3.141592653589793*f))
	}
	for _, tc := range [][2]string{{"0", "1/4"}, {"1", "1/4"}, {"1/4", "1"}, {"1/4", "3/4"}} {
		a, b := phase.MustParse(tc[0]), phase.MustParse(tc[1])
		s := zx.Scalar{}
		s.AddSpiderPair(a, b)
		got, err := s.Complex(nil)
		require.NoError(t, err)

		fa, _ := a.Float(nil)
		fb, _ := b.Float(nil)
		ea, eb := expi(fa), expi(fb)
		want := (1 + ea + eb - ea*eb) / complex(1.4142135623730951, 0)
		assert.InDelta(t, real(want), real(got), 1e-9, "%v", tc)
		assert.InDelta(t, imag(want), imag(got), 1e-9, "%v", tc)
	}
}

func TestScalarMul(t *testing.T) {
	s := zx.Scalar{}
	assert.True(t, s.IsOne())
	assert.Equal(t, "1", s.String())

	u := zx.Scalar{}
	u.AddPower(-2)
	u.AddPhase(phase.Quarter)
	u.AddNode(phase.Param("a"))

	s.Mul(u)
	dup := s.Clone()
	dup.AddNode(phase.Param("b"))
	assert.Len(t, s.PhaseNodes, 1)
	assert.Equal(t, "sqrt2^-2 * exp(i*pi*(1/4)) * (1+exp(i*pi*(a)))", s.String())

	_, err := s.Complex(nil)
	assert.ErrorIs(t, err, phase.ErrUnboundParam)
}

// chain builds in - Z(1/4) - X(1/2) = out with the X spider joined to the output by a Hadamard edge.
func chain(t *testing.T) zx.Diagram {
	d := memstore.New()
	in, err := d.AddVertex(zx.Boundary, 0, 0)
	require.NoError(t, err)
	z, err := d.AddVertex(zx.Z, 0, 1, phase.Quarter)
	require.NoError(t, err)
	x, err := d.AddVertex(zx.X, 0, 2, phase.Half)
	require.NoError(t, err)
	out, err := d.AddVertex(zx.Boundary, 0, 3)
	require.NoError(t, err)

	_, err = d.AddEdge(in, z, zx.Plain)
	require.NoError(t, err)
	_, err = d.AddEdge(z, x, zx.Plain)
	require.NoError(t, err)
	_, err = d.AddEdge(x, out, zx.Hadamard)
	require.NoError(t, err)
	require.NoError(t, d.SetInputs([]zx.VtxID{in}))
	require.NoError(t, d.SetOutputs([]zx.VtxID{out}))
	require.NoError(t, d.SetVData(z, "label", "t"))
	return d
}

func TestCountsAndDepth(t *testing.T) {
	d := chain(t)
	c, err := zx.CountOf(d)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Vertices)
	assert.Equal(t, 3, c.Edges)
	assert.Equal(t, 1, c.Hadamards)
	assert.Equal(t, 2, c.ByType[zx.Boundary])
	assert.Contains(t, c.String(), "Z:1 X:1")

	depth, err := zx.Depth(d)
	require.NoError(t, err)
	assert.Equal(t, 3.0, depth)

	buf := bytes.Buffer{}
	require.NoError(t, zx.Summarize(d, &buf, zx.PrintOpts{Label: "> ", Scalar: true}))
	assert.Contains(t, buf.String(), "> ")
	assert.Contains(t, buf.String(), "[memory]")
	assert.Contains(t, buf.String(), "scalar: 1")
}

func TestValidate(t *testing.T) {
	d := chain(t)
	require.NoError(t, zx.Validate(d))

	ins, err := d.Inputs()
	require.NoError(t, err)
	z, err := d.AddVertex(zx.Z, 1, 1)
	require.NoError(t, err)
	_, err = d.AddEdge(ins[0], z, zx.Plain)
	require.NoError(t, err)
	assert.ErrorIs(t, zx.Validate(d), zx.ErrBadBoundary)

	d = chain(t)
	require.NoError(t, d.SetOutputs([]zx.VtxID{3}))
	assert.ErrorIs(t, zx.Validate(d), zx.ErrBadBoundary)
}

func TestCopyInto(t *testing.T) {
	src := chain(t)
	require.NoError(t, src.UpdateScalar(func(s *zx.Scalar) { s.AddPower(3) }))

	dst := memstore.New()
	_, err := dst.AddVertex(zx.Z, 5, 5)
	require.NoError(t, err)

	idMap, err := zx.CopyInto(dst, src)
	require.NoError(t, err)
	require.Len(t, idMap, 4)

	n, err := dst.NumVertices()
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	label, err := dst.VData(idMap[2], "label", "")
	require.NoError(t, err)
	assert.Equal(t, "t", label)

	et, err := dst.EdgeType(zx.FormEdge(idMap[3], idMap[4]))
	require.NoError(t, err)
	assert.Equal(t, zx.Hadamard, et)

	outs, err := dst.Outputs()
	require.NoError(t, err)
	assert.Equal(t, []zx.VtxID{idMap[4]}, outs)

	s, err := dst.Scalar()
	require.NoError(t, err)
	assert.Equal(t, 3, s.Power2)
}

func TestDiagramStream(t *testing.T) {
	ds := []zx.Diagram{chain(t), chain(t), chain(t)}
	buf := bytes.Buffer{}

	out := zx.StreamDiagrams(ds...).
		Apply("drop-second", func(d zx.Diagram) error {
			if d.ID() == ds[1].ID() {
				return zx.ErrMissingVertex
			}
			return nil
		}).
		Print(&buf, zx.PrintOpts{}).
		Collect()

	require.Len(t, out, 2)
	assert.Equal(t, ds[0].ID(), out[0].ID())
	assert.Equal(t, ds[2].ID(), out[1].ID())
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("\n")))
}
