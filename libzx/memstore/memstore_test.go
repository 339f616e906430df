package memstore_test

import (
	"strings"
	"testing"

	"github.com/2x3systems/gozx/libzx/memstore"
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestVertexDefaults(t *testing.T) {
	d := memstore.New()

	z, err := d.AddVertex(zx.Z, 0, 1)
	require.NoError(t, err)
	h, err := d.AddVertex(zx.HBox, 0, 2)
	require.NoError(t, err)
	ids, err := d.AddVertices(2)
	require.NoError(t, err)
	require.Equal(t, []zx.VtxID{3, 4}, ids)

	ph, _ := d.Phase(z)
	require.True(t, ph.IsZero())
	ph, _ = d.Phase(h)
	require.True(t, ph.Equal(phase.One))

	q, _ := d.Qubit(ids[0])
	r, _ := d.Row(ids[0])
	require.Equal(t, -1.0, q)
	require.Equal(t, -1.0, r)

	vt, _ := d.Type(ids[1])
	require.Equal(t, zx.Boundary, vt)

	_, err = d.Type(99)
	require.True(t, errors.Is(err, zx.ErrMissingVertex))
}

func TestFuseAndHopf(t *testing.T) {
	d := memstore.New()
	a, _ := d.AddVertex(zx.Z, 0, 0)
	b, _ := d.AddVertex(zx.Z, 0, 1)
	c, _ := d.AddVertex(zx.X, 0, 2)

	eid, err := d.AddEdge(a, b, zx.Plain)
	require.NoError(t, err)
	require.Equal(t, zx.EdgeID(1), eid)

	// fuse over fuse: no change
	again, err := d.AddEdge(b, a, zx.Plain)
	require.NoError(t, err)
	require.Equal(t, eid, again)

	// hopf over fuse: edge stays plain, a gains π, scalar gains 1/√2
	_, err = d.AddEdge(a, b, zx.Hadamard)
	require.NoError(t, err)
	et, _ := d.EdgeType(zx.FormEdge(a, b))
	require.Equal(t, zx.Plain, et)
	ph, _ := d.Phase(a)
	require.True(t, ph.Equal(phase.One))
	sc, _ := d.Scalar()
	require.Equal(t, -1, sc.Power2)

	// Z-X: plain is the hopf kind; two of them cancel
	_, err = d.AddEdge(b, c, zx.Plain)
	require.NoError(t, err)
	eid, err = d.AddEdge(c, b, zx.Plain)
	require.NoError(t, err)
	require.Equal(t, zx.NilEdge, eid)
	connected, _ := d.Connected(b, c)
	require.False(t, connected)
	sc, _ = d.Scalar()
	require.Equal(t, -3, sc.Power2)

	n, _ := d.NumEdges()
	require.Equal(t, 1, n)
}

func TestSelfLoops(t *testing.T) {
	d := memstore.New()
	z, _ := d.AddVertex(zx.Z, 0, 0, phase.Half)
	b, _ := d.AddVertex(zx.Boundary, 0, 1)

	_, err := d.AddEdge(z, z, zx.Plain)
	require.True(t, errors.Is(err, zx.ErrPlainSelfLoop))

	_, err = d.AddEdge(b, b, zx.Hadamard)
	require.True(t, errors.Is(err, zx.ErrSelfLoopType))

	eid, err := d.AddEdge(z, z, zx.Hadamard)
	require.NoError(t, err)
	require.Equal(t, zx.NilEdge, eid)
	ph, _ := d.Phase(z)
	require.True(t, ph.Equal(phase.ThreeHalfs))

	// the raw loader keeps loops
	_, err = d.PutEdge(z, z, zx.Plain)
	require.NoError(t, err)
	connected, _ := d.Connected(z, z)
	require.True(t, connected)
	deg, _ := d.Degree(z)
	require.Equal(t, 1, deg)
}

func TestForbiddenEdge(t *testing.T) {
	d := memstore.New()
	h, _ := d.AddVertex(zx.HBox, 0, 0)
	x, _ := d.AddVertex(zx.X, 0, 1)
	z, _ := d.AddVertex(zx.Z, 0, 2)

	_, err := d.AddEdge(h, z, zx.Plain)
	require.NoError(t, err)
	_, err = d.AddEdge(h, z, zx.Plain)
	require.NoError(t, err)

	_, err = d.AddEdge(h, z, zx.Hadamard)
	require.True(t, errors.Is(err, zx.ErrForbiddenEdge))

	_, err = d.AddEdge(h, x, zx.Plain)
	require.NoError(t, err)
	_, err = d.AddEdge(h, x, zx.Plain)
	require.True(t, errors.Is(err, zx.ErrForbiddenEdge))
	require.True(t, strings.Contains(err.Error(), "1(H)"))

	// H-boxes do not copy like Z spiders, so parallel wires between them never merge
	h2, _ := d.AddVertex(zx.HBox, 1, 1)
	_, err = d.AddEdge(h, h2, zx.Plain)
	require.NoError(t, err)
	_, err = d.AddEdge(h, h2, zx.Plain)
	require.True(t, errors.Is(err, zx.ErrForbiddenEdge))
	_, err = d.AddEdge(h2, h, zx.Hadamard)
	require.True(t, errors.Is(err, zx.ErrForbiddenEdge))
}

func TestRemoveAndIO(t *testing.T) {
	d := memstore.New()
	in, _ := d.AddVertex(zx.Boundary, 0, 0)
	z, _ := d.AddVertex(zx.Z, 0, 1)
	out, _ := d.AddVertex(zx.Boundary, 0, 2)
	d.AddEdge(in, z, zx.Plain)
	d.AddEdge(z, out, zx.Hadamard)
	d.SetInputs([]zx.VtxID{in})
	d.SetOutputs([]zx.VtxID{out})
	require.NoError(t, zx.Validate(d))

	require.NoError(t, d.RemoveVertices(z))
	n, _ := d.NumEdges()
	require.Equal(t, 0, n)
	nbrs, _ := d.Neighbors(in)
	require.Empty(t, nbrs)

	require.NoError(t, d.RemoveVertices(out))
	outs, _ := d.Outputs()
	require.Empty(t, outs)

	// ids are never reused
	v, _ := d.AddVertex(zx.Z, 0, 0)
	require.Equal(t, zx.VtxID(4), v)
}

func TestMetadata(t *testing.T) {
	d := memstore.New()
	a, _ := d.AddVertex(zx.Z, 0, 0)
	b, _ := d.AddVertex(zx.Z, 0, 1)
	d.AddEdge(a, b, zx.Hadamard)
	e := zx.FormEdge(b, a)

	val, err := d.VData(a, "label", "none")
	require.NoError(t, err)
	require.Equal(t, "none", val)
	require.NoError(t, d.SetVData(a, "label", "q0"))
	require.NoError(t, d.SetVData(a, "alpha", "1"))
	keys, _ := d.VDataKeys(a)
	require.Equal(t, []string{"alpha", "label"}, keys)
	require.NoError(t, d.ClearVData(a, "alpha"))
	keys, _ = d.VDataKeys(a)
	require.Equal(t, []string{"label"}, keys)

	require.NoError(t, d.SetEData(e, "w", "3"))
	val, _ = d.EData(e, "w", "")
	require.Equal(t, "3", val)

	_, err = d.EData(zx.FormEdge(a, 7), "w", "")
	require.True(t, errors.Is(err, zx.ErrMissingEdge))
}

func TestClone(t *testing.T) {
	d := memstore.NewWithID("base")
	a, _ := d.AddVertex(zx.Z, 0, 0, phase.Quarter)
	b, _ := d.AddVertex(zx.X, 0, 1)
	d.AddEdge(a, b, zx.Plain)
	d.SetVData(a, "k", "v")
	d.UpdateScalar(func(s *zx.Scalar) { s.AddPower(3) })

	dup, err := d.Clone()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dup.ID(), "base_clone_"))

	dup.SetPhase(a, phase.Half)
	dup.SetVData(a, "k", "w")
	dup.UpdateScalar(func(s *zx.Scalar) { s.AddPower(1) })

	ph, _ := d.Phase(a)
	require.True(t, ph.Equal(phase.Quarter))
	val, _ := d.VData(a, "k", "")
	require.Equal(t, "v", val)
	sc, _ := d.Scalar()
	require.Equal(t, 3, sc.Power2)

	c, _ := dup.AddVertex(zx.Z, 0, 0)
	require.Equal(t, zx.VtxID(3), c)
	connected, _ := dup.Connected(a, b)
	require.True(t, connected)
}

func TestRemoveIsolated(t *testing.T) {
	d := memstore.New()
	// lone Z with phase 1/2 => 1+i
	d.AddVertex(zx.Z, 0, 0, phase.Half)
	// H-box alone => e^(iπα)
	d.AddVertex(zx.HBox, 0, 0, phase.Quarter)
	// Z(1/4) -H- Z(0): spider pair with a zero phase => √2
	a, _ := d.AddVertex(zx.Z, 0, 0, phase.Quarter)
	b, _ := d.AddVertex(zx.Z, 0, 0)
	d.AddEdge(a, b, zx.Hadamard)

	require.NoError(t, d.RemoveIsolatedVertices())
	n, _ := d.NumVertices()
	require.Equal(t, 0, n)

	sc, _ := d.Scalar()
	require.Equal(t, 2, sc.Power2)
	require.True(t, sc.Phase.Equal(phase.New(1, 2)))

	d.AddVertex(zx.Boundary, 0, 0)
	err := d.RemoveIsolatedVertices()
	require.True(t, errors.Is(err, zx.ErrIsolatedBoundary))
}
