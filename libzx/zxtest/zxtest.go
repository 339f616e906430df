// Package zxtest holds fixtures shared by the package tests: every backend behind one table,
// and a comparable snapshot of a diagram's full state.
package zxtest

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/2x3systems/gozx/libzx/catalog"
	"github.com/2x3systems/gozx/libzx/memstore"
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/stretchr/testify/require"
)

// Backend names an Opener for table-driven tests.
type Backend struct {
	Name   string
	Opener zx.Opener
}

// Backends returns one Opener per storage implementation; KV stores are in-memory and closed
// when t finishes.
func Backends(t testing.TB) []Backend {
	backends := []Backend{
		{Name: memstore.BackendName, Opener: memstore.Opener},
	}
	for _, open := range []func(catalog.Opts) (catalog.Catalog, error){
		catalog.OpenBadger,
		catalog.OpenPebble,
	} {
		cat, err := open(catalog.Opts{})
		require.NoError(t, err)
		t.Cleanup(func() { cat.Close() })
		backends = append(backends, Backend{
			Name:   cat.Engine(),
			Opener: cat,
		})
	}
	return backends
}

// New returns an empty memstore diagram.
func New() zx.Diagram {
	return memstore.New()
}

// State is a backend-independent rendering of a diagram used to compare backends.
type State struct {
	Vertices []string
	Edges    []string
	Inputs   []zx.VtxID
	Outputs  []zx.VtxID
	Scalar   string
}

func (st State) String() string {
	return fmt.Sprintf("V: %s\nE: %s\nI: %v O: %v\nS: %s",
		strings.Join(st.Vertices, " "), strings.Join(st.Edges, " "), st.Inputs, st.Outputs, st.Scalar)
}

// Snapshot reads the full state of d.
func Snapshot(t testing.TB, d zx.Diagram) State {
	var st State
	vs, err := d.Vertices()
	require.NoError(t, err)
	for _, v := range vs {
		vt, err := d.Type(v)
		require.NoError(t, err)
		ph, err := d.Phase(v)
		require.NoError(t, err)
		st.Vertices = append(st.Vertices, fmt.Sprintf("%d:%v(%v)", v, vt, ph))
	}
	es, err := d.Edges()
	require.NoError(t, err)
	for _, e := range es {
		et, err := d.EdgeType(e)
		require.NoError(t, err)
		st.Edges = append(st.Edges, fmt.Sprintf("%v:%v", e, et))
	}
	sort.Strings(st.Edges)

	st.Inputs, err = d.Inputs()
	require.NoError(t, err)
	st.Outputs, err = d.Outputs()
	require.NoError(t, err)
	sc, err := d.Scalar()
	require.NoError(t, err)
	st.Scalar = sc.String()
	return st
}

// Copy loads src into a fresh diagram from opener.
func Copy(t testing.TB, opener zx.Opener, src zx.Diagram) zx.Diagram {
	dst, err := opener.NewDiagram()
	require.NoError(t, err)
	_, err = zx.CopyInto(dst, src)
	require.NoError(t, err)
	return dst
}

// Builder adds vertices and edges to a diagram, failing the test on the first error.
type Builder struct {
	t testing.TB
	D zx.Diagram
}

func Build(t testing.TB, d zx.Diagram) *Builder {
	return &Builder{t: t, D: d}
}

// Vertex adds a vertex of type vt with phase ph on the given qubit and row.
func (b *Builder) Vertex(vt zx.VertexType, qubit, row float64, ph phase.Phase) zx.VtxID {
	b.t.Helper()
	v, err := b.D.AddVertex(vt, qubit, row, ph)
	require.NoError(b.t, err)
	return v
}

// Z adds a Z spider with phase num/den.
func (b *Builder) Z(num, den int64) zx.VtxID {
	return b.Vertex(zx.Z, 0, 0, phase.New(num, den))
}

// X adds an X spider with phase num/den.
func (b *Builder) X(num, den int64) zx.VtxID {
	return b.Vertex(zx.X, 0, 0, phase.New(num, den))
}

// Plain joins s and t with a Plain edge via AddEdge.
func (b *Builder) Plain(s, t zx.VtxID) *Builder {
	return b.Edge(s, t, zx.Plain)
}

// Had joins s and t with a Hadamard edge via AddEdge.
func (b *Builder) Had(s, t zx.VtxID) *Builder {
	return b.Edge(s, t, zx.Hadamard)
}

func (b *Builder) Edge(s, t zx.VtxID, et zx.EdgeType) *Builder {
	b.t.Helper()
	_, err := b.D.AddEdge(s, t, et)
	require.NoError(b.t, err)
	return b
}

// Inputs adds one Boundary vertex per target, joined to it by a Plain edge, and sets them as the inputs.
func (b *Builder) Inputs(targets ...zx.VtxID) []zx.VtxID {
	b.t.Helper()
	ins := b.boundaries(targets, -1)
	require.NoError(b.t, b.D.SetInputs(ins))
	return ins
}

// Outputs is Inputs for the outputs.
func (b *Builder) Outputs(targets ...zx.VtxID) []zx.VtxID {
	b.t.Helper()
	outs := b.boundaries(targets, 1<<20)
	require.NoError(b.t, b.D.SetOutputs(outs))
	return outs
}

func (b *Builder) boundaries(targets []zx.VtxID, row float64) []zx.VtxID {
	bs := make([]zx.VtxID, len(targets))
	for i, t := range targets {
		bs[i] = b.Vertex(zx.Boundary, float64(i), row, phase.Zero)
		b.Plain(bs[i], t)
	}
	return bs
}

// Put stores an edge verbatim via PutEdge, e.g. to leave a self-loop behind.
func (b *Builder) Put(s, t zx.VtxID, et zx.EdgeType) *Builder {
	b.t.Helper()
	_, err := b.D.PutEdge(s, t, et)
	require.NoError(b.t, err)
	return b
}
