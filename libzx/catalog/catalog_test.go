package catalog_test

import (
	"errors"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/2x3systems/gozx/libzx/catalog"
	"github.com/2x3systems/gozx/libzx/zxtest"
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/stretchr/testify/require"
)

// script runs the same sequence of contract calls against any backend.
func script(t *testing.T, d zx.Diagram) {
	in, _ := d.AddVertex(zx.Boundary, 0, 0)
	a, _ := d.AddVertex(zx.Z, 0, 1, phase.Quarter)
	b, _ := d.AddVertex(zx.X, 0, 2, phase.Param("theta"))
	c, _ := d.AddVertex(zx.Z, 1, 2, phase.Half)
	h, _ := d.AddVertex(zx.HBox, 1, 3)
	out, _ := d.AddVertex(zx.Boundary, 0, 4)

	steps := []error{
		d.SetInputs([]zx.VtxID{in}),
		d.SetOutputs([]zx.VtxID{out}),
		d.SetVData(a, "label", "a"),
	}
	for _, err := range steps {
		require.NoError(t, err)
	}
	for _, e := range []struct {
		s, t zx.VtxID
		et   zx.EdgeType
	}{
		{in, a, zx.Plain},
		{a, b, zx.Plain},
		{a, b, zx.Plain},    // hopf pair: cancels
		{a, c, zx.Plain},    // fuse kind
		{a, c, zx.Hadamard}, // mixed: +π on a
		{c, c, zx.Hadamard}, // absorbed loop
		{b, h, zx.Hadamard},
		{c, h, zx.Plain},
		{b, out, zx.Plain},
	} {
		_, err := d.AddEdge(e.s, e.t, e.et)
		require.NoError(t, err)
	}
	require.NoError(t, d.AddToPhase(b, phase.One))
	require.NoError(t, d.RemoveEdges(zx.FormEdge(c, h)))

	_, err := d.AddVertex(zx.Z, 2, 2, phase.Half)
	require.NoError(t, err)
	require.NoError(t, d.RemoveIsolatedVertices())
}

func TestBackendParity(t *testing.T) {
	var want zxtest.State
	for i, be := range zxtest.Backends(t) {
		d, err := be.Opener.NewDiagram()
		require.NoError(t, err)
		script(t, d)
		got := zxtest.Snapshot(t, d)
		if i == 0 {
			want = got
			continue
		}
		require.Equal(t, want.String(), got.String(), "backend %s", be.Name)
	}
	require.Contains(t, want.Scalar, "sqrt2^")
}

func TestApplyRollback(t *testing.T) {
	for _, open := range []func(catalog.Opts) (catalog.Catalog, error){catalog.OpenBadger, catalog.OpenPebble} {
		cat, err := open(catalog.Opts{})
		require.NoError(t, err)
		defer cat.Close()

		d, err := cat.NewDiagram()
		require.NoError(t, err)
		a, _ := d.AddVertex(zx.Z, 0, 0)
		b, _ := d.AddVertex(zx.Z, 0, 1)
		_, err = d.AddEdge(a, b, zx.Hadamard)
		require.NoError(t, err)
		before := zxtest.Snapshot(t, d)

		boom := errors.New("boom")
		err = d.Apply(func(tx zx.Diagram) error {
			if err := tx.SetPhase(a, phase.Half); err != nil {
				return err
			}
			if _, err := tx.AddVertex(zx.X, 0, 0); err != nil {
				return err
			}
			if err := tx.RemoveVertices(b); err != nil {
				return err
			}
			tx.UpdateScalar(func(s *zx.Scalar) { s.AddPower(4) })
			return boom
		})
		require.ErrorIs(t, err, boom)
		require.Equal(t, before.String(), zxtest.Snapshot(t, d).String(), cat.Engine())

		// ids issued inside the aborted txn are not consumed
		c, _ := d.AddVertex(zx.X, 0, 0)
		require.Equal(t, zx.VtxID(3), c)
	}
}

func TestNamespaces(t *testing.T) {
	cat, err := catalog.OpenCatalog(catalog.Opts{Engine: catalog.EnginePebble})
	require.NoError(t, err)
	defer cat.Close()

	d, err := cat.NewDiagramWithID("alpha")
	require.NoError(t, err)
	_, err = cat.NewDiagramWithID("alpha")
	require.ErrorIs(t, err, catalog.ErrDiagramExists)
	_, err = cat.NewDiagramWithID("a/b")
	require.ErrorIs(t, err, catalog.ErrBadDiagramID)

	v, _ := d.AddVertex(zx.Z, 0, 0, phase.Quarter)
	w, _ := d.AddVertex(zx.Z, 0, 1)
	d.AddEdge(v, w, zx.Hadamard)
	d.SetEData(zx.FormEdge(v, w), "k", "v")

	dup, err := d.Clone()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dup.ID(), "alpha_clone_"))
	require.Equal(t, zxtest.Snapshot(t, d).String(), zxtest.Snapshot(t, dup).String())
	val, _ := dup.EData(zx.FormEdge(v, w), "k", "")
	require.Equal(t, "v", val)

	require.NoError(t, dup.SetPhase(v, phase.Half))
	ph, _ := d.Phase(v)
	require.True(t, ph.Equal(phase.Quarter))

	ids, err := cat.List()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", dup.ID()}, ids)

	require.NoError(t, cat.Drop("alpha"))
	_, err = cat.OpenDiagram("alpha")
	require.ErrorIs(t, err, catalog.ErrDiagramNotFound)

	// the clone is untouched by dropping its source
	n, _ := dup.NumVertices()
	require.Equal(t, 2, n)
}

func TestReopen(t *testing.T) {
	dir, err := os.MkdirTemp("", "junk*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	opts := catalog.Opts{
		DbPathName: path.Join(dir, "TestReopen"),
	}
	cat, err := catalog.OpenCatalog(opts)
	if err != nil {
		t.Fatal(err)
	}
	d, err := cat.NewDiagramWithID("keep")
	if err != nil {
		t.Fatal(err)
	}
	script(t, d)
	want := zxtest.Snapshot(t, d).String()
	cat.Close()

	cat, err = catalog.OpenCatalog(opts)
	if err != nil {
		t.Fatal(err)
	}
	defer cat.Close()
	d, err = cat.OpenDiagram("keep")
	if err != nil {
		t.Fatal(err)
	}
	if got := zxtest.Snapshot(t, d).String(); got != want {
		t.Fatalf("reopened state differs:\n%s\nvs\n%s", got, want)
	}
}
