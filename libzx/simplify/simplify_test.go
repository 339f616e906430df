package simplify_test

import (
	"errors"
	"testing"

	"github.com/2x3systems/gozx/libzx/circuit"
	"github.com/2x3systems/gozx/libzx/oracle"
	"github.com/2x3systems/gozx/libzx/rules"
	"github.com/2x3systems/gozx/libzx/simplify"
	"github.com/2x3systems/gozx/libzx/zxtest"
	"github.com/2x3systems/gozx/zx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliffordT = `
qreg q[3];
h q[0];
cx q[0], q[1];
t q[1];
cx q[1], q[2];
s q[2];
h q[2];
cz q[0], q[2];
tdg q[0];
cx q[2], q[0];
h q[1];
x q[1];
rz(pi/2) q[1];
cx q[1], q[0];
t q[2];
h q[2];
`

func circuitDiagram(t *testing.T, d zx.Diagram) (zx.Diagram, *oracle.Matrix) {
	t.Helper()
	c, err := circuit.Parse(cliffordT)
	require.NoError(t, err)
	require.NoError(t, c.ToGraph(d))
	u, err := c.Unitary()
	require.NoError(t, err)
	return d, u
}

func requireUnitary(t *testing.T, d zx.Diagram, u *oracle.Matrix) {
	t.Helper()
	require.NoError(t, zx.Validate(d))
	same, err := oracle.CompareMatrix(d, u, oracle.Opts{PreserveScalar: true})
	require.NoError(t, err)
	require.True(t, same, "%v", zxtest.Snapshot(t, d))
}

func TestFullReduce(t *testing.T) {
	d, u := circuitDiagram(t, zxtest.New())
	n0, err := d.NumVertices()
	require.NoError(t, err)

	stats := simplify.NewStats()
	res, err := simplify.FullReduce(d, &simplify.Opts{Stats: stats, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, simplify.Converged, res.Status)
	assert.Equal(t, stats.Total(), res.Rewrites)
	assert.Positive(t, res.Rewrites)

	n1, err := d.NumVertices()
	require.NoError(t, err)
	assert.Less(t, n1, n0)
	requireUnitary(t, d, u)

	// a reduced diagram has no X spiders left
	counts, err := zx.CountOf(d)
	require.NoError(t, err)
	assert.Zero(t, counts.ByType[zx.X], "%v", counts)

	// idempotence
	before := zxtest.Snapshot(t, d)
	again, err := simplify.FullReduce(d, &simplify.Opts{Quiet: true})
	require.NoError(t, err)
	assert.Zero(t, again.Rewrites)
	assert.Equal(t, before, zxtest.Snapshot(t, d))
}

func TestFullReduceParity(t *testing.T) {
	var want zxtest.State
	for i, be := range zxtest.Backends(t) {
		d, err := be.Opener.NewDiagram()
		require.NoError(t, err)
		d, u := circuitDiagram(t, d)

		_, err = simplify.FullReduce(d, &simplify.Opts{Quiet: true})
		require.NoError(t, err, be.Name)
		requireUnitary(t, d, u)

		got := zxtest.Snapshot(t, d)
		if i == 0 {
			want = got
			continue
		}
		assert.Equal(t, want, got, be.Name)
	}
}

func TestFullReduceCapReached(t *testing.T) {
	d, u := circuitDiagram(t, zxtest.New())

	res, err := simplify.FullReduce(d, &simplify.Opts{MaxIterations: 1, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, simplify.CapReached, res.Status)
	assert.Equal(t, 1, res.Iterations)
	assert.Positive(t, res.Rewrites)
	requireUnitary(t, d, u)

	// an uncapped run picks up where the capped one stopped
	opts := &simplify.Opts{Quiet: true}
	res, err = simplify.FullReduce(d, opts)
	require.NoError(t, err)
	assert.Equal(t, simplify.Converged, res.Status)
	requireUnitary(t, d, u)

	// the cap flag does not stick to reused opts
	res, err = simplify.FullReduce(d, opts)
	require.NoError(t, err)
	assert.Equal(t, simplify.Converged, res.Status)
	assert.Zero(t, res.Rewrites)
}

func TestReduceScalarCapReached(t *testing.T) {
	b := zxtest.Build(t, zxtest.New())
	v1, v2, v3, v4 := b.Z(1, 4), b.Z(0, 1), b.Z(1, 2), b.Z(1, 1)
	b.Had(v1, v2).Had(v2, v3).Had(v3, v4).Had(v4, v1)
	x := b.X(1, 2)
	b.Plain(x, v2)

	before, err := b.D.Clone()
	require.NoError(t, err)

	res, err := simplify.ReduceScalar(b.D, &simplify.Opts{MaxIterations: 1, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, simplify.CapReached, res.Status)

	same, err := oracle.Equivalent(before, b.D, true)
	require.NoError(t, err)
	assert.True(t, same)
}

func TestChainToWire(t *testing.T) {
	b := zxtest.Build(t, zxtest.New())
	z, x := b.Z(0, 1), b.X(0, 1)
	b.Plain(z, x)
	ins := b.Inputs(z)
	outs := b.Outputs(x)

	_, err := simplify.FullReduce(b.D, nil)
	require.NoError(t, err)

	vs, err := b.D.Vertices()
	require.NoError(t, err)
	assert.Equal(t, []zx.VtxID{ins[0], outs[0]}, vs)
	et, err := b.D.EdgeType(zx.FormEdge(ins[0], outs[0]))
	require.NoError(t, err)
	assert.Equal(t, zx.Plain, et)
	sc, err := b.D.Scalar()
	require.NoError(t, err)
	assert.True(t, sc.IsOne(), "%v", sc)
}

func TestEachStrategy(t *testing.T) {
	for _, name := range simplify.Strategies() {
		t.Run(name, func(t *testing.T) {
			d, u := circuitDiagram(t, zxtest.New())
			fn, err := simplify.StrategyByName(name)
			require.NoError(t, err)
			_, err = fn(d, &simplify.Opts{Quiet: true, PivotBoundary: true})
			require.NoError(t, err)
			requireUnitary(t, d, u)
		})
	}

	_, err := simplify.StrategyByName("teleport_reduce")
	if !errors.Is(err, simplify.ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestReduceScalar(t *testing.T) {
	// a closed diagram: a ring of Hadamard-joined spiders with a phase gadget on top
	b := zxtest.Build(t, zxtest.New())
	v1, v2, v3, v4 := b.Z(1, 4), b.Z(0, 1), b.Z(1, 2), b.Z(1, 1)
	axle, leaf := b.Z(0, 1), b.Z(3, 4)
	b.Had(v1, v2).Had(v2, v3).Had(v3, v4).Had(v4, v1)
	b.Had(axle, leaf).Had(axle, v1).Had(axle, v3)
	x := b.X(1, 2)
	b.Plain(x, v2)

	before, err := b.D.Clone()
	require.NoError(t, err)

	stats := simplify.NewStats()
	res, err := simplify.ReduceScalar(b.D, &simplify.Opts{Stats: stats, Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, simplify.Converged, res.Status)
	assert.Equal(t, stats.Total(), res.Rewrites)
	assert.Zero(t, stats.Count(rules.PivotBoundary.Name()))

	same, err := oracle.Equivalent(before, b.D, true)
	require.NoError(t, err)
	assert.True(t, same)
}

func TestCustomReduce(t *testing.T) {
	d, u := circuitDiagram(t, zxtest.New())
	stats := simplify.NewStats()
	changed, err := simplify.CustomReduce(d, []string{"to_gh", "spider_fusion", "identity_removal"}, &simplify.Opts{Stats: stats, Quiet: true})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, stats.Count("to_gh"))
	assert.Positive(t, stats.Count("spider_fusion"))
	assert.Equal(t, "to_gh", stats.Rules()[0])
	requireUnitary(t, d, u)

	_, err = simplify.CustomReduce(d, []string{"spider_fusion", "unfuse"}, nil)
	if !errors.Is(err, rules.ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}
}

func TestBialgebraSimp(t *testing.T) {
	b := zxtest.Build(t, zxtest.New())
	z1, z2 := b.Z(0, 1), b.Z(0, 1)
	x1, x2 := b.X(0, 1), b.X(0, 1)
	b.Plain(z1, x1).Plain(z1, x2).Plain(z2, x1).Plain(z2, x2)
	b.Inputs(z1, z2)
	b.Outputs(x1, x2)
	before, err := b.D.Clone()
	require.NoError(t, err)

	changed, err := simplify.BialgebraSimp(b.D, nil)
	require.NoError(t, err)
	assert.True(t, changed)

	n, err := b.D.NumVertices()
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	same, err := oracle.Equivalent(before, b.D, true)
	require.NoError(t, err)
	assert.True(t, same)
}

func TestStatsString(t *testing.T) {
	st := simplify.NewStats()
	st.CountRewrites("pivot", 2)
	st.CountRewrites("spider_fusion", 5)
	st.CountRewrites("pivot", 1)

	assert.Equal(t, 3, st.Count("pivot"))
	assert.Equal(t, 8, st.Total())
	assert.Equal(t, "REWRITES\n     3 pivot\n     5 spider_fusion\n     8 TOTAL", st.String())
	assert.Equal(t, "cap_reached", simplify.CapReached.String())
}
