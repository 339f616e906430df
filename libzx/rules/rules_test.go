package rules_test

import (
	"errors"
	"testing"

	"github.com/2x3systems/gozx/libzx/oracle"
	"github.com/2x3systems/gozx/libzx/rules"
	"github.com/2x3systems/gozx/libzx/zxtest"
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ruleCase struct {
	name  string
	rule  rules.Rule
	build func(b *zxtest.Builder)
	delta int // change in vertex count
	check func(t *testing.T, d zx.Diagram)
}

var ruleCases = []ruleCase{
	{
		name: "fusion",
		rule: rules.SpiderFusion,
		build: func(b *zxtest.Builder) {
			p := b.Vertex(zx.Z, 0, 1, phase.Quarter)
			q := b.Vertex(zx.Z, 0, 2, phase.New(-1, 4))
			b.Plain(p, q)
			b.Inputs(p)
			b.Outputs(q)
		},
		delta: -1,
		check: func(t *testing.T, d zx.Diagram) {
			ph, err := d.Phase(1)
			require.NoError(t, err)
			assert.True(t, ph.IsZero(), "phase %v", ph)
		},
	}, {
		name: "fusion_hopf",
		rule: rules.SpiderFusion,
		build: func(b *zxtest.Builder) {
			p, q, r := b.Z(0, 1), b.Z(1, 2), b.Z(1, 4)
			b.Plain(p, q).Had(p, r).Had(q, r)
			b.Inputs(p)
			b.Outputs(r)
		},
		delta: -1,
		check: func(t *testing.T, d zx.Diagram) {
			connected, err := d.Connected(1, 3)
			require.NoError(t, err)
			assert.False(t, connected)
		},
	}, {
		name: "fusion_x",
		rule: rules.SpiderFusion,
		build: func(b *zxtest.Builder) {
			p, q, r := b.X(1, 2), b.X(1, 1), b.Z(0, 1)
			b.Plain(p, q).Plain(q, r)
			b.Inputs(p, r)
			b.Outputs(q)
		},
		delta: -1,
	}, {
		name: "identity",
		rule: rules.IdentityRemoval,
		build: func(b *zxtest.Builder) {
			p, q := b.Z(1, 4), b.Z(0, 1)
			r := b.Z(3, 4)
			b.Had(p, q).Had(q, r)
			b.Inputs(p)
			b.Outputs(r)
		},
		delta: -1,
		check: func(t *testing.T, d zx.Diagram) {
			et, err := d.EdgeType(zx.FormEdge(1, 3))
			require.NoError(t, err)
			assert.Equal(t, zx.Plain, et)
		},
	}, {
		name: "self_loop",
		rule: rules.SelfLoopRemoval,
		build: func(b *zxtest.Builder) {
			p := b.Z(1, 4)
			b.Put(p, p, zx.Hadamard)
			b.Inputs(p)
			b.Outputs(p)
		},
		delta: 0,
		check: func(t *testing.T, d zx.Diagram) {
			ph, err := d.Phase(1)
			require.NoError(t, err)
			assert.True(t, ph.Equal(phase.New(5, 4)), "phase %v", ph)
		},
	}, {
		name: "hbox",
		rule: rules.HBoxToEdge,
		build: func(b *zxtest.Builder) {
			h := b.Vertex(zx.HBox, 0, 1, phase.One)
			p := b.Z(1, 2)
			b.Plain(p, h)
			b.Inputs(p)
			b.Outputs(h)
		},
		delta: -1,
	}, {
		name: "to_gh",
		rule: rules.ToGH,
		build: func(b *zxtest.Builder) {
			p, q := b.X(1, 2), b.Z(1, 4)
			b.Plain(p, q)
			b.Inputs(p)
			b.Outputs(q)
		},
		delta: 0,
		check: func(t *testing.T, d zx.Diagram) {
			vt, err := d.Type(1)
			require.NoError(t, err)
			assert.Equal(t, zx.Z, vt)
			et, err := d.EdgeType(zx.FormEdge(1, 2))
			require.NoError(t, err)
			assert.Equal(t, zx.Hadamard, et)
		},
	}, {
		name:  "pivot_0_1",
		rule:  rules.Pivot,
		build: pivotFixture(phase.Zero, phase.One),
		delta: -2,
	}, {
		name:  "pivot_1_1",
		rule:  rules.Pivot,
		build: pivotFixture(phase.One, phase.One),
		delta: -2,
	}, {
		name: "pivot_boundary",
		rule: rules.PivotBoundary,
		build: func(b *zxtest.Builder) {
			a, p := b.Z(0, 1), b.Z(1, 1)
			u, w := b.Z(1, 4), b.Z(1, 2)
			b.Had(a, p).Had(a, u).Had(p, w)
			b.Inputs(p)
			b.Outputs(u, w)
		},
		delta: -1,
	}, {
		name: "pivot_gadget",
		rule: rules.PivotGadget,
		build: func(b *zxtest.Builder) {
			a, p := b.Z(0, 1), b.Z(1, 4)
			u, w1, w2 := b.Z(0, 1), b.Z(1, 2), b.Z(0, 1)
			b.Had(a, p).Had(a, u).Had(p, w1).Had(p, w2)
			b.Inputs(u, w1)
			b.Outputs(w2)
		},
		delta: 0,
	}, {
		name: "lcomp_half",
		rule: rules.LocalComplement,
		build: func(b *zxtest.Builder) {
			c, n1, n2 := b.Z(1, 2), b.Z(0, 1), b.Z(1, 4)
			b.Had(c, n1).Had(c, n2)
			b.Inputs(n1)
			b.Outputs(n2)
		},
		delta: -1,
		check: func(t *testing.T, d zx.Diagram) {
			et, err := d.EdgeType(zx.FormEdge(2, 3))
			require.NoError(t, err)
			assert.Equal(t, zx.Hadamard, et)
			ph, err := d.Phase(2)
			require.NoError(t, err)
			assert.True(t, ph.Equal(phase.ThreeHalfs), "phase %v", ph)
		},
	}, {
		name: "lcomp_three_halfs",
		rule: rules.LocalComplement,
		build: func(b *zxtest.Builder) {
			c := b.Z(3, 2)
			n1, n2, n3 := b.Z(0, 1), b.Z(1, 4), b.Z(1, 1)
			b.Had(c, n1).Had(c, n2).Had(c, n3).Had(n1, n2)
			b.Inputs(n1, n3)
			b.Outputs(n2)
		},
		delta: -1,
	}, {
		name:  "gadget_fusion",
		rule:  rules.GadgetFusion,
		build: gadgetFixture,
		delta: -2,
	}, {
		name: "bialgebra",
		rule: rules.Bialgebra,
		build: func(b *zxtest.Builder) {
			z1, z2 := b.Z(0, 1), b.Z(0, 1)
			x1, x2 := b.X(0, 1), b.X(0, 1)
			b.Plain(z1, x1).Plain(z1, x2).Plain(z2, x1).Plain(z2, x2)
			b.Inputs(z1, z2)
			b.Outputs(x1, x2)
		},
		delta: -2,
	},
}

// pivotFixture builds two Pauli spiders a, b with two exclusive neighbors on a, one on b and one
// shared, plus an existing Hadamard edge across the groups.
func pivotFixture(pa, pb phase.Phase) func(b *zxtest.Builder) {
	return func(bld *zxtest.Builder) {
		a := bld.Vertex(zx.Z, 0, 1, pa)
		b := bld.Vertex(zx.Z, 1, 1, pb)
		u1, u2 := bld.Z(1, 4), bld.Z(0, 1)
		w, s := bld.Z(1, 2), bld.Z(3, 4)
		bld.Had(a, b).Had(a, u1).Had(a, u2).Had(b, w).Had(a, s).Had(b, s).Had(u1, w)
		bld.Inputs(u1, u2)
		bld.Outputs(w, s)
	}
}

// gadgetFixture builds two phase gadgets, one with a π axle, on the same pair of targets.
func gadgetFixture(b *zxtest.Builder) {
	t1, t2 := b.Z(0, 1), b.Z(1, 2)
	axle1, leaf1 := b.Z(0, 1), b.Z(1, 4)
	axle2, leaf2 := b.Z(1, 1), b.Z(1, 2)
	b.Had(axle1, leaf1).Had(axle1, t1).Had(axle1, t2)
	b.Had(axle2, leaf2).Had(axle2, t1).Had(axle2, t2)
	b.Inputs(t1, t2)
	b.Outputs(t1, t2)
}

func TestRulesPreserveTensor(t *testing.T) {
	for _, tc := range ruleCases {
		t.Run(tc.name, func(t *testing.T) {
			b := zxtest.Build(t, zxtest.New())
			tc.build(b)
			d := b.D

			before, err := d.Clone()
			require.NoError(t, err)
			n0, err := d.NumVertices()
			require.NoError(t, err)

			matched, err := tc.rule.Match(d)
			require.NoError(t, err)
			require.True(t, matched)
			require.Equal(t, zxtest.Snapshot(t, before), zxtest.Snapshot(t, d), "Match changed the diagram")

			applied, err := tc.rule.Step(d)
			require.NoError(t, err)
			require.True(t, applied)
			require.NoError(t, zx.Validate(d))

			n1, err := d.NumVertices()
			require.NoError(t, err)
			assert.Equal(t, tc.delta, n1-n0, "vertex count change")

			same, err := oracle.Equivalent(before, d, true)
			require.NoError(t, err)
			require.True(t, same, "before:\n%v\nafter:\n%v", zxtest.Snapshot(t, before), zxtest.Snapshot(t, d))

			if tc.check != nil {
				tc.check(t, d)
			}
		})
	}
}

func TestChainReduces(t *testing.T) {
	b := zxtest.Build(t, zxtest.New())
	z, x := b.Z(0, 1), b.X(0, 1)
	b.Plain(z, x)
	ins := b.Inputs(z)
	outs := b.Outputs(x)
	d := b.D
	before, err := d.Clone()
	require.NoError(t, err)

	for _, r := range []rules.Rule{rules.ToGH, rules.IdentityRemoval} {
		_, err := rules.Exhaust(d, r)
		require.NoError(t, err)
	}

	vs, err := d.Vertices()
	require.NoError(t, err)
	assert.Equal(t, []zx.VtxID{ins[0], outs[0]}, vs)
	et, err := d.EdgeType(zx.FormEdge(ins[0], outs[0]))
	require.NoError(t, err)
	assert.Equal(t, zx.Plain, et)

	same, err := oracle.Equivalent(before, d, true)
	require.NoError(t, err)
	assert.True(t, same)
}

func TestNoMatch(t *testing.T) {
	b := zxtest.Build(t, zxtest.New())
	p := b.Z(1, 4)
	b.Inputs(p)
	b.Outputs(p)

	for _, r := range rules.All() {
		applied, err := r.Step(b.D)
		require.NoError(t, err)
		assert.False(t, applied, r.Name())
	}
}

func TestExhaust(t *testing.T) {
	b := zxtest.Build(t, zxtest.New())
	p, q, r, s := b.Z(1, 4), b.Z(1, 4), b.Z(1, 4), b.Z(1, 4)
	b.Plain(p, q).Plain(q, r).Plain(r, s)
	b.Inputs(p)
	b.Outputs(s)

	n, err := rules.Exhaust(b.D, rules.SpiderFusion)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ph, err := b.D.Phase(p)
	require.NoError(t, err)
	assert.True(t, ph.Equal(phase.One))
}

// Two H-boxes may not share a wire twice, so removing the identity between them must fail.
func TestIdentityBetweenHBoxes(t *testing.T) {
	for _, be := range zxtest.Backends(t) {
		d, err := be.Opener.NewDiagram()
		require.NoError(t, err)
		b := zxtest.Build(t, d)
		h1 := b.Vertex(zx.HBox, 0, 1, phase.One)
		id := b.Z(0, 1)
		h2 := b.Vertex(zx.HBox, 0, 3, phase.One)
		b.Plain(h1, h2).Plain(h1, id).Plain(id, h2)
		b.Inputs(h1)
		b.Outputs(h2)

		before := zxtest.Snapshot(t, d)
		orig, err := d.Clone()
		require.NoError(t, err)

		applied, err := rules.IdentityRemoval.Step(d)
		assert.False(t, applied, be.Name)
		assert.ErrorIs(t, err, zx.ErrForbiddenEdge, be.Name)

		assert.Equal(t, before, zxtest.Snapshot(t, d), be.Name)
		same, err := oracle.Equivalent(orig, d, true)
		require.NoError(t, err)
		assert.True(t, same, be.Name)
	}
}

func TestRegistry(t *testing.T) {
	names := rules.Names()
	assert.Len(t, names, len(rules.All()))
	assert.IsIncreasing(t, names)

	for _, name := range names {
		r, err := rules.ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, r.Name())
	}

	_, err := rules.ByName("unfuse")
	if !errors.Is(err, rules.ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}
}

func TestBackendParity(t *testing.T) {
	seq := []rules.Rule{
		rules.ToGH,
		rules.SpiderFusion,
		rules.IdentityRemoval,
		rules.GadgetFusion,
		rules.Pivot,
		rules.LocalComplement,
		rules.PivotBoundary,
	}

	backends := zxtest.Backends(t)
	for _, fixture := range []func(*zxtest.Builder){
		gadgetFixture,
		pivotFixture(phase.One, phase.One),
	} {
		src := zxtest.Build(t, zxtest.New())
		fixture(src)

		var want zxtest.State
		for i, be := range backends {
			d := zxtest.Copy(t, be.Opener, src.D)
			for _, r := range seq {
				_, err := rules.Exhaust(d, r)
				require.NoError(t, err, "%s: %s", be.Name, r.Name())
			}
			got := zxtest.Snapshot(t, d)
			if i == 0 {
				want = got
				continue
			}
			assert.Equal(t, want, got, be.Name)
		}
	}
}
