package rules

import (
	"strconv"
	"strings"

	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
)

// gadget is a degree-1 leaf spider hanging by a Hadamard edge off a Pauli axle spider whose
// remaining edges are Hadamard edges to its targets.
type gadget struct {
	leaf, axle zx.VtxID
	targets    []zx.VtxID
}

func (g *gadget) key() string {
	b := strings.Builder{}
	for i, t := range g.targets {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(int64(t), 10))
	}
	return b.String()
}

// gadgetAt returns the gadget whose leaf is id, if any.
func (v *view) gadgetAt(id zx.VtxID) (*gadget, bool) {
	if v.typ(id) != zx.Z || v.degree(id) != 1 {
		return nil, false
	}
	nbrs := v.nbrs(id)
	if len(nbrs) != 1 {
		return nil, false
	}
	axle := nbrs[0]
	if axle == id || v.typ(axle) != zx.Z || v.edgeType(id, axle) != zx.Hadamard || !v.phase(axle).IsPauli() {
		return nil, false
	}
	g := &gadget{
		leaf: id,
		axle: axle,
	}
	for _, w := range v.nbrs(axle) {
		if w == id {
			continue
		}
		if w == axle || v.typ(w) != zx.Z || v.edgeType(axle, w) != zx.Hadamard || v.degree(w) == 1 {
			return nil, false
		}
		g.targets = append(g.targets, w)
	}
	return g, len(g.targets) > 0 && v.ok()
}

// gadgetFusion merges all phase gadgets acting on the same set of targets into one.
var gadgetFusion = &rule[[]*gadget]{
	name: "gadget_fusion",
	match: func(v *view) ([]*gadget, bool) {
		var order []string
		groups := make(map[string][]*gadget)
		for _, id := range v.vertices() {
			g, ok := v.gadgetAt(id)
			if !ok {
				continue
			}
			key := g.key()
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			groups[key] = append(groups[key], g)
		}
		for _, key := range order {
			if len(groups[key]) > 1 {
				return groups[key], v.ok()
			}
		}
		return nil, false
	},
	apply: func(v *view, gs []*gadget) {
		k, n := len(gs[0].targets), len(gs)
		sum := phase.Zero
		for _, g := range gs {
			alpha := v.phase(g.leaf)
			if v.phase(g.axle).Equal(phase.One) {
				v.updateScalar(func(s *zx.Scalar) {
					s.AddPhase(alpha)
				})
				alpha = alpha.Neg()
			}
			sum = sum.Add(alpha)
		}

		survivor := gs[0]
		v.setPhase(survivor.axle, phase.Zero)
		v.setPhase(survivor.leaf, sum)
		for _, g := range gs[1:] {
			v.removeVertices(g.leaf, g.axle)
		}
		v.addPower(-(k - 1) * (n - 1))
	},
}
