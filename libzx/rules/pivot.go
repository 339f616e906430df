package rules

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
)

type pivotMatch struct {
	a, b     zx.VtxID
	boundary zx.VtxID // boundary pivot only: the Boundary vertex hanging off b
}

// pivot performs the two-interior pivot on Pauli Z spiders a and b joined by a Hadamard edge.
//
// With k0, k1, k2 the sizes of the exclusive-to-a, exclusive-to-b and shared neighbor groups,
// every pair across two different groups gets a Hadamard edge toggled (AddEdge applies the
// hopf law to pairs already joined) and the scalar gains √2^(k0k1 + k0k2 + k1k2 - (k0+k1+2k2-1)).
func (v *view) pivot(a, b zx.VtxID) {
	na, nb := v.nbrs(a), v.nbrs(b)
	if !v.ok() {
		return
	}
	inA := make(map[zx.VtxID]bool, len(na))
	for _, w := range na {
		inA[w] = true
	}
	inB := make(map[zx.VtxID]bool, len(nb))
	for _, w := range nb {
		inB[w] = true
	}

	var excA, excB, shared []zx.VtxID
	for _, w := range na {
		switch {
		case w == b:
		case inB[w]:
			shared = append(shared, w)
		default:
			excA = append(excA, w)
		}
	}
	for _, w := range nb {
		if w != a && !inA[w] {
			excB = append(excB, w)
		}
	}

	pa, pb := v.phase(a), v.phase(b)
	k0, k1, k2 := len(excA), len(excB), len(shared)
	v.updateScalar(func(s *zx.Scalar) {
		s.AddPower(k0*k1 + k0*k2 + k1*k2 - (k0 + k1 + 2*k2 - 1))
		if pa.Equal(phase.One) && pb.Equal(phase.One) {
			s.AddPhase(phase.One)
		}
	})

	for _, w := range excA {
		v.addToPhase(w, pb)
	}
	for _, w := range excB {
		v.addToPhase(w, pa)
	}
	for _, w := range shared {
		v.addToPhase(w, pa.Add(pb).Add(phase.One))
	}

	v.removeVertices(a, b)
	for _, group := range [][2][]zx.VtxID{
		{excA, excB},
		{excA, shared},
		{excB, shared},
	} {
		for _, x := range group[0] {
			for _, y := range group[1] {
				v.addEdge(x, y, zx.Hadamard)
			}
		}
	}
}

// hasLeaf reports if any neighbor of id has degree 1.
func (v *view) hasLeaf(id zx.VtxID) bool {
	for _, w := range v.nbrs(id) {
		if v.degree(w) == 1 {
			return true
		}
	}
	return false
}

// hadamardPairs calls fn for each Hadamard edge joining two Z spiders until fn returns true.
func (v *view) hadamardPairs(fn func(a, b zx.VtxID) bool) {
	for _, e := range v.edges() {
		if !v.ok() {
			return
		}
		if e.IsLoop() || v.typ(e.S) != zx.Z || v.typ(e.T) != zx.Z || v.edgeType(e.S, e.T) != zx.Hadamard {
			continue
		}
		if fn(e.S, e.T) {
			return
		}
	}
}

var pivotInterior = &rule[pivotMatch]{
	name: "pivot",
	match: func(v *view) (m pivotMatch, found bool) {
		v.hadamardPairs(func(a, b zx.VtxID) bool {
			found = v.phase(a).IsPauli() && v.phase(b).IsPauli() && v.isInterior(a) && v.isInterior(b)
			m = pivotMatch{a: a, b: b}
			return found
		})
		return m, found && v.ok()
	},
	apply: func(v *view, m pivotMatch) {
		v.pivot(m.a, m.b)
	},
}

// boundaryLeg returns the single Boundary neighbor of id when every other edge of id is a
// Hadamard edge to a Z spider.
func (v *view) boundaryLeg(id zx.VtxID) (zx.VtxID, bool) {
	var leg zx.VtxID
	legs := 0
	for _, w := range v.nbrs(id) {
		switch {
		case w == id:
			return 0, false
		case v.typ(w) == zx.Boundary:
			leg = w
			legs++
		case v.typ(w) != zx.Z || v.edgeType(id, w) != zx.Hadamard:
			return 0, false
		}
	}
	return leg, legs == 1 && v.ok()
}

// pivotBoundary pivots an interior Pauli spider a with a Pauli spider b that carries one
// boundary leg; b's leg is first moved onto a fresh phase-0 spider so the pivot stays interior.
var pivotBoundary = &rule[pivotMatch]{
	name: "pivot_boundary",
	match: func(v *view) (m pivotMatch, found bool) {
		v.hadamardPairs(func(s, t zx.VtxID) bool {
			for _, pair := range [2][2]zx.VtxID{{s, t}, {t, s}} {
				a, b := pair[0], pair[1]
				if !v.phase(a).IsPauli() || !v.phase(b).IsPauli() || !v.isInterior(a) {
					continue
				}
				if leg, ok := v.boundaryLeg(b); ok {
					m = pivotMatch{a: a, b: b, boundary: leg}
					found = true
					return true
				}
			}
			return false
		})
		return m, found && v.ok()
	},
	apply: func(v *view, m pivotMatch) {
		et := v.edgeType(m.b, m.boundary)
		u := v.addVertex(zx.Z, v.qubit(m.boundary), v.row(m.b), phase.Zero)
		v.removeEdge(m.b, m.boundary)
		v.addEdge(m.boundary, u, et.Toggle())
		v.addEdge(u, m.b, zx.Hadamard)
		v.pivot(m.a, m.b)
	},
}

// pivotGadget pivots an interior Pauli spider a with an interior non-Clifford spider b after
// moving b's phase out onto a new phase gadget hanging off b.
var pivotGadget = &rule[pivotMatch]{
	name: "pivot_gadget",
	match: func(v *view) (m pivotMatch, found bool) {
		v.hadamardPairs(func(s, t zx.VtxID) bool {
			for _, pair := range [2][2]zx.VtxID{{s, t}, {t, s}} {
				a, b := pair[0], pair[1]
				if !v.phase(a).IsPauli() || v.phase(b).IsClifford() || v.degree(b) < 2 {
					continue
				}
				if !v.isInterior(a) || !v.isInterior(b) || v.hasLeaf(a) {
					continue
				}
				m = pivotMatch{a: a, b: b}
				found = true
				return true
			}
			return false
		})
		return m, found && v.ok()
	},
	apply: func(v *view, m pivotMatch) {
		q, r := v.qubit(m.b), v.row(m.b)
		axle := v.addVertex(zx.Z, q-1, r, phase.Zero)
		leaf := v.addVertex(zx.Z, q-2, r, v.phase(m.b))
		v.setPhase(m.b, phase.Zero)
		v.addEdge(m.b, axle, zx.Hadamard)
		v.addEdge(axle, leaf, zx.Hadamard)
		v.pivot(m.a, m.b)
	},
}
