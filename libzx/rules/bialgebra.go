package rules

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
)

type leg struct {
	to zx.VtxID
	et zx.EdgeType
}

// block is a complete bipartite K(n,m) of phase-free Z and X spiders joined by Plain edges.
type block struct {
	zs, xs []zx.VtxID
	zLegs  []leg // external leg of each zs[i]
	xLegs  []leg // external leg of each xs[j]
}

func (v *view) isBare(id zx.VtxID, vt zx.VertexType) bool {
	return v.typ(id) == vt && v.phase(id).IsZero()
}

// plainNbrs returns the neighbors of id of type vt with phase 0 joined by a Plain edge.
func (v *view) plainNbrs(id zx.VtxID, vt zx.VertexType) []zx.VtxID {
	var out []zx.VtxID
	for _, w := range v.nbrs(id) {
		if w != id && v.isBare(w, vt) && v.edgeType(id, w) == zx.Plain {
			out = append(out, w)
		}
	}
	return out
}

// externalLegs returns the single edge of each member of side leading out of the block.
func (v *view) externalLegs(side []zx.VtxID, inBlock map[zx.VtxID]bool) ([]leg, bool) {
	legs := make([]leg, 0, len(side))
	seen := make(map[zx.VtxID]bool, len(side))
	for _, id := range side {
		var ext []zx.VtxID
		for _, w := range v.nbrs(id) {
			if !inBlock[w] {
				ext = append(ext, w)
			}
		}
		if len(ext) != 1 || ext[0] == id || seen[ext[0]] {
			return nil, false
		}
		seen[ext[0]] = true
		legs = append(legs, leg{ext[0], v.edgeType(id, ext[0])})
	}
	return legs, v.ok()
}

// blockAt tries to grow a bialgebra block from the Z spider z.
func (v *view) blockAt(z zx.VtxID) (*block, bool) {
	if !v.isBare(z, zx.Z) {
		return nil, false
	}
	xs := v.plainNbrs(z, zx.X)
	if len(xs) < 2 {
		return nil, false
	}

	// Z side: the bare Z spiders plain-joined to every member of xs
	count := make(map[zx.VtxID]int)
	for _, x := range xs {
		for _, w := range v.plainNbrs(x, zx.Z) {
			count[w]++
		}
	}
	var zs []zx.VtxID
	for _, w := range v.plainNbrs(xs[0], zx.Z) {
		if count[w] == len(xs) {
			zs = append(zs, w)
		}
	}
	if len(zs) < 2 {
		return nil, false
	}

	inBlock := make(map[zx.VtxID]bool, len(zs)+len(xs))
	for _, id := range zs {
		inBlock[id] = true
	}
	for _, id := range xs {
		inBlock[id] = true
	}
	for _, id := range zs {
		if v.degree(id) != len(xs)+1 {
			return nil, false
		}
	}
	for _, id := range xs {
		if v.degree(id) != len(zs)+1 {
			return nil, false
		}
	}

	b := &block{zs: zs, xs: xs}
	var ok bool
	if b.zLegs, ok = v.externalLegs(zs, inBlock); !ok {
		return nil, false
	}
	if b.xLegs, ok = v.externalLegs(xs, inBlock); !ok {
		return nil, false
	}
	return b, v.ok()
}

// bialgebra collapses a K(n,m) block into a Plain-joined Z/X pair: the new X spider takes the
// Z side's external legs and the new Z spider takes the X side's.
var bialgebra = &rule[*block]{
	name: "bialgebra",
	match: func(v *view) (*block, bool) {
		for _, id := range v.vertices() {
			if b, ok := v.blockAt(id); ok {
				return b, true
			}
		}
		return nil, false
	},
	apply: func(v *view, b *block) {
		n, m := len(b.zs), len(b.xs)
		nz := v.addVertex(zx.Z, v.qubit(b.xs[0]), v.row(b.xs[0]), phase.Zero)
		nx := v.addVertex(zx.X, v.qubit(b.zs[0]), v.row(b.zs[0]), phase.Zero)

		v.removeVertices(b.zs...)
		v.removeVertices(b.xs...)
		for _, l := range b.zLegs {
			v.addEdge(nx, l.to, l.et)
		}
		for _, l := range b.xLegs {
			v.addEdge(nz, l.to, l.et)
		}
		v.addEdge(nz, nx, zx.Plain)
		v.addPower(-(m - 1) * (n - 1))
	},
}
