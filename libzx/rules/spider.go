package rules

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
)

// spiderFusion merges two same-color spiders joined by a Plain edge into the lower id.
var spiderFusion = &rule[zx.Edge]{
	name: "spider_fusion",
	match: func(v *view) (zx.Edge, bool) {
		for _, e := range v.edges() {
			if e.IsLoop() {
				continue
			}
			ts := v.typ(e.S)
			if !ts.IsSpider() || ts != v.typ(e.T) || v.edgeType(e.S, e.T) != zx.Plain {
				continue
			}
			return e, v.ok()
		}
		return zx.Edge{}, false
	},
	apply: func(v *view, e zx.Edge) {
		keep, drop := e.S, e.T
		v.addToPhase(keep, v.phase(drop))
		for _, w := range v.nbrs(drop) {
			switch {
			case w == keep:
			case w == drop:
				// a Plain loop is an identity; a Hadamard loop moves onto the survivor
				if v.edgeType(drop, drop) == zx.Hadamard {
					v.addEdge(keep, keep, zx.Hadamard)
				}
			default:
				v.addEdge(keep, w, v.edgeType(drop, w))
			}
		}
		v.removeVertices(drop)
	},
}

// identityRemoval drops a phase-free degree-2 Z spider and joins its two neighbors directly.
var identityRemoval = &rule[zx.VtxID]{
	name: "identity_removal",
	match: func(v *view) (zx.VtxID, bool) {
		for _, id := range v.vertices() {
			if v.typ(id) != zx.Z || !v.phase(id).IsZero() || v.degree(id) != 2 {
				continue
			}
			nbrs := v.nbrs(id)
			if len(nbrs) != 2 || nbrs[0] == id || nbrs[1] == id {
				continue
			}
			return id, v.ok()
		}
		return 0, false
	},
	apply: func(v *view, id zx.VtxID) {
		nbrs := v.nbrs(id)
		if len(nbrs) != 2 {
			return
		}
		// join first so a forbidden join fails before anything is removed
		et := zx.ComposeEdges(v.edgeType(id, nbrs[0]), v.edgeType(id, nbrs[1]))
		v.addEdge(nbrs[0], nbrs[1], et)
		v.removeVertices(id)
	},
}

// selfLoopRemoval resolves a self-loop left on a spider by the raw loader.
var selfLoopRemoval = &rule[zx.VtxID]{
	name: "self_loop_removal",
	match: func(v *view) (zx.VtxID, bool) {
		for _, e := range v.edges() {
			if e.IsLoop() && v.typ(e.S).IsSpider() {
				return e.S, v.ok()
			}
		}
		return 0, false
	},
	apply: func(v *view, id zx.VtxID) {
		et := v.edgeType(id, id)
		v.removeEdge(id, id)
		if et == zx.Hadamard {
			v.addToPhase(id, phase.One)
			v.addPower(-1)
		}
	},
}

// hboxToEdge replaces a 2-legged H-box of phase 1 with a direct edge; such an H-box is √2·H.
var hboxToEdge = &rule[zx.VtxID]{
	name: "hbox_to_edge",
	match: func(v *view) (zx.VtxID, bool) {
		for _, id := range v.vertices() {
			if v.typ(id) != zx.HBox || v.degree(id) != 2 || !v.phase(id).Equal(phase.One) {
				continue
			}
			nbrs := v.nbrs(id)
			if len(nbrs) != 2 || nbrs[0] == id || nbrs[1] == id {
				continue
			}
			return id, v.ok()
		}
		return 0, false
	},
	apply: func(v *view, id zx.VtxID) {
		nbrs := v.nbrs(id)
		if len(nbrs) != 2 {
			return
		}
		et := zx.Hadamard
		for _, w := range nbrs {
			if v.edgeType(id, w) == zx.Hadamard {
				et = et.Toggle()
			}
		}
		v.removeVertices(id)
		v.addPower(1)
		v.addEdge(nbrs[0], nbrs[1], et)
	},
}

// toGH recolors every X spider to Z, toggling each edge that has exactly one recolored end.
var toGH = &rule[[]zx.VtxID]{
	name: "to_gh",
	match: func(v *view) ([]zx.VtxID, bool) {
		var xs []zx.VtxID
		for _, id := range v.vertices() {
			if v.typ(id) == zx.X {
				xs = append(xs, id)
			}
		}
		return xs, len(xs) > 0 && v.ok()
	},
	apply: func(v *view, xs []zx.VtxID) {
		recolored := make(map[zx.VtxID]struct{}, len(xs))
		for _, id := range xs {
			recolored[id] = struct{}{}
		}
		for _, e := range v.edges() {
			_, s := recolored[e.S]
			_, t := recolored[e.T]
			if s != t {
				v.setEdgeType(e.S, e.T, v.edgeType(e.S, e.T).Toggle())
			}
		}
		for _, id := range xs {
			v.setType(id, zx.Z)
		}
	},
}
