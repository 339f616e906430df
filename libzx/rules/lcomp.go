package rules

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
)

// localComplement removes an interior Z spider of phase ±1/2: its neighbors become pairwise
// complemented and lose the center's phase.
var localComplement = &rule[zx.VtxID]{
	name: "local_complement",
	match: func(v *view) (zx.VtxID, bool) {
		for _, id := range v.vertices() {
			if v.typ(id) == zx.Z && v.phase(id).IsProperClifford() && v.isInterior(id) {
				return id, v.ok()
			}
		}
		return 0, false
	},
	apply: func(v *view, id zx.VtxID) {
		alpha := v.phase(id)
		nbrs := v.nbrs(id)
		k := len(nbrs)

		v.updateScalar(func(s *zx.Scalar) {
			s.AddPower((k - 1) * (k - 2) / 2)
			if alpha.Equal(phase.Half) {
				s.AddPhase(phase.Quarter)
			} else {
				s.AddPhase(phase.New(7, 4))
			}
		})
		v.removeVertices(id)
		for i, x := range nbrs {
			v.addToPhase(x, alpha.Neg())
			for _, y := range nbrs[i+1:] {
				v.addEdge(x, y, zx.Hadamard)
			}
		}
	},
}
