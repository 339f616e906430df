package rules

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
)

// view wraps a diagram so rule code can read and write without checking every call.
// The first error sticks: once err is set every read returns a zero value and writes are skipped.
type view struct {
	d   zx.Diagram
	err error
}

func (v *view) ok() bool {
	return v.err == nil
}

func (v *view) vertices() []zx.VtxID {
	if v.err != nil {
		return nil
	}
	vs, err := v.d.Vertices()
	v.err = err
	return vs
}

func (v *view) edges() []zx.Edge {
	if v.err != nil {
		return nil
	}
	es, err := v.d.Edges()
	v.err = err
	return es
}

func (v *view) typ(id zx.VtxID) zx.VertexType {
	if v.err != nil {
		return zx.Boundary
	}
	vt, err := v.d.Type(id)
	v.err = err
	return vt
}

func (v *view) phase(id zx.VtxID) phase.Phase {
	if v.err != nil {
		return phase.Zero
	}
	ph, err := v.d.Phase(id)
	v.err = err
	return ph
}

func (v *view) qubit(id zx.VtxID) float64 {
	if v.err != nil {
		return 0
	}
	q, err := v.d.Qubit(id)
	v.err = err
	return q
}

func (v *view) row(id zx.VtxID) float64 {
	if v.err != nil {
		return 0
	}
	r, err := v.d.Row(id)
	v.err = err
	return r
}

func (v *view) nbrs(id zx.VtxID) []zx.VtxID {
	if v.err != nil {
		return nil
	}
	nbrs, err := v.d.Neighbors(id)
	v.err = err
	return nbrs
}

func (v *view) degree(id zx.VtxID) int {
	if v.err != nil {
		return 0
	}
	deg, err := v.d.Degree(id)
	v.err = err
	return deg
}

func (v *view) connected(a, b zx.VtxID) bool {
	if v.err != nil {
		return false
	}
	connected, err := v.d.Connected(a, b)
	v.err = err
	return connected
}

func (v *view) edgeType(a, b zx.VtxID) zx.EdgeType {
	if v.err != nil {
		return zx.Plain
	}
	et, err := v.d.EdgeType(zx.FormEdge(a, b))
	v.err = err
	return et
}

// isInterior reports if id is a Z spider without loops whose edges are all Hadamard edges to Z spiders.
func (v *view) isInterior(id zx.VtxID) bool {
	if v.typ(id) != zx.Z {
		return false
	}
	for _, w := range v.nbrs(id) {
		if w == id || v.typ(w) != zx.Z || v.edgeType(id, w) != zx.Hadamard {
			return false
		}
	}
	return v.ok()
}

func (v *view) addVertex(vt zx.VertexType, qubit, row float64, ph phase.Phase) zx.VtxID {
	if v.err != nil {
		return 0
	}
	id, err := v.d.AddVertex(vt, qubit, row, ph)
	v.err = err
	return id
}

func (v *view) addEdge(a, b zx.VtxID, et zx.EdgeType) {
	if v.err == nil {
		_, v.err = v.d.AddEdge(a, b, et)
	}
}

func (v *view) removeEdge(a, b zx.VtxID) {
	if v.err == nil {
		v.err = v.d.RemoveEdges(zx.FormEdge(a, b))
	}
}

func (v *view) setEdgeType(a, b zx.VtxID, et zx.EdgeType) {
	if v.err == nil {
		v.err = v.d.SetEdgeType(zx.FormEdge(a, b), et)
	}
}

func (v *view) removeVertices(ids ...zx.VtxID) {
	if v.err == nil {
		v.err = v.d.RemoveVertices(ids...)
	}
}

func (v *view) setType(id zx.VtxID, vt zx.VertexType) {
	if v.err == nil {
		v.err = v.d.SetType(id, vt)
	}
}

func (v *view) setPhase(id zx.VtxID, ph phase.Phase) {
	if v.err == nil {
		v.err = v.d.SetPhase(id, ph)
	}
}

func (v *view) addToPhase(id zx.VtxID, ph phase.Phase) {
	if v.err == nil && !ph.IsZero() {
		v.err = v.d.AddToPhase(id, ph)
	}
}

func (v *view) updateScalar(fn func(s *zx.Scalar)) {
	if v.err == nil {
		v.err = v.d.UpdateScalar(fn)
	}
}

func (v *view) addPower(n int) {
	if n != 0 {
		v.updateScalar(func(s *zx.Scalar) {
			s.AddPower(n)
		})
	}
}
