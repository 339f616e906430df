package zx

import (
	"fmt"
	"io"
	"strings"

	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
)

// FuseEdge implements Diagram.AddEdge for any backend in terms of the backend's raw operations.
//
// For a pair of spiders, fuse is the edge kind that merges them (Plain for same color, Hadamard
// otherwise) and hopf is the other kind:
//
//	fuse over fuse  => no change
//	fuse over hopf  => edge becomes fuse, s gains phase 1, scalar * √2^-1  (and vice versa)
//	hopf over hopf  => edge removed, scalar * √2^-2
func FuseEdge(d Diagram, s, t VtxID, et EdgeType) (EdgeID, error) {
	if !et.Valid() {
		return NilEdge, errors.Wrapf(ErrBadEdgeType, "edge %v", FormEdge(s, t))
	}
	ts, err := d.Type(s)
	if err != nil {
		return NilEdge, err
	}
	tt, err := d.Type(t)
	if err != nil {
		return NilEdge, err
	}

	if s == t {
		if !ts.IsSpider() {
			return NilEdge, errors.Wrapf(ErrSelfLoopType, "vertex %d (%v)", s, ts)
		}
		if et == Plain {
			return NilEdge, errors.Wrapf(ErrPlainSelfLoop, "vertex %d", s)
		}
		if err = d.AddToPhase(s, phase.One); err != nil {
			return NilEdge, err
		}
		return NilEdge, d.UpdateScalar(func(sc *Scalar) {
			sc.AddPower(-1)
		})
	}

	connected, err := d.Connected(s, t)
	if err != nil {
		return NilEdge, err
	}
	if !connected {
		return d.PutEdge(s, t, et)
	}

	e := FormEdge(s, t)
	cur, err := d.EdgeType(e)
	if err != nil {
		return NilEdge, err
	}

	switch {
	case ts.IsSpider() && tt.IsSpider():
		fuse := Plain
		if ts != tt {
			fuse = Hadamard
		}
		switch {
		case et == fuse && cur == fuse:
			return d.EdgeID(e)
		case et != cur:
			if err = d.SetEdgeType(e, fuse); err != nil {
				return NilEdge, err
			}
			if err = d.AddToPhase(s, phase.One); err != nil {
				return NilEdge, err
			}
			if err = d.UpdateScalar(func(sc *Scalar) { sc.AddPower(-1) }); err != nil {
				return NilEdge, err
			}
			return d.EdgeID(e)
		default:
			if err = d.RemoveEdges(e); err != nil {
				return NilEdge, err
			}
			return NilEdge, d.UpdateScalar(func(sc *Scalar) {
				sc.AddPower(-2)
			})
		}

	case (ts == HBox && tt == Z) || (tt == HBox && ts == Z):
		if et == Plain && cur == Plain {
			return d.EdgeID(e)
		}
	}

	return NilEdge, errors.Wrapf(ErrForbiddenEdge, "%v edge over %v edge %d(%v)-%d(%v)", et, cur, s, ts, t, tt)
}

// RemoveIsolated implements Diagram.RemoveIsolatedVertices for any backend.
//
// A degree-0 spider contributes 1 + e^(iπα), a degree-0 H-box e^(iπα), and an isolated pair of
// 1-legged vertices (H-boxes count as Z) contributes 1 + e^(iπ(α+β)) when the pair would fuse,
// otherwise the spider pair factor.
func RemoveIsolated(d Diagram) error {
	vs, err := d.Vertices()
	if err != nil {
		return err
	}

	var (
		delta   Scalar
		rem     []VtxID
		removed = make(map[VtxID]struct{})
	)

	for _, v := range vs {
		if _, done := removed[v]; done {
			continue
		}
		deg, err := d.Degree(v)
		if err != nil {
			return err
		}
		if deg > 1 {
			continue
		}
		vt, err := d.Type(v)
		if err != nil {
			return err
		}

		if deg == 0 {
			if vt == Boundary {
				return errors.Wrapf(ErrIsolatedBoundary, "vertex %d", v)
			}
			ph, err := d.Phase(v)
			if err != nil {
				return err
			}
			if vt == HBox {
				delta.AddPhase(ph)
			} else {
				delta.AddNode(ph)
			}
			rem = append(rem, v)
			removed[v] = struct{}{}
			continue
		}

		if vt == Boundary {
			continue
		}
		nbrs, err := d.Neighbors(v)
		if err != nil {
			return err
		}
		w := nbrs[0]
		if w == v {
			continue
		}
		if _, done := removed[w]; done {
			continue
		}
		wdeg, err := d.Degree(w)
		if err != nil {
			return err
		}
		wt, err := d.Type(w)
		if err != nil {
			return err
		}
		if wdeg != 1 || wt == Boundary {
			continue
		}

		et, err := d.EdgeType(FormEdge(v, w))
		if err != nil {
			return err
		}
		p1, err := d.Phase(v)
		if err != nil {
			return err
		}
		p2, err := d.Phase(w)
		if err != nil {
			return err
		}

		c1, c2 := vt, wt
		if c1 == HBox {
			c1 = Z
		}
		if c2 == HBox {
			c2 = Z
		}
		if (c1 == c2) == (et == Plain) {
			delta.AddNode(p1.Add(p2))
		} else {
			delta.AddSpiderPair(p1, p2)
		}
		rem = append(rem, v, w)
		removed[v] = struct{}{}
		removed[w] = struct{}{}
	}

	if len(rem) == 0 {
		return nil
	}
	if err = d.RemoveVertices(rem...); err != nil {
		return err
	}
	return d.UpdateScalar(func(s *Scalar) {
		s.Mul(delta)
	})
}

// Validate checks the structural invariants that must hold between rule applications:
// boundaries have degree 1, inputs and outputs are boundaries, and no self-loops remain.
func Validate(d Diagram) error {
	vs, err := d.Vertices()
	if err != nil {
		return err
	}
	for _, v := range vs {
		vt, err := d.Type(v)
		if err != nil {
			return err
		}
		deg, err := d.Degree(v)
		if err != nil {
			return err
		}
		if vt == Boundary && deg != 1 {
			return errors.Wrapf(ErrBadBoundary, "vertex %d has degree %d", v, deg)
		}
		connected, err := d.Connected(v, v)
		if err != nil {
			return err
		}
		if connected {
			return errors.Wrapf(ErrSelfLoopType, "vertex %d carries a self-loop", v)
		}
	}

	ins, err := d.Inputs()
	if err != nil {
		return err
	}
	outs, err := d.Outputs()
	if err != nil {
		return err
	}
	for _, v := range append(ins, outs...) {
		vt, err := d.Type(v)
		if err != nil {
			return err
		}
		if vt != Boundary {
			return errors.Wrapf(ErrBadBoundary, "input/output %d is a %v vertex", v, vt)
		}
	}
	return nil
}

// CopyInto appends the vertices, edges, metadata, inputs, outputs and scalar of src to dst and
// returns the mapping from src ids to dst ids.  dst may live on a different backend.
func CopyInto(dst, src Diagram) (map[VtxID]VtxID, error) {
	vs, err := src.Vertices()
	if err != nil {
		return nil, err
	}

	idMap := make(map[VtxID]VtxID, len(vs))
	for _, v := range vs {
		vt, err := src.Type(v)
		if err != nil {
			return nil, err
		}
		ph, err := src.Phase(v)
		if err != nil {
			return nil, err
		}
		q, err := src.Qubit(v)
		if err != nil {
			return nil, err
		}
		r, err := src.Row(v)
		if err != nil {
			return nil, err
		}
		nv, err := dst.AddVertex(vt, q, r, ph)
		if err != nil {
			return nil, err
		}
		keys, err := src.VDataKeys(v)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			val, err := src.VData(v, k, "")
			if err != nil {
				return nil, err
			}
			if err = dst.SetVData(nv, k, val); err != nil {
				return nil, err
			}
		}
		idMap[v] = nv
	}

	es, err := src.Edges()
	if err != nil {
		return nil, err
	}
	for _, e := range es {
		et, err := src.EdgeType(e)
		if err != nil {
			return nil, err
		}
		if _, err = dst.PutEdge(idMap[e.S], idMap[e.T], et); err != nil {
			return nil, err
		}
		keys, err := src.EDataKeys(e)
		if err != nil {
			return nil, err
		}
		ne := FormEdge(idMap[e.S], idMap[e.T])
		for _, k := range keys {
			val, err := src.EData(e, k, "")
			if err != nil {
				return nil, err
			}
			if err = dst.SetEData(ne, k, val); err != nil {
				return nil, err
			}
		}
	}

	remap := func(in []VtxID) []VtxID {
		out := make([]VtxID, len(in))
		for i, v := range in {
			out[i] = idMap[v]
		}
		return out
	}
	ins, err := src.Inputs()
	if err != nil {
		return nil, err
	}
	outs, err := src.Outputs()
	if err != nil {
		return nil, err
	}
	if err = dst.SetInputs(remap(ins)); err != nil {
		return nil, err
	}
	if err = dst.SetOutputs(remap(outs)); err != nil {
		return nil, err
	}

	sc, err := src.Scalar()
	if err != nil {
		return nil, err
	}
	err = dst.UpdateScalar(func(s *Scalar) {
		s.Mul(sc.Clone())
	})
	return idMap, err
}

// Depth is the largest row position of any vertex.
func Depth(d Diagram) (float64, error) {
	vs, err := d.Vertices()
	if err != nil {
		return 0, err
	}
	depth := -1.0
	for _, v := range vs {
		r, err := d.Row(v)
		if err != nil {
			return 0, err
		}
		if r > depth {
			depth = r
		}
	}
	return depth, nil
}

// Counts tallies a diagram's vertices by type plus its edges by kind.
type Counts struct {
	Vertices  int
	Edges     int
	ByType    [4]int
	Hadamards int
}

func CountOf(d Diagram) (Counts, error) {
	var c Counts
	vs, err := d.Vertices()
	if err != nil {
		return c, err
	}
	for _, v := range vs {
		vt, err := d.Type(v)
		if err != nil {
			return c, err
		}
		c.Vertices++
		c.ByType[vt]++
	}
	es, err := d.Edges()
	if err != nil {
		return c, err
	}
	for _, e := range es {
		et, err := d.EdgeType(e)
		if err != nil {
			return c, err
		}
		c.Edges++
		if et == Hadamard {
			c.Hadamards++
		}
	}
	return c, nil
}

func (c Counts) String() string {
	return fmt.Sprintf("vertices: %d (B:%d Z:%d X:%d H:%d), edges: %d (hadamard: %d)",
		c.Vertices, c.ByType[Boundary], c.ByType[Z], c.ByType[X], c.ByType[HBox], c.Edges, c.Hadamards)
}

// Summarize writes a one-line description of d.
func Summarize(d Diagram, out io.Writer, opts PrintOpts) error {
	c, err := CountOf(d)
	if err != nil {
		return err
	}
	b := strings.Builder{}
	b.WriteString(opts.Label)
	fmt.Fprintf(&b, "%s[%s] %v", d.ID(), d.Backend(), c)
	if opts.Scalar {
		sc, err := d.Scalar()
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, ", scalar: %v", sc)
	}
	b.WriteByte('\n')
	_, err = io.WriteString(out, b.String())
	return err
}
