package circuit

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
)

// WireExtractor extracts diagrams in which every output is joined to an input by a path of
// degree-2 spiders, i.e. a permutation of single-qubit circuits.  This covers the fully reduced
// form of any circuit whose qubits never interact.
type WireExtractor struct{}

func (WireExtractor) ExtractCircuit(d zx.Diagram) (*Circuit, error) {
	ins, err := d.Inputs()
	if err != nil {
		return nil, err
	}
	outs, err := d.Outputs()
	if err != nil {
		return nil, err
	}
	if len(ins) != len(outs) {
		return nil, errors.Wrapf(ErrNotExtractable, "%d inputs, %d outputs", len(ins), len(outs))
	}
	inIndex := make(map[zx.VtxID]int, len(ins))
	for i, v := range ins {
		inIndex[v] = i
	}

	n := len(ins)
	c := New(n)
	perm := make([]int, n) // output i carries input perm[i]
	visited := 0
	for i, out := range outs {
		gates, src, count, err := tracePath(d, out, inIndex)
		if err != nil {
			return nil, err
		}
		visited += count
		perm[i] = src
		for _, g := range gates {
			if err = c.Add(g.Name, g.Phase, src); err != nil {
				return nil, err
			}
		}
	}

	seen := make([]bool, n)
	for _, src := range perm {
		if seen[src] {
			return nil, errors.Wrapf(ErrNotExtractable, "input %d reaches two outputs", src)
		}
		seen[src] = true
	}
	total, err := d.NumVertices()
	if err != nil {
		return nil, err
	}
	if visited != total {
		return nil, errors.Wrapf(ErrNotExtractable, "%d vertices are off the wires", total-visited)
	}

	// route input perm[i] onto wire i
	at := allQubits(n)
	for i := range perm {
		k := i
		for at[k] != perm[i] {
			k++
		}
		if k != i {
			if err = c.Add("swap", phase.Zero, i, k); err != nil {
				return nil, err
			}
			at[i], at[k] = at[k], at[i]
		}
	}
	return c, nil
}

// tracePath walks from the output boundary out back to an input, returning the single-qubit gates
// along the way in circuit order, the input's index and the number of vertices visited.
func tracePath(d zx.Diagram, out zx.VtxID, inIndex map[zx.VtxID]int) ([]Gate, int, int, error) {
	var rev []Gate
	prev, cur := zx.VtxID(0), out
	count := 1
	hadamard := func(a, b zx.VtxID) error {
		et, err := d.EdgeType(zx.FormEdge(a, b))
		if err == nil && et == zx.Hadamard {
			rev = append(rev, Gate{Name: "h"})
		}
		return err
	}

	for {
		nbrs, err := d.Neighbors(cur)
		if err != nil {
			return nil, 0, 0, err
		}
		next := zx.VtxID(-1)
		for _, w := range nbrs {
			if w != prev {
				next = w
			}
		}
		wantDegree := 2
		if cur == out {
			wantDegree = 1
		}
		if len(nbrs) != wantDegree || next < 0 || next == cur {
			return nil, 0, 0, errors.Wrapf(ErrNotExtractable, "vertex %d is not on a single wire", cur)
		}
		if err = hadamard(cur, next); err != nil {
			return nil, 0, 0, err
		}
		prev, cur = cur, next
		count++

		vt, err := d.Type(cur)
		if err != nil {
			return nil, 0, 0, err
		}
		if vt == zx.Boundary {
			if _, ok := inIndex[cur]; !ok {
				return nil, 0, 0, errors.Wrapf(ErrNotExtractable, "output %d leads to boundary %d, not an input", out, cur)
			}
			break
		}

		ph, err := d.Phase(cur)
		if err != nil {
			return nil, 0, 0, err
		}
		switch vt {
		case zx.Z:
			if !ph.IsZero() {
				rev = append(rev, Gate{Name: "p", Phase: ph})
			}
		case zx.X:
			if !ph.IsZero() {
				rev = append(rev, Gate{Name: "h"}, Gate{Name: "p", Phase: ph}, Gate{Name: "h"})
			}
		default:
			return nil, 0, 0, errors.Wrapf(ErrNotExtractable, "vertex %d is a %v", cur, vt)
		}
	}

	gates := make([]Gate, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		gates = append(gates, rev[i])
	}
	return gates, inIndex[cur], count, nil
}
