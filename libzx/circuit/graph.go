package circuit

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
)

// wire tracks the open end of one qubit while a circuit is laid out.
type wire struct {
	last    zx.VtxID
	pending zx.EdgeType // kind of the edge that will join last to the next vertex
	row     float64
}

type layout struct {
	d     zx.Diagram
	wires []wire
}

func (L *layout) spider(q int, vt zx.VertexType, row float64, ph phase.Phase) (zx.VtxID, error) {
	w := &L.wires[q]
	v, err := L.d.AddVertex(vt, float64(q), row, ph)
	if err != nil {
		return 0, err
	}
	if _, err = L.d.AddEdge(w.last, v, w.pending); err != nil {
		return 0, err
	}
	w.last, w.pending, w.row = v, zx.Plain, row
	return v, nil
}

func (L *layout) nextRow(qubits ...int) float64 {
	row := 0.0
	for _, q := range qubits {
		if r := L.wires[q].row; r > row {
			row = r
		}
	}
	return row + 1
}

func (L *layout) scalar(power int, ph phase.Phase) error {
	if power == 0 && ph.IsZero() {
		return nil
	}
	return L.d.UpdateScalar(func(s *zx.Scalar) {
		s.AddPower(power)
		s.AddPhase(ph)
	})
}

// ToGraph lays out c in the empty diagram d, one input and one output Boundary per qubit.
// The diagram's Scalar is set so that its linear map equals Unitary exactly.
func (c *Circuit) ToGraph(d zx.Diagram) error {
	n, err := d.NumVertices()
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.Wrapf(zx.ErrNotEmpty, "diagram %s", d.ID())
	}

	L := &layout{
		d:     d,
		wires: make([]wire, c.Qubits),
	}
	ins := make([]zx.VtxID, c.Qubits)
	for q := range L.wires {
		if ins[q], err = d.AddVertex(zx.Boundary, float64(q), 0); err != nil {
			return err
		}
		L.wires[q] = wire{last: ins[q], pending: zx.Plain}
	}

	for _, g := range c.Gates {
		if err = L.apply(g); err != nil {
			return errors.Wrapf(err, "gate %s%v", g.Name, g.Qubits)
		}
	}

	outRow := L.nextRow(allQubits(c.Qubits)...)
	outs := make([]zx.VtxID, c.Qubits)
	for q := range L.wires {
		w := &L.wires[q]
		if outs[q], err = d.AddVertex(zx.Boundary, float64(q), outRow); err != nil {
			return err
		}
		if _, err = d.AddEdge(w.last, outs[q], w.pending); err != nil {
			return err
		}
	}
	if err = d.SetInputs(ins); err != nil {
		return err
	}
	return d.SetOutputs(outs)
}

func allQubits(n int) []int {
	qs := make([]int, n)
	for i := range qs {
		qs[i] = i
	}
	return qs
}

func (L *layout) apply(g Gate) error {
	q := g.Qubits[0]
	var err error

	// single-qubit phase gates
	zPhase := map[string]phase.Phase{
		"z":   phase.One,
		"s":   phase.Half,
		"sdg": phase.ThreeHalfs,
		"t":   phase.Quarter,
		"tdg": phase.New(7, 4),
		"p":   g.Phase,
		"rz":  g.Phase,
	}
	if ph, ok := zPhase[g.Name]; ok {
		if _, err = L.spider(q, zx.Z, L.nextRow(q), ph); err != nil {
			return err
		}
		if g.Name == "rz" {
			return L.scalar(0, g.Phase.Scale(-1, 2))
		}
		return nil
	}

	switch g.Name {
	case "id":
	case "h":
		L.wires[q].pending = L.wires[q].pending.Toggle()
	case "x":
		_, err = L.spider(q, zx.X, L.nextRow(q), phase.One)
	case "rx":
		if _, err = L.spider(q, zx.X, L.nextRow(q), g.Phase); err == nil {
			err = L.scalar(0, g.Phase.Scale(-1, 2))
		}
	case "y":
		// Y = i·X·Z
		if _, err = L.spider(q, zx.Z, L.nextRow(q), phase.One); err != nil {
			return err
		}
		if _, err = L.spider(q, zx.X, L.nextRow(q), phase.One); err != nil {
			return err
		}
		err = L.scalar(0, phase.Half)
	case "cx", "cz":
		t := g.Qubits[1]
		row := L.nextRow(q, t)
		ctl, err := L.spider(q, zx.Z, row, phase.Zero)
		if err != nil {
			return err
		}
		vt, et := zx.X, zx.Plain
		if g.Name == "cz" {
			vt, et = zx.Z, zx.Hadamard
		}
		tgt, err := L.spider(t, vt, row, phase.Zero)
		if err != nil {
			return err
		}
		if _, err = L.d.AddEdge(ctl, tgt, et); err != nil {
			return err
		}
		return L.scalar(1, phase.Zero)
	case "swap":
		t := g.Qubits[1]
		L.wires[q], L.wires[t] = L.wires[t], L.wires[q]
	default:
		return errors.Wrapf(ErrUnknownGate, "%q", g.Name)
	}
	return err
}
