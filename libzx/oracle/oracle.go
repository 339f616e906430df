// Package oracle evaluates diagrams to dense matrices and compares them.
//
// It exists to check rewrites: every rule must leave the linear map of a diagram unchanged,
// including its Scalar.  Evaluation is exponential in the number of open legs, so it is meant
// for the small diagrams found in tests and fixtures.
package oracle

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
)

var (
	ErrUnboundParam = phase.ErrUnboundParam
	ErrShape        = errors.New("matrix shapes differ")
)

// DefaultTolerance is the entrywise tolerance used when Opts.Tolerance is 0.
const DefaultTolerance = 1e-6

// Opts controls a comparison.
type Opts struct {
	PreserveScalar bool               // require equality, not just proportionality
	Params         map[string]float64 // assignment for symbolic phases (units of π)
	Tolerance      float64
}

func (opts Opts) tolerance() float64 {
	if opts.Tolerance <= 0 {
		return DefaultTolerance
	}
	return opts.Tolerance
}

// Matrix is a dense complex matrix in row-major order.
type Matrix struct {
	Rows, Cols int
	Data       []complex128
}

func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{
		Rows: rows,
		Cols: cols,
		Data: make([]complex128, rows*cols),
	}
}

// Identity returns the 2^n x 2^n identity.
func Identity(qubits int) *Matrix {
	dim := 1 << qubits
	m := NewMatrix(dim, dim)
	for i := 0; i < dim; i++ {
		m.Set(i, i, 1)
	}
	return m
}

func (m *Matrix) At(i, j int) complex128 {
	return m.Data[i*m.Cols+j]
}

func (m *Matrix) Set(i, j int, c complex128) {
	m.Data[i*m.Cols+j] = c
}

// Mul returns m·n.
func (m *Matrix) Mul(n *Matrix) *Matrix {
	out := NewMatrix(m.Rows, n.Cols)
	for i := 0; i < m.Rows; i++ {
		for k := 0; k < m.Cols; k++ {
			a := m.At(i, k)
			if a == 0 {
				continue
			}
			for j := 0; j < n.Cols; j++ {
				out.Data[i*out.Cols+j] += a * n.At(k, j)
			}
		}
	}
	return out
}

// Scale multiplies every entry of m by c in place.
func (m *Matrix) Scale(c complex128) {
	for i := range m.Data {
		m.Data[i] *= c
	}
}

func (m *Matrix) String() string {
	b := strings.Builder{}
	for i := 0; i < m.Rows; i++ {
		for j := 0; j < m.Cols; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			c := m.At(i, j)
			fmt.Fprintf(&b, "%+.3f%+.3fi", real(c), imag(c))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Tensor evaluates d to its matrix: rows index the outputs and columns the inputs, with
// qubit 0 as the most significant bit.  The Scalar is included.
func Tensor(d zx.Diagram, params map[string]float64) (*Matrix, error) {
	edges, err := d.Edges()
	if err != nil {
		return nil, err
	}
	label := make(map[zx.Edge]int, len(edges))
	for i, e := range edges {
		label[e] = i + 1
	}
	next := len(edges) + 1
	fresh := func() int {
		next++
		return next
	}

	vs, err := d.Vertices()
	if err != nil {
		return nil, err
	}
	ext := make(map[zx.VtxID]int)
	parts := make([]*tensor, 0, len(vs))
	for _, v := range vs {
		ts, err := vertexTensors(d, v, label, fresh, ext, params)
		if err != nil {
			return nil, err
		}
		parts = append(parts, ts...)
	}

	ins, err := d.Inputs()
	if err != nil {
		return nil, err
	}
	outs, err := d.Outputs()
	if err != nil {
		return nil, err
	}
	var open []int
	for _, v := range append(append([]zx.VtxID(nil), outs...), ins...) {
		l, ok := ext[v]
		if !ok {
			return nil, errors.Wrapf(zx.ErrBadBoundary, "input/output %d is not a boundary", v)
		}
		open = append(open, l)
	}
	if len(open) != len(ext) {
		return nil, errors.Wrapf(zx.ErrBadBoundary, "%d boundaries but %d inputs and outputs", len(ext), len(open))
	}

	t := contractAll(parts)
	t = t.permute(open)

	s, err := d.Scalar()
	if err != nil {
		return nil, err
	}
	c, err := s.Complex(params)
	if err != nil {
		return nil, err
	}
	t.scale(c)

	return &Matrix{
		Rows: 1 << len(outs),
		Cols: 1 << len(ins),
		Data: t.data,
	}, nil
}

// vertexTensors returns the tensor of v, plus one two-legged tensor per self-loop on v.
// A Hadamard edge is applied on the leg of its lower endpoint.
func vertexTensors(d zx.Diagram, v zx.VtxID, label map[zx.Edge]int, fresh func() int, ext map[zx.VtxID]int, params map[string]float64) ([]*tensor, error) {
	vt, err := d.Type(v)
	if err != nil {
		return nil, err
	}
	ph, err := d.Phase(v)
	if err != nil {
		return nil, err
	}
	alpha, err := ph.Float(params)
	if err != nil {
		return nil, errors.Wrapf(err, "vertex %d", v)
	}
	inc, err := d.IncidentEdges(v)
	if err != nil {
		return nil, err
	}

	var legs []int
	var hAxes []int
	var loops []*tensor
	for _, e := range inc {
		et, err := d.EdgeType(e)
		if err != nil {
			return nil, err
		}
		l := label[e]
		if e.IsLoop() {
			other := fresh()
			legs = append(legs, l, other)
			loop := wire(l, other)
			if et == zx.Hadamard {
				loop.hadamard(1)
			}
			loops = append(loops, loop)
			continue
		}
		if et == zx.Hadamard && e.S == v {
			hAxes = append(hAxes, len(legs))
		}
		legs = append(legs, l)
	}

	var t *tensor
	switch vt {
	case zx.Boundary:
		if len(legs) != 1 {
			return nil, errors.Wrapf(zx.ErrBadBoundary, "vertex %d has degree %d", v, len(legs))
		}
		ext[v] = fresh()
		t = wire(ext[v], legs[0])
		for i := range hAxes {
			hAxes[i]++
		}
	case zx.Z:
		t = zSpider(alpha, legs...)
	case zx.X:
		t = xSpider(alpha, legs...)
	case zx.HBox:
		t = hBox(alpha, legs...)
	default:
		return nil, errors.Wrapf(zx.ErrBadVertexType, "vertex %d", v)
	}
	for _, ax := range hAxes {
		t.hadamard(ax)
	}
	return append([]*tensor{t}, loops...), nil
}

// contractAll contracts parts greedily, always taking next the part that shares the most legs
// with the running result.
func contractAll(parts []*tensor) *tensor {
	acc := &tensor{data: []complex128{1}}
	used := make([]bool, len(parts))
	for range parts {
		best, bestScore := -1, math.MinInt
		for i, p := range parts {
			if used[i] {
				continue
			}
			score := 0
			for _, l := range p.legs {
				if acc.axis(l) >= 0 {
					score += 2
				} else {
					score--
				}
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
		used[best] = true
		acc = contract(acc, parts[best])
	}
	return acc
}

// Equivalent reports if a and b evaluate to the same map, exactly when preserveScalar is set and
// up to a nonzero scalar factor otherwise.
func Equivalent(a, b zx.Diagram, preserveScalar bool) (bool, error) {
	return EquivalentWith(a, b, Opts{PreserveScalar: preserveScalar})
}

func EquivalentWith(a, b zx.Diagram, opts Opts) (bool, error) {
	ma, err := Tensor(a, opts.Params)
	if err != nil {
		return false, err
	}
	mb, err := Tensor(b, opts.Params)
	if err != nil {
		return false, err
	}
	return Compare(ma, mb, opts), nil
}

// CompareMatrix evaluates d and compares it against the reference m.
func CompareMatrix(d zx.Diagram, m *Matrix, opts Opts) (bool, error) {
	md, err := Tensor(d, opts.Params)
	if err != nil {
		return false, err
	}
	if md.Rows != m.Rows || md.Cols != m.Cols {
		return false, errors.Wrapf(ErrShape, "%dx%d vs %dx%d", md.Rows, md.Cols, m.Rows, m.Cols)
	}
	return Compare(md, m, opts), nil
}

// Compare reports if a and b agree entrywise within tolerance, after rescaling b onto a
// unless opts.PreserveScalar is set.
func Compare(a, b *Matrix, opts Opts) bool {
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return false
	}
	tol := opts.tolerance()

	ratio := complex(1, 0)
	if !opts.PreserveScalar {
		pivot, size := -1, 0.0
		for i, c := range a.Data {
			if abs := cmplx.Abs(c); abs > size {
				pivot, size = i, abs
			}
		}
		if pivot < 0 || size < tol {
			// a is zero: b must be too
			return isZero(b, tol)
		}
		if cmplx.Abs(b.Data[pivot]) < tol {
			return false
		}
		ratio = a.Data[pivot] / b.Data[pivot]
	}

	scale := math.Max(1, maxAbs(a))
	for i := range a.Data {
		if cmplx.Abs(a.Data[i]-ratio*b.Data[i]) > tol*scale {
			return false
		}
	}
	return true
}

func maxAbs(m *Matrix) float64 {
	top := 0.0
	for _, c := range m.Data {
		if abs := cmplx.Abs(c); abs > top {
			top = abs
		}
	}
	return top
}

func isZero(m *Matrix, tol float64) bool {
	return maxAbs(m) < tol
}
