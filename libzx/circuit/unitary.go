package circuit

import (
	"math"
	"math/cmplx"

	"github.com/2x3systems/gozx/libzx/oracle"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
)

type gate2x2 [2][2]complex128

func expiPi(p phase.Phase, params map[string]float64) (complex128, error) {
	f, err := p.Float(params)
	if err != nil {
		return 0, err
	}
	return cmplx.Exp(complex(0, math.Pi*f)), nil
}

func (g Gate) matrix(params map[string]float64) (gate2x2, error) {
	r := complex(1/math.Sqrt2, 0)
	switch g.Name {
	case "id":
		return gate2x2{{1, 0}, {0, 1}}, nil
	case "h":
		return gate2x2{{r, r}, {r, -r}}, nil
	case "x":
		return gate2x2{{0, 1}, {1, 0}}, nil
	case "y":
		return gate2x2{{0, -1i}, {1i, 0}}, nil
	case "z":
		return gate2x2{{1, 0}, {0, -1}}, nil
	case "s":
		return gate2x2{{1, 0}, {0, 1i}}, nil
	case "sdg":
		return gate2x2{{1, 0}, {0, -1i}}, nil
	case "t":
		return gate2x2{{1, 0}, {0, cmplx.Exp(complex(0, math.Pi/4))}}, nil
	case "tdg":
		return gate2x2{{1, 0}, {0, cmplx.Exp(complex(0, -math.Pi/4))}}, nil
	case "p", "rz", "rx":
		e, err := expiPi(g.Phase, params)
		if err != nil {
			return gate2x2{}, err
		}
		global := complex(1, 0)
		if g.Name != "p" {
			if global, err = expiPi(g.Phase.Scale(-1, 2), params); err != nil {
				return gate2x2{}, err
			}
		}
		if g.Name == "rx" {
			// H·diag(1, e)·H
			a, b := (1+e)/2, (1-e)/2
			return gate2x2{{global * a, global * b}, {global * b, global * a}}, nil
		}
		return gate2x2{{global, 0}, {0, global * e}}, nil
	}
	return gate2x2{}, errors.Wrapf(ErrUnknownGate, "%q is not a single-qubit gate", g.Name)
}

// Unitary returns the matrix of c with qubit 0 as the most significant bit.
func (c *Circuit) Unitary() (*oracle.Matrix, error) {
	return c.UnitaryWith(nil)
}

// UnitaryWith is Unitary with an assignment for symbolic angles.
func (c *Circuit) UnitaryWith(params map[string]float64) (*oracle.Matrix, error) {
	dim := 1 << c.Qubits
	m := oracle.Identity(c.Qubits)
	bit := func(q int) int {
		return 1 << (c.Qubits - 1 - q)
	}

	// each gate acts on the rows of m, i.e. on every column state at once
	for _, g := range c.Gates {
		switch g.Name {
		case "cx", "cz", "swap":
			a, b := bit(g.Qubits[0]), bit(g.Qubits[1])
			for i := 0; i < dim; i++ {
				switch g.Name {
				case "cx":
					if i&a != 0 && i&b == 0 {
						swapRows(m, i, i|b)
					}
				case "cz":
					if i&a != 0 && i&b != 0 {
						for j := 0; j < m.Cols; j++ {
							m.Set(i, j, -m.At(i, j))
						}
					}
				case "swap":
					if i&a != 0 && i&b == 0 {
						swapRows(m, i, i^a^b)
					}
				}
			}
		default:
			u, err := g.matrix(params)
			if err != nil {
				return nil, err
			}
			b := bit(g.Qubits[0])
			for i := 0; i < dim; i++ {
				if i&b != 0 {
					continue
				}
				for j := 0; j < m.Cols; j++ {
					x0, x1 := m.At(i, j), m.At(i|b, j)
					m.Set(i, j, u[0][0]*x0+u[0][1]*x1)
					m.Set(i|b, j, u[1][0]*x0+u[1][1]*x1)
				}
			}
		}
	}
	return m, nil
}

func swapRows(m *oracle.Matrix, i, k int) {
	for j := 0; j < m.Cols; j++ {
		a, b := m.At(i, j), m.At(k, j)
		m.Set(i, j, b)
		m.Set(k, j, a)
	}
}
