// Package circuit translates between gate lists and diagrams.
//
// Circuits are read from a subset of OpenQASM 2.0.  ToGraph builds the diagram of a circuit with
// an exact Scalar, Unitary gives the reference matrix the oracle compares against, and an
// Extractor turns suitably reduced diagrams back into circuits.
package circuit

import (
	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/pkg/errors"
)

var (
	ErrNotExtractable = errors.New("diagram is not extractable")
	ErrBadCircuit     = errors.New("bad circuit")
	ErrUnknownGate    = errors.New("unknown gate")
	ErrBadQubit       = errors.New("qubit index out of range")
)

// Gate is a single gate application.  Phase is the rotation angle in units of π for the
// parameterized gates (rz, rx, p) and is ignored by the others.
type Gate struct {
	Name   string
	Qubits []int
	Phase  phase.Phase
}

// Circuit is an ordered gate list over a fixed number of qubits.
type Circuit struct {
	Qubits int
	Gates  []Gate
}

// Extractor recovers a circuit from a diagram.  The result implements the diagram's linear map
// up to the diagram's global Scalar.
type Extractor interface {
	ExtractCircuit(d zx.Diagram) (*Circuit, error)
}

type gateSpec struct {
	arity  int
	params int
}

var gateSpecs = map[string]gateSpec{
	"id":   {1, 0},
	"h":    {1, 0},
	"x":    {1, 0},
	"y":    {1, 0},
	"z":    {1, 0},
	"s":    {1, 0},
	"sdg":  {1, 0},
	"t":    {1, 0},
	"tdg":  {1, 0},
	"rz":   {1, 1},
	"rx":   {1, 1},
	"p":    {1, 1},
	"cx":   {2, 0},
	"cz":   {2, 0},
	"swap": {2, 0},
}

var gateAliases = map[string]string{
	"cnot":  "cx",
	"u1":    "p",
	"phase": "p",
}

// New returns an empty circuit on the given number of qubits.
func New(qubits int) *Circuit {
	return &Circuit{
		Qubits: qubits,
	}
}

// Add appends a gate, checking its name, arity and qubit indices.  ph is only used by rz, rx and p.
func (c *Circuit) Add(name string, ph phase.Phase, qubits ...int) error {
	if alias, ok := gateAliases[name]; ok {
		name = alias
	}
	spec, ok := gateSpecs[name]
	if !ok {
		return errors.Wrapf(ErrUnknownGate, "%q", name)
	}
	if len(qubits) != spec.arity {
		return errors.Wrapf(ErrBadCircuit, "%s takes %d qubits, got %d", name, spec.arity, len(qubits))
	}
	for i, q := range qubits {
		if q < 0 || q >= c.Qubits {
			return errors.Wrapf(ErrBadQubit, "%s: qubit %d of %d", name, q, c.Qubits)
		}
		for _, r := range qubits[:i] {
			if r == q {
				return errors.Wrapf(ErrBadCircuit, "%s: repeated qubit %d", name, q)
			}
		}
	}
	g := Gate{
		Name:   name,
		Qubits: append([]int(nil), qubits...),
	}
	if spec.params > 0 {
		g.Phase = ph
	}
	c.Gates = append(c.Gates, g)
	return nil
}

// MustAdd is Add for fixtures; it panics on error.
func (c *Circuit) MustAdd(name string, ph phase.Phase, qubits ...int) *Circuit {
	if err := c.Add(name, ph, qubits...); err != nil {
		panic(err)
	}
	return c
}

// Counts tallies gates by name.
func (c *Circuit) Counts() map[string]int {
	counts := make(map[string]int)
	for _, g := range c.Gates {
		counts[g.Name]++
	}
	return counts
}
