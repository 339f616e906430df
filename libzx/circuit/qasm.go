package circuit

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/2x3systems/gozx/zx/phase"
	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// QASMProgram is the participle grammar for the supported OpenQASM 2.0 subset, e.g.
//
//	OPENQASM 2.0;
//	include "qelib1.inc";
//	qreg q[2];
//	h q[0];
//	cx q[0], q[1];
//	rz(3*pi/4) q[1];
type QASMProgram struct {
	Stmts []*QASMStmt `@@*`
}

type QASMStmt struct {
	Version string    `  "OPENQASM" @(Float | Int) ";"`
	Include string    `| "include" @String ";"`
	Reg     *QASMReg  `| @@ ";"`
	Gate    *QASMGate `| @@ ";"`
}

type QASMReg struct {
	Kind string `@( "qreg" | "creg" )`
	Name string `@Ident`
	Size int    `"[" @Int "]"`
}

type QASMGate struct {
	Name   string       `@Ident`
	Args   []*QASMAngle `( "(" @@ ( "," @@ )* ")" )?`
	Qubits []*QASMRef   `@@ ( "," @@ )*`
}

type QASMRef struct {
	Reg   string `@Ident`
	Index int    `"[" @Int "]"`
}

// QASMAngle is a sum of terms such as "pi/4", "-3*pi/2" or "2*theta"; angles are multiples of pi
// or of a named parameter (itself in units of pi).
type QASMAngle struct {
	Neg  bool          `@"-"?`
	Head *QASMTerm     `@@`
	Tail []*QASMOpTerm `@@*`
}

type QASMOpTerm struct {
	Op   string    `@( "+" | "-" )`
	Term *QASMTerm `@@`
}

// QASMTerm is "n", "n/d", "n*name", "n/d*name" or "name", optionally followed by "/d".
type QASMTerm struct {
	Num  string `(   @Int`
	Den  string `    ( "/" @Int )?`
	Coef string `    ( "*"? @Ident )?`
	Sym  string `  | @Ident )`
	Div  string `( "/" @Int )?`
}

var parseQASM = participle.MustBuild[QASMProgram]()

// Parse reads a circuit from QASM source.
func Parse(src string) (*Circuit, error) {
	prog, err := parseQASM.ParseString("", src)
	if err != nil {
		return nil, errors.Wrap(ErrBadCircuit, err.Error())
	}
	return prog.Circuit()
}

// Circuit converts a parsed program, concatenating all quantum registers in declaration order.
func (prog *QASMProgram) Circuit() (*Circuit, error) {
	offsets := make(map[string][2]int)
	c := New(0)
	for _, st := range prog.Stmts {
		if st.Reg == nil || st.Reg.Kind != "qreg" {
			continue
		}
		if _, dup := offsets[st.Reg.Name]; dup {
			return nil, errors.Wrapf(ErrBadCircuit, "register %q declared twice", st.Reg.Name)
		}
		offsets[st.Reg.Name] = [2]int{c.Qubits, st.Reg.Size}
		c.Qubits += st.Reg.Size
	}

	for _, st := range prog.Stmts {
		g := st.Gate
		if g == nil {
			continue
		}
		name := strings.ToLower(g.Name)
		if name == "barrier" {
			continue
		}
		qubits := make([]int, len(g.Qubits))
		for i, ref := range g.Qubits {
			reg, ok := offsets[ref.Reg]
			if !ok || ref.Index < 0 || ref.Index >= reg[1] {
				return nil, errors.Wrapf(ErrBadQubit, "%s[%d]", ref.Reg, ref.Index)
			}
			qubits[i] = reg[0] + ref.Index
		}

		ph := phase.Zero
		switch len(g.Args) {
		case 0:
		case 1:
			var err error
			if ph, err = g.Args[0].Phase(); err != nil {
				return nil, errors.Wrapf(err, "gate %s", g.Name)
			}
		default:
			return nil, errors.Wrapf(ErrBadCircuit, "gate %s: too many parameters", g.Name)
		}
		if err := c.Add(name, ph, qubits...); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Phase evaluates the angle in units of pi.
func (a *QASMAngle) Phase() (phase.Phase, error) {
	sum, err := a.Head.phase()
	if err != nil {
		return phase.Zero, err
	}
	if a.Neg {
		sum = sum.Neg()
	}
	for _, t := range a.Tail {
		p, err := t.Term.phase()
		if err != nil {
			return phase.Zero, err
		}
		if t.Op == "-" {
			p = p.Neg()
		}
		sum = sum.Add(p)
	}
	return sum, nil
}

func (t *QASMTerm) phase() (phase.Phase, error) {
	num, err := atoiOr(t.Num, 1)
	if err != nil {
		return phase.Zero, err
	}
	den, err := atoiOr(t.Den, 1)
	if err != nil {
		return phase.Zero, err
	}
	div, err := atoiOr(t.Div, 1)
	if err != nil {
		return phase.Zero, err
	}
	if den == 0 || div == 0 {
		return phase.Zero, errors.Wrap(ErrBadCircuit, "zero denominator in angle")
	}

	name := t.Coef
	if name == "" {
		name = t.Sym
	}
	switch name {
	case "":
		if num != 0 {
			return phase.Zero, errors.Wrapf(ErrBadCircuit, "angle %s must be a multiple of pi", t.Num)
		}
		return phase.Zero, nil
	case "pi":
		return phase.New(num, den*div), nil
	}
	return phase.Sym(name, num, den*div), nil
}

func atoiOr(s string, def int64) (int64, error) {
	if len(s) == 0 {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrBadCircuit, err.Error())
	}
	return v, nil
}

// String renders c as QASM accepted by Parse.
func (c *Circuit) String() string {
	b := strings.Builder{}
	b.WriteString("OPENQASM 2.0;\ninclude \"qelib1.inc\";\n")
	fmt.Fprintf(&b, "qreg q[%d];\n", c.Qubits)
	for _, g := range c.Gates {
		b.WriteString(g.Name)
		if gateSpecs[g.Name].params > 0 {
			b.WriteString("(")
			b.WriteString(formatAngle(g.Phase))
			b.WriteString(")")
		}
		for i, q := range g.Qubits {
			if i == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "q[%d]", q)
		}
		b.WriteString(";\n")
	}
	return b.String()
}

func formatAngle(p phase.Phase) string {
	var terms []string
	for _, name := range p.Params() {
		num, den := p.Coef(name)
		terms = append(terms, formatTerm(num, den, name))
	}
	if num, den, _ := p.Const().Frac(); num != 0 || len(terms) == 0 {
		terms = append(terms, formatTerm(num, den, "pi"))
	}

	b := strings.Builder{}
	for i, t := range terms {
		switch {
		case i == 0:
			b.WriteString(t)
		case strings.HasPrefix(t, "-"):
			b.WriteString(" - ")
			b.WriteString(t[1:])
		default:
			b.WriteString(" + ")
			b.WriteString(t)
		}
	}
	return b.String()
}

func formatTerm(num, den int64, name string) string {
	switch {
	case num == 0:
		return "0"
	case num == 1 && den == 1:
		return name
	case num == -1 && den == 1:
		return "-" + name
	case num == 1:
		return fmt.Sprintf("%s/%d", name, den)
	case num == -1:
		return fmt.Sprintf("-%s/%d", name, den)
	case den == 1:
		return fmt.Sprintf("%d*%s", num, name)
	}
	return fmt.Sprintf("%d*%s/%d", num, name, den)
}
