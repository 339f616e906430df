package codec

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/2x3systems/gozx/zx"
	"github.com/2x3systems/gozx/zx/phase"
	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// DiagramExpr is the participle grammar of the text format: statements separated by ";".
//
//	in 1; out 4; scalar pow -1 phase(1/4);
//	1: B @0,0; 2: Z(1/4) @0,1; 3: X @0,2; 4: B @0,3;
//	1 - 2 ~ 3 - 4
//
// "-" is a Plain edge and "~" a Hadamard edge.  A vertex named in an edge run but never declared
// is a phase-0 Z spider.
type DiagramExpr struct {
	Stmts []*StmtExpr `( @@ ( ";" @@ )* ";"? )?`
}

type StmtExpr struct {
	Inputs  *IOExpr     `  "in" @@`
	Outputs *IOExpr     `| "out" @@`
	Scalar  *ScalarExpr `| "scalar" @@`
	Vertex  *VertexExpr `| @@`
	Run     *RunExpr    `| @@`
}

type IOExpr struct {
	IDs []int64 `@Int*`
}

type ScalarExpr struct {
	Terms []*ScalarTerm `@@*`
}

type ScalarTerm struct {
	Power *string       `  "pow" @( "-"? Int )`
	Phase *phase.Expr   `| "phase" "(" @@ ")"`
	Node  *phase.Expr   `| "node" "(" @@ ")"`
	Pair  []*phase.Expr `| "pair" "(" @@ "," @@ ")"`
	Zero  bool          `| @"zero"`
}

type VertexExpr struct {
	ID    int64       `@Int ":"`
	Kind  string      `@Ident`
	Phase *phase.Expr `( "(" @@ ")" )?`
	Qubit string      `( "@" @( "-"? ( Float | Int ) )`
	Row   string      `  "," @( "-"? ( Float | Int ) ) )?`
}

type RunExpr struct {
	Start int64      `@Int`
	Edges []*EdgeDst `@@+`
}

type EdgeDst struct {
	Kind string `@( "-" | "~" )`
	End  int64  `@Int`
}

var parseDiagramExpr = participle.MustBuild[DiagramExpr](participle.UseLookahead(2))

// ParseText parses the text format without loading it.
func ParseText(src string) (*DiagramExpr, error) {
	expr, err := parseDiagramExpr.ParseString("", src)
	if err != nil {
		return nil, errors.Wrap(ErrBadFormat, err.Error())
	}
	return expr, nil
}

// LoadText parses src and appends its contents to d.
func LoadText(d zx.Diagram, src string) error {
	expr, err := ParseText(src)
	if err != nil {
		return err
	}
	return expr.Load(d)
}

// textBuilder maps the labels used in a text document onto vertices of the target diagram.
type textBuilder struct {
	d      zx.Diagram
	labels map[int64]zx.VtxID
}

func (Xb *textBuilder) vtx(label int64) (zx.VtxID, error) {
	if v, ok := Xb.labels[label]; ok {
		return v, nil
	}
	v, err := Xb.d.AddVertex(zx.Z, -1, -1)
	if err != nil {
		return 0, err
	}
	Xb.labels[label] = v
	return v, nil
}

func (Xb *textBuilder) ids(labels []int64) ([]zx.VtxID, error) {
	vs := make([]zx.VtxID, len(labels))
	for i, label := range labels {
		v, ok := Xb.labels[label]
		if !ok {
			return nil, errors.Wrapf(ErrBadFormat, "input/output %d is not a declared vertex", label)
		}
		vs[i] = v
	}
	return vs, nil
}

// Load adds the vertices and edges of expr to d.  Vertices are declared first, in label order,
// so the ids d assigns follow the labels; edges are stored verbatim with PutEdge.
func (expr *DiagramExpr) Load(d zx.Diagram) error {
	Xb := &textBuilder{
		d:      d,
		labels: make(map[int64]zx.VtxID),
	}

	var decls []*VertexExpr
	for _, st := range expr.Stmts {
		if st.Vertex != nil {
			decls = append(decls, st.Vertex)
		}
	}
	sort.SliceStable(decls, func(i, j int) bool {
		return decls[i].ID < decls[j].ID
	})
	for _, vx := range decls {
		if _, dup := Xb.labels[vx.ID]; dup {
			return errors.Wrapf(ErrBadFormat, "vertex %d declared twice", vx.ID)
		}
		v, err := vx.add(d)
		if err != nil {
			return err
		}
		Xb.labels[vx.ID] = v
	}

	var ins, outs []int64
	var scalar *zx.Scalar
	for _, st := range expr.Stmts {
		switch {
		case st.Inputs != nil:
			ins = append(ins, st.Inputs.IDs...)
		case st.Outputs != nil:
			outs = append(outs, st.Outputs.IDs...)
		case st.Scalar != nil:
			s, err := st.Scalar.Scalar()
			if err != nil {
				return err
			}
			scalar = &s
		case st.Run != nil:
			if err := Xb.applyRun(st.Run); err != nil {
				return err
			}
		}
	}

	if len(ins) > 0 {
		vs, err := Xb.ids(ins)
		if err != nil {
			return err
		}
		if err = d.SetInputs(vs); err != nil {
			return err
		}
	}
	if len(outs) > 0 {
		vs, err := Xb.ids(outs)
		if err != nil {
			return err
		}
		if err = d.SetOutputs(vs); err != nil {
			return err
		}
	}
	if scalar != nil {
		return d.SetScalar(*scalar)
	}
	return nil
}

func (vx *VertexExpr) add(d zx.Diagram) (zx.VtxID, error) {
	vt, err := zx.ParseVertexType(vx.Kind)
	if err != nil {
		return 0, errors.Wrapf(err, "vertex %d", vx.ID)
	}
	qubit, row := -1.0, -1.0
	if vx.Qubit != "" {
		if qubit, err = strconv.ParseFloat(vx.Qubit, 64); err != nil {
			return 0, errors.Wrapf(ErrBadFormat, "vertex %d: %v", vx.ID, err)
		}
		if row, err = strconv.ParseFloat(vx.Row, 64); err != nil {
			return 0, errors.Wrapf(ErrBadFormat, "vertex %d: %v", vx.ID, err)
		}
	}
	if vx.Phase == nil {
		return d.AddVertex(vt, qubit, row)
	}
	ph, err := vx.Phase.Phase()
	if err != nil {
		return 0, errors.Wrapf(err, "vertex %d", vx.ID)
	}
	return d.AddVertex(vt, qubit, row, ph)
}

func (Xb *textBuilder) applyRun(run *RunExpr) error {
	cur, err := Xb.vtx(run.Start)
	if err != nil {
		return err
	}
	for _, edge := range run.Edges {
		next, err := Xb.vtx(edge.End)
		if err != nil {
			return err
		}
		et := zx.Plain
		if edge.Kind == "~" {
			et = zx.Hadamard
		}
		if _, err = Xb.d.PutEdge(cur, next, et); err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// Scalar evaluates the scalar statement.
func (sx *ScalarExpr) Scalar() (zx.Scalar, error) {
	var s zx.Scalar
	for _, t := range sx.Terms {
		switch {
		case t.Power != nil:
			n, err := strconv.Atoi(*t.Power)
			if err != nil {
				return s, errors.Wrap(ErrBadFormat, err.Error())
			}
			s.Power2 += n
		case t.Phase != nil:
			ph, err := t.Phase.Phase()
			if err != nil {
				return s, err
			}
			s.Phase = s.Phase.Add(ph)
		case t.Node != nil:
			ph, err := t.Node.Phase()
			if err != nil {
				return s, err
			}
			s.PhaseNodes = append(s.PhaseNodes, ph)
		case len(t.Pair) == 2:
			a, err := t.Pair[0].Phase()
			if err != nil {
				return s, err
			}
			b, err := t.Pair[1].Phase()
			if err != nil {
				return s, err
			}
			s.Pairs = append(s.Pairs, zx.PhasePair{A: a, B: b})
		case t.Zero:
			s.IsZero = true
		}
	}
	return s, nil
}

// WriteText writes d in the text format, one statement per line.
func WriteText(w io.Writer, d zx.Diagram) error {
	ins, err := d.Inputs()
	if err != nil {
		return err
	}
	outs, err := d.Outputs()
	if err != nil {
		return err
	}
	s, err := d.Scalar()
	if err != nil {
		return err
	}

	b := &strings.Builder{}
	fmt.Fprintf(b, "in%s;\nout%s;\n", idList(ins), idList(outs))
	if !s.IsOne() {
		fmt.Fprintf(b, "scalar%s;\n", formatScalar(s))
	}

	vs, err := d.Vertices()
	if err != nil {
		return err
	}
	for _, v := range vs {
		vt, err := d.Type(v)
		if err != nil {
			return err
		}
		ph, err := d.Phase(v)
		if err != nil {
			return err
		}
		q, err := d.Qubit(v)
		if err != nil {
			return err
		}
		r, err := d.Row(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "%d: %v(%v) @%s,%s;\n", v, vt, ph, formatFloat(q), formatFloat(r))
	}

	es, err := d.Edges()
	if err != nil {
		return err
	}
	for _, e := range es {
		et, err := d.EdgeType(e)
		if err != nil {
			return err
		}
		op := "-"
		if et == zx.Hadamard {
			op = "~"
		}
		fmt.Fprintf(b, "%d %s %d;\n", e.S, op, e.T)
	}

	_, err = io.WriteString(w, b.String())
	return err
}

// FormatText returns d in the text format.
func FormatText(d zx.Diagram) (string, error) {
	b := &strings.Builder{}
	err := WriteText(b, d)
	return b.String(), err
}

func idList(vs []zx.VtxID) string {
	b := strings.Builder{}
	for _, v := range vs {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatInt(int64(v), 10))
	}
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatScalar(s zx.Scalar) string {
	if s.IsZero {
		return " zero"
	}
	b := strings.Builder{}
	if s.Power2 != 0 {
		fmt.Fprintf(&b, " pow %d", s.Power2)
	}
	if !s.Phase.IsZero() {
		fmt.Fprintf(&b, " phase(%v)", s.Phase)
	}
	for _, n := range s.PhaseNodes {
		fmt.Fprintf(&b, " node(%v)", n)
	}
	for _, pr := range s.Pairs {
		fmt.Fprintf(&b, " pair(%v, %v)", pr.A, pr.B)
	}
	return b.String()
}
