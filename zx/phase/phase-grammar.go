package phase

import (
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

// Expr is the participle grammar for phases, e.g. "1/4", "-a", "3/2*theta + 1".
// Grammar structs are exported so other grammars can embed a phase.
type Expr struct {
	Head *TermExpr  `@@`
	Tail []*OpTerm `@@*`
}

type OpTerm struct {
	Op   string    `@( "+" | "-" )`
	Term *TermExpr `@@`
}

type TermExpr struct {
	Neg    bool   `@"-"?`
	Num    string `( @Int`
	Den    string `  ( "/" @Int )?`
	Coef   string `  ( "*"? @Ident )?`
	Sym    string `| @Ident`
	SymDen string `  ( "/" @Int )? )`
}

var parsePhaseExpr = participle.MustBuild[Expr]()

// Parse reads a phase written in the form produced by Phase.String.
func Parse(str string) (Phase, error) {
	expr, err := parsePhaseExpr.ParseString("", str)
	if err != nil {
		return Zero, errors.Wrapf(ErrBadPhase, "%q: %v", str, err)
	}
	return expr.Phase()
}

// MustParse is Parse for fixtures; it panics on error.
func MustParse(str string) Phase {
	p, err := Parse(str)
	if err != nil {
		panic(err)
	}
	return p
}

// Phase evaluates a parsed expression.
func (expr *Expr) Phase() (Phase, error) {
	sum, err := expr.Head.phase()
	if err != nil {
		return Zero, err
	}
	for _, op := range expr.Tail {
		p, err := op.Term.phase()
		if err != nil {
			return Zero, err
		}
		if op.Op == "-" {
			p = p.Neg()
		}
		sum = sum.Add(p)
	}
	return sum, nil
}

func (t *TermExpr) phase() (Phase, error) {
	var p Phase
	if len(t.Sym) > 0 {
		den, err := atoiOr(t.SymDen, 1)
		if err != nil {
			return Zero, err
		}
		if den == 0 {
			return Zero, errors.Wrap(ErrBadPhase, "zero denominator")
		}
		p = Phase{terms: []term{{name: t.Sym, coef: mkFrac(1, den)}}}
	} else {
		num, err := atoiOr(t.Num, 0)
		if err != nil {
			return Zero, err
		}
		den, err := atoiOr(t.Den, 1)
		if err != nil {
			return Zero, err
		}
		if den == 0 {
			return Zero, errors.Wrap(ErrBadPhase, "zero denominator")
		}
		if len(t.Coef) > 0 {
			p = Phase{terms: []term{{name: t.Coef, coef: mkFrac(num, den)}}}
		} else {
			p = Phase{c: mkFrac(num, den)}
		}
	}
	if t.Neg {
		p = p.Neg()
	}
	return p.normalize(), nil
}

func atoiOr(s string, def int64) (int64, error) {
	if len(s) == 0 {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrBadPhase, err.Error())
	}
	return v, nil
}
