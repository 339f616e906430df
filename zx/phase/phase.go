// Package phase implements spider phases: angles in units of π, either an exact rational
// reduced mod 2 or a linear polynomial over named free parameters.
package phase

import (
	"github.com/pkg/errors"
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnboundParam = errors.New("phase parameter has no assignment")
	ErrBadPhase     = errors.New("bad phase expression")
)

// Phase is a value type; the zero value is the phase 0.
//
// A numeric Phase is a single rational constant kept in [0, 2).
// A symbolic Phase adds terms of the form coef*name; only the constant is reduced mod 2.
type Phase struct {
	c     frac
	terms []term
}

type term struct {
	name string
	coef frac
}

var (
	Zero       = Phase{}
	One        = New(1, 1)
	Half       = New(1, 2)
	ThreeHalfs = New(3, 2)
	Quarter    = New(1, 4)
)

// New returns the numeric phase num/den (in units of π), reduced mod 2.
func New(num, den int64) Phase {
	return Phase{c: mkFrac(num, den).mod2()}
}

// Param returns the symbolic phase 1*name.
func Param(name string) Phase {
	return Phase{
		terms: []term{{name: name, coef: frac{1, 1}}},
	}
}

// Sym returns the symbolic phase (num/den)*name.
func Sym(name string, num, den int64) Phase {
	coef := mkFrac(num, den)
	if coef.n == 0 {
		return Zero
	}
	return Phase{
		terms: []term{{name: name, coef: coef}},
	}
}

func (p Phase) IsNumeric() bool {
	return len(p.terms) == 0
}

func (p Phase) IsZero() bool {
	return len(p.terms) == 0 && p.c.n == 0
}

// IsPauli reports if p is numeric and a multiple of π (0 or 1).
func (p Phase) IsPauli() bool {
	return len(p.terms) == 0 && p.c.den() == 1
}

// IsProperClifford reports if p is numeric and one of π/2, 3π/2.
func (p Phase) IsProperClifford() bool {
	return len(p.terms) == 0 && p.c.den() == 2
}

func (p Phase) IsClifford() bool {
	return p.IsPauli() || p.IsProperClifford()
}

// Frac returns the reduced numerator and denominator of a numeric phase.
func (p Phase) Frac() (num, den int64, ok bool) {
	if len(p.terms) > 0 {
		return 0, 0, false
	}
	return p.c.n, p.c.den(), true
}

// Params lists the parameter names p depends on, sorted.
func (p Phase) Params() []string {
	names := make([]string, len(p.terms))
	for i, t := range p.terms {
		names[i] = t.name
	}
	return names
}

// Coef returns the coefficient of the parameter name in p, 0/1 if p does not depend on it.
func (p Phase) Coef(name string) (num, den int64) {
	for _, t := range p.terms {
		if t.name == name {
			return t.coef.n, t.coef.den()
		}
	}
	return 0, 1
}

// Const returns the numeric part of p.
func (p Phase) Const() Phase {
	return Phase{c: p.c}
}

func (p Phase) Add(q Phase) Phase {
	sum := Phase{
		c: p.c.add(q.c).mod2(),
	}
	if len(p.terms)+len(q.terms) == 0 {
		return sum
	}

	sum.terms = make([]term, 0, len(p.terms)+len(q.terms))
	i, j := 0, 0
	for i < len(p.terms) || j < len(q.terms) {
		switch {
		case j >= len(q.terms) || (i < len(p.terms) && p.terms[i].name < q.terms[j].name):
			sum.terms = append(sum.terms, p.terms[i])
			i++
		case i >= len(p.terms) || q.terms[j].name < p.terms[i].name:
			sum.terms = append(sum.terms, q.terms[j])
			j++
		default:
			coef := p.terms[i].coef.add(q.terms[j].coef)
			if coef.n != 0 {
				sum.terms = append(sum.terms, term{name: p.terms[i].name, coef: coef})
			}
			i++
			j++
		}
	}
	if len(sum.terms) == 0 {
		sum.terms = nil
	}
	return sum
}

func (p Phase) Neg() Phase {
	neg := Phase{
		c: frac{-p.c.n, p.c.den()}.mod2(),
	}
	if len(p.terms) > 0 {
		neg.terms = make([]term, len(p.terms))
		for i, t := range p.terms {
			neg.terms[i] = term{name: t.name, coef: frac{-t.coef.n, t.coef.den()}}
		}
	}
	return neg
}

// Scale multiplies p by num/den.  The constant is scaled from its reduced value in [0, 2).
func (p Phase) Scale(num, den int64) Phase {
	k := mkFrac(num, den)
	mul := func(f frac) frac {
		return mkFrac(f.n*k.n, f.den()*k.den())
	}
	out := Phase{
		c: mul(p.c).mod2(),
	}
	if len(p.terms) > 0 && k.n != 0 {
		out.terms = make([]term, len(p.terms))
		for i, t := range p.terms {
			out.terms[i] = term{name: t.name, coef: mul(t.coef)}
		}
	}
	return out
}

func (p Phase) Sub(q Phase) Phase {
	return p.Add(q.Neg())
}

func (p Phase) Equal(q Phase) bool {
	if p.c.n != q.c.n || p.c.den() != q.c.den() || len(p.terms) != len(q.terms) {
		return false
	}
	for i := range p.terms {
		if p.terms[i].name != q.terms[i].name || p.terms[i].coef != q.terms[i].coef {
			return false
		}
	}
	return true
}

// Float evaluates p (in units of π) under the given parameter assignment.
func (p Phase) Float(params map[string]float64) (float64, error) {
	val := p.c.float()
	for _, t := range p.terms {
		x, ok := params[t.name]
		if !ok {
			return 0, ErrUnboundParam
		}
		val += t.coef.float() * x
	}
	return val, nil
}

// Radians is a convenience for numeric phases; symbolic terms are ignored.
func (p Phase) Radians() float64 {
	return p.c.float() * math.Pi
}

// String renders p in the form accepted by Parse, e.g. "3/4", "a - 1/2*b + 1/4".
func (p Phase) String() string {
	if len(p.terms) == 0 {
		return p.c.String()
	}

	b := strings.Builder{}
	for i, t := range p.terms {
		coef := t.coef
		if coef.n < 0 {
			if i == 0 {
				b.WriteByte('-')
			} else {
				b.WriteString(" - ")
			}
			coef.n = -coef.n
		} else if i > 0 {
			b.WriteString(" + ")
		}
		if coef.n != 1 || coef.den() != 1 {
			b.WriteString(coef.String())
			b.WriteByte('*')
		}
		b.WriteString(t.name)
	}
	if p.c.n != 0 {
		b.WriteString(" + ")
		b.WriteString(p.c.String())
	}
	return b.String()
}

func (p Phase) normalize() Phase {
	sort.Slice(p.terms, func(i, j int) bool {
		return p.terms[i].name < p.terms[j].name
	})
	out := p.terms[:0]
	for _, t := range p.terms {
		if n := len(out); n > 0 && out[n-1].name == t.name {
			out[n-1].coef = out[n-1].coef.add(t.coef)
			if out[n-1].coef.n == 0 {
				out = out[:n-1]
			}
			continue
		}
		if t.coef.n != 0 {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = nil
	}
	p.terms = out
	p.c = p.c.mod2()
	return p
}

// frac is a reduced rational; d == 0 is read as 1 so the zero value is 0.
type frac struct {
	n, d int64
}

func mkFrac(num, den int64) frac {
	if den == 0 {
		panic("phase: zero denominator")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return frac{num, den}
}

func (f frac) den() int64 {
	if f.d == 0 {
		return 1
	}
	return f.d
}

func (f frac) add(g frac) frac {
	fd, gd := f.den(), g.den()
	l := fd / gcd(fd, gd) * gd
	return mkFrac(f.n*(l/fd)+g.n*(l/gd), l)
}

// mod2 maps f into [0, 2).
func (f frac) mod2() frac {
	d := f.den()
	n := f.n % (2 * d)
	if n < 0 {
		n += 2 * d
	}
	return mkFrac(n, d)
}

func (f frac) float() float64 {
	return float64(f.n) / float64(f.den())
}

func (f frac) String() string {
	if f.den() == 1 {
		return strconv.FormatInt(f.n, 10)
	}
	return strconv.FormatInt(f.n, 10) + "/" + strconv.FormatInt(f.den(), 10)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}
