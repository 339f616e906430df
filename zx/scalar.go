package zx

import (
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"github.com/2x3systems/gozx/zx/phase"
)

// Scalar is the global factor a Diagram carries beyond its normalized linear map:
//
//	√2^Power2 · e^(iπ·Phase) · Π(1 + e^(iπ·n)) · Π(1 + e^(iπ·a) + e^(iπ·b) - e^(iπ·(a+b)))
//
// The zero value is the scalar 1.
type Scalar struct {
	Power2     int           // exponent of √2; a power of two 2^k is held as Power2 += 2k
	Phase      phase.Phase   // global phase
	PhaseNodes []phase.Phase // each a factor 1 + e^(iπ·n)
	Pairs      []PhasePair   // spider pair factors (the 1/√2 of each pair is in Power2)
	IsZero     bool
}

// PhasePair is a factor 1 + e^(iπ·A) + e^(iπ·B) - e^(iπ·(A+B)) left by an isolated pair of
// differently joined spiders.
type PhasePair struct {
	A, B phase.Phase
}

// AddPower multiplies s by √2^n.
func (s *Scalar) AddPower(n int) {
	s.Power2 += n
}

// AddPhase multiplies s by e^(iπ·p).
func (s *Scalar) AddPhase(p phase.Phase) {
	s.Phase = s.Phase.Add(p)
}

// AddNode multiplies s by 1 + e^(iπ·p).
func (s *Scalar) AddNode(p phase.Phase) {
	num, den, ok := p.Frac()
	switch {
	case !ok:
		s.PhaseNodes = append(s.PhaseNodes, p)
	case num == 0:
		s.Power2 += 2
	case num == 1 && den == 1:
		s.IsZero = true
	case num == 1 && den == 2: // 1 + i
		s.Power2++
		s.AddPhase(phase.Quarter)
	case num == 3 && den == 2: // 1 - i
		s.Power2++
		s.AddPhase(phase.Quarter.Neg())
	default:
		s.PhaseNodes = append(s.PhaseNodes, p)
	}
}

// AddSpiderPair multiplies s by (1 + e^(iπ·a) + e^(iπ·b) - e^(iπ·(a+b))) / √2,
// the value of two 1-legged spiders of a and b joined by a Hadamard wire.
func (s *Scalar) AddSpiderPair(a, b phase.Phase) {
	switch {
	case a.IsZero():
		s.Power2++
	case b.IsZero():
		s.Power2++
	case a.Equal(phase.One):
		s.Power2++
		s.AddPhase(b)
	case b.Equal(phase.One):
		s.Power2++
		s.AddPhase(a)
	default:
		s.Power2--
		s.Pairs = append(s.Pairs, PhasePair{a, b})
	}
}

// Mul multiplies s by t.
func (s *Scalar) Mul(t Scalar) {
	s.Power2 += t.Power2
	s.Phase = s.Phase.Add(t.Phase)
	s.PhaseNodes = append(s.PhaseNodes, t.PhaseNodes...)
	s.Pairs = append(s.Pairs, t.Pairs...)
	s.IsZero = s.IsZero || t.IsZero
}

// Clone returns a copy of s that shares no slices with s.
func (s Scalar) Clone() Scalar {
	dup := s
	dup.PhaseNodes = append([]phase.Phase(nil), s.PhaseNodes...)
	dup.Pairs = append([]PhasePair(nil), s.Pairs...)
	return dup
}

// IsOne reports if s is exactly 1 in its normalized form.
func (s Scalar) IsOne() bool {
	return !s.IsZero && s.Power2 == 0 && s.Phase.IsZero() && len(s.PhaseNodes) == 0 && len(s.Pairs) == 0
}

// Complex evaluates s, using params for any symbolic phases.
func (s Scalar) Complex(params map[string]float64) (complex128, error) {
	if s.IsZero {
		return 0, nil
	}
	val := complex(math.Pow(math.Sqrt2, float64(s.Power2)), 0)

	expi := func(p phase.Phase) (complex128, error) {
		f, err := p.Float(params)
		if err != nil {
			return 0, err
		}
		return cmplx.Exp(complex(0, math.Pi*f)), nil
	}

	e, err := expi(s.Phase)
	if err != nil {
		return 0, err
	}
	val *= e

	for _, n := range s.PhaseNodes {
		e, err := expi(n)
		if err != nil {
			return 0, err
		}
		val *= 1 + e
	}
	for _, pr := range s.Pairs {
		ea, err := expi(pr.A)
		if err != nil {
			return 0, err
		}
		eb, err := expi(pr.B)
		if err != nil {
			return 0, err
		}
		val *= 1 + ea + eb - ea*eb
	}
	return val, nil
}

func (s Scalar) String() string {
	if s.IsZero {
		return "0"
	}
	var parts []string
	if s.Power2 != 0 {
		parts = append(parts, "sqrt2^"+strconv.Itoa(s.Power2))
	}
	if !s.Phase.IsZero() {
		parts = append(parts, "exp(i*pi*("+s.Phase.String()+"))")
	}
	for _, n := range s.PhaseNodes {
		parts = append(parts, "(1+exp(i*pi*("+n.String()+")))")
	}
	for _, pr := range s.Pairs {
		parts = append(parts, "pair("+pr.A.String()+", "+pr.B.String()+")")
	}
	if len(parts) == 0 {
		return "1"
	}
	return strings.Join(parts, " * ")
}
