// Package simplify drives the rule library to a fixpoint.
//
// A strategy applies one or more rules exhaustively and reports whether anything changed.
// Composite strategies interleave simpler ones until none of them fire; FullReduce is the main
// entry point.
package simplify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/2x3systems/gozx/zx"
	"github.com/pkg/errors"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// DefaultMaxIterations bounds every strategy loop.
const DefaultMaxIterations = 100

// Strategy is a named simplification pass over a diagram.
type Strategy func(d zx.Diagram, opts *Opts) (changed bool, err error)

// Opts tunes a simplification run.  A nil *Opts is the same as &Opts{}.
type Opts struct {
	Stats         *Stats // if set, receives per-rule rewrite counts
	MaxIterations int    // cap on each strategy loop; 0 means DefaultMaxIterations
	Quiet         bool   // suppresses per-pass progress logging
	PivotBoundary bool   // PivotSimp also applies boundary pivots

	applied int
	capped  bool // some loop stopped at MaxIterations
}

func (opts *Opts) maxIterations() int {
	if opts.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return opts.MaxIterations
}

// Stats tallies rewrites per rule name.
type Stats struct {
	counts map[string]int
	order  []string
}

func NewStats() *Stats {
	return &Stats{
		counts: make(map[string]int),
	}
}

// CountRewrites records that n rewrites of rule were applied.
func (st *Stats) CountRewrites(rule string, n int) {
	if st.counts == nil {
		st.counts = make(map[string]int)
	}
	if _, seen := st.counts[rule]; !seen {
		st.order = append(st.order, rule)
	}
	st.counts[rule] += n
}

// Count returns the number of rewrites recorded for rule.
func (st *Stats) Count(rule string) int {
	return st.counts[rule]
}

func (st *Stats) Total() int {
	total := 0
	for _, n := range st.counts {
		total += n
	}
	return total
}

// Rules returns the names of all rules with a recorded count, in first-seen order.
func (st *Stats) Rules() []string {
	return append([]string(nil), st.order...)
}

func (st *Stats) String() string {
	b := strings.Builder{}
	b.WriteString("REWRITES\n")
	for _, rule := range st.order {
		fmt.Fprintf(&b, "%6d %s\n", st.counts[rule], rule)
	}
	fmt.Fprintf(&b, "%6d TOTAL", st.Total())
	return b.String()
}

// Status says how a reduction loop ended.
type Status int

const (
	Converged Status = iota
	CapReached
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case CapReached:
		return "cap_reached"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result reports a FullReduce or ReduceScalar run.
type Result struct {
	Status     Status
	Iterations int // passes of the main loop
	Rewrites   int // total rule applications
}

var strategies = map[string]Strategy{
	"spider_simp":            SpiderSimp,
	"hadamard_simp":          HadamardSimp,
	"id_simp":                IDSimp,
	"pivot_simp":             PivotSimp,
	"pivot_boundary_simp":    PivotBoundarySimp,
	"pivot_gadget_simp":      PivotGadgetSimp,
	"lcomp_simp":             LcompSimp,
	"bialgebra_simp":         BialgebraSimp,
	"gadget_simp":            GadgetSimp,
	"to_gh":                  ToGH,
	"interior_clifford_simp": InteriorCliffordSimp,
	"clifford_simp":          CliffordSimp,
	"full_reduce":            asStrategy(FullReduce),
	"reduce_scalar":          asStrategy(ReduceScalar),
}

// Strategies returns the sorted names of all registered strategies.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StrategyByName looks up a registered strategy.
func StrategyByName(name string) (Strategy, error) {
	if fn := strategies[name]; fn != nil {
		return fn, nil
	}
	return nil, errors.Wrapf(ErrUnknownStrategy, "%q", name)
}

func asStrategy(reduce func(zx.Diagram, *Opts) (Result, error)) Strategy {
	return func(d zx.Diagram, opts *Opts) (bool, error) {
		res, err := reduce(d, opts)
		return res.Rewrites > 0, err
	}
}
