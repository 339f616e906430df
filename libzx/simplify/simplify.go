package simplify

import (
	"github.com/2x3systems/gozx/libzx/rules"
	"github.com/2x3systems/gozx/zx"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
)

func normalize(opts *Opts) *Opts {
	if opts == nil {
		return &Opts{}
	}
	return opts
}

// exhaust applies r until it no longer matches, recording the count.
func exhaust(d zx.Diagram, opts *Opts, r rules.Rule) (int, error) {
	n, err := rules.Exhaust(d, r)
	if n > 0 {
		opts.applied += n
		if opts.Stats != nil {
			opts.Stats.CountRewrites(r.Name(), n)
		}
		if !opts.Quiet {
			klog.V(1).Infof("%s: %d applied (%s)", r.Name(), n, d.ID())
		}
	}
	if err != nil {
		return n, errors.Wrapf(err, "rule %q", r.Name())
	}
	return n, nil
}

// repeat applies each of rs exhaustively in turn until a full pass changes nothing.
func repeat(d zx.Diagram, opts *Opts, rs ...rules.Rule) (bool, error) {
	changed := false
	for i := 0; i < opts.maxIterations(); i++ {
		pass := 0
		for _, r := range rs {
			n, err := exhaust(d, opts, r)
			if err != nil {
				return changed, err
			}
			pass += n
		}
		if pass == 0 {
			return changed, nil
		}
		changed = true
	}
	klog.Warningf("%s: rule loop stopped after %d passes", d.ID(), opts.maxIterations())
	opts.capped = true
	return changed, nil
}

func SpiderSimp(d zx.Diagram, opts *Opts) (bool, error) {
	return repeat(d, normalize(opts), rules.SpiderFusion, rules.SelfLoopRemoval)
}

// HadamardSimp clears Hadamard self-loops, turns 2-legged H-boxes into edges and removes identities.
func HadamardSimp(d zx.Diagram, opts *Opts) (bool, error) {
	return repeat(d, normalize(opts), rules.SelfLoopRemoval, rules.HBoxToEdge, rules.IdentityRemoval)
}

func IDSimp(d zx.Diagram, opts *Opts) (bool, error) {
	return repeat(d, normalize(opts), rules.IdentityRemoval)
}

// PivotSimp applies two-interior pivots, plus boundary pivots if opts.PivotBoundary is set.
func PivotSimp(d zx.Diagram, opts *Opts) (bool, error) {
	opts = normalize(opts)
	if opts.PivotBoundary {
		return repeat(d, opts, rules.Pivot, rules.PivotBoundary)
	}
	return repeat(d, opts, rules.Pivot)
}

func PivotBoundarySimp(d zx.Diagram, opts *Opts) (bool, error) {
	return repeat(d, normalize(opts), rules.PivotBoundary)
}

func PivotGadgetSimp(d zx.Diagram, opts *Opts) (bool, error) {
	return repeat(d, normalize(opts), rules.PivotGadget)
}

func LcompSimp(d zx.Diagram, opts *Opts) (bool, error) {
	return repeat(d, normalize(opts), rules.LocalComplement)
}

func BialgebraSimp(d zx.Diagram, opts *Opts) (bool, error) {
	return repeat(d, normalize(opts), rules.Bialgebra)
}

func GadgetSimp(d zx.Diagram, opts *Opts) (bool, error) {
	return repeat(d, normalize(opts), rules.GadgetFusion)
}

// ToGH recolors the diagram into graph-like form: Z spiders only.
func ToGH(d zx.Diagram, opts *Opts) (bool, error) {
	opts = normalize(opts)
	n, err := exhaust(d, opts, rules.ToGH)
	return n > 0, err
}

// loop runs body until it reports no change or the iteration cap is hit, which marks opts capped.
func loop(d zx.Diagram, opts *Opts, name string, body func() (bool, error)) (iters int, err error) {
	for iters < opts.maxIterations() {
		iters++
		more, err := body()
		if err != nil {
			return iters, errors.Wrap(err, name)
		}
		if !more {
			return iters, nil
		}
	}
	klog.Warningf("%s: %s stopped after %d iterations", d.ID(), name, iters)
	opts.capped = true
	return iters, nil
}

// InteriorCliffordSimp removes every interior Clifford spider it can reach with identity removal,
// fusion, interior pivots and local complementation.
func InteriorCliffordSimp(d zx.Diagram, opts *Opts) (bool, error) {
	opts = normalize(opts)
	before := opts.applied

	if _, err := SpiderSimp(d, opts); err != nil {
		return false, err
	}
	if _, err := ToGH(d, opts); err != nil {
		return false, err
	}

	interior := *opts
	interior.PivotBoundary = false
	_, err := loop(d, opts, "interior_clifford_simp", func() (bool, error) {
		fired := false
		for _, pass := range []Strategy{IDSimp, SpiderSimp, PivotSimp, LcompSimp} {
			changed, err := pass(d, &interior)
			if err != nil {
				return false, err
			}
			fired = fired || changed
		}
		return fired, nil
	})
	opts.applied = interior.applied
	opts.capped = opts.capped || interior.capped
	return opts.applied > before, err
}

// CliffordSimp alternates InteriorCliffordSimp with boundary pivots until the latter stops firing.
func CliffordSimp(d zx.Diagram, opts *Opts) (bool, error) {
	opts = normalize(opts)
	before := opts.applied
	_, err := loop(d, opts, "clifford_simp", func() (bool, error) {
		if _, err := InteriorCliffordSimp(d, opts); err != nil {
			return false, err
		}
		return PivotBoundarySimp(d, opts)
	})
	return opts.applied > before, err
}

// FullReduce is the main simplification routine: Clifford simplification interleaved with
// pivot gadgets and gadget fusion until the gadget passes stop firing.
func FullReduce(d zx.Diagram, opts *Opts) (Result, error) {
	opts = normalize(opts)
	opts.capped = false
	before := opts.applied
	res := Result{}

	if _, err := InteriorCliffordSimp(d, opts); err != nil {
		return res, err
	}
	if _, err := PivotGadgetSimp(d, opts); err != nil {
		return res, err
	}

	iters, err := loop(d, opts, "full_reduce", func() (bool, error) {
		if _, err := CliffordSimp(d, opts); err != nil {
			return false, err
		}
		i, err := GadgetSimp(d, opts)
		if err != nil {
			return false, err
		}
		if _, err := InteriorCliffordSimp(d, opts); err != nil {
			return false, err
		}
		j, err := PivotGadgetSimp(d, opts)
		if err != nil {
			return false, err
		}
		return i || j, nil
	})
	res.Iterations = iters
	res.Rewrites = opts.applied - before
	if err != nil {
		return res, err
	}
	if opts.capped {
		res.Status = CapReached
	}

	if err = d.RemoveIsolatedVertices(); err != nil {
		return res, err
	}
	if !opts.Quiet {
		klog.Infof("%s: full_reduce %v after %d iterations, %d rewrites", d.ID(), res.Status, res.Iterations, res.Rewrites)
	}
	return res, nil
}

// ReduceScalar is a reduction for diagrams without boundaries: it never applies boundary pivots.
func ReduceScalar(d zx.Diagram, opts *Opts) (Result, error) {
	opts = normalize(opts)
	opts.capped = false
	before := opts.applied
	res := Result{}

	if _, err := ToGH(d, opts); err != nil {
		return res, err
	}

	interior := *opts
	interior.PivotBoundary = false
	basic := []Strategy{SpiderSimp, HadamardSimp, PivotSimp, LcompSimp}
	gadgets := []Strategy{PivotGadgetSimp, GadgetSimp}

	iters, err := loop(d, opts, "reduce_scalar", func() (bool, error) {
		for _, passes := range [][]Strategy{basic, gadgets} {
			fired := false
			for _, pass := range passes {
				changed, err := pass(d, &interior)
				if err != nil {
					return false, err
				}
				fired = fired || changed
			}
			if fired {
				return true, nil
			}
		}
		return false, nil
	})
	opts.applied = interior.applied
	opts.capped = opts.capped || interior.capped
	res.Iterations = iters
	res.Rewrites = opts.applied - before
	if err != nil {
		return res, err
	}
	if opts.capped {
		res.Status = CapReached
	}
	return res, d.RemoveIsolatedVertices()
}

// CustomReduce applies the named rules to a joint fixpoint.
func CustomReduce(d zx.Diagram, ruleNames []string, opts *Opts) (bool, error) {
	rs := make([]rules.Rule, 0, len(ruleNames))
	for _, name := range ruleNames {
		r, err := rules.ByName(name)
		if err != nil {
			return false, err
		}
		rs = append(rs, r)
	}
	return repeat(d, normalize(opts), rs...)
}
