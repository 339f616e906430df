// Package rules is the library of diagram rewrites.
//
// Every rule reads and writes its diagram only through zx.Diagram, and each application of a
// rule runs inside a single Diagram.Apply so a KV-backed diagram commits it atomically.
package rules

import (
	"sort"

	"github.com/2x3systems/gozx/zx"
	"github.com/pkg/errors"
)

var (
	ErrUnknownRule = errors.New("unknown rule")
)

// Rule is a single rewrite: a precondition (match) paired with its effect (apply).
type Rule interface {

	// Name is the registry name of this rule, e.g. "spider_fusion".
	Name() string

	// Match reports whether the rule has a match in d without changing d.
	Match(d zx.Diagram) (bool, error)

	// Step finds one match and applies it, returning false if there was no match.
	// If the apply fails, a KV-backed diagram is left as it was; a memory diagram keeps
	// whatever edits were made before the failure.
	Step(d zx.Diagram) (bool, error)
}

// Exhaust applies r until it no longer matches and returns the number of applications.
func Exhaust(d zx.Diagram, r Rule) (int, error) {
	count := 0
	for {
		applied, err := r.Step(d)
		if err != nil {
			return count, err
		}
		if !applied {
			return count, nil
		}
		count++
	}
}

var (
	SpiderFusion    Rule = spiderFusion
	IdentityRemoval Rule = identityRemoval
	SelfLoopRemoval Rule = selfLoopRemoval
	HBoxToEdge      Rule = hboxToEdge
	ToGH            Rule = toGH
	Pivot           Rule = pivotInterior
	PivotBoundary   Rule = pivotBoundary
	PivotGadget     Rule = pivotGadget
	LocalComplement Rule = localComplement
	GadgetFusion    Rule = gadgetFusion
	Bialgebra       Rule = bialgebra
)

// All returns every rule in the library.
func All() []Rule {
	return []Rule{
		SpiderFusion,
		IdentityRemoval,
		SelfLoopRemoval,
		HBoxToEdge,
		ToGH,
		Pivot,
		PivotBoundary,
		PivotGadget,
		LocalComplement,
		GadgetFusion,
		Bialgebra,
	}
}

// Names returns the sorted names of all rules.
func Names() []string {
	var names []string
	for _, r := range All() {
		names = append(names, r.Name())
	}
	sort.Strings(names)
	return names
}

// ByName looks up a rule by its registry name.
func ByName(name string) (Rule, error) {
	for _, r := range All() {
		if r.Name() == name {
			return r, nil
		}
	}
	return nil, errors.Wrapf(ErrUnknownRule, "%q", name)
}

// rule pairs a match func with an apply func over a match type M.
type rule[M any] struct {
	name  string
	match func(v *view) (M, bool)
	apply func(v *view, m M)
}

func (r *rule[M]) Name() string {
	return r.name
}

func (r *rule[M]) Match(d zx.Diagram) (bool, error) {
	v := &view{d: d}
	_, found := r.match(v)
	return found && v.err == nil, v.err
}

func (r *rule[M]) Step(d zx.Diagram) (applied bool, err error) {
	err = d.Apply(func(tx zx.Diagram) error {
		v := &view{d: tx}
		m, found := r.match(v)
		if v.err != nil || !found {
			return v.err
		}
		r.apply(v, m)
		if v.err != nil {
			return v.err
		}
		applied = true
		return nil
	})
	return applied, err
}
