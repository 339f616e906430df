// Package runner executes named rules and strategies against diagrams, recording counts, timings,
// metrics and trace spans.  It is an operational tool; correctness lives in rules and simplify.
package runner

import (
	"time"

	"github.com/2x3systems/gozx/libzx/rules"
	"github.com/2x3systems/gozx/libzx/simplify"
	"github.com/pkg/errors"
)

var (
	ErrUnknownName = errors.New("no rule or strategy with that name")
)

// Kind distinguishes single rules from composite strategies in the registry.
type Kind string

const (
	RuleKind     Kind = "rule"
	StrategyKind Kind = "strategy"
)

// Entry is one name the runner accepts.
type Entry struct {
	Name string
	Kind Kind
}

// ListRules returns every rule and strategy name, rules first, each group sorted.
// A name shared by a rule and a strategy (e.g. "to_gh") is listed once, as a rule.
func ListRules() []Entry {
	var list []Entry
	seen := make(map[string]bool)
	for _, name := range rules.Names() {
		list = append(list, Entry{name, RuleKind})
		seen[name] = true
	}
	for _, name := range simplify.Strategies() {
		if !seen[name] {
			list = append(list, Entry{name, StrategyKind})
		}
	}
	return list
}

// Lookup resolves a name to its registry entry.
func Lookup(name string) (Entry, error) {
	if _, err := rules.ByName(name); err == nil {
		return Entry{name, RuleKind}, nil
	}
	if _, err := simplify.StrategyByName(name); err == nil {
		return Entry{name, StrategyKind}, nil
	}
	return Entry{}, errors.Wrapf(ErrUnknownName, "%q", name)
}

// Opts configures a Runner.
type Opts struct {
	MaxIterations int  // passed to strategies; 0 means simplify.DefaultMaxIterations
	PivotBoundary bool // let pivot_simp also pivot on boundary-adjacent spiders
	Workers       int  // Bench concurrency; 0 means one worker per diagram
	Quiet         bool
}

// Result records one named run against one diagram.
type Result struct {
	Diagram string // Diagram.ID()
	Name    string
	Kind    Kind
	Applied int
	Elapsed time.Duration
	Status  simplify.Status // only meaningful for full_reduce and reduce_scalar
	Err     error
}

// Ok reports if the run completed without error.
func (res Result) Ok() bool {
	return res.Err == nil
}

// Summary totals a batch of results.
type Summary struct {
	Runs    int
	Failed  int
	Applied int
	Elapsed time.Duration
}

func Summarize(results []Result) Summary {
	var sum Summary
	for _, res := range results {
		sum.Runs++
		sum.Applied += res.Applied
		sum.Elapsed += res.Elapsed
		if res.Err != nil {
			sum.Failed++
		}
	}
	return sum
}
