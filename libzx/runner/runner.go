package runner

import (
	"context"
	"time"

	"github.com/2x3systems/gozx/libzx/rules"
	"github.com/2x3systems/gozx/libzx/simplify"
	"github.com/2x3systems/gozx/zx"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("gozx.runner")

var (
	rewritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gozx",
		Subsystem: "runner",
		Name:      "rewrites_total",
		Help:      "Rule applications performed, by rule or strategy name",
	}, []string{"name", "backend"})

	runErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gozx",
		Subsystem: "runner",
		Name:      "errors_total",
		Help:      "Runs that ended in an error, by rule or strategy name",
	}, []string{"name", "backend"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gozx",
		Subsystem: "runner",
		Name:      "duration_seconds",
		Help:      "Wall time of one named run against one diagram",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"name", "backend"})
)

// Runner executes registry names against diagrams.  It holds no per-diagram state, so one Runner
// may serve many diagrams, including concurrently from Bench.
type Runner struct {
	opts Opts
}

func New(opts Opts) *Runner {
	return &Runner{
		opts: opts,
	}
}

// Run executes one rule (exhaustively) or one strategy on d.
// The returned error is also held in Result.Err.
func (r *Runner) Run(ctx context.Context, d zx.Diagram, name string) (Result, error) {
	res := Result{
		Diagram: d.ID(),
		Name:    name,
	}

	ctx, span := tracer.Start(ctx, "runner.Run",
		trace.WithAttributes(
			attribute.String("gozx.rule", name),
			attribute.String("gozx.diagram", d.ID()),
			attribute.String("gozx.backend", d.Backend()),
		),
	)
	defer span.End()

	entry, err := Lookup(name)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		res.Kind = entry.Kind
		start := time.Now()
		err = r.run(d, entry, &res)
		res.Elapsed = time.Since(start)
		runDuration.WithLabelValues(name, d.Backend()).Observe(res.Elapsed.Seconds())
	}

	if res.Applied > 0 {
		rewritesTotal.WithLabelValues(name, d.Backend()).Add(float64(res.Applied))
	}
	span.SetAttributes(attribute.Int("gozx.applied", res.Applied))
	if err != nil {
		kind := entry.Kind
		if kind == "" {
			kind = RuleKind
		}
		err = errors.Wrapf(err, "runner: %s %q", kind, name)
		res.Err = err
		runErrors.WithLabelValues(name, d.Backend()).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return res, err
	}
	span.SetStatus(codes.Ok, "")
	if !r.opts.Quiet {
		klog.V(1).Infof("%s: %s applied %d in %v", d.ID(), name, res.Applied, res.Elapsed)
	}
	return res, nil
}

func (r *Runner) run(d zx.Diagram, entry Entry, res *Result) error {
	if entry.Kind == RuleKind {
		rule, err := rules.ByName(entry.Name)
		if err != nil {
			return err
		}
		res.Applied, err = rules.Exhaust(d, rule)
		return err
	}

	opts := &simplify.Opts{
		Stats:         simplify.NewStats(),
		MaxIterations: r.opts.MaxIterations,
		PivotBoundary: r.opts.PivotBoundary,
		Quiet:         r.opts.Quiet,
	}
	var err error
	switch entry.Name {
	case "full_reduce", "reduce_scalar":
		reduce := simplify.FullReduce
		if entry.Name == "reduce_scalar" {
			reduce = simplify.ReduceScalar
		}
		var out simplify.Result
		out, err = reduce(d, opts)
		res.Status = out.Status
	default:
		var fn simplify.Strategy
		if fn, err = simplify.StrategyByName(entry.Name); err == nil {
			_, err = fn(d, opts)
		}
	}
	res.Applied = opts.Stats.Total()
	return err
}

// RunAll runs each name in turn on d.  A failing name is recorded and the batch moves on; a
// cancelled ctx stops the batch before the next name, and that name's Result carries ctx.Err().
func (r *Runner) RunAll(ctx context.Context, d zx.Diagram, names []string) []Result {
	ctx, span := tracer.Start(ctx, "runner.RunAll",
		trace.WithAttributes(
			attribute.String("gozx.diagram", d.ID()),
			attribute.StringSlice("gozx.rules", names),
		),
	)
	defer span.End()

	results := make([]Result, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Diagram: d.ID(), Name: name, Err: err})
			span.SetStatus(codes.Error, "context canceled")
			break
		}
		res, err := r.Run(ctx, d, name)
		if err != nil {
			klog.Warningf("%s: %v", d.ID(), err)
		}
		results = append(results, res)
	}
	return results
}

// Bench runs the same batch of names over several distinct diagrams concurrently, one goroutine
// per diagram.  results[i] holds the batch for diagrams[i].  Rule failures stay inside the
// results; the returned error is only ever ctx's.
func (r *Runner) Bench(ctx context.Context, diagrams []zx.Diagram, names []string) ([][]Result, error) {
	ctx, span := tracer.Start(ctx, "runner.Bench",
		trace.WithAttributes(
			attribute.Int("gozx.diagrams", len(diagrams)),
			attribute.StringSlice("gozx.rules", names),
		),
	)
	defer span.End()

	results := make([][]Result, len(diagrams))
	grp, ctx := errgroup.WithContext(ctx)
	if r.opts.Workers > 0 {
		grp.SetLimit(r.opts.Workers)
	}
	for i, d := range diagrams {
		i, d := i, d // per-iteration copies; go.mod targets go1.21
		grp.Go(func() error {
			results[i] = r.RunAll(ctx, d, names)
			return ctx.Err()
		})
	}
	err := grp.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return results, err
}
