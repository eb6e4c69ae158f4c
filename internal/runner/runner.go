package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/modcheck/internal/checker"
	"github.com/mvp-joe/modcheck/internal/fixture"
	"github.com/mvp-joe/modcheck/internal/header"
	"github.com/mvp-joe/modcheck/internal/modgraph"
	"github.com/mvp-joe/modcheck/internal/scan"
)

// Defaults for runner options.
const (
	DefaultTimeout = 30 * time.Second
)

// Options configures a Runner.
type Options struct {
	Policy   modgraph.Policy // Default policy for fixtures that do not set one
	Workers  int             // Fixtures checked concurrently (default: GOMAXPROCS)
	Timeout  time.Duration   // Per-fixture timeout (default: 30s)
	Filter   string          // Glob over fixture names; empty runs all
	Logger   *slog.Logger
	Reporter Reporter
	Scanner  *scan.Scanner
}

// Runner drives fixtures through graph construction, header synthesis and
// checking, and compares each outcome with the fixture's expectation.
type Runner struct {
	opts   Options
	filter glob.Glob
	log    *slog.Logger
}

// New creates a runner. It fails only on an invalid filter pattern.
func New(opts Options) (*Runner, error) {
	if opts.Policy == "" {
		opts.Policy = modgraph.PolicyStrict
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Reporter == nil {
		opts.Reporter = nopReporter{}
	}
	if opts.Scanner == nil {
		opts.Scanner = scan.NewScanner()
	}

	r := &Runner{opts: opts, log: opts.Logger}
	if r.log == nil {
		r.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if opts.Filter != "" {
		g, err := glob.Compile(opts.Filter)
		if err != nil {
			return nil, fmt.Errorf("invalid fixture filter %q: %w", opts.Filter, err)
		}
		r.filter = g
	}

	return r, nil
}

// Run checks every selected fixture and returns all results in fixture
// order. A failing fixture never stops the others.
func (r *Runner) Run(ctx context.Context, fixtures []fixture.Fixture) *Summary {
	summary := &Summary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	selected := make([]fixture.Fixture, 0, len(fixtures))
	for _, f := range fixtures {
		if r.filter != nil && !r.filter.Match(f.Name) {
			summary.Skipped++
			continue
		}
		selected = append(selected, f)
	}

	r.log.Info("run started", "run_id", summary.RunID, "fixtures", len(selected), "skipped", summary.Skipped, "workers", r.opts.Workers)
	r.opts.Reporter.OnRunStart(len(selected))

	summary.Results = make([]*Result, len(selected))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(r.opts.Workers)
	for i := range selected {
		i := i
		g.Go(func() error {
			res := r.RunFixture(ctx, selected[i])
			summary.Results[i] = res

			mu.Lock()
			r.opts.Reporter.OnFixtureDone(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = time.Since(summary.StartedAt)
	r.log.Info("run finished", "run_id", summary.RunID, "passed", summary.Passed(), "failed", summary.Failed(), "duration", summary.Duration)
	r.opts.Reporter.OnRunComplete(summary)

	return summary
}

// RunFixture runs a single fixture under the per-fixture timeout.
func (r *Runner) RunFixture(ctx context.Context, f fixture.Fixture) *Result {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	log := r.log.With("fixture", f.Name)
	res := &Result{Fixture: f.Name, Path: f.Path}

	r.runFixture(ctx, log, f, res)

	if errors.Is(res.Err, context.DeadlineExceeded) {
		res.Err = fmt.Errorf("fixture timed out after %s: %w", r.opts.Timeout, res.Err)
	}
	res.Duration = time.Since(start)
	if res.Passed() {
		log.Debug("fixture passed", "duration", res.Duration)
	} else {
		log.Debug("fixture failed", "duration", res.Duration, "error", res.Err)
	}
	return res
}

func (r *Runner) runFixture(ctx context.Context, log *slog.Logger, f fixture.Fixture, res *Result) {
	fail := func(err error) {
		res.Err = err
		res.transition(StageFailed)
	}

	policy := r.opts.Policy
	if f.Policy != "" {
		p, err := modgraph.ParsePolicy(f.Policy)
		if err != nil {
			fail(err)
			return
		}
		policy = p
	}

	g, err := buildGraph(f, policy)
	res.transition(StageLoaded)
	log.Debug("fixture loaded", "modules", g.Len(), "policy", policy)

	if f.Expect != nil {
		r.finishConstruction(res, *f.Expect, err)
		return
	}
	if err != nil {
		fail(fmt.Errorf("failed to build module graph: %w", err))
		return
	}

	cases, err := r.buildCases(ctx, f)
	if err != nil {
		fail(err)
		return
	}
	res.Cases = cases

	// Toggle variants share a module and therefore a header.
	headers := make(map[string]*header.Header)
	graphErrs := make(map[string]error)
	for _, c := range cases {
		if _, done := headers[c.target.Module]; done {
			continue
		}
		if _, done := graphErrs[c.target.Module]; done {
			continue
		}
		h, err := header.Synthesize(ctx, g, c.target)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				fail(ctxErr)
				return
			}
			graphErrs[c.target.Module] = err
			continue
		}
		headers[c.target.Module] = h
	}
	res.transition(StageSynthesized)
	log.Debug("headers synthesized", "targets", len(cases))

	passed := true
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			fail(err)
			return
		}

		if gerr, ok := graphErrs[c.target.Module]; ok {
			actual, classified := actualFromError(gerr)
			if !classified {
				fail(gerr)
				return
			}
			c.Actual = actual
		} else {
			h := headers[c.target.Module]
			c.Header = h
			c.Actual = actualFromReport(checker.CheckHeader(g, c.target, h))
		}

		c.Passed = matches(c.Expected, c.Actual)
		if !c.Passed {
			c.Diff = diff(c.Expected, c.Actual)
			passed = false
		}
	}
	res.transition(StageChecked)

	if passed {
		res.transition(StagePassed)
	} else {
		res.transition(StageFailed)
	}
}

// finishConstruction compares a graph construction error with the fixture
// level expectation.
func (r *Runner) finishConstruction(res *Result, exp fixture.Expectation, err error) {
	var actual Actual
	if err != nil {
		a, ok := actualFromError(err)
		if !ok {
			res.Err = err
			res.transition(StageFailed)
			return
		}
		actual = a
	}

	if matches(exp, actual) {
		res.transition(StagePassed)
		return
	}
	res.Diff = diff(exp, actual)
	res.Err = err
	res.transition(StageFailed)
}

// buildGraph declares the fixture's modules in order. The returned graph
// holds every module added before the first error.
func buildGraph(f fixture.Fixture, policy modgraph.Policy) (*modgraph.Graph, error) {
	g := modgraph.New(modgraph.WithPolicy(policy))
	for _, m := range f.Modules {
		if err := g.AddModule(m.ID, m.Exports, m.DependsOn, modgraph.WithExternal(m.External...)); err != nil {
			return g, err
		}
	}
	return g, nil
}

// buildCases converts fixture targets into checkable cases, scanning
// fragment sources and expanding toggled targets into their two variants.
func (r *Runner) buildCases(ctx context.Context, f fixture.Fixture) ([]*Case, error) {
	var cases []*Case

	for _, t := range f.Targets {
		target := modgraph.Target{
			ID:      t.ID,
			Module:  t.Module,
			Imports: t.Imports,
		}
		for _, frag := range t.Fragments {
			refs := append([]string(nil), frag.References...)
			if frag.Source != "" {
				scanned, err := r.opts.Scanner.Scan(ctx, frag.Language, frag.Source)
				if err != nil {
					return nil, fmt.Errorf("target %q fragment %q: %w", t.ID, frag.Name, err)
				}
				refs = append(refs, scanned...)
			}
			target.Fragments = append(target.Fragments, modgraph.Fragment{Name: frag.Name, References: refs})
		}

		if t.Toggle == "" {
			cases = append(cases, &Case{Target: t.ID, Expected: t.Expect, target: target})
			continue
		}

		cases = append(cases,
			&Case{
				Target:   t.ID,
				Variant:  "with " + t.Toggle,
				Expected: t.Expect,
				target:   target,
			},
			&Case{
				Target:   t.ID,
				Variant:  "without " + t.Toggle,
				Expected: fixture.Expectation{Outcome: fixture.OutcomePass},
				target:   target.WithoutFragment(t.Toggle),
			},
		)
	}

	return cases, nil
}
