package runner

import (
	"fmt"
	"time"

	"github.com/mvp-joe/modcheck/internal/fixture"
	"github.com/mvp-joe/modcheck/internal/header"
	"github.com/mvp-joe/modcheck/internal/modgraph"
)

// Stage is a step of the per-fixture state machine:
// loaded -> synthesized -> checked -> passed | failed.
type Stage string

const (
	StageLoaded      Stage = "loaded"
	StageSynthesized Stage = "synthesized"
	StageChecked     Stage = "checked"
	StagePassed      Stage = "passed"
	StageFailed      Stage = "failed"
)

// Terminal reports whether no further transition follows the stage.
func (s Stage) Terminal() bool {
	return s == StagePassed || s == StageFailed
}

// Summary aggregates every fixture result of one run, in fixture order.
type Summary struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Results   []*Result     `json:"results"`
	Skipped   int           `json:"skipped"` // Fixtures excluded by the name filter
}

// Passed returns the number of passing fixtures.
func (s *Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed() {
			n++
		}
	}
	return n
}

// Failed returns the number of failing fixtures.
func (s *Summary) Failed() int {
	return len(s.Results) - s.Passed()
}

// OK reports whether every fixture passed.
func (s *Summary) OK() bool {
	return s.Failed() == 0
}

// Result is the outcome of one fixture.
type Result struct {
	Fixture  string        `json:"fixture"`
	Path     string        `json:"path"`
	Stage    Stage         `json:"stage"`
	Trace    []Stage       `json:"trace"`
	Cases    []*Case       `json:"cases,omitempty"`
	Err      error         `json:"-"`              // Fixture-fatal error (construction, scan, timeout)
	Diff     string        `json:"diff,omitempty"` // Expected vs actual for construction expectations
	Duration time.Duration `json:"duration"`
}

// Passed reports whether the fixture reached the passed state.
func (r *Result) Passed() bool {
	return r.Stage == StagePassed
}

func (r *Result) transition(s Stage) {
	r.Stage = s
	r.Trace = append(r.Trace, s)
}

// Case is one checked variant of a target. Toggled targets produce two cases.
type Case struct {
	Target   string               `json:"target"`
	Variant  string               `json:"variant,omitempty"` // "with <fragment>" or "without <fragment>"
	Expected fixture.Expectation  `json:"expected"`
	Actual   Actual               `json:"actual"`
	Header   *header.Header       `json:"header,omitempty"`
	Passed   bool                 `json:"passed"`
	Diff     string               `json:"diff,omitempty"`
	target   modgraph.Target
}

// Name identifies the case in reports.
func (c *Case) Name() string {
	if c.Variant == "" {
		return c.Target
	}
	return fmt.Sprintf("%s [%s]", c.Target, c.Variant)
}

// Failure is one classified error observed for a case.
type Failure struct {
	Kind    modgraph.ErrorKind `json:"kind"`
	Symbol  string             `json:"symbol,omitempty"`
	Message string             `json:"message"`
}

// Actual is the observed outcome of a case.
type Actual struct {
	Failures []Failure `json:"failures,omitempty"`
}

// Pass reports whether nothing failed.
func (a Actual) Pass() bool {
	return len(a.Failures) == 0
}

// String formats the outcome the way expectations are printed.
func (a Actual) String() string {
	if a.Pass() {
		return string(fixture.OutcomePass)
	}
	f := a.Failures[0]
	out := "fail " + string(f.Kind)
	if f.Symbol != "" {
		out += "(" + f.Symbol + ")"
	}
	if len(a.Failures) > 1 {
		out += fmt.Sprintf(" +%d more", len(a.Failures)-1)
	}
	return out
}
