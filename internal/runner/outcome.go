package runner

import (
	"errors"
	"fmt"

	"github.com/mvp-joe/modcheck/internal/checker"
	"github.com/mvp-joe/modcheck/internal/fixture"
	"github.com/mvp-joe/modcheck/internal/modgraph"
	"github.com/pmezard/go-difflib/difflib"
)

// actualFromReport converts checker findings into an outcome.
func actualFromReport(report *checker.Report) Actual {
	var a Actual
	for _, e := range report.UndeclaredImports {
		a.Failures = append(a.Failures, Failure{Kind: e.Kind(), Symbol: e.Import, Message: e.Error()})
	}
	for _, e := range report.Unresolved {
		a.Failures = append(a.Failures, Failure{Kind: e.Kind(), Symbol: e.Symbol, Message: e.Error()})
	}
	return a
}

// actualFromError converts a classified graph error into an outcome. The
// second return is false when err carries no error kind.
func actualFromError(err error) (Actual, bool) {
	var kerr modgraph.KindError
	if !errors.As(err, &kerr) {
		return Actual{}, false
	}

	f := Failure{Kind: kerr.Kind(), Message: err.Error()}
	var dup *modgraph.DuplicateModuleError
	var unknownDep *modgraph.UnknownDependencyError
	var unknownMod *modgraph.UnknownModuleError
	switch {
	case errors.As(err, &dup):
		f.Symbol = dup.Module
	case errors.As(err, &unknownDep):
		f.Symbol = unknownDep.Dependency
	case errors.As(err, &unknownMod):
		f.Symbol = unknownMod.Module
	}
	return Actual{Failures: []Failure{f}}, true
}

// matches reports whether the actual outcome satisfies the expectation.
// A failure expectation matches when any observed failure has the expected
// kind and, if a symbol is expected, that symbol.
func matches(exp fixture.Expectation, act Actual) bool {
	if exp.Outcome != fixture.OutcomeFail {
		return act.Pass()
	}
	for _, f := range act.Failures {
		if string(f.Kind) != exp.ErrorKind {
			continue
		}
		if exp.Symbol == "" || exp.Symbol == f.Symbol {
			return true
		}
	}
	return false
}

// diff renders expected and actual outcomes as a unified diff.
func diff(exp fixture.Expectation, act Actual) string {
	expected := []string{fmt.Sprintf("outcome: %s\n", exp.Outcome)}
	if exp.Outcome == fixture.OutcomeFail {
		expected = append(expected, fmt.Sprintf("error: %s\n", formatKind(modgraph.ErrorKind(exp.ErrorKind), exp.Symbol)))
	}

	var actual []string
	if act.Pass() {
		actual = append(actual, fmt.Sprintf("outcome: %s\n", fixture.OutcomePass))
	} else {
		actual = append(actual, fmt.Sprintf("outcome: %s\n", fixture.OutcomeFail))
		for _, f := range act.Failures {
			symbol := f.Symbol
			// An expectation without a symbol accepts any symbol of its kind.
			if exp.Symbol == "" && string(f.Kind) == exp.ErrorKind {
				symbol = ""
			}
			actual = append(actual, fmt.Sprintf("error: %s\n", formatKind(f.Kind, symbol)))
		}
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        expected,
		B:        actual,
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("expected %s, got %s", exp, act)
	}
	return text
}

func formatKind(kind modgraph.ErrorKind, symbol string) string {
	if symbol == "" {
		return string(kind)
	}
	return fmt.Sprintf("%s(%s)", kind, symbol)
}
