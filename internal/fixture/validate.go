package fixture

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mvp-joe/modcheck/internal/checker"
	"github.com/mvp-joe/modcheck/internal/modgraph"
	"github.com/mvp-joe/modcheck/internal/scan"
)

var (
	// ErrNoFixtures indicates a fixture file without fixtures
	ErrNoFixtures = errors.New("no fixtures defined")

	// ErrMissingName indicates a fixture, target or module without an identifier
	ErrMissingName = errors.New("missing name")

	// ErrDuplicateName indicates two fixtures, targets or fragments sharing a name
	ErrDuplicateName = errors.New("duplicate name")

	// ErrInvalidExpectation indicates an unknown outcome or error kind
	ErrInvalidExpectation = errors.New("invalid expectation")

	// ErrInvalidFragment indicates a fragment that cannot be scanned
	ErrInvalidFragment = errors.New("invalid fragment")

	// ErrInvalidToggle indicates a toggle naming no fragment, or a toggle on a passing target
	ErrInvalidToggle = errors.New("invalid toggle")
)

// targetKinds are the error kinds a target expectation may name.
var targetKinds = map[modgraph.ErrorKind]bool{
	checker.KindUnresolvedSymbol:  true,
	checker.KindUndeclaredImport:  true,
	modgraph.KindCyclicDependency: true,
	modgraph.KindUnknownModule:    true,
}

// constructionKinds are the error kinds a fixture-level expectation may name.
var constructionKinds = map[modgraph.ErrorKind]bool{
	modgraph.KindDuplicateModule:   true,
	modgraph.KindUnknownDependency: true,
}

// Validate checks fixtures for structural errors and fills in defaults
// (fragment names, inferred outcomes). Every problem is reported.
func Validate(fixtures []Fixture) error {
	if len(fixtures) == 0 {
		return ErrNoFixtures
	}

	var errs []error
	names := make(map[string]bool)

	for i := range fixtures {
		f := &fixtures[i]
		if strings.TrimSpace(f.Name) == "" {
			errs = append(errs, fmt.Errorf("%w: fixture #%d has no name", ErrMissingName, i+1))
		} else if names[f.Name] {
			errs = append(errs, fmt.Errorf("%w: fixture %q", ErrDuplicateName, f.Name))
		}
		names[f.Name] = true

		if err := validateFixture(f); err != nil {
			errs = append(errs, fmt.Errorf("fixture %q: %w", f.Name, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateFixture(f *Fixture) error {
	var errs []error

	if _, err := modgraph.ParsePolicy(f.Policy); err != nil {
		errs = append(errs, err)
	}

	for i, m := range f.Modules {
		if strings.TrimSpace(m.ID) == "" {
			errs = append(errs, fmt.Errorf("%w: module #%d has no id", ErrMissingName, i+1))
		}
	}

	if f.Expect != nil {
		if err := normalizeExpectation(f.Expect, constructionKinds); err != nil {
			errs = append(errs, fmt.Errorf("fixture expect: %w", err))
		} else if f.Expect.Outcome != OutcomeFail {
			errs = append(errs, fmt.Errorf("%w: fixture-level expect must be a failure", ErrInvalidExpectation))
		}
		if len(f.Targets) > 0 {
			errs = append(errs, fmt.Errorf("%w: fixture-level expect cannot be combined with targets", ErrInvalidExpectation))
		}
	} else if len(f.Targets) == 0 {
		errs = append(errs, fmt.Errorf("%w: no targets and no fixture-level expect", ErrInvalidExpectation))
	}

	targets := make(map[string]bool)
	for i := range f.Targets {
		t := &f.Targets[i]
		if strings.TrimSpace(t.ID) == "" {
			errs = append(errs, fmt.Errorf("%w: target #%d has no id", ErrMissingName, i+1))
			continue
		}
		if targets[t.ID] {
			errs = append(errs, fmt.Errorf("%w: target %q", ErrDuplicateName, t.ID))
		}
		targets[t.ID] = true

		if err := validateTarget(t); err != nil {
			errs = append(errs, fmt.Errorf("target %q: %w", t.ID, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateTarget(t *Target) error {
	var errs []error

	if strings.TrimSpace(t.Module) == "" {
		errs = append(errs, fmt.Errorf("%w: target has no module", ErrMissingName))
	}

	if err := normalizeExpectation(&t.Expect, targetKinds); err != nil {
		errs = append(errs, err)
	}

	fragments := make(map[string]bool)
	for i := range t.Fragments {
		frag := &t.Fragments[i]
		if frag.Name == "" {
			frag.Name = fmt.Sprintf("fragment-%d", i+1)
		}
		if fragments[frag.Name] {
			errs = append(errs, fmt.Errorf("%w: fragment %q", ErrDuplicateName, frag.Name))
		}
		fragments[frag.Name] = true

		switch {
		case frag.Source != "" && frag.Language == "":
			errs = append(errs, fmt.Errorf("%w: fragment %q has source but no language", ErrInvalidFragment, frag.Name))
		case frag.Source != "" && !scan.Supported(frag.Language):
			errs = append(errs, fmt.Errorf("%w: fragment %q language %q is not supported (supported: %s)",
				ErrInvalidFragment, frag.Name, frag.Language, strings.Join(scan.Languages(), ", ")))
		case frag.Source == "" && frag.Language != "":
			errs = append(errs, fmt.Errorf("%w: fragment %q has a language but no source", ErrInvalidFragment, frag.Name))
		}
	}

	if t.Toggle != "" {
		if !fragments[t.Toggle] {
			errs = append(errs, fmt.Errorf("%w: toggle names unknown fragment %q", ErrInvalidToggle, t.Toggle))
		}
		if t.Expect.Outcome != OutcomeFail {
			errs = append(errs, fmt.Errorf("%w: toggled target must expect a failure with the fragment present", ErrInvalidToggle))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// normalizeExpectation infers a missing outcome and checks the error kind.
func normalizeExpectation(e *Expectation, kinds map[modgraph.ErrorKind]bool) error {
	// Both "UnresolvedSymbol" and "UnresolvedSymbolError" name the same kind.
	e.ErrorKind = strings.TrimSuffix(e.ErrorKind, "Error")
	e.Outcome = Outcome(strings.ToLower(string(e.Outcome)))

	if e.Outcome == "" {
		if e.ErrorKind != "" {
			e.Outcome = OutcomeFail
		} else {
			e.Outcome = OutcomePass
		}
	}

	switch e.Outcome {
	case OutcomePass:
		if e.ErrorKind != "" || e.Symbol != "" {
			return fmt.Errorf("%w: outcome 'pass' cannot name an error kind or symbol", ErrInvalidExpectation)
		}
	case OutcomeFail:
		if e.ErrorKind == "" {
			return fmt.Errorf("%w: outcome 'fail' requires an errorKind", ErrInvalidExpectation)
		}
		if !kinds[modgraph.ErrorKind(e.ErrorKind)] {
			return fmt.Errorf("%w: unknown errorKind %q (valid: %s)", ErrInvalidExpectation, e.ErrorKind, kindList(kinds))
		}
	default:
		return fmt.Errorf("%w: outcome must be 'pass' or 'fail', got %q", ErrInvalidExpectation, e.Outcome)
	}
	return nil
}

func kindList(kinds map[modgraph.ErrorKind]bool) string {
	var names []string
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
