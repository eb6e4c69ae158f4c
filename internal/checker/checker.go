package checker

import (
	"context"

	"github.com/mvp-joe/modcheck/internal/header"
	"github.com/mvp-joe/modcheck/internal/modgraph"
)

// Report is the result of checking one target.
type Report struct {
	Target            string                   `json:"target"`
	Header            *header.Header           `json:"header"`
	Unresolved        []*UnresolvedSymbolError `json:"unresolved,omitempty"`
	UndeclaredImports []*UndeclaredImportError `json:"undeclared_imports,omitempty"`
}

// Ok reports whether every reference and import resolved.
func (r *Report) Ok() bool {
	return len(r.Unresolved) == 0 && len(r.UndeclaredImports) == 0
}

// Errors returns all findings, undeclared imports first, then unresolved
// symbols in fragment order.
func (r *Report) Errors() []modgraph.KindError {
	errs := make([]modgraph.KindError, 0, len(r.Unresolved)+len(r.UndeclaredImports))
	for _, e := range r.UndeclaredImports {
		errs = append(errs, e)
	}
	for _, e := range r.Unresolved {
		errs = append(errs, e)
	}
	return errs
}

// Check synthesizes the target's header and resolves every fragment
// reference against it. The returned error is non-nil only when the header
// cannot be synthesized (unknown module, dependency cycle, cancellation).
func Check(ctx context.Context, g *modgraph.Graph, t modgraph.Target) (*Report, error) {
	h, err := header.Synthesize(ctx, g, t)
	if err != nil {
		return nil, err
	}
	return CheckHeader(g, t, h), nil
}

// CheckHeader resolves the target's imports and fragment references against
// an already synthesized header.
func CheckHeader(g *modgraph.Graph, t modgraph.Target, h *header.Header) *Report {
	report := &Report{Target: t.ID, Header: h}

	for _, imp := range t.Imports {
		if !h.Includes(imp) {
			report.UndeclaredImports = append(report.UndeclaredImports, &UndeclaredImportError{
				Target: t.ID,
				Import: imp,
			})
		}
	}

	for _, frag := range t.Fragments {
		seen := make(map[string]bool, len(frag.References))
		for _, sym := range frag.References {
			if sym == "" || seen[sym] || h.Has(sym) {
				continue
			}
			seen[sym] = true
			report.Unresolved = append(report.Unresolved, &UnresolvedSymbolError{
				Target:     t.ID,
				Fragment:   frag.Name,
				Symbol:     sym,
				DeclaredIn: g.Owners(sym),
			})
		}
	}

	return report
}
