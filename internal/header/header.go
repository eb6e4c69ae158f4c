package header

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvp-joe/modcheck/internal/modgraph"
)

// Header is the synthesized interface header of one target: the modules it
// imports and every symbol it may reference through declared dependencies.
type Header struct {
	Target     string            `json:"target"`
	Module     string            `json:"module"`     // Owning module
	Imports    []string          `json:"imports"`    // Closure modules other than the owner, dependencies first
	Symbols    []modgraph.Symbol `json:"symbols"`    // Closure symbols with their declaring module
	Unresolved []string          `json:"unresolved"` // Declared dependencies missing from the graph

	index map[string]string // symbol -> declaring module
}

// Synthesize builds the header for a target from the declared dependency
// closure of its owning module.
//
// Symbols referenced by the target's fragments play no part here: a symbol
// owned by a module outside the closure never appears in the header.
func Synthesize(ctx context.Context, g *modgraph.Graph, t modgraph.Target) (*Header, error) {
	closure, err := g.ResolveClosure(ctx, t.Module)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", t.ID, err)
	}
	return FromClosure(t, closure), nil
}

// FromClosure builds a header from an already resolved closure.
func FromClosure(t modgraph.Target, closure *modgraph.Closure) *Header {
	h := &Header{
		Target:     t.ID,
		Module:     closure.Root,
		Symbols:    append([]modgraph.Symbol(nil), closure.Symbols...),
		Unresolved: append([]string(nil), closure.Unresolved...),
		index:      make(map[string]string, len(closure.Symbols)),
	}
	for _, id := range closure.Modules {
		if id != closure.Root {
			h.Imports = append(h.Imports, id)
		}
	}
	for _, s := range h.Symbols {
		h.index[s.Name] = s.Module
	}
	return h
}

// Has reports whether symbol resolves within the header.
func (h *Header) Has(symbol string) bool {
	_, ok := h.index[symbol]
	return ok
}

// DeclaringModule returns the closure module that provides symbol.
func (h *Header) DeclaringModule(symbol string) (string, bool) {
	m, ok := h.index[symbol]
	return m, ok
}

// Includes reports whether the header imports the module or is owned by it.
func (h *Header) Includes(moduleID string) bool {
	if moduleID == h.Module {
		return true
	}
	for _, id := range h.Imports {
		if id == moduleID {
			return true
		}
	}
	return false
}

// SymbolNames returns the header's symbol names in header order.
func (h *Header) SymbolNames() []string {
	names := make([]string, len(h.Symbols))
	for i, s := range h.Symbols {
		names[i] = s.Name
	}
	return names
}

// Render formats the header the way a generated interface header lists its
// module imports, followed by the symbols grouped by declaring module.
func (h *Header) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "// Synthesized header for target %s (module %s)\n", h.Target, h.Module)
	for _, id := range h.Imports {
		fmt.Fprintf(&b, "@import %s;\n", id)
	}
	for _, id := range h.Unresolved {
		fmt.Fprintf(&b, "// unresolved dependency: %s\n", id)
	}

	current := ""
	for _, s := range h.Symbols {
		if s.Module != current {
			current = s.Module
			fmt.Fprintf(&b, "\n// %s\n", current)
		}
		fmt.Fprintf(&b, "%s;\n", s.Name)
	}

	return b.String()
}
