package modgraph

// Module is a named compilation unit exporting symbols and declaring
// dependencies on other modules.
type Module struct {
	ID        string   `json:"id"`
	Exports   []string `json:"exports"`    // Sorted, de-duplicated symbol names
	DependsOn []string `json:"depends_on"` // Declaration order
	External  []string `json:"external"`   // Dependencies allowed to stay unresolved

	order int // Declaration index within the graph
}

// HasExport reports whether the module exports the given symbol.
func (m *Module) HasExport(symbol string) bool {
	for _, s := range m.Exports {
		if s == symbol {
			return true
		}
	}
	return false
}

// Target is a buildable unit owned by a module and compiled from source fragments.
type Target struct {
	ID        string     `json:"id"`
	Module    string     `json:"module"`    // Owning module id
	Imports   []string   `json:"imports"`   // Import statements in source order
	Fragments []Fragment `json:"fragments"` // Parsed units of the target's source
}

// Fragment is a parsed source unit (one extension declaration, one function)
// and the external symbols it references.
type Fragment struct {
	Name       string   `json:"name"`
	References []string `json:"references"`
}

// WithoutFragment returns a copy of the target with the named fragment removed.
func (t Target) WithoutFragment(name string) Target {
	out := t
	out.Fragments = make([]Fragment, 0, len(t.Fragments))
	for _, f := range t.Fragments {
		if f.Name != name {
			out.Fragments = append(out.Fragments, f)
		}
	}
	return out
}

// Symbol is an exported name together with the module that declares it.
type Symbol struct {
	Name   string `json:"name"`
	Module string `json:"module"`
}

// Closure is the resolved transitive dependency set of one module.
type Closure struct {
	Root       string   `json:"root"`
	Modules    []string `json:"modules"`    // Dependencies first, root last
	Symbols    []Symbol `json:"symbols"`    // De-duplicated, first declaring module wins
	Unresolved []string `json:"unresolved"` // Declared dependencies with no module in the graph
}

// Contains reports whether the module is part of the closure.
func (c *Closure) Contains(moduleID string) bool {
	for _, id := range c.Modules {
		if id == moduleID {
			return true
		}
	}
	return false
}
