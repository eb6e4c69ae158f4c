package modgraph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"
)

// Graph holds declared modules and their declared dependency edges.
// Edges point from a module to each module it depends on.
//
// A Graph is not safe for concurrent mutation. The runner builds one graph
// per fixture, so no graph is ever shared between goroutines.
type Graph struct {
	policy  Policy
	g       graph.Graph[string, *Module]
	modules map[string]*Module
	order   []string

	// pending maps an undeclared dependency id to the modules waiting on it.
	// The edges are materialized when a module with that id is added.
	pending map[string][]string
}

// Option configures a Graph.
type Option func(*Graph)

// WithPolicy sets the unknown-dependency policy. Default is PolicyStrict.
func WithPolicy(p Policy) Option {
	return func(gr *Graph) {
		if p != "" {
			gr.policy = p
		}
	}
}

// ModuleOption configures a single AddModule call.
type ModuleOption func(*Module)

// WithExternal marks dependencies that may stay unresolved even in strict mode.
func WithExternal(ids ...string) ModuleOption {
	return func(m *Module) {
		m.External = dedupe(ids)
	}
}

// New creates an empty module graph.
func New(opts ...Option) *Graph {
	gr := &Graph{
		policy:  PolicyStrict,
		g:       graph.New(moduleHash, graph.Directed()),
		modules: make(map[string]*Module),
		pending: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(gr)
	}
	return gr
}

func moduleHash(m *Module) string { return m.ID }

// Policy returns the graph's unknown-dependency policy.
func (gr *Graph) Policy() Policy { return gr.policy }

// Len returns the number of declared modules.
func (gr *Graph) Len() int { return len(gr.order) }

// AddModule declares a module. The graph is left unchanged when an error is
// returned.
func (gr *Graph) AddModule(id string, exports, dependsOn []string, opts ...ModuleOption) error {
	if id == "" {
		return errors.New("module id is required")
	}
	if _, exists := gr.modules[id]; exists {
		return &DuplicateModuleError{Module: id}
	}

	m := &Module{
		ID:        id,
		Exports:   normalizeSet(exports),
		DependsOn: dedupe(dependsOn),
		order:     len(gr.order),
	}
	for _, opt := range opts {
		opt(m)
	}

	external := make(map[string]bool, len(m.External))
	for _, ext := range m.External {
		external[ext] = true
	}

	// Validate before touching any state.
	for _, dep := range m.DependsOn {
		if dep == id {
			continue // self edge, surfaces as a cycle during closure resolution
		}
		if _, known := gr.modules[dep]; known {
			continue
		}
		if gr.policy == PolicyStrict && !external[dep] {
			return &UnknownDependencyError{Module: id, Dependency: dep}
		}
	}

	if err := gr.g.AddVertex(m); err != nil {
		return fmt.Errorf("failed to add module %q: %w", id, err)
	}
	gr.modules[id] = m
	gr.order = append(gr.order, id)

	for _, dep := range m.DependsOn {
		if dep == id {
			continue
		}
		if _, known := gr.modules[dep]; !known {
			gr.pending[dep] = append(gr.pending[dep], id)
			continue
		}
		if err := gr.addEdge(id, dep); err != nil {
			return err
		}
	}

	// Modules declared earlier may have been waiting on this one.
	for _, from := range gr.pending[id] {
		if err := gr.addEdge(from, id); err != nil {
			return err
		}
	}
	delete(gr.pending, id)

	return nil
}

func (gr *Graph) addEdge(from, to string) error {
	if err := gr.g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return fmt.Errorf("failed to add dependency %q -> %q: %w", from, to, err)
	}
	return nil
}

// Module returns the module with the given id.
func (gr *Graph) Module(id string) (*Module, bool) {
	m, ok := gr.modules[id]
	return m, ok
}

// Modules returns all modules in declaration order.
func (gr *Graph) Modules() []*Module {
	out := make([]*Module, 0, len(gr.order))
	for _, id := range gr.order {
		out = append(out, gr.modules[id])
	}
	return out
}

// Owners returns the ids of all modules exporting symbol, in declaration order.
func (gr *Graph) Owners(symbol string) []string {
	var owners []string
	for _, id := range gr.order {
		if gr.modules[id].HasExport(symbol) {
			owners = append(owners, id)
		}
	}
	return owners
}

// Unresolved returns the sorted ids of declared dependencies that have no
// module in the graph.
func (gr *Graph) Unresolved() []string {
	out := make([]string, 0, len(gr.pending))
	for id := range gr.pending {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ResolveClosure returns the transitive dependency closure of a module.
//
// Modules are ordered dependencies first, by declaration order where the
// topology leaves a choice, ties broken by identifier. The symbol list is the
// de-duplicated union of every closure module's exports in that order.
// A cycle anywhere in the closure fails with CyclicDependencyError.
func (gr *Graph) ResolveClosure(ctx context.Context, moduleID string) (*Closure, error) {
	if _, ok := gr.modules[moduleID]; !ok {
		return nil, &UnknownModuleError{Module: moduleID}
	}

	var reachable []string
	err := graph.BFS(gr.g, moduleID, func(id string) bool {
		if ctx.Err() != nil {
			return true
		}
		reachable = append(reachable, id)
		return false
	})
	if err != nil {
		return nil, fmt.Errorf("failed to traverse dependencies of %q: %w", moduleID, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, id := range reachable {
		for _, dep := range gr.modules[id].DependsOn {
			if dep == id {
				return nil, &CyclicDependencyError{Module: moduleID, Cycle: []string{id, id}}
			}
		}
	}

	// Reverse the edges so that dependencies sort before their dependents.
	sub := graph.New(moduleHash, graph.Directed())
	for _, id := range reachable {
		if err := sub.AddVertex(gr.modules[id]); err != nil {
			return nil, fmt.Errorf("failed to build closure of %q: %w", moduleID, err)
		}
	}
	adjacency, err := gr.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read dependencies of %q: %w", moduleID, err)
	}
	for _, id := range reachable {
		for dep := range adjacency[id] {
			if err := sub.AddEdge(dep, id); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to build closure of %q: %w", moduleID, err)
			}
		}
	}

	if cycle, err := gr.findCycle(sub); err != nil {
		return nil, err
	} else if cycle != nil {
		return nil, &CyclicDependencyError{Module: moduleID, Cycle: cycle}
	}

	sorted, err := graph.StableTopologicalSort(sub, gr.less)
	if err != nil || len(sorted) != len(reachable) {
		return nil, &CyclicDependencyError{Module: moduleID}
	}

	closure := &Closure{Root: moduleID, Modules: sorted}
	seenSymbol := make(map[string]bool)
	seenMissing := make(map[string]bool)
	for _, id := range sorted {
		m := gr.modules[id]
		for _, name := range m.Exports {
			if !seenSymbol[name] {
				seenSymbol[name] = true
				closure.Symbols = append(closure.Symbols, Symbol{Name: name, Module: id})
			}
		}
		for _, dep := range m.DependsOn {
			if _, known := gr.modules[dep]; !known && !seenMissing[dep] {
				seenMissing[dep] = true
				closure.Unresolved = append(closure.Unresolved, dep)
			}
		}
	}

	return closure, nil
}

// less orders modules by declaration order, then identifier.
func (gr *Graph) less(a, b string) bool {
	ma, mb := gr.modules[a], gr.modules[b]
	if ma.order != mb.order {
		return ma.order < mb.order
	}
	return a < b
}

// findCycle returns one dependency cycle in sub, or nil if sub is acyclic.
// The cycle starts at the earliest-declared module of the first strongly
// connected component with more than one member.
func (gr *Graph) findCycle(sub graph.Graph[string, *Module]) ([]string, error) {
	components, err := graph.StronglyConnectedComponents(sub)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dependency components: %w", err)
	}

	var members []string
	for _, c := range components {
		if len(c) < 2 {
			continue
		}
		sort.Slice(c, func(i, j int) bool { return gr.less(c[i], c[j]) })
		if members == nil || gr.less(c[0], members[0]) {
			members = c
		}
	}
	if members == nil {
		return nil, nil
	}

	inComponent := make(map[string]bool, len(members))
	for _, id := range members {
		inComponent[id] = true
	}

	start := members[0]
	visited := make(map[string]bool)
	var path []string
	var walk func(id string) bool
	walk = func(id string) bool {
		path = append(path, id)
		visited[id] = true
		for _, dep := range gr.modules[id].DependsOn {
			if dep == start {
				path = append(path, start)
				return true
			}
			if inComponent[dep] && !visited[dep] && walk(dep) {
				return true
			}
		}
		path = path[:len(path)-1]
		return false
	}
	if walk(start) {
		return path, nil
	}
	return append(members, start), nil
}

func normalizeSet(values []string) []string {
	out := dedupe(values)
	sort.Strings(out)
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
