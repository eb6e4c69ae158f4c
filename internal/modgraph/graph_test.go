package modgraph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Module Graph:
// - AddModule stores exports sorted and de-duplicated, dependencies in declaration order
// - AddModule rejects duplicate ids with DuplicateModuleError and leaves the graph unchanged
// - Strict policy rejects unknown dependencies with UnknownDependencyError, graph unchanged
// - Strict policy accepts dependencies marked external and reports them unresolved
// - Permissive policy accepts unknown dependencies and materializes the edge once declared
// - ResolveClosure returns dependencies before dependents, declaration order breaking ties
// - ResolveClosure de-duplicates symbols exported by several closure modules
// - ResolveClosure is deterministic across repeated calls
// - ResolveClosure fails fast with CyclicDependencyError on two-module and self cycles
// - ResolveClosure fails with UnknownModuleError for undeclared modules
// - ResolveClosure honours context cancellation
// - Owners lists every module exporting a symbol

func TestAddModule_NormalizesExportsAndDependencies(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("UIKit", nil, nil))
	require.NoError(t, g.AddModule("Foundation", nil, nil))
	require.NoError(t, g.AddModule("App", []string{"b", "a", "b", ""}, []string{"UIKit", "Foundation", "UIKit"}))

	m, ok := g.Module("App")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, m.Exports)
	assert.Equal(t, []string{"UIKit", "Foundation"}, m.DependsOn)
	assert.Equal(t, 3, g.Len())
}

func TestAddModule_DuplicateLeavesGraphUnchanged(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("A", []string{"a"}, nil))

	err := g.AddModule("A", []string{"other"}, nil)

	var dup *DuplicateModuleError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "A", dup.Module)
	assert.Equal(t, KindDuplicateModule, dup.Kind())

	assert.Equal(t, 1, g.Len())
	m, _ := g.Module("A")
	assert.Equal(t, []string{"a"}, m.Exports)
}

func TestAddModule_StrictRejectsUnknownDependency(t *testing.T) {
	t.Parallel()

	g := New(WithPolicy(PolicyStrict))
	err := g.AddModule("C", nil, []string{"Missing"})

	var unknown *UnknownDependencyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "C", unknown.Module)
	assert.Equal(t, "Missing", unknown.Dependency)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Unresolved())
}

func TestAddModule_StrictAcceptsExternalDependency(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("C", []string{"c"}, []string{"SwiftLibrary"}, WithExternal("SwiftLibrary")))

	closure, err := g.ResolveClosure(context.Background(), "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, closure.Modules)
	assert.Equal(t, []string{"SwiftLibrary"}, closure.Unresolved)
	assert.Equal(t, []string{"SwiftLibrary"}, g.Unresolved())
}

func TestAddModule_PermissiveMaterializesLateEdges(t *testing.T) {
	t.Parallel()

	g := New(WithPolicy(PolicyPermissive))
	require.NoError(t, g.AddModule("C", []string{"c"}, []string{"B"}))

	closure, err := g.ResolveClosure(context.Background(), "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, closure.Unresolved)

	require.NoError(t, g.AddModule("B", []string{"b"}, nil))

	closure, err = g.ResolveClosure(context.Background(), "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, closure.Modules)
	assert.Empty(t, closure.Unresolved)
	assert.Empty(t, g.Unresolved())
}

func TestResolveClosure_Order(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("Z", []string{"z"}, nil))
	require.NoError(t, g.AddModule("A", []string{"a"}, nil))
	require.NoError(t, g.AddModule("M", []string{"m"}, []string{"A"}))
	require.NoError(t, g.AddModule("Top", []string{"top"}, []string{"M", "Z"}))

	closure, err := g.ResolveClosure(context.Background(), "Top")
	require.NoError(t, err)

	// Z and A have no dependencies; Z was declared first.
	assert.Equal(t, []string{"Z", "A", "M", "Top"}, closure.Modules)
	assert.Equal(t, []Symbol{
		{Name: "z", Module: "Z"},
		{Name: "a", Module: "A"},
		{Name: "m", Module: "M"},
		{Name: "top", Module: "Top"},
	}, closure.Symbols)
	assert.True(t, closure.Contains("A"))
	assert.False(t, closure.Contains("Other"))
}

func TestResolveClosure_ExcludesModulesOutsideClosure(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("A", []string{"a"}, nil))
	require.NoError(t, g.AddModule("B", []string{"MaskedTextInputListener"}, nil))
	require.NoError(t, g.AddModule("C", []string{"c"}, []string{"A"}))

	closure, err := g.ResolveClosure(context.Background(), "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, closure.Modules)
	for _, s := range closure.Symbols {
		assert.NotEqual(t, "B", s.Module)
	}
}

func TestResolveClosure_DeduplicatesSymbols(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("Base", []string{"Shared", "base"}, nil))
	require.NoError(t, g.AddModule("Top", []string{"Shared", "top"}, []string{"Base"}))

	closure, err := g.ResolveClosure(context.Background(), "Top")
	require.NoError(t, err)

	var names []string
	for _, s := range closure.Symbols {
		names = append(names, s.Name)
		if s.Name == "Shared" {
			assert.Equal(t, "Base", s.Module)
		}
	}
	assert.Equal(t, []string{"Shared", "base", "top"}, names)
}

func TestResolveClosure_Deterministic(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("D", []string{"d"}, nil))
	require.NoError(t, g.AddModule("C", []string{"c"}, nil))
	require.NoError(t, g.AddModule("B", []string{"b"}, []string{"D", "C"}))
	require.NoError(t, g.AddModule("A", []string{"a"}, []string{"C", "D"}))
	require.NoError(t, g.AddModule("Root", []string{"r"}, []string{"A", "B"}))

	first, err := g.ResolveClosure(context.Background(), "Root")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := g.ResolveClosure(context.Background(), "Root")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, []string{"D", "C", "B", "A", "Root"}, first.Modules)
}

func TestResolveClosure_Cycle(t *testing.T) {
	t.Parallel()

	g := New(WithPolicy(PolicyPermissive))
	require.NoError(t, g.AddModule("A", []string{"a"}, []string{"B"}))
	require.NoError(t, g.AddModule("B", []string{"b"}, []string{"A"}))

	done := make(chan error, 1)
	go func() {
		_, err := g.ResolveClosure(context.Background(), "A")
		done <- err
	}()

	select {
	case err := <-done:
		var cyc *CyclicDependencyError
		require.ErrorAs(t, err, &cyc)
		assert.Equal(t, []string{"A", "B", "A"}, cyc.Cycle)
		assert.Equal(t, KindCyclicDependency, cyc.Kind())
		assert.Contains(t, err.Error(), "A -> B -> A")
	case <-time.After(5 * time.Second):
		t.Fatal("ResolveClosure did not return on a cyclic graph")
	}
}

func TestResolveClosure_CycleBehindDependency(t *testing.T) {
	t.Parallel()

	g := New(WithPolicy(PolicyPermissive))
	require.NoError(t, g.AddModule("Top", nil, []string{"X"}))
	require.NoError(t, g.AddModule("X", nil, []string{"Y"}))
	require.NoError(t, g.AddModule("Y", nil, []string{"X"}))

	_, err := g.ResolveClosure(context.Background(), "Top")
	var cyc *CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, "Top", cyc.Module)
	assert.Equal(t, []string{"X", "Y", "X"}, cyc.Cycle)
}

func TestResolveClosure_SelfDependency(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("A", nil, []string{"A"}))

	_, err := g.ResolveClosure(context.Background(), "A")
	var cyc *CyclicDependencyError
	require.ErrorAs(t, err, &cyc)
	assert.Equal(t, []string{"A", "A"}, cyc.Cycle)
}

func TestResolveClosure_UnknownModule(t *testing.T) {
	t.Parallel()

	g := New()
	_, err := g.ResolveClosure(context.Background(), "Nope")

	var unknown *UnknownModuleError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Nope", unknown.Module)
}

func TestResolveClosure_ContextCancelled(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("A", nil, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.ResolveClosure(ctx, "A")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestOwners(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddModule("InputMask", []string{"MaskedTextInputListener"}, nil))
	require.NoError(t, g.AddModule("Fork", []string{"MaskedTextInputListener"}, nil))
	require.NoError(t, g.AddModule("UIKit", []string{"UIView"}, nil))

	assert.Equal(t, []string{"InputMask", "Fork"}, g.Owners("MaskedTextInputListener"))
	assert.Empty(t, g.Owners("Unknown"))
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"", PolicyStrict, false},
		{"strict", PolicyStrict, false},
		{" Permissive ", PolicyPermissive, false},
		{"lenient", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
