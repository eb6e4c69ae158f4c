package header

import (
	"context"
	"testing"

	"github.com/mvp-joe/modcheck/internal/modgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Header Synthesizer:
// - Synthesize lists closure modules other than the owner as imports, dependencies first
// - Synthesize never includes symbols from modules outside the closure, even when referenced
// - Synthesize carries unresolved dependencies through to the header
// - Synthesize wraps closure errors with the target id and keeps them matchable
// - Render prints one @import per imported module and groups symbols by module

func buildMaskedInputGraph(t *testing.T) *modgraph.Graph {
	t.Helper()

	g := modgraph.New()
	require.NoError(t, g.AddModule("UIKit", []string{"UITextField", "UIView"}, nil))
	require.NoError(t, g.AddModule("InputMask", []string{"MaskedTextInputListener"}, []string{"UIKit"}))
	require.NoError(t, g.AddModule("MixedSourceFramework", []string{"Foo"}, []string{"UIKit"}))
	return g
}

func TestSynthesize_ImportsClosureModules(t *testing.T) {
	t.Parallel()

	g := buildMaskedInputGraph(t)
	target := modgraph.Target{ID: "Framework", Module: "MixedSourceFramework"}

	h, err := Synthesize(context.Background(), g, target)
	require.NoError(t, err)

	assert.Equal(t, "Framework", h.Target)
	assert.Equal(t, "MixedSourceFramework", h.Module)
	assert.Equal(t, []string{"UIKit"}, h.Imports)
	assert.Equal(t, []string{"UITextField", "UIView", "Foo"}, h.SymbolNames())
	assert.True(t, h.Includes("UIKit"))
	assert.True(t, h.Includes("MixedSourceFramework"))
	assert.False(t, h.Includes("InputMask"))

	module, ok := h.DeclaringModule("UIView")
	assert.True(t, ok)
	assert.Equal(t, "UIKit", module)
}

func TestSynthesize_Soundness(t *testing.T) {
	t.Parallel()

	g := buildMaskedInputGraph(t)
	target := modgraph.Target{
		ID:     "Framework",
		Module: "MixedSourceFramework",
		Fragments: []modgraph.Fragment{
			{Name: "extension", References: []string{"MaskedTextInputListener"}},
		},
	}

	h, err := Synthesize(context.Background(), g, target)
	require.NoError(t, err)

	closure, err := g.ResolveClosure(context.Background(), "MixedSourceFramework")
	require.NoError(t, err)

	assert.False(t, h.Has("MaskedTextInputListener"))
	for _, s := range h.Symbols {
		assert.True(t, closure.Contains(s.Module), "symbol %s from module %s outside closure", s.Name, s.Module)
	}
}

func TestSynthesize_Unresolved(t *testing.T) {
	t.Parallel()

	g := modgraph.New(modgraph.WithPolicy(modgraph.PolicyPermissive))
	require.NoError(t, g.AddModule("App", []string{"App"}, []string{"SwiftLibrary"}))

	h, err := Synthesize(context.Background(), g, modgraph.Target{ID: "App", Module: "App"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SwiftLibrary"}, h.Unresolved)
	assert.Empty(t, h.Imports)
}

func TestSynthesize_WrapsClosureErrors(t *testing.T) {
	t.Parallel()

	g := modgraph.New()
	_, err := Synthesize(context.Background(), g, modgraph.Target{ID: "T", Module: "Missing"})

	var unknown *modgraph.UnknownModuleError
	require.ErrorAs(t, err, &unknown)
	assert.Contains(t, err.Error(), `target "T"`)
}

func TestRender(t *testing.T) {
	t.Parallel()

	g := buildMaskedInputGraph(t)
	h, err := Synthesize(context.Background(), g, modgraph.Target{ID: "Framework", Module: "MixedSourceFramework"})
	require.NoError(t, err)

	want := "// Synthesized header for target Framework (module MixedSourceFramework)\n" +
		"@import UIKit;\n" +
		"\n// UIKit\n" +
		"UITextField;\n" +
		"UIView;\n" +
		"\n// MixedSourceFramework\n" +
		"Foo;\n"
	assert.Equal(t, want, h.Render())
}
