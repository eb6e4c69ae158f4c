package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Scanner extracts the external symbols a source fragment references.
// A Scanner is safe for concurrent use; every Scan call uses its own parser.
type Scanner struct{}

// NewScanner creates a new fragment scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Supported reports whether lang can be scanned.
func Supported(lang string) bool {
	_, ok := languages[strings.ToLower(lang)]
	return ok
}

// Languages returns the sorted names of all scannable languages.
func Languages() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scan parses source and returns the sorted, de-duplicated names it
// references. Type names declared by the source itself are excluded.
func (s *Scanner) Scan(ctx context.Context, lang, source string) ([]string, error) {
	l, ok := languages[strings.ToLower(lang)]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q (supported: %s)", lang, strings.Join(Languages(), ", "))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(l.grammar); err != nil {
		return nil, fmt.Errorf("failed to load %s grammar: %w", lang, err)
	}

	src := []byte(source)
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s fragment", lang)
	}
	defer tree.Close()

	referenced := make(map[string]bool)
	declared := make(map[string]bool)
	walkTree(tree.RootNode(), func(n *sitter.Node) bool {
		switch {
		case l.isDeclaration(n):
			declared[n.Utf8Text(src)] = true
		case l.isReference(n):
			referenced[n.Utf8Text(src)] = true
		}
		return true
	})

	out := make([]string, 0, len(referenced))
	for name := range referenced {
		if !declared[name] {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}
