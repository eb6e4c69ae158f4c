package scan

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// language describes how references and local declarations look in one grammar.
type language struct {
	grammar *sitter.Language

	// isReference reports whether n names an external symbol.
	isReference func(n *sitter.Node) bool

	// isDeclaration reports whether n is the name of a type declared in the
	// scanned source itself. Such names never count as references.
	isDeclaration func(n *sitter.Node) bool
}

var languages = map[string]*language{
	"c": {
		grammar: sitter.NewLanguage(c.Language()),
		isReference: func(n *sitter.Node) bool {
			switch n.Kind() {
			case "type_identifier":
				return true
			case "identifier":
				return isField(n.Parent(), "call_expression", "function", n)
			}
			return false
		},
		isDeclaration: func(n *sitter.Node) bool {
			parent := n.Parent()
			if parent == nil || n.Kind() != "type_identifier" {
				return false
			}
			switch parent.Kind() {
			case "type_definition":
				return isField(parent, "type_definition", "declarator", n)
			case "struct_specifier", "union_specifier", "enum_specifier":
				return parent.ChildByFieldName("body") != nil && isField(parent, parent.Kind(), "name", n)
			}
			return false
		},
	},
	"java": {
		grammar: sitter.NewLanguage(java.Language()),
		isReference: func(n *sitter.Node) bool {
			return n.Kind() == "type_identifier"
		},
		isDeclaration: func(n *sitter.Node) bool {
			return n.Kind() == "identifier" && isNameOf(n, "class_declaration", "interface_declaration", "enum_declaration", "record_declaration")
		},
	},
	"rust": {
		grammar: sitter.NewLanguage(rust.Language()),
		isReference: func(n *sitter.Node) bool {
			return n.Kind() == "type_identifier"
		},
		isDeclaration: func(n *sitter.Node) bool {
			return n.Kind() == "type_identifier" && isNameOf(n, "struct_item", "enum_item", "union_item", "trait_item", "type_item")
		},
	},
	"typescript": {
		grammar:       sitter.NewLanguage(typescript.LanguageTypescript()),
		isReference:   typescriptReference,
		isDeclaration: typescriptDeclaration,
	},
	"tsx": {
		grammar:       sitter.NewLanguage(typescript.LanguageTSX()),
		isReference:   typescriptReference,
		isDeclaration: typescriptDeclaration,
	},
	"python": {
		grammar: sitter.NewLanguage(python.Language()),
		isReference: func(n *sitter.Node) bool {
			if n.Kind() != "identifier" {
				return false
			}
			parent := n.Parent()
			if parent == nil {
				return false
			}
			switch parent.Kind() {
			case "argument_list":
				// Base classes: class Foo(Base)
				return isField(parent.Parent(), "class_definition", "superclasses", parent)
			case "call":
				return isField(parent, "call", "function", n)
			}
			return false
		},
		isDeclaration: func(n *sitter.Node) bool {
			return n.Kind() == "identifier" && isNameOf(n, "class_definition", "function_definition")
		},
	},
	"php": {
		grammar: sitter.NewLanguage(php.LanguagePHP()),
		isReference: func(n *sitter.Node) bool {
			if n.Kind() != "name" || n.Parent() == nil {
				return false
			}
			switch n.Parent().Kind() {
			case "base_clause", "class_interface_clause", "named_type", "object_creation_expression":
				return true
			}
			return false
		},
		isDeclaration: func(n *sitter.Node) bool {
			return n.Kind() == "name" && isNameOf(n, "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration")
		},
	},
	"ruby": {
		grammar: sitter.NewLanguage(ruby.Language()),
		isReference: func(n *sitter.Node) bool {
			return n.Kind() == "constant"
		},
		isDeclaration: func(n *sitter.Node) bool {
			return n.Kind() == "constant" && isNameOf(n, "class", "module")
		},
	},
}

func typescriptReference(n *sitter.Node) bool {
	switch n.Kind() {
	case "type_identifier":
		return true
	case "identifier":
		// class Foo extends Base
		return n.Parent() != nil && n.Parent().Kind() == "extends_clause"
	}
	return false
}

func typescriptDeclaration(n *sitter.Node) bool {
	return isNameOf(n, "class_declaration", "abstract_class_declaration", "interface_declaration", "type_alias_declaration", "enum_declaration")
}

// isNameOf reports whether n is the "name" field of a parent of one of the given kinds.
func isNameOf(n *sitter.Node, kinds ...string) bool {
	parent := n.Parent()
	if parent == nil {
		return false
	}
	for _, k := range kinds {
		if parent.Kind() == k {
			return isField(parent, k, "name", n)
		}
	}
	return false
}

// isField reports whether n is the given field of parent, and parent has the given kind.
func isField(parent *sitter.Node, kind, field string, n *sitter.Node) bool {
	if parent == nil || parent.Kind() != kind {
		return false
	}
	f := parent.ChildByFieldName(field)
	return f != nil && f.StartByte() == n.StartByte() && f.EndByte() == n.EndByte()
}
