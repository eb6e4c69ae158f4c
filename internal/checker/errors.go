package checker

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/modcheck/internal/modgraph"
)

const (
	KindUnresolvedSymbol modgraph.ErrorKind = "UnresolvedSymbol"
	KindUndeclaredImport modgraph.ErrorKind = "UndeclaredImport"
)

// UnresolvedSymbolError reports a fragment reference that the target's
// synthesized header cannot resolve.
type UnresolvedSymbolError struct {
	Target   string
	Fragment string
	Symbol   string

	// DeclaredIn lists graph modules that export Symbol but are missing from
	// the target's closure. Empty when no module exports it.
	DeclaredIn []string
}

func (e *UnresolvedSymbolError) Error() string {
	msg := fmt.Sprintf("target %q fragment %q: unresolved symbol %q", e.Target, e.Fragment, e.Symbol)
	if len(e.DeclaredIn) > 0 {
		msg += fmt.Sprintf(" (exported by %s, not in the dependency closure)", strings.Join(e.DeclaredIn, ", "))
	}
	return msg
}

func (e *UnresolvedSymbolError) Kind() modgraph.ErrorKind { return KindUnresolvedSymbol }

// UndeclaredImportError reports an import statement naming a module that is
// not part of the target's declared dependency closure.
type UndeclaredImportError struct {
	Target string
	Import string
}

func (e *UndeclaredImportError) Error() string {
	return fmt.Sprintf("target %q imports %q, which is not a declared dependency", e.Target, e.Import)
}

func (e *UndeclaredImportError) Kind() modgraph.ErrorKind { return KindUndeclaredImport }
