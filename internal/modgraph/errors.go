package modgraph

import (
	"fmt"
	"strings"
)

// ErrorKind classifies harness errors. Fixtures name expected failures by kind.
type ErrorKind string

const (
	KindDuplicateModule   ErrorKind = "DuplicateModule"
	KindUnknownDependency ErrorKind = "UnknownDependency"
	KindCyclicDependency  ErrorKind = "CyclicDependency"
	KindUnknownModule     ErrorKind = "UnknownModule"
)

// KindError is implemented by every classified harness error.
type KindError interface {
	error
	Kind() ErrorKind
}

// DuplicateModuleError is returned when a module id is declared twice.
type DuplicateModuleError struct {
	Module string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("duplicate module %q", e.Module)
}

func (e *DuplicateModuleError) Kind() ErrorKind { return KindDuplicateModule }

// UnknownDependencyError is returned in strict mode when a module depends on
// a module that has not been declared.
type UnknownDependencyError struct {
	Module     string
	Dependency string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("module %q depends on unknown module %q", e.Module, e.Dependency)
}

func (e *UnknownDependencyError) Kind() ErrorKind { return KindUnknownDependency }

// CyclicDependencyError is returned when a closure contains a dependency cycle.
// Cycle lists the modules on the cycle, first module repeated at the end.
type CyclicDependencyError struct {
	Module string
	Cycle  []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle in closure of %q: %s", e.Module, strings.Join(e.Cycle, " -> "))
}

func (e *CyclicDependencyError) Kind() ErrorKind { return KindCyclicDependency }

// UnknownModuleError is returned when a closure is requested for a module
// that is not in the graph.
type UnknownModuleError struct {
	Module string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("unknown module %q", e.Module)
}

func (e *UnknownModuleError) Kind() ErrorKind { return KindUnknownModule }
