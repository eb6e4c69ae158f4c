package modgraph

import (
	"fmt"
	"strings"
)

// Policy controls how AddModule treats dependencies on undeclared modules.
type Policy string

const (
	// PolicyStrict rejects unknown dependencies with UnknownDependencyError.
	PolicyStrict Policy = "strict"
	// PolicyPermissive accepts unknown dependencies and marks them unresolved.
	PolicyPermissive Policy = "permissive"
)

// ParsePolicy parses a policy name. The empty string yields PolicyStrict.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(PolicyStrict):
		return PolicyStrict, nil
	case string(PolicyPermissive):
		return PolicyPermissive, nil
	default:
		return "", fmt.Errorf("invalid policy %q: must be 'strict' or 'permissive'", s)
	}
}
