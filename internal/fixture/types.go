package fixture

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// File is the top-level document of a fixture file.
type File struct {
	Fixtures []Fixture `yaml:"fixtures" json:"fixtures"`
}

// Fixture is a self-contained test case: a module graph, the targets built
// against it and the outcome each target is expected to produce.
type Fixture struct {
	Name    string       `yaml:"name" json:"name"`
	Policy  string       `yaml:"policy,omitempty" json:"policy,omitempty"` // Overrides the configured policy
	Modules ModuleList   `yaml:"modules" json:"modules"`
	Targets []Target     `yaml:"targets" json:"targets"`
	Expect  *Expectation `yaml:"expect,omitempty" json:"expect,omitempty"` // Expected graph construction failure

	Path string `yaml:"-" json:"-"` // File the fixture was loaded from
}

// ModuleSpec declares one module.
type ModuleSpec struct {
	ID        string   `yaml:"id" json:"id"`
	Exports   []string `yaml:"exports" json:"exports"`
	DependsOn []string `yaml:"dependsOn" json:"dependsOn"`
	External  []string `yaml:"external" json:"external"`
}

// ModuleList is the ordered module declaration list of a fixture.
//
// It decodes either from a mapping of module id to declaration, preserving
// key order and duplicate keys, or from a sequence of declarations with ids.
type ModuleList []ModuleSpec

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *ModuleList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if err := checkModuleKeys(item); err != nil {
				return err
			}
		}
		var specs []ModuleSpec
		if err := node.Decode(&specs); err != nil {
			return err
		}
		*l = specs
		return nil

	case yaml.MappingNode:
		specs := make([]ModuleSpec, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: module id must be a string", key.Line)
			}

			var spec ModuleSpec
			// A bare key ("UIKit:") declares a module with no exports or dependencies.
			if !(value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
				if err := checkModuleKeys(value); err != nil {
					return fmt.Errorf("module %q: %w", key.Value, err)
				}
				if err := value.Decode(&spec); err != nil {
					return fmt.Errorf("module %q: %w", key.Value, err)
				}
			}
			if spec.ID != "" && spec.ID != key.Value {
				return fmt.Errorf("line %d: module key %q does not match id %q", key.Line, key.Value, spec.ID)
			}
			spec.ID = key.Value
			specs = append(specs, spec)
		}
		*l = specs
		return nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil
			return nil
		}
	}
	return fmt.Errorf("line %d: modules must be a mapping or a sequence", node.Line)
}

var moduleKeys = map[string]bool{
	"id":        true,
	"exports":   true,
	"dependsOn": true,
	"external":  true,
}

// checkModuleKeys rejects unknown keys in a module declaration. Nested
// Decode calls do not inherit the loader's KnownFields setting.
func checkModuleKeys(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !moduleKeys[key.Value] {
			return fmt.Errorf("line %d: field %s not found in module declaration", key.Line, key.Value)
		}
	}
	return nil
}

// Target declares a buildable unit and its expected outcome.
type Target struct {
	ID        string      `yaml:"id" json:"id"`
	Module    string      `yaml:"module" json:"module"`
	Imports   []string    `yaml:"imports" json:"imports"`
	Fragments []Fragment  `yaml:"fragments" json:"fragments"`
	Toggle    string      `yaml:"toggle,omitempty" json:"toggle,omitempty"` // Fragment whose presence flips the outcome
	Expect    Expectation `yaml:"expect" json:"expect"`
}

// Fragment is one source unit of a target. References are listed directly,
// or extracted from Source by the scanner for the given Language.
type Fragment struct {
	Name       string   `yaml:"name" json:"name"`
	References []string `yaml:"references" json:"references"`
	Source     string   `yaml:"source,omitempty" json:"source,omitempty"`
	Language   string   `yaml:"language,omitempty" json:"language,omitempty"`
}

// Outcome names the expected result of a check.
type Outcome string

const (
	OutcomePass Outcome = "pass"
	OutcomeFail Outcome = "fail"
)

// Expectation is the expected outcome of a target, or of graph construction.
type Expectation struct {
	Outcome   Outcome `yaml:"outcome" json:"outcome"`
	ErrorKind string  `yaml:"errorKind,omitempty" json:"errorKind,omitempty"`
	Symbol    string  `yaml:"symbol,omitempty" json:"symbol,omitempty"`
}

// String formats the expectation the way reports print outcomes.
func (e Expectation) String() string {
	if e.Outcome != OutcomeFail {
		return string(OutcomePass)
	}
	if e.Symbol != "" {
		return fmt.Sprintf("fail %s(%s)", e.ErrorKind, e.Symbol)
	}
	return fmt.Sprintf("fail %s", e.ErrorKind)
}
