package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// MalformedFixtureError reports fixture input that cannot be decoded or
// fails validation. It is fatal to the whole run.
type MalformedFixtureError struct {
	Path string
	Err  error
}

func (e *MalformedFixtureError) Error() string {
	return fmt.Sprintf("malformed fixture %s: %v", e.Path, e.Err)
}

func (e *MalformedFixtureError) Unwrap() error { return e.Err }

// Option configures fixture decoding.
type Option func(*options)

type options struct {
	defaultLanguage string
}

// WithDefaultLanguage sets the language of source fragments that name none.
func WithDefaultLanguage(lang string) Option {
	return func(o *options) { o.defaultLanguage = lang }
}

// Load reads and validates a fixture file. JSON files are accepted as YAML.
func Load(path string, opts ...Option) ([]Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MalformedFixtureError{Path: path, Err: err}
	}
	return Parse(path, data, opts...)
}

// Parse decodes and validates fixture file contents. path is used for error
// attribution only.
func Parse(path string, data []byte, opts ...Option) ([]Fixture, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var file File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("file is empty")
		}
		return nil, &MalformedFixtureError{Path: path, Err: err}
	}

	for i := range file.Fixtures {
		f := &file.Fixtures[i]
		f.Path = path
		if o.defaultLanguage == "" {
			continue
		}
		for j := range f.Targets {
			for k := range f.Targets[j].Fragments {
				frag := &f.Targets[j].Fragments[k]
				if frag.Source != "" && frag.Language == "" {
					frag.Language = o.defaultLanguage
				}
			}
		}
	}

	if err := Validate(file.Fixtures); err != nil {
		return nil, &MalformedFixtureError{Path: path, Err: err}
	}
	return file.Fixtures, nil
}

// LoadAll loads every file in order. Fixture names must be unique across files.
func LoadAll(paths []string, opts ...Option) ([]Fixture, error) {
	var all []Fixture
	seen := make(map[string]string)

	for _, path := range paths {
		fixtures, err := Load(path, opts...)
		if err != nil {
			return nil, err
		}
		for _, f := range fixtures {
			if other, dup := seen[f.Name]; dup {
				return nil, &MalformedFixtureError{
					Path: path,
					Err:  fmt.Errorf("fixture %q already defined in %s", f.Name, other),
				}
			}
			seen[f.Name] = path
		}
		all = append(all, fixtures...)
	}

	return all, nil
}
