package cli

import (
	"errors"

	"github.com/mvp-joe/modcheck/internal/fixture"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1 // At least one fixture failed
	ExitUsage   = 2 // Malformed fixtures, bad flags or configuration
)

// errFixturesFailed marks a run that completed with failing fixtures.
var errFixturesFailed = errors.New("fixtures failed")

// exitError attaches an exit code to an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error {
	return &exitError{code: ExitUsage, err: err}
}

func failureError(err error) error {
	return &exitError{code: ExitFailure, err: err}
}

// exitCode maps an error returned by a command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	var malformed *fixture.MalformedFixtureError
	if errors.As(err, &malformed) {
		return ExitUsage
	}
	return ExitFailure
}
