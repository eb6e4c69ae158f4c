package config

import (
	"github.com/mvp-joe/modcheck/internal/modgraph"
	"github.com/mvp-joe/modcheck/internal/runner"
)

// ToRunnerOptions converts a validated Config to runner options. Logger,
// reporter and filter are left for the caller.
func (c *Config) ToRunnerOptions() (runner.Options, error) {
	policy, err := modgraph.ParsePolicy(c.Policy)
	if err != nil {
		return runner.Options{}, err
	}
	return runner.Options{
		Policy:  policy,
		Workers: c.Workers,
		Timeout: c.Timeout,
	}, nil
}
