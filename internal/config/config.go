// Package config loads modcheck settings.
//
// Configuration Hierarchy (highest to lowest priority):
//  1. Command-line flags (applied by the CLI)
//  2. Environment variables (MODCHECK_*)
//  3. Config file (.modcheck/config.yml, or the file passed with --config)
//  4. Built-in defaults
//
// Nested keys map to environment variables with underscores, e.g.
// history.path is MODCHECK_HISTORY_PATH.
package config

import (
	"runtime"
	"time"
)

// Config represents the complete modcheck configuration.
type Config struct {
	Policy  string        `yaml:"policy" mapstructure:"policy"`   // "strict" or "permissive"
	Workers int           `yaml:"workers" mapstructure:"workers"` // fixtures checked concurrently
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // per-fixture timeout
	History HistoryConfig `yaml:"history" mapstructure:"history"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
	Scan    ScanConfig    `yaml:"scan" mapstructure:"scan"`
}

// HistoryConfig controls the SQLite run history.
type HistoryConfig struct {
	Path    string `yaml:"path" mapstructure:"path"`       // relative paths resolve against the project root
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"` // record every run, not only --record runs
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
}

// ScanConfig controls fragment source scanning.
type ScanConfig struct {
	DefaultLanguage string `yaml:"default_language" mapstructure:"default_language"` // language of fragments that name none
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Policy:  "strict",
		Workers: runtime.NumCPU(),
		Timeout: 30 * time.Second,
		History: HistoryConfig{
			Path:    ".modcheck/history.db",
			Enabled: false,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
		Scan: ScanConfig{
			DefaultLanguage: "",
		},
	}
}
