package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/modcheck/internal/modgraph"
	"github.com/mvp-joe/modcheck/internal/scan"
)

var (
	// ErrInvalidPolicy indicates an unsupported unknown-dependency policy
	ErrInvalidPolicy = errors.New("invalid policy")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid workers")

	// ErrInvalidTimeout indicates a non-positive fixture timeout
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidHistory indicates unusable history settings
	ErrInvalidHistory = errors.New("invalid history settings")

	// ErrInvalidDebounce indicates a negative watch debounce
	ErrInvalidDebounce = errors.New("invalid watch debounce")

	// ErrUnsupportedLanguage indicates a default scan language with no grammar
	ErrUnsupportedLanguage = errors.New("unsupported scan language")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := modgraph.ParsePolicy(cfg.Policy); err != nil {
		errs = append(errs, fmt.Errorf("%w: must be 'strict' or 'permissive', got '%s'", ErrInvalidPolicy, cfg.Policy))
	}

	if cfg.Workers <= 0 {
		errs = append(errs, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidTimeout, cfg.Timeout))
	}

	if err := validateHistory(&cfg.History); err != nil {
		errs = append(errs, err)
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce cannot be negative, got %s", ErrInvalidDebounce, cfg.Watch.Debounce))
	}

	if lang := cfg.Scan.DefaultLanguage; lang != "" && !scan.Supported(lang) {
		errs = append(errs, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedLanguage, lang, strings.Join(scan.Languages(), ", ")))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateHistory(cfg *HistoryConfig) error {
	// An empty path is only a problem when recording is on by default
	if cfg.Enabled && strings.TrimSpace(cfg.Path) == "" {
		return fmt.Errorf("%w: path is required when history is enabled", ErrInvalidHistory)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
