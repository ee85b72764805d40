package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Command) == "" {
		errs = append(errs, ValidationError{
			Field:   "command",
			Message: "a command string is required",
		})
	}

	if cfg.EstDuration < 0 {
		errs = append(errs, ValidationError{
			Field:   "est",
			Message: "must not be negative",
		})
	}

	if cfg.Repeat < 1 {
		errs = append(errs, ValidationError{
			Field:   "repeat",
			Message: "must be at least 1",
		})
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "log-format",
			Message: `must be "text" or "json"`,
		})
	}

	if cfg.Shell == "" {
		errs = append(errs, ValidationError{
			Field:   "shell",
			Message: "must not be empty",
		})
	}

	if cfg.TUIEnabled && cfg.Repeat > 1 {
		errs = append(errs, ValidationError{
			Field:   "tui",
			Message: "cannot be combined with -repeat",
		})
	}

	return errors.Join(errs...)
}
