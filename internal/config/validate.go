package config

import (
	"errors"
	"fmt"
	"math"
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
// Returns nil if valid, or an error describing every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if len(cfg.Watches) == 0 {
		errs = append(errs, ValidationError{
			Field:   "watches",
			Message: "at least one watch is required (use --config or pass a command)",
		})
	}

	if !validTimeout(cfg.DefaultTimeout) {
		errs = append(errs, ValidationError{
			Field:   "default_timeout",
			Message: fmt.Sprintf("must be a positive number of seconds (got %v)", cfg.DefaultTimeout),
		})
	}

	for i, spec := range cfg.Watches {
		errs = append(errs, validateWatch(i, spec)...)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[cfg.LogLevel] {
		errs = append(errs, ValidationError{
			Field:   "log_level",
			Message: fmt.Sprintf("must be one of: debug, info, warn, error (got %q)", cfg.LogLevel),
		})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

func validateWatch(i int, spec WatchSpec) []error {
	var errs []error

	if _, err := spec.Argv(); err != nil {
		errs = append(errs, ValidationError{
			Field:   WatchField(i, "arglist"),
			Message: err.Error(),
		})
	} else if len(spec.Arglist) > 0 && spec.Arglist[0] == "" {
		errs = append(errs, ValidationError{
			Field:   WatchField(i, "arglist"),
			Message: "executable must not be empty",
		})
	}

	if spec.Timeout != nil && !validTimeout(*spec.Timeout) {
		errs = append(errs, ValidationError{
			Field:   WatchField(i, "timeout"),
			Message: fmt.Sprintf("must be a positive number of seconds (got %v)", *spec.Timeout),
		})
	}

	if spec.WaitCommand != nil {
		if len(spec.WaitCommand.Cmd) == 0 || spec.WaitCommand.Cmd[0] == "" {
			errs = append(errs, ValidationError{
				Field:   WatchField(i, "wait_command.cmd"),
				Message: "must not be empty",
			})
		}
	}

	return errs
}

func validTimeout(s float64) bool {
	return s > 0 && !math.IsInf(s, 0) && !math.IsNaN(s)
}
