// Package config provides configuration management for multiwatch.
package config

import (
	"errors"
	"fmt"

	"github.com/google/shlex"
)

// DefaultTimeout is the refresh delay in seconds for watches that set none.
const DefaultTimeout = 5.0

// Config holds all configuration options for a multiwatch session.
type Config struct {
	// Watches
	Watches        []WatchSpec `json:"watches"`
	DefaultTimeout float64     `json:"default_timeout"` // seconds
	ConfigPath     string      `json:"config_path"`

	// Ad-hoc watch from the command line
	Title       string `json:"title"`
	WaitCommand string `json:"wait_command"`

	// Observability
	MetricsAddr string `json:"metrics_addr"` // empty = disabled
	Verbose     bool   `json:"verbose"`
	LogFormat   string `json:"log_format"` // json, text
	LogLevel    string `json:"log_level"`
	LogFile     string `json:"log_file"`

	// Display
	TUIEnabled bool `json:"tui"`

	// Safety
	SkipPreflight bool `json:"skip_preflight"`
}

// WaitCommand is the dependent command of a watch.
type WaitCommand struct {
	Cmd []string `yaml:"cmd" json:"cmd"`
}

// WatchSpec is one entry of the watch list.
type WatchSpec struct {
	Title string `yaml:"title,omitempty" json:"title,omitempty"`

	// Exactly one of Arglist and Command is set. Command is split with
	// shell word rules.
	Arglist []string `yaml:"arglist,omitempty" json:"arglist,omitempty"`
	Command string   `yaml:"command,omitempty" json:"command,omitempty"`

	// Timeout is the delay in seconds between runs; nil = default.
	Timeout *float64 `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// WaitCommand, when set, replaces the fixed delay.
	WaitCommand *WaitCommand `yaml:"wait_command,omitempty" json:"wait_command,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		DefaultTimeout: DefaultTimeout,

		MetricsAddr: "",
		Verbose:     false,
		LogFormat:   "text",
		LogLevel:    "info",

		TUIEnabled: true,
	}
}

// Argv returns the command to run.
func (s WatchSpec) Argv() ([]string, error) {
	switch {
	case len(s.Arglist) > 0 && s.Command != "":
		return nil, errors.New("arglist and command are mutually exclusive")
	case len(s.Arglist) > 0:
		return append([]string(nil), s.Arglist...), nil
	case s.Command != "":
		argv, err := shlex.Split(s.Command)
		if err != nil {
			return nil, fmt.Errorf("split command %q: %w", s.Command, err)
		}
		if len(argv) == 0 {
			return nil, errors.New("command must not be blank")
		}
		return argv, nil
	default:
		return nil, errors.New("arglist must not be empty")
	}
}

// TimeoutOr returns the configured timeout or def.
func (s WatchSpec) TimeoutOr(def float64) float64 {
	if s.Timeout == nil {
		return def
	}
	return *s.Timeout
}

// AdHocWatch builds the watch spec for command-line arguments.
func AdHocWatch(args []string, title, waitCommand string) (WatchSpec, error) {
	spec := WatchSpec{
		Title:   title,
		Arglist: append([]string(nil), args...),
	}
	if waitCommand != "" {
		argv, err := shlex.Split(waitCommand)
		if err != nil {
			return WatchSpec{}, fmt.Errorf("split wait command %q: %w", waitCommand, err)
		}
		spec.WaitCommand = &WaitCommand{Cmd: argv}
	}
	return spec, nil
}

// WatchField names a field of the i-th watch for error messages.
func WatchField(i int, field string) string {
	return fmt.Sprintf("watches[%d].%s", i, field)
}
