package config

import (
	"github.com/spf13/pflag"
)

// BindFlags registers the command-line flags on fs, writing into cfg.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	// Watches
	fs.StringVarP(&cfg.ConfigPath, "config", "c", cfg.ConfigPath, "YAML file listing the watches")
	fs.Float64VarP(&cfg.DefaultTimeout, "interval", "n", cfg.DefaultTimeout, "Seconds between runs for watches without a timeout")
	fs.StringVarP(&cfg.Title, "title", "t", cfg.Title, "Title for the command given on the command line")
	fs.StringVarP(&cfg.WaitCommand, "wait", "w", cfg.WaitCommand, "Command whose exit re-runs the command given on the command line")

	// Display
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable the terminal dashboard (--tui=false logs results instead)")

	// Safety
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty = disabled)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, `Log level: "debug", "info", "warn" or "error"`)
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Write logs to this file (logs are discarded while the dashboard is shown otherwise)")
}

// Finalize loads the config file (if any) and appends the ad-hoc watch built
// from positional args. Call after flag parsing, before Validate.
func Finalize(cfg *Config, args []string) error {
	if cfg.ConfigPath != "" {
		if err := LoadFile(cfg, cfg.ConfigPath); err != nil {
			return err
		}
	}

	if len(args) > 0 {
		spec, err := AdHocWatch(args, cfg.Title, cfg.WaitCommand)
		if err != nil {
			return ValidationError{Field: "wait", Message: err.Error()}
		}
		cfg.Watches = append(cfg.Watches, spec)
	}
	return nil
}
