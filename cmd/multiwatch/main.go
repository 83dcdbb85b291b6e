// Package main provides the multiwatch CLI entry point.
//
// multiwatch runs several commands periodically and shows the latest output
// of each one in its own pane, like several watch(1) sessions side by side.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randomizedcoder/multiwatch/internal/config"
	"github.com/randomizedcoder/multiwatch/internal/logging"
	"github.com/randomizedcoder/multiwatch/internal/orchestrator"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/multiwatch
var version = "dev"

// errConfig marks errors that were already reported to the user.
var errConfig = errors.New("configuration error")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.DefaultConfig()
	cmd := newRootCmd(cfg)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errConfig) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "multiwatch [flags] [--] [command [args...]]",
		Short: "Run commands periodically and watch their latest output",
		Long: `multiwatch runs one or more commands over and over and shows the latest
output and exit code of each one in its own pane.

Watches come from a YAML file (--config) and/or the command given after the
flags. A watch re-runs a fixed number of seconds after its previous run
finished, or, with a wait command, as soon as the wait command exits.

Examples:
  multiwatch -n 2 -- df -h
  multiwatch --wait 'inotifywait -e modify src' -- make test
  multiwatch -c watches.yaml --metrics 127.0.0.1:9100`,
		Version:       version,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatches(cmd, cfg, args)
		},
	}
	cmd.SetVersionTemplate("multiwatch {{.Version}}\n")

	// Everything after the first positional argument belongs to the command.
	cmd.Flags().SetInterspersed(false)
	config.BindFlags(cmd.Flags(), cfg)

	return cmd
}

func runWatches(cmd *cobra.Command, cfg *config.Config, args []string) error {
	stderr := cmd.ErrOrStderr()

	// A config file may set default_timeout; an explicit --interval wins.
	interval := cfg.DefaultTimeout
	if err := config.Finalize(cfg, args); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return errConfig
	}
	if cmd.Flags().Changed("interval") {
		cfg.DefaultTimeout = interval
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		fmt.Fprintln(stderr, "Run 'multiwatch --help' for usage.")
		return errConfig
	}

	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logging.SetDefault(logger)

	logger.Info("starting",
		"version", version,
		"watches", len(cfg.Watches),
		"default_timeout", cfg.DefaultTimeout,
		"tui", cfg.TUIEnabled,
		"metrics_addr", cfg.MetricsAddr,
	)

	if !cfg.TUIEnabled {
		printBanner(cmd.OutOrStdout(), cfg)
	}

	orch, err := orchestrator.New(cfg, logger, orchestrator.Options{
		Version: version,
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return errConfig
	}

	if err := orch.Run(cmd.Context()); err != nil {
		logger.Error("orchestrator_failed", "error", err)
		return err
	}
	return nil
}

// newLogger builds the session logger. While the dashboard is shown logs
// go to --log-file, or nowhere.
func newLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	if !cfg.TUIEnabled {
		return logging.NewLogger(cfg.LogFormat, cfg.LogLevel, cfg.Verbose), func() {}, nil
	}
	if cfg.LogFile == "" {
		return logging.NewDiscardLogger(), func() {}, nil
	}

	logger, closer, err := logging.NewFileLogger(cfg.LogFile, cfg.LogFormat, cfg.LogLevel, cfg.Verbose)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = closer.Close() }, nil
}

// printBanner prints the startup banner.
func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(w, "║                            multiwatch                             ║")
	fmt.Fprintln(w, "║            Periodic command execution, one pane each              ║")
	fmt.Fprintln(w, "╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Watches:     %d\n", len(cfg.Watches))
	fmt.Fprintf(w, "  Interval:    %gs (default)\n", cfg.DefaultTimeout)
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(w, "  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Press Ctrl+C to stop.")
	fmt.Fprintln(w)
}
