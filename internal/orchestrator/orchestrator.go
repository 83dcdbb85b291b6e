// Package orchestrator wires the event loop, the process runner, the watches
// and their sinks together and runs them until interrupted.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/randomizedcoder/multiwatch/internal/config"
	"github.com/randomizedcoder/multiwatch/internal/logging"
	"github.com/randomizedcoder/multiwatch/internal/loop"
	"github.com/randomizedcoder/multiwatch/internal/metrics"
	"github.com/randomizedcoder/multiwatch/internal/preflight"
	"github.com/randomizedcoder/multiwatch/internal/process"
	"github.com/randomizedcoder/multiwatch/internal/stats"
	"github.com/randomizedcoder/multiwatch/internal/tui"
	"github.com/randomizedcoder/multiwatch/internal/watch"
)

// plainWidth is the pane width used when the dashboard is disabled.
const plainWidth = 80

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

// Orchestrator coordinates all components of a multiwatch session.
type Orchestrator struct {
	config  *config.Config
	logger  *slog.Logger
	version string
	out     io.Writer

	loop     *loop.Loop
	runner   *process.Runner
	watches  []*watch.Watch
	recorder *stats.Recorder
	bridge   *tui.Bridge // nil when the dashboard is disabled

	metrics       *metrics.Collector // nil when metrics are disabled
	metricsServer *metrics.Server

	startTime time.Time
}

// Options holds optional settings for New.
type Options struct {
	Version string

	// Out receives plain panes and the exit summary. Default os.Stdout.
	Out io.Writer
}

// New builds every watch in cfg. cfg must already be validated.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Orchestrator, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	l := loop.New(loop.Config{Logger: logger})
	o := &Orchestrator{
		config:   cfg,
		logger:   logger,
		version:  opts.Version,
		out:      out,
		loop:     l,
		runner:   process.NewRunner(process.RunnerConfig{Poster: l, Logger: logger}),
		recorder: stats.NewRecorder(),
	}

	sinks := watch.Sinks{logging.NewSink(logger), o.recorder}
	var redrawer watch.Redrawer
	if cfg.TUIEnabled {
		o.bridge = tui.NewBridge(nil)
		sinks = append(sinks, o.bridge)
		redrawer = o.bridge
	} else {
		sinks = append(sinks, tui.NewPlain(out, plainWidth))
	}

	if cfg.MetricsAddr != "" {
		o.metrics = metrics.NewCollector(metrics.CollectorConfig{
			Version: opts.Version,
			Watches: len(cfg.Watches),
		})
		o.metricsServer = metrics.NewServer(cfg.MetricsAddr, logger)
		sinks = append(sinks, o.metrics)
	}

	watches, err := watch.FromConfig(cfg, watch.Deps{
		Scheduler: l,
		Spawner:   o.runner,
		Sink:      sinks,
		Redrawer:  redrawer,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	o.watches = watches

	return o, nil
}

// Run starts every watch and blocks until the dashboard is closed, a
// signal arrives or ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.startTime = time.Now()

	if !o.config.SkipPreflight {
		if err := o.preflight(); err != nil {
			return err
		}
	}

	if o.metricsServer != nil {
		if err := o.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	// Setup signal handling
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	// The program must be attached before the loop delivers anything.
	var program *tea.Program
	if o.bridge != nil {
		panes := make([]tui.PaneInfo, 0, len(o.watches))
		for _, w := range o.watches {
			panes = append(panes, tui.PaneInfoFor(w))
		}
		program = tea.NewProgram(
			tui.New(tui.Config{Panes: panes, MetricsAddr: o.config.MetricsAddr}),
			tea.WithAltScreen(),
		)
		o.bridge.Attach(program)
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = o.loop.Run(ctx)
	}()

	o.logger.Info("watches_starting", "watches", len(o.watches))
	o.loop.Post(o.triggerAll)

	var runErr error
	if program != nil {
		runErr = o.runTUI(ctx, program, sigCh)
	} else {
		o.waitForStop(ctx, sigCh)
	}

	// Stop the loop; in-flight runs are abandoned.
	cancel()
	<-loopDone

	if o.metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := o.metricsServer.Shutdown(shutdownCtx); err != nil {
			o.logger.Warn("metrics_server_shutdown_error", "error", err)
		}
	}

	o.printExitSummary()
	return runErr
}

// preflight checks resource limits and executables. Results are printed
// in plain mode and logged otherwise, since the dashboard owns the screen.
func (o *Orchestrator) preflight() error {
	result := preflight.RunAll(preflight.CommandsFor(o.config))
	if o.bridge == nil {
		preflight.PrintResults(o.out, result)
	}
	for _, c := range result.Warnings() {
		o.logger.Warn("preflight_check",
			"check", c.Name,
			"passed", c.Passed,
			"message", c.Message,
		)
	}
	if !result.Passed {
		return fmt.Errorf("preflight checks failed (use --skip-preflight to override)")
	}
	return nil
}

// triggerAll starts the first run of every watch. Runs on the loop.
func (o *Orchestrator) triggerAll() {
	for _, w := range o.watches {
		if err := w.Trigger(); err != nil {
			o.logger.Error("watch_initial_trigger_failed",
				"watch_id", w.ID(),
				"error", err,
			)
		}
	}
}

func (o *Orchestrator) runTUI(ctx context.Context, program *tea.Program, sigCh <-chan os.Signal) error {
	tuiDone := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			o.logger.Info("received_signal", "signal", sig.String())
			tui.SendQuit(program)
		case <-ctx.Done():
			o.logger.Info("context_cancelled")
			tui.SendQuit(program)
		case <-tuiDone:
		}
	}()

	_, err := program.Run()
	close(tuiDone)
	if err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

func (o *Orchestrator) waitForStop(ctx context.Context, sigCh <-chan os.Signal) {
	select {
	case sig := <-sigCh:
		o.logger.Info("received_signal", "signal", sig.String())
	case <-ctx.Done():
		o.logger.Info("context_cancelled")
	}
}

// printExitSummary writes the per-watch table. Only call after the loop
// has stopped.
func (o *Orchestrator) printExitSummary() {
	fmt.Fprint(o.out, stats.FormatExitSummary(
		o.recorder.Summaries(o.watches),
		stats.SummaryConfig{
			Duration:    time.Since(o.startTime),
			MetricsAddr: o.config.MetricsAddr,
		},
	))
}

// Watches returns the configured watches in order.
func (o *Orchestrator) Watches() []*watch.Watch {
	return o.watches
}
