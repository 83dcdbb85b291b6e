// Package process spawns watched commands and collects their merged output.
package process

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Poster gets a closure onto the event loop. loop.Scheduler satisfies it.
type Poster interface {
	Post(fn func())
}

// Callbacks receives the events of one run. Both run on the loop goroutine.
type Callbacks struct {
	// OnStart is called once the process has been started.
	// It is not called when the spawn fails.
	OnStart func(runID string, pid int)

	// OnExit is called exactly once per Spawn.
	OnExit func(result Result)
}

// Runner starts commands asynchronously and reports back through a Poster.
type Runner struct {
	poster Poster
	logger *slog.Logger
	env    []string
	dir    string
	now    func() time.Time
}

// RunnerConfig holds configuration for creating a new Runner.
type RunnerConfig struct {
	Poster Poster
	Logger *slog.Logger

	// Env, when non-nil, replaces the inherited environment.
	Env []string

	// Dir is the working directory for every spawned command.
	Dir string
}

// NewRunner creates a new Runner with the given configuration.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		poster: cfg.Poster,
		logger: logger,
		env:    cfg.Env,
		dir:    cfg.Dir,
		now:    time.Now,
	}
}

// Spawn starts argv[0] with argv as its argument vector and returns at once.
// Stdin is the null device. Stdout and stderr go to one buffer, so bytes
// keep the order in which the child wrote them.
func (r *Runner) Spawn(argv []string, cb Callbacks) {
	runID := uuid.NewString()

	if len(argv) == 0 {
		err := fmt.Errorf("%w: empty argument list", ErrSpawnFailure)
		now := r.now()
		r.poster.Post(func() { cb.exit(failed(runID, err, now, now)) })
		return
	}

	go r.run(runID, argv, cb)
}

func (r *Runner) run(runID string, argv []string, cb Callbacks) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = r.env
	cmd.Dir = r.dir

	// Same comparable writer for both streams: exec shares one pipe and a
	// single copying goroutine between them.
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	startedAt := r.now()
	if err := cmd.Start(); err != nil {
		r.logger.Debug("watch_spawn_failed",
			"run_id", runID,
			"command", argv[0],
			"error", err,
		)
		spawnErr := fmt.Errorf("%w: %s: %v", ErrSpawnFailure, argv[0], err)
		finishedAt := r.now()
		r.poster.Post(func() { cb.exit(failed(runID, spawnErr, startedAt, finishedAt)) })
		return
	}

	pid := cmd.Process.Pid
	r.logger.Debug("watch_started",
		"run_id", runID,
		"command", argv[0],
		"pid", pid,
	)
	r.poster.Post(func() {
		if cb.OnStart != nil {
			cb.OnStart(runID, pid)
		}
	})

	waitErr := cmd.Wait()
	finishedAt := r.now()
	result := buildResult(runID, output.Bytes(), cmd, waitErr)
	result.StartedAt = startedAt
	result.FinishedAt = finishedAt

	r.logger.Debug("watch_exited",
		"run_id", runID,
		"pid", pid,
		"exit_code", result.ExitCode,
		"duration", result.Duration().String(),
		"error", result.Err,
	)
	r.poster.Post(func() { cb.exit(result) })
}

func (cb Callbacks) exit(result Result) {
	if cb.OnExit != nil {
		cb.OnExit(result)
	}
}

// buildResult turns the raw output and wait error into a Result.
func buildResult(runID string, raw []byte, cmd *exec.Cmd, waitErr error) Result {
	exitCode, err := exitStatus(cmd, waitErr)
	if err != nil {
		return failed(runID, err, time.Time{}, time.Time{})
	}

	if err := validateUTF8(raw); err != nil {
		return failed(runID, err, time.Time{}, time.Time{})
	}

	return Result{
		RunID:    runID,
		Output:   string(raw),
		ExitCode: exitCode,
	}
}

// validateUTF8 returns an ErrOutputDecode error locating the first bad byte.
func validateUTF8(raw []byte) error {
	if utf8.Valid(raw) {
		return nil
	}
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			return fmt.Errorf("%w: invalid byte 0x%02x at offset %d", ErrOutputDecode, raw[i], i)
		}
		i += size
	}
	return ErrOutputDecode
}

// exitStatus extracts the exit code from a Wait() error.
func exitStatus(cmd *exec.Cmd, waitErr error) (int, error) {
	if waitErr == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if sig, ok := signalName(exitErr.ProcessState); ok {
			return -1, &SignalError{Signal: sig}
		}
		return exitErr.ExitCode(), nil
	}

	// The process ran but copying its output failed.
	if cmd.ProcessState != nil {
		if sig, ok := signalName(cmd.ProcessState); ok {
			return -1, &SignalError{Signal: sig}
		}
		return cmd.ProcessState.ExitCode(), nil
	}
	return -1, fmt.Errorf("%w: %v", ErrSpawnFailure, waitErr)
}
