package watch

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/randomizedcoder/multiwatch/internal/process"
)

// PeriodUnavailable is displayed for strategies without a fixed period.
const PeriodUnavailable = "n/a"

// WaitSpawnRetryDelay paces a watch whose wait command cannot be started.
// A spawn failure is not a termination, so it must not trigger at once.
const WaitSpawnRetryDelay = 5 * time.Second

// Retrigger decides when a finished watch fires again.
// The set of implementations is closed: FixedDelay and DependentCommand.
type Retrigger interface {
	// Start arranges exactly one future trigger of w.
	Start(w *Watch)

	// Period is the value displayed as the watch's refresh period.
	Period() string

	validate() error
}

// FixedDelay triggers the watch Delay after the previous run finished,
// however long that run took.
type FixedDelay struct {
	Delay time.Duration
}

// Seconds converts a configured timeout in seconds to a FixedDelay.
func Seconds(s float64) FixedDelay {
	return FixedDelay{Delay: time.Duration(s * float64(time.Second))}
}

func (f FixedDelay) Start(w *Watch) {
	w.arm()
	w.scheduler.AfterFunc(f.Delay, w.fire)
	w.logger.Debug("retrigger_armed",
		"watch_id", w.id,
		"strategy", "fixed_delay",
		"delay", f.Delay.String(),
	)
}

func (f FixedDelay) Period() string {
	return strconv.FormatFloat(f.Delay.Seconds(), 'f', -1, 64)
}

func (f FixedDelay) validate() error {
	if f.Delay <= 0 {
		return fmt.Errorf("delay must be positive (got %s)", f.Delay)
	}
	return nil
}

// DependentCommand runs Argv and triggers the watch as soon as it exits.
// Its exit code and output are ignored. If Argv cannot be started the
// watch triggers after WaitSpawnRetryDelay instead.
type DependentCommand struct {
	Argv []string
}

func (d DependentCommand) Start(w *Watch) {
	w.arm()
	w.logger.Debug("retrigger_armed",
		"watch_id", w.id,
		"strategy", "dependent_command",
		"command", d.Argv[0],
	)
	w.spawner.Spawn(d.Argv, process.Callbacks{
		OnExit: func(r process.Result) {
			if r.Kind() == process.KindSpawnFailure {
				w.logger.Warn("wait_command_spawn_failed",
					"watch_id", w.id,
					"run_id", r.RunID,
					"error", r.Err,
					"retry_in", WaitSpawnRetryDelay.String(),
				)
				w.scheduler.AfterFunc(WaitSpawnRetryDelay, w.fire)
				return
			}
			if r.Failed() {
				w.logger.Warn("wait_command_failed",
					"watch_id", w.id,
					"run_id", r.RunID,
					"kind", r.Kind().String(),
					"error", r.Err,
				)
			}
			w.fire()
		},
	})
}

func (d DependentCommand) Period() string {
	return PeriodUnavailable
}

func (d DependentCommand) validate() error {
	if len(d.Argv) == 0 || d.Argv[0] == "" {
		return errors.New("wait command must not be empty")
	}
	return nil
}
