package watch

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alessio/shellescape"

	"github.com/randomizedcoder/multiwatch/internal/loop"
	"github.com/randomizedcoder/multiwatch/internal/process"
)

var (
	// ErrRunning is returned by Trigger while the watched command is in flight.
	ErrRunning = errors.New("watch is already running")

	// ErrRetriggerPending is returned by Trigger while a retrigger (timer or
	// wait command) is outstanding.
	ErrRetriggerPending = errors.New("retrigger already pending")
)

// Spawner starts commands asynchronously. process.Runner satisfies it.
type Spawner interface {
	Spawn(argv []string, cb process.Callbacks)
}

// Config holds configuration for creating a new Watch.
type Config struct {
	ID        int
	Title     string // empty = derived from Argv
	Argv      []string
	Retrigger Retrigger

	Scheduler loop.Scheduler
	Spawner   Spawner
	Sink      Sink     // optional
	Redrawer  Redrawer // optional
	Logger    *slog.Logger
}

// Watch runs one command over and over, one run at a time.
//
// All methods must be called on the loop goroutine.
type Watch struct {
	id        int
	title     string
	argv      []string
	retrigger Retrigger

	scheduler loop.Scheduler
	spawner   Spawner
	sink      Sink
	redrawer  Redrawer
	logger    *slog.Logger

	state   State
	last    process.Result
	runs    int
	pending bool
}

// New validates cfg and creates a Watch in StateNew.
func New(cfg Config) (*Watch, error) {
	if len(cfg.Argv) == 0 {
		return nil, errors.New("watch: arglist must not be empty")
	}
	if cfg.Argv[0] == "" {
		return nil, errors.New("watch: executable must not be empty")
	}
	if cfg.Retrigger == nil {
		return nil, errors.New("watch: retrigger strategy is required")
	}
	if err := cfg.Retrigger.validate(); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if cfg.Scheduler == nil || cfg.Spawner == nil {
		return nil, errors.New("watch: scheduler and spawner are required")
	}

	sink := cfg.Sink
	if sink == nil {
		sink = nopSink{}
	}
	redrawer := cfg.Redrawer
	if redrawer == nil {
		redrawer = RedrawFunc(func() {})
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	title := cfg.Title
	if title == "" {
		title = DefaultTitle(cfg.Argv)
	}

	return &Watch{
		id:        cfg.ID,
		title:     title,
		argv:      append([]string(nil), cfg.Argv...),
		retrigger: cfg.Retrigger,
		scheduler: cfg.Scheduler,
		spawner:   cfg.Spawner,
		sink:      sink,
		redrawer:  redrawer,
		logger:    logger,
		state:     StateNew,
	}, nil
}

// DefaultTitle joins argv with each argument shell-quoted, so splitting the
// title with shell word rules gives argv back.
func DefaultTitle(argv []string) string {
	return shellescape.QuoteCommand(argv)
}

// Trigger starts a run. Valid from StateNew and StateFinished only.
func (w *Watch) Trigger() error {
	if !w.state.CanTrigger() {
		w.logger.Error("watch_trigger_rejected",
			"watch_id", w.id,
			"state", w.state.String(),
		)
		return ErrRunning
	}
	if w.pending {
		return ErrRetriggerPending
	}

	w.state = StateRunning
	w.runs++
	w.logger.Debug("watch_triggered",
		"watch_id", w.id,
		"run", w.runs,
	)
	w.spawner.Spawn(w.argv, process.Callbacks{
		OnStart: w.onStarted,
		OnExit:  w.onFinished,
	})
	return nil
}

func (w *Watch) onStarted(runID string, pid int) {
	w.sink.WatchStarted(w)
	w.redrawer.Redraw()
}

func (w *Watch) onFinished(result process.Result) {
	w.state = StateFinished
	w.last = result
	w.sink.WatchFinished(w, result)
	w.redrawer.Redraw()
	w.retrigger.Start(w)
}

// arm records that the retrigger strategy owns the next trigger.
func (w *Watch) arm() {
	w.pending = true
}

// fire is the retrigger strategy's callback.
func (w *Watch) fire() {
	w.pending = false
	if err := w.Trigger(); err != nil {
		w.logger.Error("watch_retrigger_failed",
			"watch_id", w.id,
			"error", err,
		)
	}
}

// ID returns the watch's position in the configuration.
func (w *Watch) ID() int { return w.id }

// Title returns the configured or derived title.
func (w *Watch) Title() string { return w.title }

// Argv returns a copy of the watched command.
func (w *Watch) Argv() []string { return append([]string(nil), w.argv...) }

// Period returns the display value of the refresh period.
func (w *Watch) Period() string { return w.retrigger.Period() }

// Retrigger returns the strategy chosen at construction.
func (w *Watch) Retrigger() Retrigger { return w.retrigger }

// State returns the current state.
func (w *Watch) State() State { return w.state }

// Last returns the result of the most recent finished run.
func (w *Watch) Last() process.Result { return w.last }

// Runs returns the number of runs started so far.
func (w *Watch) Runs() int { return w.runs }

// RetriggerPending reports whether a timer or wait command is outstanding.
func (w *Watch) RetriggerPending() bool { return w.pending }
