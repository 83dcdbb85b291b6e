// Package loop provides the single-threaded event loop every watch runs on.
//
// Process completions and timer firings arrive from other goroutines but are
// only ever executed by the loop goroutine, so code running inside the loop
// needs no locking.
package loop

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler is the handle components use to get work onto the loop.
type Scheduler interface {
	// Post queues fn to run on the loop goroutine. Safe from any goroutine.
	Post(fn func())

	// AfterFunc runs fn on the loop goroutine once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is an armed AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. Returns false if it already fired.
	Stop() bool
}

// DefaultQueueSize is the event buffer used when Config.QueueSize is unset.
const DefaultQueueSize = 256

// Config holds configuration for creating a new Loop.
type Config struct {
	QueueSize int
	Logger    *slog.Logger
}

// Loop executes posted closures one at a time, in order.
type Loop struct {
	events chan func()
	done   chan struct{}
	logger *slog.Logger

	processed uint64
}

// New creates a Loop. It does nothing until Run is called.
func New(cfg Config) *Loop {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		events: make(chan func(), size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues fn for execution. After Run has returned, Post drops fn.
func (l *Loop) Post(fn func()) {
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// AfterFunc arms a wall-clock timer that posts fn when it fires.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() {
		l.Post(fn)
	})
}

// Run executes events until ctx is cancelled. Pending events are abandoned.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("loop_starting")
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("loop_stopped",
				"reason", "context_cancelled",
				"events_processed", l.processed,
			)
			return ctx.Err()
		case fn := <-l.events:
			fn()
			l.processed++
		}
	}
}
