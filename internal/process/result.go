package process

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies why a run produced no usable (output, exit code) pair.
type Kind int

const (
	// KindNone means the run completed and its output decoded cleanly.
	KindNone Kind = iota

	// KindSpawnFailure means the executable could not be started.
	KindSpawnFailure

	// KindOutputDecodeFailure means the captured output was not valid UTF-8.
	KindOutputDecodeFailure

	// KindAbnormalTermination means the process was killed by a signal.
	KindAbnormalTermination
)

// String returns a short label, also used as a metrics label value.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSpawnFailure:
		return "spawn_failure"
	case KindOutputDecodeFailure:
		return "output_decode_failure"
	case KindAbnormalTermination:
		return "abnormal_termination"
	default:
		return "unknown"
	}
}

var (
	// ErrSpawnFailure is wrapped by errors for executables that cannot start.
	ErrSpawnFailure = errors.New("spawn failure")

	// ErrOutputDecode is wrapped by errors for output that is not UTF-8.
	ErrOutputDecode = errors.New("output is not valid UTF-8")

	// ErrAbnormalTermination is wrapped by errors for signal terminations.
	ErrAbnormalTermination = errors.New("abnormal termination")
)

// KindOf maps an error to its Kind. Unrecognised non-nil errors are
// reported as spawn failures, the only case where no process ever ran.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrOutputDecode):
		return KindOutputDecodeFailure
	case errors.Is(err, ErrAbnormalTermination):
		return KindAbnormalTermination
	default:
		return KindSpawnFailure
	}
}

// SignalError reports a process that ended by signal.
type SignalError struct {
	Signal string
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("%s: killed by %s", ErrAbnormalTermination, e.Signal)
}

func (e *SignalError) Unwrap() error {
	return ErrAbnormalTermination
}

// Result captures the outcome of a single run.
type Result struct {
	RunID string

	// Output is stdout and stderr interleaved in arrival order.
	// Empty when Err is set.
	Output string

	// ExitCode is -1 when Err is set.
	ExitCode int

	Err error

	StartedAt  time.Time
	FinishedAt time.Time
}

// Kind returns the failure kind of the run.
func (r Result) Kind() Kind {
	return KindOf(r.Err)
}

// Failed reports whether the run ended in one of the failure kinds.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Duration returns how long the run took.
func (r Result) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

func failed(runID string, err error, started, finished time.Time) Result {
	return Result{
		RunID:      runID,
		ExitCode:   -1,
		Err:        err,
		StartedAt:  started,
		FinishedAt: finished,
	}
}
