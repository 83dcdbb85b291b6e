// Package watch implements the per-command state machine and the strategies
// that decide when a finished command runs again.
package watch

// State represents the display state of a watch.
type State int

const (
	// StateNew is the initial state before the first trigger.
	StateNew State = iota

	// StateRunning indicates the watched command is in flight.
	StateRunning

	// StateFinished indicates the last run completed (successfully or not)
	// and the next trigger is pending.
	StateFinished
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// CanTrigger returns true if a run may be started from this state.
func (s State) CanTrigger() bool {
	return s == StateNew || s == StateFinished
}
