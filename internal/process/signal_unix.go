//go:build unix

package process

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// signalName reports the terminating signal of a process, if any.
func signalName(state *os.ProcessState) (string, bool) {
	if state == nil {
		return "", false
	}
	status, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !status.Signaled() {
		return "", false
	}
	if name := unix.SignalName(status.Signal()); name != "" {
		return name, true
	}
	return status.Signal().String(), true
}
