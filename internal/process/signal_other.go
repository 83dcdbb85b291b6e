//go:build !unix

package process

import "os"

// signalName always reports false: only unix exposes signal terminations.
func signalName(state *os.ProcessState) (string, bool) {
	return "", false
}
