// Package preflight provides startup validation checks.
package preflight

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/randomizedcoder/multiwatch/internal/config"
)

// Per-process descriptor estimate: the shared output pipe, the null stdin
// and the pidfd/wait bookkeeping, rounded up.
const (
	fdsPerProcess = 4
	fdOverhead    = 50
	procOverhead  = 10
)

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// Command is one executable a session will start.
type Command struct {
	Name string // watch title or argv[0]
	Argv []string
	Wait bool // a wait command; its failures are never shown in a pane
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// Warnings returns the checks that did not pass cleanly.
func (r *Result) Warnings() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed || c.Warning {
			out = append(out, c)
		}
	}
	return out
}

// CommandsFor lists every command cfg will run: each watch and each wait
// command. Specs that do not split are skipped; validation reports them.
func CommandsFor(cfg *config.Config) []Command {
	cmds := make([]Command, 0, len(cfg.Watches))
	for _, spec := range cfg.Watches {
		argv, err := spec.Argv()
		if err != nil || len(argv) == 0 {
			continue
		}
		name := spec.Title
		if name == "" {
			name = argv[0]
		}
		cmds = append(cmds, Command{Name: name, Argv: argv})
		if spec.WaitCommand != nil && len(spec.WaitCommand.Cmd) > 0 {
			cmds = append(cmds, Command{Name: name + " (wait)", Argv: spec.WaitCommand.Cmd, Wait: true})
		}
	}
	return cmds
}

// RunAll executes all preflight checks. Resource limits and missing wait
// commands fail the run. A missing watched executable is a warning because
// the watch reports the spawn failure itself on every run.
func RunAll(cmds []Command) *Result {
	result := &Result{
		Checks: make([]Check, 0, len(cmds)+2),
		Passed: true,
	}

	fdCheck := checkFileDescriptors(len(cmds))
	result.Checks = append(result.Checks, fdCheck)
	if !fdCheck.Passed {
		result.Passed = false
	}

	procCheck := checkProcessLimit(len(cmds))
	result.Checks = append(result.Checks, procCheck)
	if !procCheck.Passed {
		result.Passed = false
	}

	for _, c := range cmds {
		check := checkExecutable(c)
		result.Checks = append(result.Checks, check)
		if !check.Passed {
			result.Passed = false
		}
	}

	return result
}

// checkFileDescriptors verifies sufficient file descriptors are available
// for every command running at once.
func checkFileDescriptors(processes int) Check {
	required := processes*fdsPerProcess + fdOverhead
	actual, ok := openFileLimit()
	if !ok {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: "unable to check on this platform",
		}
	}

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d for %d processes)", actual, required, processes),
	}
}

// checkProcessLimit verifies sufficient process slots are available.
func checkProcessLimit(processes int) Check {
	required := processes + procOverhead

	// RLIMIT_NPROC is not portable; Linux exposes it in /proc.
	data, err := os.ReadFile("/proc/self/limits")
	if err != nil {
		return Check{
			Name:    "process_limit",
			Passed:  true,
			Warning: true,
			Message: "unable to check (non-Linux or restricted)",
		}
	}

	actual := parseMaxProcesses(string(data))
	if actual == 0 {
		return Check{
			Name:    "process_limit",
			Passed:  true,
			Warning: true,
			Message: "unable to determine (assuming OK)",
		}
	}

	return Check{
		Name:     "process_limit",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -u %d (need %d)", actual, required),
	}
}

// parseMaxProcesses extracts the soft "Max processes" limit from the
// contents of /proc/self/limits.
func parseMaxProcesses(limits string) int {
	for _, line := range strings.Split(limits, "\n") {
		if !strings.HasPrefix(line, "Max processes") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return 0
		}
		if fields[2] == "unlimited" {
			return 1000000
		}
		var n int
		fmt.Sscanf(fields[2], "%d", &n)
		return n
	}
	return 0
}

// checkExecutable verifies argv[0] resolves to something runnable.
func checkExecutable(c Command) Check {
	name := "command " + c.Name
	path, err := exec.LookPath(c.Argv[0])
	if err != nil {
		return Check{
			Name:    name,
			Passed:  !c.Wait,
			Warning: !c.Wait,
			Message: fmt.Sprintf("%s not found: %v", c.Argv[0], err),
		}
	}
	return Check{
		Name:    name,
		Passed:  true,
		Message: "found at " + path,
	}
}

// PrintResults prints the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(checkKind(check.Name)))
		}
	}
	fmt.Fprintln(w)
}

// checkKind strips the per-command suffix from a check name.
func checkKind(name string) string {
	kind, _, _ := strings.Cut(name, " ")
	return kind
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "file_descriptors":
		return "ulimit -n 8192 (or edit /etc/security/limits.conf)"
	case "process_limit":
		return "ulimit -u 4096 (or edit /etc/security/limits.conf)"
	case "command":
		return "install the wait command or fix wait_command.cmd"
	default:
		return "see documentation"
	}
}
