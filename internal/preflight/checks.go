// Package preflight provides startup validation checks for the libcmd CLI.
package preflight

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Check represents the result of a single preflight check.
type Check struct {
	Name    string
	Passed  bool
	Message string
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "ok"
	if !c.Passed {
		status = "FAIL"
	}
	return fmt.Sprintf("  [%s] %s: %s", status, c.Name, c.Message)
}

// RunAll executes all preflight checks. fifoPath may be empty when no FIFO
// channel is configured.
func RunAll(shell, fifoPath string) *Result {
	result := &Result{Passed: true}

	result.add(checkShell(shell))
	if fifoPath != "" {
		result.add(checkFifo(fifoPath))
	}
	return result
}

func (r *Result) add(c Check) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// checkShell verifies the shell binary resolves and is executable.
func checkShell(shell string) Check {
	path, err := exec.LookPath(shell)
	if err != nil {
		return Check{
			Name:    "shell",
			Passed:  false,
			Message: fmt.Sprintf("%s not found: %v", shell, err),
		}
	}
	return Check{
		Name:    "shell",
		Passed:  true,
		Message: path,
	}
}

// checkFifo verifies the path exists and names a FIFO special file.
func checkFifo(path string) Check {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return Check{
			Name:    "fifo",
			Passed:  false,
			Message: fmt.Sprintf("%s: %v", path, err),
		}
	}
	if st.Mode&unix.S_IFMT != unix.S_IFIFO {
		return Check{
			Name:    "fifo",
			Passed:  false,
			Message: fmt.Sprintf("%s is not a FIFO special file (mode %o)", path, os.FileMode(st.Mode)),
		}
	}
	return Check{
		Name:    "fifo",
		Passed:  true,
		Message: path,
	}
}
