package libcmd

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// processHandle owns the OS child process: start, signal, wait, exit status.
// One handle is reused across sequential runs; start resets it.
type processHandle struct {
	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser
	state ProcState
	pid   int

	exitCode   int
	exitStatus ExitStatus

	// done is closed when the child reaches a terminal state. It is the
	// process-terminal event the ticker auto-stop is wired to.
	done chan struct{}
}

// start spawns command as the program text of a new shell subprocess
// (argv: shell, -c, command) and returns the child's stdout and stderr
// pipes. The spawn itself is synchronous; the command keeps running.
func (h *processHandle) start(shell, command string) (stdout, stderr io.ReadCloser, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state.IsActive() {
		return nil, nil, errors.New("process already running")
	}

	cmd := exec.Command(shell, "-c", command)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	stdout, err = cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, nil, err
	}
	stderr, err = cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return nil, nil, err
	}

	h.state = StateStarting
	if err := cmd.Start(); err != nil {
		h.state = StateNotRunning
		return nil, nil, err
	}

	h.cmd = cmd
	h.stdin = stdin
	h.pid = cmd.Process.Pid
	h.state = StateRunning
	h.exitCode = 0
	h.exitStatus = StatusNormal
	h.done = make(chan struct{})
	return stdout, stderr, nil
}

// wait blocks until the child exits, records the outcome, and closes the
// done channel. Must be called exactly once per start, after the stream
// readers have drained.
func (h *processHandle) wait() (int, ExitStatus) {
	h.mu.Lock()
	cmd := h.cmd
	h.mu.Unlock()

	waitErr := cmd.Wait()
	code, status := exitOutcome(waitErr)

	h.mu.Lock()
	h.exitCode = code
	h.exitStatus = status
	h.state = StateNotRunning
	h.pid = 0
	h.stdin = nil
	done := h.done
	h.mu.Unlock()

	close(done)
	return code, status
}

// signal delivers sig to the child's OS process identifier.
func (h *processHandle) signal(sig unix.Signal) error {
	h.mu.Lock()
	pid := h.pid
	h.mu.Unlock()

	if pid == 0 {
		return errors.New("no process identifier")
	}
	return unix.Kill(pid, sig)
}

// waitExit waits up to timeout for the child to reach a terminal state.
// Returns true if the child is inactive when it returns.
func (h *processHandle) waitExit(timeout time.Duration) bool {
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()

	if done == nil {
		return true
	}
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return !h.isRunning()
	}
}

// doneChan returns the terminal-state channel for the current run, or a
// closed channel if no run has started.
func (h *processHandle) doneChan() <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return h.done
}

// isRunning is true whenever the process state is anything other than
// not running.
func (h *processHandle) isRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.IsActive()
}

func (h *processHandle) processID() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pid
}

func (h *processHandle) lastExitCode() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitCode
}

func (h *processHandle) lastExitStatus() ExitStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitStatus
}

// write sends data to the child's standard input.
func (h *processHandle) write(data []byte) error {
	h.mu.Lock()
	stdin := h.stdin
	h.mu.Unlock()

	if stdin == nil {
		return os.ErrClosed
	}
	_, err := stdin.Write(data)
	return err
}

// exitOutcome extracts the exit code and exit status from a Wait() error.
// A signaled child yields 128 + signal number as the code and StatusCrashed.
func exitOutcome(waitErr error) (int, ExitStatus) {
	if waitErr == nil {
		return 0, StatusNormal
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				return 128 + int(ws.Signal()), StatusCrashed
			}
			return ws.ExitStatus(), StatusNormal
		}
		return exitErr.ExitCode(), StatusNormal
	}

	// Wait failed without an exit status (I/O error on the wait itself)
	return -1, StatusCrashed
}
