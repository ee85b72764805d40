package libcmd

// ProcState represents the current state of the child process.
type ProcState int

const (
	// StateNotRunning is the initial state and the terminal state after exit.
	StateNotRunning ProcState = iota

	// StateStarting indicates the child process is being spawned.
	StateStarting

	// StateRunning indicates the child process is actively running.
	StateRunning
)

// String returns a human-readable name for the state.
func (s ProcState) String() string {
	switch s {
	case StateNotRunning:
		return "not_running"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// IsActive returns true if the state represents a live child
// (anything other than not running).
func (s ProcState) IsActive() bool {
	return s != StateNotRunning
}

// ExitStatus classifies how the child process ended.
type ExitStatus int

const (
	// StatusNormal means the child exited on its own; the exit code is
	// meaningful.
	StatusNormal ExitStatus = iota

	// StatusCrashed means the child was killed by a signal or crashed.
	// A crashed child can still report a misleading zero exit code, so
	// Run prefers this status over the code when reconciling.
	StatusCrashed
)

// String returns a human-readable name for the exit status.
func (s ExitStatus) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}
