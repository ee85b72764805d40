package libcmd

// Callbacks contains optional callback functions for runner events.
// All callbacks are dispatched serially: no two callbacks ever run
// concurrently, OnStarted always precedes the first tick or output
// event of a run, and OnFinished is the last event of a run and fires
// exactly once per completed or terminated child.
//
// Callbacks must be set before the first Run and not modified afterwards.
type Callbacks struct {
	// OnStarted is called once the child process has been spawned.
	OnStarted func()

	// OnOutput is called with each chunk read from the child's stdout,
	// before the chunk is appended to the output buffer.
	OnOutput func(chunk string)

	// OnStderr is called with each chunk read from the child's stderr.
	OnStderr func(chunk string)

	// OnRunTime is called once per ticker interval with the elapsed tick
	// counter (starting at 1) and the estimated duration in deciseconds.
	OnRunTime func(elapsed, estimated int)

	// OnFinished is called with the final exit code and exit status.
	OnFinished func(exitCode int, status ExitStatus)

	// OnFifoChange is called with the trimmed content read from the FIFO
	// after an externally originated change.
	OnFifoChange func(text string)
}
