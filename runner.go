package libcmd

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/AdrianTM/libcmd/internal/metrics"
)

const (
	// BusyExitCode is the sentinel returned by Run when a child is already
	// active or the shell could not be spawned.
	BusyExitCode = -1

	// DefaultEstDuration is the estimated completion time, in deciseconds,
	// used by RunOutput.
	DefaultEstDuration = 10

	// stopTimeout bounds how long Kill and Terminate wait for the signal
	// to take effect.
	stopTimeout = time.Second

	defaultShell = "/bin/bash"
)

// RunOptions adjusts a single Run invocation.
type RunOptions struct {
	// Quiet suppresses the diagnostic echo of the command line and the
	// exit status/code. A debug level of 1 or higher wins over Quiet.
	Quiet bool

	// SlowTick selects the 1000ms tick interval instead of 100ms.
	SlowTick bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the structured logger used for diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithCallbacks sets the event callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(r *Runner) { r.callbacks = cb }
}

// WithShell overrides the shell used to interpret command strings.
func WithShell(path string) Option {
	return func(r *Runner) { r.shell = path }
}

// WithDebugLevel sets the initial debug verbosity level.
func WithDebugLevel(level int) Option {
	return func(r *Runner) { r.debugLevel.Store(int32(level)) }
}

// Runner launches one external shell command at a time, captures its
// stdout and stderr incrementally, reports elapsed-versus-estimated
// progress on a fixed tick, and optionally exposes a named-pipe channel
// for duplex messaging with the child.
//
// A Runner is reusable: after a run completes (or fails), Run may be
// invoked again. At most one child process is active per Runner at any
// time; a second Run while one is active is rejected without side effects.
// Callers needing concurrent commands must use separate Runners.
type Runner struct {
	mu     sync.Mutex // guards run setup and per-run fields below
	emitMu sync.Mutex // serializes callback dispatch

	logger    *slog.Logger
	callbacks Callbacks
	shell     string

	debugLevel atomic.Int32

	proc  *processHandle
	timer *ticker
	out   *outputCollector
	fifo  *fifoChannel

	elapsed atomic.Int64

	// Per-run ticker wiring, retained so Resume can restart the ticker.
	tickInterval time.Duration
	tickFn       func()
}

// New creates a Runner. The zero configuration uses /bin/bash, the default
// slog logger, and no callbacks.
func New(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.Default(),
		shell:  defaultShell,
		proc:   &processHandle{},
		timer:  &ticker{},
		out:    &outputCollector{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.fifo = newFifoChannel(r.logger, r.emitFifoChange)
	return r
}

// Run spawns command as the program text of a new shell subprocess and
// blocks until the child reaches a terminal state. estDuration is the
// estimated completion time in deciseconds; it is advisory, feeds the
// OnRunTime event, and never causes termination.
//
// The returned exit code is reconciled: a child that ended abnormally
// (crashed or signaled) yields its nonzero exit status in preference to a
// possibly-misleading exit code. If a child is already active, Run fails
// immediately with BusyExitCode and touches no state.
func (r *Runner) Run(command string, opts RunOptions, estDuration int) int {
	r.mu.Lock()
	if r.proc.isRunning() {
		r.mu.Unlock()
		r.logger.Warn("process_already_running", "cmd", command)
		return BusyExitCode
	}

	r.out.reset()
	r.elapsed.Store(0)

	stdout, stderr, err := r.proc.start(r.shell, command)
	if err != nil {
		r.mu.Unlock()
		r.logger.Error("process_start_failed", "cmd", command, "error", err)
		return BusyExitCode
	}

	interval := DefaultTickInterval
	if opts.SlowTick {
		interval = SlowTickInterval
	}
	est := estDuration
	tickFn := func() {
		metrics.TickEmitted()
		r.emitRunTime(int(r.elapsed.Add(1)), est)
	}
	r.tickInterval = interval
	r.tickFn = tickFn
	done := r.proc.doneChan()
	pid := r.proc.processID()
	r.mu.Unlock()

	quiet := opts.Quiet && r.DebugLevel() == 0
	if !quiet {
		r.logger.Info("run_command", "cmd", command, "pid", pid, "est_duration", estDuration)
	}
	metrics.RunStarted()
	startTime := time.Now()

	r.emitStarted()
	r.timer.start(interval, done, tickFn)

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		r.out.collectStdout(stdout, r.emitOutput)
	}()
	go func() {
		defer readers.Done()
		r.out.collectStderr(stderr, r.emitStderr)
	}()
	readers.Wait()

	code, status := r.proc.wait()

	// wait() records a terminal state before returning, so normally the
	// handle is already inactive here; stop the child before reconciling
	// if it ever is not.
	if r.proc.isRunning() {
		if !r.Terminate() {
			r.Kill()
		}
	}

	// Join the tick goroutine so Finished is the last event of the run.
	r.timer.halt()

	metrics.RunFinished(code, status == StatusCrashed, time.Since(startTime))
	r.emitFinished(code, status)

	if status != StatusNormal {
		if !quiet {
			r.logger.Info("exit_status", "status", status.String(), "code", code)
		}
		return int(status)
	}
	if !quiet {
		r.logger.Info("exit_code", "code", code)
	}
	return code
}

// RunOutput runs command synchronously with default options and returns the
// trimmed stdout, for callers that don't need streaming.
func (r *Runner) RunOutput(command string) string {
	r.Run(command, RunOptions{Quiet: true}, DefaultEstDuration)
	return r.Output()
}

// Output returns the accumulated stdout of the last run, trimmed.
func (r *Runner) Output() string {
	return r.out.output()
}

// ErrOutput returns the accumulated stderr of the last run, trimmed.
func (r *Runner) ErrOutput() string {
	return r.out.errOutput()
}

// ExitCode returns the exit code of the last finished child.
func (r *Runner) ExitCode() int {
	return r.proc.lastExitCode()
}

// IsRunning is true whenever the child process state is anything other
// than not running.
func (r *Runner) IsRunning() bool {
	return r.proc.isRunning()
}

// Kill sends a forceful stop signal and waits up to one second for the
// child to terminate. No-op success if not running.
func (r *Runner) Kill() bool {
	return r.stopProcess(unix.SIGKILL, "SIGKILL")
}

// Terminate sends a graceful stop signal and waits up to one second for
// the child to terminate. No-op success if not running.
func (r *Runner) Terminate() bool {
	return r.stopProcess(unix.SIGTERM, "SIGTERM")
}

func (r *Runner) stopProcess(sig unix.Signal, name string) bool {
	if !r.proc.isRunning() {
		// Already-cancelled counts as success
		return true
	}
	r.logger.Debug("stopping_process", "pid", r.proc.processID(), "signal", name)
	if err := r.proc.signal(sig); err != nil {
		r.logger.Debug("signal_failed", "signal", name, "error", err)
	} else {
		metrics.SignalSent(name)
	}
	r.proc.waitExit(stopTimeout)
	return !r.proc.isRunning()
}

// Pause stops the ticker and suspends the child with SIGSTOP. Fails if no
// child is running. Suspension works at the OS-signal level because the
// child is an arbitrary shell command that cannot be assumed to handle any
// cooperative pause protocol.
func (r *Runner) Pause() bool {
	if !r.proc.isRunning() {
		r.logger.Debug("process_not_running")
		return false
	}
	r.logger.Debug("pausing_process", "pid", r.proc.processID())
	r.timer.halt()
	if err := r.proc.signal(unix.SIGSTOP); err != nil {
		r.logger.Debug("signal_failed", "signal", "SIGSTOP", "error", err)
		return false
	}
	metrics.SignalSent("SIGSTOP")
	return true
}

// Resume restarts the ticker (without resetting the elapsed counter) and
// continues the child with SIGCONT. Fails if no process identifier is
// known.
func (r *Runner) Resume() bool {
	if r.proc.processID() == 0 {
		r.logger.Debug("process_id_not_found")
		return false
	}
	r.logger.Debug("resuming_process", "pid", r.proc.processID())

	r.mu.Lock()
	interval, fn := r.tickInterval, r.tickFn
	done := r.proc.doneChan()
	r.mu.Unlock()
	if fn != nil {
		r.timer.start(interval, done, fn)
	}

	if err := r.proc.signal(unix.SIGCONT); err != nil {
		r.logger.Debug("signal_failed", "signal", "SIGCONT", "error", err)
		return false
	}
	metrics.SignalSent("SIGCONT")
	return true
}

// WriteToProc writes text to the child's standard input. No-op if the
// child is not running.
func (r *Runner) WriteToProc(text string) {
	if !r.proc.isRunning() {
		return
	}
	if err := r.proc.write([]byte(text)); err != nil {
		r.logger.Debug("stdin_write_failed", "error", err)
	}
}

// ConnectFifo opens a pre-existing FIFO (or openable read/write file) for
// duplex messaging with the child and watches it for external changes.
// Idempotent if already connected on the same path. Returns false on
// failure.
func (r *Runner) ConnectFifo(path string) bool {
	return r.fifo.connect(path)
}

// DisconnectFifo stops watching and closes the FIFO channel if open.
func (r *Runner) DisconnectFifo() {
	r.fifo.disconnect()
}

// WriteToFifo writes text plus a trailing newline to the FIFO channel.
// The channel's own change notification for this write is suppressed so it
// is never misread as an external message.
func (r *Runner) WriteToFifo(text string) {
	r.fifo.write(text)
}

// SetDebugLevel sets the diagnostic verbosity level for this runner.
func (r *Runner) SetDebugLevel(level int) {
	r.debugLevel.Store(int32(level))
}

// DebugLevel returns the diagnostic verbosity level.
func (r *Runner) DebugLevel() int {
	return int(r.debugLevel.Load())
}

// Close tears down the runner: the FIFO channel is disconnected and any
// live child is terminated, then killed if termination fails. All
// failures are swallowed; no process or file handle outlives the runner.
func (r *Runner) Close() error {
	r.fifo.disconnect()
	if r.proc.isRunning() {
		if !r.Terminate() {
			r.Kill()
		}
	}
	return nil
}

// Serialized event dispatch: handlers never run concurrently with each
// other.

func (r *Runner) emitStarted() {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if r.callbacks.OnStarted != nil {
		r.callbacks.OnStarted()
	}
}

func (r *Runner) emitOutput(chunk string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if r.callbacks.OnOutput != nil {
		r.callbacks.OnOutput(chunk)
	}
}

func (r *Runner) emitStderr(chunk string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if r.callbacks.OnStderr != nil {
		r.callbacks.OnStderr(chunk)
	}
}

func (r *Runner) emitRunTime(elapsed, estimated int) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if r.callbacks.OnRunTime != nil {
		r.callbacks.OnRunTime(elapsed, estimated)
	}
}

func (r *Runner) emitFinished(exitCode int, status ExitStatus) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if r.callbacks.OnFinished != nil {
		r.callbacks.OnFinished(exitCode, status)
	}
}

func (r *Runner) emitFifoChange(text string) {
	r.emitMu.Lock()
	defer r.emitMu.Unlock()
	if r.callbacks.OnFifoChange != nil {
		r.callbacks.OnFifoChange(text)
	}
}
