// Package libcmd runs a single external shell command at a time, capturing
// its stdout and stderr incrementally, reporting elapsed-versus-estimated
// progress on a fixed tick, and optionally exchanging messages with the
// child over a pre-existing named pipe.
//
// A Runner owns at most one child process. Run blocks the caller until the
// child reaches a terminal state and returns a reconciled exit code; all
// other operations (Kill, Terminate, Pause, Resume, WriteToProc, the FIFO
// calls) may be invoked from other goroutines while a run is in flight.
// Event callbacks are dispatched one at a time, never concurrently.
package libcmd
