// Package config provides configuration management for the libcmd CLI.
package config

// Config holds all configuration options for a CLI invocation.
type Config struct {
	// Command is the shell command string to run.
	Command string

	// EstDuration is the estimated completion time in deciseconds,
	// advisory only (feeds the progress events).
	EstDuration int

	// Run options
	Quiet    bool
	SlowTick bool
	Shell    string

	// FifoPath, when set, names a pre-existing FIFO to connect for
	// duplex messaging with the child.
	FifoPath string

	// Repeat runs the command this many times sequentially and reports
	// duration statistics.
	Repeat int

	// Observability
	MetricsAddr string // empty = no metrics server
	DebugLevel  int
	LogFormat   string // "text" or "json"

	// Dashboard
	TUIEnabled bool

	// Diagnostic modes
	SkipPreflight bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		EstDuration: 10,
		Shell:       "/bin/bash",
		Repeat:      1,
		MetricsAddr: "",
		DebugLevel:  0,
		LogFormat:   "text",
	}
}
