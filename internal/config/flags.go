package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// ParseFlags parses command-line flags and returns a Config.
// The positional arguments after the flags form the command string.
func ParseFlags() (*Config, error) {
	cfg := DefaultConfig()

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `libcmd - run a shell command with progress, output capture, and FIFO messaging

Usage:
  libcmd [flags] <command...>

Run Flags:
  -est, -quiet, -slowtick, -shell

Messaging:
  -fifo

Observability:
  -metrics, -v, -log-format, -tui

Diagnostics:
  -repeat, -skip-preflight

Examples:
  # Run with a 5 second estimate (deciseconds)
  libcmd -est 50 "apt-get update"

  # Slow tick and a FIFO side channel
  libcmd -slowtick -fifo /run/myapp.fifo "./installer.sh"

  # Benchmark a command 20 times
  libcmd -repeat 20 -quiet "gzip -t archive.gz"

`)
		flag.PrintDefaults()
	}

	flag.IntVar(&cfg.EstDuration, "est", cfg.EstDuration, "Estimated completion time in deciseconds (progress display only)")
	flag.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "Suppress the diagnostic echo of the command and exit status")
	flag.BoolVar(&cfg.SlowTick, "slowtick", cfg.SlowTick, "Tick every 1000ms instead of 100ms")
	flag.StringVar(&cfg.Shell, "shell", cfg.Shell, "Shell used to interpret the command string")
	flag.StringVar(&cfg.FifoPath, "fifo", cfg.FifoPath, "Pre-existing FIFO path for duplex messaging with the child")
	flag.IntVar(&cfg.Repeat, "repeat", cfg.Repeat, "Run the command N times sequentially and report duration stats")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics listen address (empty = disabled)")
	flag.IntVar(&cfg.DebugLevel, "v", cfg.DebugLevel, "Debug verbosity level (0=warn, 1=info, 2+=debug)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "text" or "json"`)
	flag.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Show a live progress bar")
	flag.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip startup validation checks")

	flag.Parse()

	cfg.Command = strings.Join(flag.Args(), " ")
	return cfg, nil
}
