// Package main provides the libcmd CLI entry point.
//
// libcmd runs one shell command at a time with incremental output capture,
// elapsed-versus-estimated progress ticks, and an optional FIFO side
// channel for duplex messaging with the child.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"github.com/AdrianTM/libcmd"
	"github.com/AdrianTM/libcmd/internal/config"
	"github.com/AdrianTM/libcmd/internal/logging"
	"github.com/AdrianTM/libcmd/internal/metrics"
	"github.com/AdrianTM/libcmd/internal/preflight"
	"github.com/AdrianTM/libcmd/internal/stats"
	"github.com/AdrianTM/libcmd/internal/tui"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/libcmd
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("libcmd %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// When the TUI is enabled, suppress logs to avoid interfering with
	// its rendering.
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.NewLoggerWithWriter(io.Discard, "json", cfg.DebugLevel)
	} else {
		logger = logging.NewLogger(cfg.LogFormat, cfg.DebugLevel)
	}
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Run 'libcmd -h' for usage.")
		return 1
	}

	if !cfg.SkipPreflight {
		result := preflight.RunAll(cfg.Shell, cfg.FifoPath)
		if !result.Passed {
			fmt.Fprintln(os.Stderr, "Preflight checks failed:")
			for _, c := range result.Checks {
				fmt.Fprintln(os.Stderr, c)
			}
			return 1
		}
	}

	if cfg.MetricsAddr != "" {
		metrics.Register(prometheus.DefaultRegisterer)
		srv := metrics.NewServer(cfg.MetricsAddr, logger)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	logger.Info("starting",
		"version", version,
		"cmd", cfg.Command,
		"est_duration", cfg.EstDuration,
		"repeat", cfg.Repeat,
	)

	if cfg.TUIEnabled {
		return runWithTUI(cfg, logger)
	}
	return runPlain(cfg, logger)
}

// runPlain streams the child's output to this process's stdout and stderr
// and repeats the run when -repeat is set, printing duration statistics at
// the end.
func runPlain(cfg *config.Config, logger *slog.Logger) int {
	runner := libcmd.New(
		libcmd.WithLogger(logger),
		libcmd.WithShell(cfg.Shell),
		libcmd.WithDebugLevel(cfg.DebugLevel),
		libcmd.WithCallbacks(libcmd.Callbacks{
			OnOutput: func(chunk string) { os.Stdout.WriteString(chunk) },
			OnStderr: func(chunk string) { os.Stderr.WriteString(chunk) },
			OnFifoChange: func(text string) {
				logger.Info("fifo_message", "text", text)
			},
		}),
	)
	defer runner.Close()

	if cfg.FifoPath != "" {
		if !runner.ConnectFifo(cfg.FifoPath) {
			fmt.Fprintf(os.Stderr, "Cannot connect FIFO %s\n", cfg.FifoPath)
			return 1
		}
	}

	// Forward interrupt signals to the child so ctrl+c stops the run
	// instead of orphaning it.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, unix.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			if !runner.Terminate() {
				runner.Kill()
			}
		}
	}()

	opts := libcmd.RunOptions{Quiet: cfg.Quiet, SlowTick: cfg.SlowTick}

	if cfg.Repeat == 1 {
		code := runner.Run(cfg.Command, opts, cfg.EstDuration)
		return exitStatus(code)
	}

	tracker := stats.NewRunStats()
	last := 0
	for i := 0; i < cfg.Repeat; i++ {
		start := time.Now()
		last = runner.Run(cfg.Command, opts, cfg.EstDuration)
		tracker.Record(time.Since(start), last)
	}

	fmt.Fprintf(os.Stderr, "\nruns: %d  failures: %d  mean: %s  p50: %s  p90: %s  p99: %s\n",
		tracker.Count(), tracker.Failures(), tracker.Mean().Round(time.Millisecond),
		tracker.Quantile(0.50).Round(time.Millisecond),
		tracker.Quantile(0.90).Round(time.Millisecond),
		tracker.Quantile(0.99).Round(time.Millisecond),
	)
	return exitStatus(last)
}

// runWithTUI renders a live progress bar; the runner executes in a
// goroutine and feeds the program through messages.
func runWithTUI(cfg *config.Config, logger *slog.Logger) int {
	p := tea.NewProgram(tui.NewModel(cfg.Command, cfg.EstDuration))

	runner := libcmd.New(
		libcmd.WithLogger(logger),
		libcmd.WithShell(cfg.Shell),
		libcmd.WithDebugLevel(cfg.DebugLevel),
		libcmd.WithCallbacks(libcmd.Callbacks{
			OnOutput: func(chunk string) {
				p.Send(tui.OutputMsg{Chunk: chunk})
			},
			OnRunTime: func(elapsed, estimated int) {
				p.Send(tui.RunTimeMsg{Elapsed: elapsed, Estimated: estimated})
			},
			OnFifoChange: func(text string) {
				p.Send(tui.FifoMsg{Text: text})
			},
			OnFinished: func(exitCode int, status libcmd.ExitStatus) {
				p.Send(tui.FinishedMsg{
					ExitCode: exitCode,
					Crashed:  status == libcmd.StatusCrashed,
				})
			},
		}),
	)
	defer runner.Close()

	if cfg.FifoPath != "" && !runner.ConnectFifo(cfg.FifoPath) {
		fmt.Fprintf(os.Stderr, "Cannot connect FIFO %s\n", cfg.FifoPath)
		return 1
	}

	resultCh := make(chan int, 1)
	go func() {
		opts := libcmd.RunOptions{Quiet: true, SlowTick: cfg.SlowTick}
		resultCh <- runner.Run(cfg.Command, opts, cfg.EstDuration)
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		// Fall through: the run result still determines the exit code.
	}

	// The user may have quit the TUI before the child finished.
	if runner.IsRunning() {
		if !runner.Terminate() {
			runner.Kill()
		}
	}

	return exitStatus(<-resultCh)
}

// exitStatus maps a reconciled run result onto a process exit status. The
// busy sentinel is negative and would wrap, so it maps to a plain failure.
func exitStatus(code int) int {
	if code < 0 {
		return 1
	}
	return code
}
