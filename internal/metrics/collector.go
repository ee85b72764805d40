// Package metrics provides Prometheus metrics for libcmd.
//
// Collectors are package-level and always updated by the runner; they only
// become visible to scrapers once Register is called (typically by the CLI
// when -metrics is given). Updating unregistered collectors is cheap and
// side-effect free.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	runsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "libcmd_runs_total",
			Help: "Total commands started",
		},
	)

	runsFinishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libcmd_runs_finished_total",
			Help: "Total commands finished, by outcome",
		},
		[]string{"outcome"}, // "normal" or "crashed"
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "libcmd_run_duration_seconds",
			Help:    "Wall-clock duration of completed runs",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	exitCodesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libcmd_exit_codes_total",
			Help: "Total finished runs by exit code",
		},
		[]string{"code"},
	)

	ticksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "libcmd_ticks_total",
			Help: "Total progress ticks emitted",
		},
	)

	streamBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libcmd_stream_bytes_total",
			Help: "Total bytes captured from the child, by stream",
		},
		[]string{"stream"}, // "stdout" or "stderr"
	)

	signalsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libcmd_signals_sent_total",
			Help: "Total signals delivered to the child, by signal name",
		},
		[]string{"signal"},
	)

	fifoMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "libcmd_fifo_messages_total",
			Help: "Total FIFO messages, by direction",
		},
		[]string{"direction"}, // "in" or "out"
	)
)

// Register registers all libcmd collectors with the given registerer.
// Pass prometheus.DefaultRegisterer for the default registry.
func Register(registry prometheus.Registerer) {
	registry.MustRegister(
		runsTotal,
		runsFinishedTotal,
		runDurationSeconds,
		exitCodesTotal,
		ticksTotal,
		streamBytesTotal,
		signalsSentTotal,
		fifoMessagesTotal,
	)
}

// RunStarted records a child process spawn.
func RunStarted() {
	runsTotal.Inc()
}

// RunFinished records a completed run with its reconciled outcome.
func RunFinished(exitCode int, crashed bool, duration time.Duration) {
	outcome := "normal"
	if crashed {
		outcome = "crashed"
	}
	runsFinishedTotal.WithLabelValues(outcome).Inc()
	runDurationSeconds.Observe(duration.Seconds())
	exitCodesTotal.WithLabelValues(strconv.Itoa(exitCode)).Inc()
}

// TickEmitted records one progress tick.
func TickEmitted() {
	ticksTotal.Inc()
}

// AddStreamBytes records bytes captured from the child's stdout or stderr.
func AddStreamBytes(stream string, n int) {
	streamBytesTotal.WithLabelValues(stream).Add(float64(n))
}

// SignalSent records a signal delivered to the child.
func SignalSent(signal string) {
	signalsSentTotal.WithLabelValues(signal).Inc()
}

// FifoMessage records a FIFO message in ("in") or out ("out").
func FifoMessage(direction string) {
	fifoMessagesTotal.WithLabelValues(direction).Inc()
}
