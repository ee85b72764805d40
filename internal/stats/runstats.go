// Package stats aggregates wall-clock statistics over sequential runs of
// the same command.
package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"
)

// RunStats tracks run durations and failures across repeated invocations.
//
// Thread-safe: the digest is guarded by a mutex (TDigest is not safe for
// concurrent use).
type RunStats struct {
	mu       sync.Mutex
	digest   *tdigest.TDigest
	count    int
	failures int
	total    time.Duration
}

// NewRunStats creates an empty tracker.
func NewRunStats() *RunStats {
	return &RunStats{
		digest: tdigest.New(),
	}
}

// Record adds one completed run. exitCode is the reconciled code returned
// by the runner; anything nonzero counts as a failure.
func (s *RunStats) Record(duration time.Duration, exitCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.digest.Add(duration.Seconds(), 1)
	s.count++
	s.total += duration
	if exitCode != 0 {
		s.failures++
	}
}

// Count returns the number of recorded runs.
func (s *RunStats) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Failures returns the number of runs with a nonzero exit code.
func (s *RunStats) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Mean returns the mean run duration, or 0 if nothing was recorded.
func (s *RunStats) Mean() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0
	}
	return s.total / time.Duration(s.count)
}

// Quantile returns the duration at quantile q (0.0 to 1.0), or 0 if
// nothing was recorded.
func (s *RunStats) Quantile(q float64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return 0
	}
	return time.Duration(s.digest.Quantile(q) * float64(time.Second))
}
