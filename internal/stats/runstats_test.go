package stats

import (
	"testing"
	"time"
)

func TestRunStats_Empty(t *testing.T) {
	s := NewRunStats()

	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
	if s.Mean() != 0 {
		t.Errorf("Mean() = %v, want 0", s.Mean())
	}
	if s.Quantile(0.5) != 0 {
		t.Errorf("Quantile(0.5) = %v, want 0", s.Quantile(0.5))
	}
}

func TestRunStats_Record(t *testing.T) {
	s := NewRunStats()

	for i := 1; i <= 100; i++ {
		s.Record(time.Duration(i)*time.Millisecond, 0)
	}
	s.Record(time.Second, 7)

	if s.Count() != 101 {
		t.Errorf("Count() = %d, want 101", s.Count())
	}
	if s.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", s.Failures())
	}

	p50 := s.Quantile(0.5)
	p99 := s.Quantile(0.99)
	if p50 <= 0 {
		t.Errorf("Quantile(0.5) = %v, want > 0", p50)
	}
	if p99 < p50 {
		t.Errorf("Quantile(0.99) = %v < Quantile(0.5) = %v", p99, p50)
	}

	mean := s.Mean()
	if mean <= 0 || mean > time.Second {
		t.Errorf("Mean() = %v, out of expected range", mean)
	}
}
