package libcmd

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTicker_TicksUntilHalt(t *testing.T) {
	var ticks atomic.Int64
	tk := &ticker{}
	done := make(chan struct{})

	tk.start(10*time.Millisecond, done, func() { ticks.Add(1) })
	time.Sleep(100 * time.Millisecond)
	tk.halt()

	got := ticks.Load()
	if got < 3 {
		t.Errorf("expected at least 3 ticks in 100ms at 10ms interval, got %d", got)
	}

	// halt joins the goroutine; nothing may fire afterwards.
	after := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	if ticks.Load() != after {
		t.Error("tick fired after halt returned")
	}
}

func TestTicker_StopsWhenDoneCloses(t *testing.T) {
	var ticks atomic.Int64
	tk := &ticker{}
	done := make(chan struct{})

	tk.start(10*time.Millisecond, done, func() { ticks.Add(1) })
	close(done)
	time.Sleep(50 * time.Millisecond)

	after := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	if ticks.Load() != after {
		t.Error("tick fired after done channel closed")
	}
	tk.halt()
}

func TestTicker_StartWhileRunningIsNoop(t *testing.T) {
	var first, second atomic.Int64
	tk := &ticker{}
	done := make(chan struct{})

	tk.start(10*time.Millisecond, done, func() { first.Add(1) })
	tk.start(10*time.Millisecond, done, func() { second.Add(1) })
	time.Sleep(60 * time.Millisecond)
	tk.halt()

	if second.Load() != 0 {
		t.Errorf("second start should be a no-op, its fn fired %d times", second.Load())
	}
	if first.Load() == 0 {
		t.Error("first tick function never fired")
	}
}

func TestTicker_HaltIdempotent(t *testing.T) {
	tk := &ticker{}

	// halt before any start
	tk.halt()

	done := make(chan struct{})
	tk.start(10*time.Millisecond, done, func() {})
	tk.halt()
	tk.halt()

	if tk.isRunning() {
		t.Error("ticker should not report running after halt")
	}
}

func TestTicker_Restart(t *testing.T) {
	var ticks atomic.Int64
	tk := &ticker{}
	done := make(chan struct{})

	tk.start(10*time.Millisecond, done, func() { ticks.Add(1) })
	tk.halt()

	before := ticks.Load()
	tk.start(10*time.Millisecond, done, func() { ticks.Add(1) })
	time.Sleep(60 * time.Millisecond)
	tk.halt()

	if ticks.Load() <= before {
		t.Error("restarted ticker never ticked")
	}
}
