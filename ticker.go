package libcmd

import (
	"sync"
	"time"
)

const (
	// DefaultTickInterval is the progress tick interval.
	DefaultTickInterval = 100 * time.Millisecond

	// SlowTickInterval is the tick interval selected by the slow-tick
	// run option.
	SlowTickInterval = time.Second
)

// ticker emits a progress callback once per interval while the child
// process is active. Its stop is wired directly to the process-terminal
// channel, independent of Run's own bookkeeping, so it never outlives
// its process.
type ticker struct {
	mu       sync.Mutex
	stop     chan struct{}
	stopOnce *sync.Once
	wg       sync.WaitGroup
	running  bool
}

// start begins ticking at the given interval. fn is invoked once per tick.
// The goroutine exits when halt is called or done is closed, whichever
// comes first. start is a no-op while already running.
func (t *ticker) start(interval time.Duration, done <-chan struct{}, fn func()) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.stopOnce = &sync.Once{}
	t.running = true
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-tk.C:
				fn()
			case <-stop:
				return
			case <-done:
				return
			}
		}
	}()
}

// halt stops ticking and joins the tick goroutine. After halt returns no
// further tick callbacks fire. Safe to call multiple times.
func (t *ticker) halt() {
	t.mu.Lock()
	once := t.stopOnce
	stop := t.stop
	t.running = false
	t.mu.Unlock()

	if once == nil {
		return
	}
	once.Do(func() { close(stop) })
	t.wg.Wait()
}

// isRunning reports whether a tick goroutine has been started and not
// yet halted.
func (t *ticker) isRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}
