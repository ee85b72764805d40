package libcmd

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"

	"github.com/AdrianTM/libcmd/internal/metrics"
)

// fifoReadTimeout bounds a single drain of the channel so a notification
// that raced with another reader cannot hang the watch loop.
const fifoReadTimeout = 100 * time.Millisecond

// fifoChannel is a bidirectional named-pipe channel the runner reads from
// and writes to, with filesystem-change-driven wake-up on incoming data.
//
// Self-echo guard: every write initiated by the runner increments a
// pending-write counter, and the watch loop consumes one pending write per
// incoming change notification instead of emitting an event. Only genuinely
// external writers trigger read events.
type fifoChannel struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	watcher *fsnotify.Watcher
	wg      sync.WaitGroup

	selfWrites atomic.Int64

	logger *slog.Logger
	emit   func(text string)
}

func newFifoChannel(logger *slog.Logger, emit func(string)) *fifoChannel {
	return &fifoChannel{logger: logger, emit: emit}
}

// connect opens path for read/write and begins watching it for external
// changes. Idempotent if already open on the same path; a different path
// disconnects the old channel first. The path must pre-exist: the channel
// never creates it. Returns false on failure without raising.
func (f *fifoChannel) connect(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file != nil {
		if f.path == path {
			return true
		}
		f.teardownLocked()
	}

	// O_NONBLOCK keeps reads from blocking on an empty pipe; a FIFO opened
	// read/write never blocks on open either.
	file, err := os.OpenFile(path, os.O_RDWR|unix.O_NONBLOCK, 0)
	if err != nil {
		f.logger.Warn("fifo_open_failed", "path", path, "error", err)
		return false
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		f.logger.Warn("fifo_watch_failed", "path", path, "error", err)
		return false
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		file.Close()
		f.logger.Warn("fifo_watch_failed", "path", path, "error", err)
		return false
	}

	f.path = path
	f.file = file
	f.watcher = watcher
	f.selfWrites.Store(0)

	f.wg.Add(1)
	go f.processLoop(watcher, file, path)
	return true
}

// disconnect stops watching and closes the channel if open; no-op otherwise.
func (f *fifoChannel) disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.teardownLocked()
}

func (f *fifoChannel) teardownLocked() {
	if f.watcher == nil && f.file == nil {
		return
	}
	if f.watcher != nil {
		// Closing the watcher closes its channels and ends processLoop.
		f.watcher.Close()
		f.wg.Wait()
		f.watcher = nil
	}
	if f.file != nil {
		f.file.Close()
		f.file = nil
	}
	f.path = ""
}

// isConnected reports whether the channel is open.
func (f *fifoChannel) isConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file != nil
}

// write sends text plus a trailing newline over the channel. Fails silently
// (logs only) if the channel is not connected or its backing path no longer
// exists. The pending-write counter suppresses the channel's own change
// notification for this write.
func (f *fifoChannel) write(text string) {
	f.mu.Lock()
	file := f.file
	path := f.path
	f.mu.Unlock()

	if file == nil {
		f.logger.Debug("fifo_not_connected")
		return
	}
	if _, err := os.Stat(path); err != nil {
		f.logger.Warn("fifo_missing", "path", path, "error", err)
		return
	}

	f.selfWrites.Add(1)
	if _, err := file.Write([]byte(text + "\n")); err != nil {
		f.selfWrites.Add(-1)
		f.logger.Warn("fifo_write_failed", "path", path, "error", err)
		return
	}
	// Sync reports EINVAL on pipes; the write is already flushed there.
	_ = file.Sync()
	metrics.FifoMessage("out")
}

// processLoop handles incoming fsnotify events until the watcher closes.
// It deliberately touches no mutex-guarded state: disconnect joins this
// goroutine before closing the file.
func (f *fifoChannel) processLoop(watcher *fsnotify.Watcher, file *os.File, path string) {
	defer f.wg.Done()

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			if f.selfWrites.Load() > 0 {
				f.selfWrites.Add(-1)
				continue
			}
			text := readAvailable(file)
			if text == "" {
				// Notification with no distinguishable content
				continue
			}
			metrics.FifoMessage("in")
			f.emit(text)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			f.logger.Warn("fifo_watch_error", "path", path, "error", err)
		}
	}
}

// readAvailable reads the channel from its start and returns the trimmed
// content. Empty reads yield "".
func readAvailable(file *os.File) string {
	// Regular files rewind; FIFOs reject the seek, which is fine.
	_, _ = file.Seek(0, io.SeekStart)
	// Pipes support read deadlines; regular files don't, but their reads
	// never block either.
	_ = file.SetReadDeadline(time.Now().Add(fifoReadTimeout))
	defer file.SetReadDeadline(time.Time{})

	var sb strings.Builder
	buf := make([]byte, readChunkSize)
	for {
		n, err := file.Read(buf)
		if n > 0 {
			sb.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return strings.TrimSpace(sb.String())
}
