package libcmd

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/AdrianTM/libcmd/internal/metrics"
)

const readChunkSize = 4096

// outputCollector accumulates bytes arriving asynchronously on the child's
// stdout and stderr streams into two growable buffers, republishing each
// chunk as an event before appending it.
type outputCollector struct {
	mu      sync.Mutex
	stdout  bytes.Buffer
	stderr  bytes.Buffer
	lastOut string
	lastErr string

	stdoutBytes atomic.Int64
	stderrBytes atomic.Int64
}

// reset clears both buffers so a runner instance can be reused sequentially.
func (c *outputCollector) reset() {
	c.mu.Lock()
	c.stdout.Reset()
	c.stderr.Reset()
	c.lastOut = ""
	c.lastErr = ""
	c.mu.Unlock()
	c.stdoutBytes.Store(0)
	c.stderrBytes.Store(0)
}

// collectStdout drains r until EOF, emitting each chunk and appending it
// to the stdout buffer. Blocks; run in a dedicated goroutine.
func (c *outputCollector) collectStdout(r io.Reader, emit func(string)) {
	c.collect(r, &c.stdout, &c.lastOut, &c.stdoutBytes, "stdout", emit)
}

// collectStderr is the stderr counterpart of collectStdout.
func (c *outputCollector) collectStderr(r io.Reader, emit func(string)) {
	c.collect(r, &c.stderr, &c.lastErr, &c.stderrBytes, "stderr", emit)
}

func (c *outputCollector) collect(r io.Reader, buf *bytes.Buffer, last *string, count *atomic.Int64, stream string, emit func(string)) {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			s := string(chunk[:n])
			// Publish first, then append.
			if emit != nil {
				emit(s)
			}
			c.mu.Lock()
			buf.WriteString(s)
			*last = s
			c.mu.Unlock()
			count.Add(int64(n))
			metrics.AddStreamBytes(stream, n)
		}
		if err != nil {
			return
		}
	}
}

// output returns the accumulated stdout with surrounding whitespace trimmed.
func (c *outputCollector) output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(c.stdout.String())
}

// errOutput returns the accumulated stderr with surrounding whitespace
// trimmed.
func (c *outputCollector) errOutput() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(c.stderr.String())
}

// lastChunks returns the most recent chunk received on each stream.
func (c *outputCollector) lastChunks() (stdout, stderr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastOut, c.lastErr
}

// stats returns the total bytes collected per stream.
func (c *outputCollector) stats() (stdoutBytes, stderrBytes int64) {
	return c.stdoutBytes.Load(), c.stderrBytes.Load()
}
