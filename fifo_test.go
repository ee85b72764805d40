package libcmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestChannel returns a channel whose emits land on the returned chan.
// Tests use regular files; FIFO-specific behavior is covered by the
// integration tests.
func newTestChannel(t *testing.T) (*fifoChannel, chan string) {
	t.Helper()
	emitted := make(chan string, 8)
	f := newFifoChannel(discardLogger(), func(text string) { emitted <- text })
	t.Cleanup(f.disconnect)
	return f, emitted
}

func touchFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFifoChannel_ConnectMissingPath(t *testing.T) {
	f, _ := newTestChannel(t)

	if f.connect(filepath.Join(t.TempDir(), "absent")) {
		t.Error("connect should fail on a path that does not exist")
	}
	if f.isConnected() {
		t.Error("failed connect must leave the channel closed")
	}
}

func TestFifoChannel_ConnectIdempotent(t *testing.T) {
	f, _ := newTestChannel(t)
	path := touchFile(t, "chan")

	if !f.connect(path) {
		t.Fatal("connect failed")
	}
	if !f.connect(path) {
		t.Error("reconnecting the same path should succeed")
	}
	if !f.isConnected() {
		t.Error("channel should be connected")
	}
}

func TestFifoChannel_ReconnectDifferentPath(t *testing.T) {
	f, _ := newTestChannel(t)
	first := touchFile(t, "first")
	second := touchFile(t, "second")

	if !f.connect(first) {
		t.Fatal("connect failed")
	}
	if !f.connect(second) {
		t.Fatal("connect to a different path should swap the channel")
	}
	if f.path != second {
		t.Errorf("channel path = %q, want %q", f.path, second)
	}
}

func TestFifoChannel_ExternalWriteEmits(t *testing.T) {
	f, emitted := newTestChannel(t)
	path := touchFile(t, "chan")

	if !f.connect(path) {
		t.Fatal("connect failed")
	}

	if err := os.WriteFile(path, []byte("external message\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case text := <-emitted:
		if text != "external message" {
			t.Errorf("emitted %q, want %q", text, "external message")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change event for an external write")
	}
}

func TestFifoChannel_SelfWriteSuppressed(t *testing.T) {
	f, emitted := newTestChannel(t)
	path := touchFile(t, "chan")

	if !f.connect(path) {
		t.Fatal("connect failed")
	}

	f.write("our own message")

	select {
	case text := <-emitted:
		t.Errorf("self-write leaked as a change event: %q", text)
	case <-time.After(300 * time.Millisecond):
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "our own message\n" {
		t.Errorf("channel content = %q", data)
	}
}

func TestFifoChannel_WriteWhenDisconnected(t *testing.T) {
	f, _ := newTestChannel(t)
	// Must not panic; logs and returns.
	f.write("nowhere")
}

func TestFifoChannel_DisconnectIdempotent(t *testing.T) {
	f, _ := newTestChannel(t)
	path := touchFile(t, "chan")

	f.disconnect() // before any connect

	if !f.connect(path) {
		t.Fatal("connect failed")
	}
	f.disconnect()
	f.disconnect()

	if f.isConnected() {
		t.Error("channel should be closed after disconnect")
	}
}
