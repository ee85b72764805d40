package libcmd

import (
	"io"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func startAndDrain(t *testing.T, h *processHandle, command string) {
	t.Helper()
	stdout, stderr, err := h.start("/bin/bash", command)
	if err != nil {
		t.Fatalf("start(%q): %v", command, err)
	}
	go io.Copy(io.Discard, stdout)
	go io.Copy(io.Discard, stderr)
}

func TestProcessHandle_NormalExit(t *testing.T) {
	h := &processHandle{}
	startAndDrain(t, h, "exit 0")

	code, status := h.wait()
	if code != 0 || status != StatusNormal {
		t.Errorf("wait() = %d, %v; want 0, normal", code, status)
	}
	if h.isRunning() {
		t.Error("handle still running after wait")
	}
	if h.processID() != 0 {
		t.Error("pid not cleared after exit")
	}
}

func TestProcessHandle_NonzeroExit(t *testing.T) {
	h := &processHandle{}
	startAndDrain(t, h, "exit 7")

	code, status := h.wait()
	if code != 7 || status != StatusNormal {
		t.Errorf("wait() = %d, %v; want 7, normal", code, status)
	}
	if h.lastExitCode() != 7 {
		t.Errorf("lastExitCode() = %d", h.lastExitCode())
	}
}

func TestProcessHandle_SignaledChildCrashes(t *testing.T) {
	h := &processHandle{}
	startAndDrain(t, h, "kill -9 $$")

	code, status := h.wait()
	if status != StatusCrashed {
		t.Errorf("status = %v, want crashed", status)
	}
	if code != 128+9 {
		t.Errorf("code = %d, want %d (128 + SIGKILL)", code, 128+9)
	}
	if h.lastExitStatus() != StatusCrashed {
		t.Errorf("lastExitStatus() = %v", h.lastExitStatus())
	}
}

func TestProcessHandle_StartWhileRunning(t *testing.T) {
	h := &processHandle{}
	startAndDrain(t, h, "sleep 5")

	if _, _, err := h.start("/bin/bash", "true"); err == nil {
		t.Error("second start should fail while a child is active")
	}

	if err := h.signal(unix.SIGKILL); err != nil {
		t.Fatalf("signal: %v", err)
	}
	h.wait()
}

func TestProcessHandle_SignalWithoutProcess(t *testing.T) {
	h := &processHandle{}
	if err := h.signal(unix.SIGTERM); err == nil {
		t.Error("signal should fail with no process identifier")
	}
}

func TestProcessHandle_WaitExit(t *testing.T) {
	h := &processHandle{}
	startAndDrain(t, h, "sleep 5")

	if h.waitExit(50 * time.Millisecond) {
		t.Error("waitExit should time out on a live sleep")
	}

	h.signal(unix.SIGKILL)
	go h.wait()
	if !h.waitExit(2 * time.Second) {
		t.Error("waitExit should observe the killed child")
	}
}

func TestProcessHandle_DoneChanBeforeStart(t *testing.T) {
	h := &processHandle{}
	select {
	case <-h.doneChan():
	default:
		t.Error("doneChan before any run should be closed")
	}
}

func TestProcessHandle_StartBadShell(t *testing.T) {
	h := &processHandle{}
	if _, _, err := h.start("/nonexistent/shell", "true"); err == nil {
		t.Error("start with a missing shell should fail")
	}
	if h.isRunning() {
		t.Error("failed start must leave the handle inactive")
	}
}

func TestProcessHandle_WriteStdin(t *testing.T) {
	h := &processHandle{}
	stdout, stderr, err := h.start("/bin/bash", "read line; echo \"got:$line\"")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	go io.Copy(io.Discard, stderr)

	if err := h.write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, _ := io.ReadAll(stdout)
	if string(out) != "got:hello\n" {
		t.Errorf("child echoed %q", out)
	}
	h.wait()

	if err := h.write([]byte("late\n")); err == nil {
		t.Error("write after exit should fail")
	}
}

func TestExitOutcome_NilError(t *testing.T) {
	code, status := exitOutcome(nil)
	if code != 0 || status != StatusNormal {
		t.Errorf("exitOutcome(nil) = %d, %v", code, status)
	}
}

func TestExitOutcome_OpaqueError(t *testing.T) {
	code, status := exitOutcome(io.ErrUnexpectedEOF)
	if code != -1 || status != StatusCrashed {
		t.Errorf("exitOutcome(opaque) = %d, %v; want -1, crashed", code, status)
	}
}
