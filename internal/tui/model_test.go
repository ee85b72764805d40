package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModel_RunTimeUpdatesProgress(t *testing.T) {
	m := NewModel("sleep 2", 20)

	updated, _ := m.Update(RunTimeMsg{Elapsed: 10, Estimated: 20})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "10/20 ds") {
		t.Errorf("view missing progress counter: %q", view)
	}
}

func TestModel_FinishedQuits(t *testing.T) {
	m := NewModel("true", 10)

	updated, cmd := m.Update(FinishedMsg{ExitCode: 0})
	m = updated.(Model)

	if cmd == nil {
		t.Fatal("expected a quit command on FinishedMsg")
	}
	if !m.finished {
		t.Error("model should be marked finished")
	}
	if !strings.Contains(m.View(), "done") {
		t.Errorf("view should report success: %q", m.View())
	}
}

func TestModel_FinishedFailure(t *testing.T) {
	testCases := []struct {
		name string
		msg  FinishedMsg
		want string
	}{
		{"nonzero exit", FinishedMsg{ExitCode: 7}, "failed (code 7)"},
		{"crashed", FinishedMsg{ExitCode: 137, Crashed: true}, "crashed (code 137)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModel("false", 10)
			updated, _ := m.Update(tc.msg)
			view := updated.(Model).View()
			if !strings.Contains(view, tc.want) {
				t.Errorf("view = %q, want substring %q", view, tc.want)
			}
		})
	}
}

func TestModel_OutputKeepsLastLine(t *testing.T) {
	m := NewModel("echo", 10)

	updated, _ := m.Update(OutputMsg{Chunk: "first\nsecond\n"})
	m = updated.(Model)
	if m.lastLine != "second" {
		t.Errorf("lastLine = %q, want %q", m.lastLine, "second")
	}

	// Whitespace-only chunks don't clobber the last line
	updated, _ = m.Update(OutputMsg{Chunk: "\n\n"})
	m = updated.(Model)
	if m.lastLine != "second" {
		t.Errorf("lastLine = %q after empty chunk, want %q", m.lastLine, "second")
	}
}

func TestModel_FifoMessageShown(t *testing.T) {
	m := NewModel("./installer.sh", 50)

	updated, _ := m.Update(FifoMsg{Text: "phase: copying\n"})
	m = updated.(Model)

	if !strings.Contains(m.View(), "fifo: phase: copying") {
		t.Errorf("view missing fifo message: %q", m.View())
	}

	// Whitespace-only messages don't clobber the shown line.
	updated, _ = m.Update(FifoMsg{Text: "\n"})
	m = updated.(Model)
	if !strings.Contains(m.View(), "fifo: phase: copying") {
		t.Error("empty fifo message cleared the shown line")
	}
}

func TestModel_QuitKeys(t *testing.T) {
	m := NewModel("sleep 9", 90)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Error("ctrl+c should quit")
	}
}

func TestLastNonEmptyLine(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"hello\n", "hello"},
		{"a\nb\nc\n", "c"},
		{"a\nb\n\n", "b"},
		{"", ""},
		{"\n\n", ""},
		{"  padded  \n", "padded"},
	}

	for _, tc := range testCases {
		if got := lastNonEmptyLine(tc.input); got != tc.expected {
			t.Errorf("lastNonEmptyLine(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
