package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// RunTimeMsg carries one progress tick (elapsed counter and estimated
// duration, both in deciseconds).
type RunTimeMsg struct {
	Elapsed   int
	Estimated int
}

// OutputMsg carries a chunk of child stdout.
type OutputMsg struct {
	Chunk string
}

// FifoMsg carries a message read from the FIFO channel.
type FifoMsg struct {
	Text string
}

// FinishedMsg signals run completion and quits the program.
type FinishedMsg struct {
	ExitCode int
	Crashed  bool
}

const defaultBarWidth = 40

// Model renders a progress bar for a single command run.
type Model struct {
	command   string
	elapsed   int
	estimated int
	lastLine  string
	fifoLine  string
	exitCode  int
	crashed   bool
	finished  bool
	width     int
}

// NewModel creates a progress model for command with the given estimated
// duration in deciseconds.
func NewModel(command string, estimated int) Model {
	return Model{
		command:   command,
		estimated: estimated,
		width:     defaultBarWidth,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		w := msg.Width - 20
		if w < 10 {
			w = 10
		}
		if w > defaultBarWidth {
			w = defaultBarWidth
		}
		m.width = w

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case RunTimeMsg:
		m.elapsed = msg.Elapsed
		m.estimated = msg.Estimated

	case OutputMsg:
		if line := lastNonEmptyLine(msg.Chunk); line != "" {
			m.lastLine = line
		}

	case FifoMsg:
		if line := lastNonEmptyLine(msg.Text); line != "" {
			m.fifoLine = line
		}

	case FinishedMsg:
		m.finished = true
		m.exitCode = msg.ExitCode
		m.crashed = msg.Crashed
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.command))
	b.WriteString("\n")
	b.WriteString(m.renderBar())
	b.WriteString("\n")

	if m.lastLine != "" {
		b.WriteString(mutedStyle.Render(m.lastLine))
		b.WriteString("\n")
	}

	if m.fifoLine != "" {
		b.WriteString(mutedStyle.Render("fifo: " + m.fifoLine))
		b.WriteString("\n")
	}

	if m.finished {
		if m.exitCode == 0 && !m.crashed {
			b.WriteString(successStyle.Render("done"))
		} else if m.crashed {
			b.WriteString(errorStyle.Render(fmt.Sprintf("crashed (code %d)", m.exitCode)))
		} else {
			b.WriteString(errorStyle.Render(fmt.Sprintf("failed (code %d)", m.exitCode)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// renderBar draws the elapsed-versus-estimated bar. Past the estimate the
// bar stays full; the counter keeps climbing.
func (m Model) renderBar() string {
	filled := m.width
	if m.estimated > 0 && m.elapsed < m.estimated {
		filled = m.width * m.elapsed / m.estimated
	}
	if filled > m.width {
		filled = m.width
	}

	bar := barFilledStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", m.width-filled))

	return fmt.Sprintf("%s %s", bar, mutedStyle.Render(
		fmt.Sprintf("%d/%d ds", m.elapsed, m.estimated)))
}

func lastNonEmptyLine(chunk string) string {
	lines := strings.Split(strings.TrimRight(chunk, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
