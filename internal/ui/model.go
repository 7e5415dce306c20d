// ABOUTME: Bubbletea model for player TUI
// ABOUTME: Shows track info, buffer occupancy, session messages and a command line
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/chunkstream/internal/protocol"
	"github.com/Resonate-Protocol/chunkstream/pkg/buffer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Playback states shown in the header; they match the control protocol
const (
	StateStarting = "starting"
	StatePlaying  = protocol.StatePlaying
	StateStopped  = protocol.StateStopped
	StateFinished = protocol.StateFinished
)

const (
	maxMessages = 8
	maxInput    = 64
	barWidth    = 20
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	logStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	// Track
	title    string
	format   string
	duration time.Duration

	// Playback
	state string
	stats buffer.Stats

	// Session messages, oldest first
	messages []string

	// Command line
	input string

	ctrl     *Control
	quitting bool

	// Dimensions
	width  int
	height int
}

// StatusMsg updates track and playback state. Empty fields are left alone.
type StatusMsg struct {
	Title    string
	Format   string
	Duration time.Duration
	State    string
}

// StatsMsg carries a buffer snapshot
type StatsMsg buffer.Stats

// LogMsg appends one line to the message area
type LogMsg string

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case StatsMsg:
		m.stats = buffer.Stats(msg)
	case LogMsg:
		m.appendMessage(string(msg))
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping playback...\n"
	}
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("chunkstream"))
	b.WriteString("\n")

	b.WriteString(m.renderTrack())
	b.WriteString("\n")
	b.WriteString(m.renderBuffer())
	b.WriteString("\n")
	b.WriteString(m.renderMessages())
	b.WriteString("\n")
	b.WriteString(m.renderPrompt())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("Type x and Enter to halt playback. Esc or Ctrl+C to quit."))

	return b.String()
}

// renderTrack renders title, format and state
func (m Model) renderTrack() string {
	var b strings.Builder

	field := func(name, value string) {
		b.WriteString(headerStyle.Render(name + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	title := m.title
	if title == "" {
		title = "(none)"
	}
	field("Track", truncate(title, m.textWidth(7)))
	if m.format != "" {
		field("Format", m.format)
	}
	if m.duration > 0 {
		field("Duration", m.duration.Round(time.Second).String())
	}
	field("State", m.state)

	return b.String()
}

// renderBuffer renders occupancy and counters
func (m Model) renderBuffer() string {
	if m.stats.Capacity == 0 {
		return headerStyle.Render("Buffer: ") + valueStyle.Render("-") + "\n"
	}

	return fmt.Sprintf("%s[%s] %d/%d  %s %d  %s %d\n",
		headerStyle.Render("Buffer: "),
		renderBar(m.stats.Occupied, m.stats.Capacity, barWidth),
		m.stats.Occupied, m.stats.Capacity,
		headerStyle.Render("In:"), m.stats.Inserted,
		headerStyle.Render("Out:"), m.stats.Removed)
}

// renderMessages renders the most recent session messages
func (m Model) renderMessages() string {
	var b strings.Builder
	for _, line := range m.messages {
		b.WriteString(logStyle.Render(truncate(line, m.textWidth(0))))
		b.WriteString("\n")
	}
	return b.String()
}

// renderPrompt renders the command line
func (m Model) renderPrompt() string {
	return promptStyle.Render("> ") + m.input + "_"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.quitting = true
		if m.ctrl != nil {
			select {
			case m.ctrl.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case tea.KeyEnter:
		text := strings.TrimSpace(m.input)
		m.input = ""
		if text != "" && m.ctrl != nil {
			select {
			case m.ctrl.Commands <- text:
			default:
				// Don't block the UI if nobody is reading
			}
		}
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.appendInput(" ")
	case tea.KeyRunes:
		m.appendInput(string(msg.Runes))
	}

	return m, nil
}

func (m *Model) appendInput(s string) {
	if len([]rune(m.input))+len([]rune(s)) > maxInput {
		return
	}
	m.input += s
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Title != "" {
		m.title = msg.Title
	}
	if msg.Format != "" {
		m.format = msg.Format
	}
	if msg.Duration != 0 {
		m.duration = msg.Duration
	}
	if msg.State != "" {
		m.state = msg.State
	}
}

func (m *Model) appendMessage(line string) {
	m.messages = append(m.messages, line)
	if over := len(m.messages) - maxMessages; over > 0 {
		m.messages = m.messages[over:]
	}
}

// textWidth is the room left on a line after a label of the given width
func (m Model) textWidth(label int) int {
	if m.width <= label+4 {
		return 60
	}
	return m.width - label
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	if length <= 3 {
		return s[:length]
	}
	return s[:length-3] + "..."
}
