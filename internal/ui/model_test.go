// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, the message log and the command line
package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/Resonate-Protocol/chunkstream/pkg/buffer"
	tea "github.com/charmbracelet/bubbletea"
)

func typeText(m Model, text string) Model {
	for _, r := range text {
		var key tea.KeyMsg
		if r == ' ' {
			key = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		} else {
			key = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		updated, _ := m.Update(key)
		m = updated.(Model)
	}
	return m
}

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // Control is optional for testing

	if model.state != StateStarting {
		t.Errorf("expected initial state %s, got %s", StateStarting, model.state)
	}
	if model.input != "" {
		t.Error("expected empty command line")
	}
	if len(model.messages) != 0 {
		t.Error("expected no messages initially")
	}
}

func TestStatusMsg(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		Title:    "song.flac",
		Format:   "flac 44100Hz 2ch 16-bit",
		Duration: 215 * time.Second,
		State:    StatePlaying,
	})

	if model.title != "song.flac" {
		t.Errorf("expected title song.flac, got %s", model.title)
	}
	if model.format != "flac 44100Hz 2ch 16-bit" {
		t.Errorf("unexpected format %s", model.format)
	}
	if model.duration != 215*time.Second {
		t.Errorf("expected duration 215s, got %v", model.duration)
	}

	// partial update keeps the other fields
	model.applyStatus(StatusMsg{State: StateFinished})
	if model.state != StateFinished {
		t.Errorf("expected state finished, got %s", model.state)
	}
	if model.title != "song.flac" {
		t.Error("title should survive a state-only update")
	}
}

func TestStatsMsg(t *testing.T) {
	model := NewModel(nil)

	updated, _ := model.Update(StatsMsg(buffer.Stats{Capacity: 10, Occupied: 4, Inserted: 9, Removed: 5}))
	m := updated.(Model)

	if m.stats.Occupied != 4 || m.stats.Inserted != 9 || m.stats.Removed != 5 {
		t.Errorf("unexpected stats %+v", m.stats)
	}

	m.width = 80
	view := m.View()
	if !strings.Contains(view, "4/10") {
		t.Errorf("expected occupancy in view, got:\n%s", view)
	}
}

func TestLogMsgKeepsMostRecent(t *testing.T) {
	var tm tea.Model = NewModel(nil)
	for i := 0; i < maxMessages+3; i++ {
		tm, _ = tm.Update(LogMsg(strings.Repeat("m", i+1)))
	}
	m := tm.(Model)

	if len(m.messages) != maxMessages {
		t.Fatalf("expected %d messages, got %d", maxMessages, len(m.messages))
	}
	if m.messages[0] != strings.Repeat("m", 4) {
		t.Errorf("expected oldest kept message to be 4 long, got %q", m.messages[0])
	}
	if m.messages[maxMessages-1] != strings.Repeat("m", maxMessages+3) {
		t.Errorf("unexpected newest message %q", m.messages[maxMessages-1])
	}
}

func TestEnterSendsCommand(t *testing.T) {
	ctrl := NewControl()
	m := typeText(NewModel(ctrl), "x")

	if m.input != "x" {
		t.Fatalf("expected input x, got %q", m.input)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if m.input != "" {
		t.Errorf("expected input cleared, got %q", m.input)
	}

	select {
	case cmd := <-ctrl.Commands:
		if cmd != "x" {
			t.Errorf("expected command x, got %q", cmd)
		}
	default:
		t.Fatal("expected a command on the channel")
	}
}

func TestEnterIgnoresBlankLine(t *testing.T) {
	ctrl := NewControl()
	m := typeText(NewModel(ctrl), "   ")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	select {
	case cmd := <-ctrl.Commands:
		t.Errorf("blank line should not be sent, got %q", cmd)
	default:
	}
}

func TestCommandLineEditing(t *testing.T) {
	m := typeText(NewModel(nil), "stop now")
	if m.input != "stop now" {
		t.Fatalf("expected 'stop now', got %q", m.input)
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = updated.(Model)
	if m.input != "stop no" {
		t.Errorf("expected 'stop no' after backspace, got %q", m.input)
	}

	m = typeText(m, strings.Repeat("a", maxInput*2))
	if len([]rune(m.input)) > maxInput {
		t.Errorf("input exceeded %d runes: %d", maxInput, len([]rune(m.input)))
	}
}

func TestCtrlCQuits(t *testing.T) {
	ctrl := NewControl()
	updated, cmd := NewModel(ctrl).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m := updated.(Model)

	if !m.quitting {
		t.Error("expected quitting after ctrl+c")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}

	select {
	case <-ctrl.Quit:
	default:
		t.Error("expected quit signal on control channel")
	}
}

func TestQuitTypedIsNotQuit(t *testing.T) {
	m := typeText(NewModel(nil), "q")
	if m.quitting {
		t.Error("typing q should edit the command line, not quit")
	}
}

func TestViewBeforeResize(t *testing.T) {
	if got := NewModel(nil).View(); got != "Loading..." {
		t.Errorf("expected Loading..., got %q", got)
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value, max, width int
		want              string
	}{
		{0, 10, 10, "░░░░░░░░░░"},
		{5, 10, 10, "█████░░░░░"},
		{10, 10, 10, "██████████"},
		{12, 10, 4, "████"},
		{3, 0, 3, "░░░"},
	}

	for _, tt := range tests {
		if got := renderBar(tt.value, tt.max, tt.width); got != tt.want {
			t.Errorf("renderBar(%d, %d, %d) = %q, want %q", tt.value, tt.max, tt.width, got, tt.want)
		}
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input  string
		length int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long title", 10, "this is..."},
		{"abcdef", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.length); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.length, got, tt.want)
		}
	}
}
