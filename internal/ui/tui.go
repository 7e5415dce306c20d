// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the channels it reports user input on
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Control holds channels the TUI reports user input on
type Control struct {
	Commands chan string
	Quit     chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Commands: make(chan string, 10),
		Quit:     make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		state: StateStarting,
		ctrl:  ctrl,
	}
}

// Run creates the TUI program; the caller runs it
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
