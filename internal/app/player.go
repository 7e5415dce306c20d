// ABOUTME: Main player application orchestration
// ABOUTME: Coordinates the playback session with the TUI, stdin and the control socket
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/chunkstream/internal/control"
	"github.com/Resonate-Protocol/chunkstream/internal/ui"
	"github.com/Resonate-Protocol/chunkstream/pkg/audio/decode"
	"github.com/Resonate-Protocol/chunkstream/pkg/audio/output"
	"github.com/Resonate-Protocol/chunkstream/pkg/buffer"
	"github.com/Resonate-Protocol/chunkstream/pkg/player"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

// Config holds player configuration
type Config struct {
	// Input is a file path, an http(s) URL or "tone"
	Input string

	// Backend and OutputPath select the sink (see output.New)
	Backend    string
	OutputPath string

	// Capacity is the number of one-second chunks buffered
	Capacity int

	// UseTUI runs the bubbletea interface; otherwise commands are read
	// from Stdin
	UseTUI bool
	Stdin  io.Reader

	// ControlAddr enables the websocket control server when set
	ControlAddr string
	EnableMDNS  bool
	Name        string

	// Source and Sink replace Input and Backend when set
	Source decode.Source
	Sink   output.Sink
}

// Player represents the main player application
type Player struct {
	config  Config
	session *player.Session
	interp  *control.Interpreter
	server  *control.Server
	tuiProg *tea.Program
	tuiDone chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new player
func New(config Config) *Player {
	ctx, cancel := context.WithCancel(context.Background())

	return &Player{
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run plays the configured input to completion or until halted
func (p *Player) Run(ctx context.Context) error {
	defer p.shutdown()

	src := p.config.Source
	if src == nil {
		var err error
		src, err = decode.NewSource(p.config.Input)
		if err != nil {
			return fmt.Errorf("failed to open input: %w", err)
		}
	}

	sink := p.config.Sink
	if sink == nil {
		var err error
		sink, err = output.New(p.config.Backend, p.config.OutputPath)
		if err != nil {
			src.Close()
			return fmt.Errorf("failed to create output: %w", err)
		}
	}

	p.session = player.New(player.Config{
		Source:    src,
		Sink:      sink,
		Capacity:  p.config.Capacity,
		OnMessage: p.showMessage,
		OnStats:   p.showStats,
	})
	p.interp = control.NewInterpreter(p.session, p.showMessage)

	if p.config.UseTUI {
		p.startTUI()
	}

	if p.config.ControlAddr != "" {
		p.server = control.NewServer(control.Config{
			Addr:       p.config.ControlAddr,
			Name:       p.config.Name,
			SessionID:  p.session.ID(),
			EnableMDNS: p.config.EnableMDNS,
		}, p.interp)
		if err := p.server.Start(); err != nil {
			// the sink is only opened by Play, so the source is all there is to release
			p.session.Stop()
			src.Close()
			return fmt.Errorf("failed to start control server: %w", err)
		}
	}

	if p.tuiProg == nil && p.config.Stdin != nil {
		go p.readCommands(p.config.Stdin)
	}

	format := src.Format()
	p.updateStatus(ui.StatusMsg{
		Title:    src.Title(),
		Format:   format.String(),
		Duration: format.Duration(src.Frames()),
		State:    ui.StatePlaying,
	})
	p.showStats(p.session.Stats())

	err := p.session.Play(ctx)
	if errors.Is(err, player.ErrStopped) {
		// halted before the first chunk; nothing failed
		err = nil
	}

	state := ui.StateFinished
	if p.session.Stopped() {
		state = ui.StateStopped
	}
	p.updateStatus(ui.StatusMsg{State: state})

	return err
}

// Session returns the running session, nil before Run
func (p *Player) Session() *player.Session {
	return p.session
}

// startTUI launches the bubbletea program
func (p *Player) startTUI() {
	ctrl := ui.NewControl()
	prog, err := ui.Run(ctrl)
	if err != nil {
		log.WithError(err).Warn("failed to start TUI, continuing without it")
		return
	}
	p.tuiProg = prog
	p.tuiDone = make(chan struct{})

	go func() {
		defer close(p.tuiDone)
		if _, err := prog.Run(); err != nil {
			log.WithError(err).Error("TUI exited with error")
		}
	}()

	go p.handleTUIControls(ctrl)
}

// handleTUIControls routes command lines typed in the TUI to the
// interpreter and stops the session when the TUI goes away
func (p *Player) handleTUIControls(ctrl *ui.Control) {
	for {
		select {
		case cmd := <-ctrl.Commands:
			p.interp.Handle(cmd)
		case <-ctrl.Quit:
			p.session.Stop()
			return
		case <-p.tuiDone:
			p.session.Stop()
			return
		case <-p.ctx.Done():
			return
		}
	}
}

// readCommands feeds lines from r to the interpreter
func (p *Player) readCommands(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		res := p.interp.Handle(scanner.Text())
		if res.Halted {
			return
		}
		select {
		case <-p.ctx.Done():
			return
		default:
		}
	}
}

func (p *Player) showMessage(msg string) {
	if p.tuiProg != nil {
		p.tuiProg.Send(ui.LogMsg(msg))
	}
}

func (p *Player) showStats(stats buffer.Stats) {
	if p.tuiProg != nil {
		p.tuiProg.Send(ui.StatsMsg(stats))
	}
	if p.server != nil {
		p.server.SetStats(stats)
	}
}

// updateStatus feeds the TUI header and the status pushed to control clients
func (p *Player) updateStatus(msg ui.StatusMsg) {
	if p.tuiProg != nil {
		p.tuiProg.Send(msg)
	}
	if p.server != nil && msg.State != "" {
		p.server.SetState(msg.State, msg.Title)
	}
}

// shutdown releases everything Run started
func (p *Player) shutdown() {
	p.cancel()

	if p.server != nil {
		p.server.Stop()
	}

	if p.tuiProg != nil {
		p.tuiProg.Quit()
		<-p.tuiDone
	}
}
