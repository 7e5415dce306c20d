// ABOUTME: WebSocket control server
// ABOUTME: Accepts command text from remote clients and pushes playback status to them
package control

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Resonate-Protocol/chunkstream/internal/discovery"
	"github.com/Resonate-Protocol/chunkstream/internal/protocol"
	"github.com/Resonate-Protocol/chunkstream/internal/version"
	"github.com/Resonate-Protocol/chunkstream/pkg/buffer"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Path is the websocket endpoint served by the control server
const Path = "/control"

// writeTimeout bounds each write so a stalled client cannot hold up playback
const writeTimeout = 2 * time.Second

// Config holds server configuration
type Config struct {
	Addr       string // listen address, e.g. ":8928" or "127.0.0.1:0"
	Name       string // advertised service name
	SessionID  string
	EnableMDNS bool
}

// Server serves the control socket for one session
type Server struct {
	config   Config
	interp   *Interpreter
	upgrader websocket.Upgrader

	httpServer  *http.Server
	listener    net.Listener
	mdnsManager *discovery.Manager

	clients   map[*client]struct{}
	clientsMu sync.Mutex
	closed    bool

	// statusMu also orders status writes so clients see them in sequence
	status    protocol.ServerStatus
	hasStatus bool
	statusMu  sync.Mutex

	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewServer creates a control server dispatching to interp
func NewServer(config Config, interp *Interpreter) *Server {
	if config.Name == "" {
		config.Name = version.Product
	}

	return &Server{
		config: config,
		interp: interp,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin != "" {
					log.Printf("Warning: accepting control connection from origin: %s", origin)
				}
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// client serializes writes to one connection
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(msg protocol.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// Start begins listening. It returns once the socket is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)
	s.httpServer = &http.Server{Handler: mux}

	log.Printf("Control server listening on %s", ln.Addr())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("control server failed")
		}
	}()

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.Port(),
			SessionID:   s.config.SessionID,
			ControlPath: Path,
		})
		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	return nil
}

// Addr returns the bound address
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// Port returns the bound TCP port
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return 0
	}
	n, _ := strconv.Atoi(port)
	return n
}

// Stop closes every connection and shuts the server down
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		if s.mdnsManager != nil {
			s.mdnsManager.Stop()
		}

		s.clientsMu.Lock()
		s.closed = true
		for c := range s.clients {
			c.conn.Close()
		}
		s.clientsMu.Unlock()

		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.httpServer.Shutdown(ctx); err != nil {
				log.WithError(err).Warn("control server shutdown error")
			}
		}
		s.wg.Wait()
	})
}

// SetState records the playback state and title and pushes the status to
// every connected client
func (s *Server) SetState(state, title string) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	s.status.State = state
	if title != "" {
		s.status.Title = title
	}
	s.hasStatus = true
	s.broadcast(s.status)
}

// SetStats records a buffer snapshot and pushes the status to every
// connected client
func (s *Server) SetStats(stats buffer.Stats) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	s.status.Capacity = stats.Capacity
	s.status.Occupied = stats.Occupied
	s.status.Inserted = stats.Inserted
	s.status.Removed = stats.Removed
	s.hasStatus = true
	s.broadcast(s.status)
}

// Status returns the last recorded status
func (s *Server) Status() protocol.ServerStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status
}

// broadcast must be called with statusMu held
func (s *Server) broadcast(status protocol.ServerStatus) {
	s.clientsMu.Lock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.clientsMu.Unlock()

	msg := protocol.Message{Type: protocol.TypeServerStatus, Payload: status}
	for _, c := range targets {
		if err := c.send(msg); err != nil {
			log.WithError(err).Debug("failed to push status")
		}
	}
}

// register sends the current status to c and adds it to the broadcast set.
// Holding statusMu keeps a concurrent broadcast from slipping in between.
func (s *Server) register(c *client) error {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	if s.hasStatus {
		msg := protocol.Message{Type: protocol.TypeServerStatus, Payload: s.status}
		if err := c.send(msg); err != nil {
			return err
		}
	}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if s.closed {
		return errors.New("control server stopped")
	}
	s.clients[c] = struct{}{}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	logger := log.WithField("component", "control").WithField("remote", r.RemoteAddr)
	logger.Debug("control client connected")

	hello := protocol.Message{
		Type: protocol.TypeServerHello,
		Payload: protocol.ServerHello{
			SessionID: s.config.SessionID,
			Name:      s.config.Name,
			Version:   version.Version,
		},
	}
	if err := c.send(hello); err != nil {
		logger.WithError(err).Debug("failed to send hello")
		return
	}
	if err := s.register(c); err != nil {
		logger.WithError(err).Debug("failed to register client")
		return
	}

	for {
		var msg protocol.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Debug("control read ended")
			}
			return
		}

		if msg.Type != protocol.TypeClientCommand {
			logger.Warnf("unexpected message type: %s", msg.Type)
			continue
		}

		var cmd protocol.ClientCommand
		if err := protocol.DecodePayload(msg, &cmd); err != nil {
			logger.WithError(err).Warn("bad command payload")
			continue
		}

		res := s.interp.Handle(cmd.Text)
		reply := protocol.Message{
			Type:    protocol.TypeServerReply,
			Payload: protocol.ServerReply{Text: res.Reply, Halted: res.Halted},
		}
		if err := c.send(reply); err != nil {
			logger.WithError(err).Debug("failed to send reply")
			return
		}
	}
}
