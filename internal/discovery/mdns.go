// ABOUTME: mDNS service discovery for chunkstream control endpoints
// ABOUTME: Handles both advertisement (player side) and browsing (stop command side)
package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	log "github.com/sirupsen/logrus"
)

// ServiceType is the DNS-SD type players advertise their control socket under
const ServiceType = "_chunkstream._tcp"

// defaultQueryTimeout is how long each browse round listens for answers
const defaultQueryTimeout = 3 * time.Second

// query runs one mDNS lookup; replaced in tests
var query = mdns.Query

// Config holds discovery configuration
type Config struct {
	ServiceName  string
	Port         int
	SessionID    string        // published in the TXT record
	ControlPath  string        // websocket path, published in the TXT record
	QueryTimeout time.Duration // per browse round (default: 3s)
}

// Manager handles mDNS operations
type Manager struct {
	config  Config
	ctx     context.Context
	cancel  context.CancelFunc
	players chan *PlayerInfo
	query   func(*mdns.QueryParam) error
}

// PlayerInfo describes a discovered player
type PlayerInfo struct {
	Name      string
	Host      string
	Port      int
	SessionID string
	Path      string
}

// Addr returns host:port of the player's control endpoint
func (p *PlayerInfo) Addr() string {
	return net.JoinHostPort(p.Host, fmt.Sprintf("%d", p.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	if config.ControlPath == "" {
		config.ControlPath = "/control"
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = defaultQueryTimeout
	}

	return &Manager{
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		players: make(chan *PlayerInfo, 10),
		query:   query,
	}
}

// Advertise advertises this player's control endpoint via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.txtRecords(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

func (m *Manager) txtRecords() []string {
	txt := []string{"path=" + m.config.ControlPath}
	if m.config.SessionID != "" {
		txt = append(txt, "session="+m.config.SessionID)
	}
	return txt
}

// Browse searches for players until Stop is called. Players that keep
// answering are reported again on every round.
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for players
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		forwarded := make(chan struct{})

		go func() {
			defer close(forwarded)
			for entry := range entries {
				player := entryToPlayer(entry)
				log.Printf("Discovered player: %s at %s", player.Name, player.Addr())

				select {
				case m.players <- player:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: m.config.QueryTimeout,
			Entries: entries,
		}

		if err := m.query(params); err != nil {
			log.WithError(err).Debug("mdns query failed")
			// back off so a broken interface does not spin
			select {
			case <-m.ctx.Done():
			case <-time.After(m.config.QueryTimeout):
			}
		}
		close(entries)
		<-forwarded
	}
}

// Players returns the channel of discovered players
func (m *Manager) Players() <-chan *PlayerInfo {
	return m.players
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

// Discover browses for timeout and returns every distinct player that
// answered
func Discover(timeout time.Duration) ([]*PlayerInfo, error) {
	queryTimeout := defaultQueryTimeout
	if timeout < queryTimeout {
		queryTimeout = timeout
	}

	m := NewManager(Config{QueryTimeout: queryTimeout})
	if err := m.Browse(); err != nil {
		return nil, fmt.Errorf("failed to browse: %w", err)
	}
	defer m.Stop()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	seen := make(map[string]bool)
	var found []*PlayerInfo
	for {
		select {
		case player := <-m.Players():
			if seen[player.Addr()] {
				continue
			}
			seen[player.Addr()] = true
			found = append(found, player)
		case <-deadline.C:
			return found, nil
		}
	}
}

func entryToPlayer(entry *mdns.ServiceEntry) *PlayerInfo {
	player := &PlayerInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Port: entry.Port,
		Path: "/control",
	}
	if entry.AddrV4 != nil {
		player.Host = entry.AddrV4.String()
	} else if entry.AddrV6 != nil {
		player.Host = entry.AddrV6.String()
	}

	for _, field := range entry.InfoFields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch key {
		case "path":
			player.Path = value
		case "session":
			player.SessionID = value
		}
	}
	return player
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
