package transport

import (
	"context"
	"net"
	"sync"

	"github.com/backkem/dkpair/pkg/pairing"
	"github.com/pion/logging"
)

// TCPConfig configures the TCP transport.
type TCPConfig struct {
	// Listener is an optional pre-existing Listener to use.
	// If nil, a new listener will be created using ListenAddr.
	Listener net.Listener

	// ListenAddr is the address to listen on (e.g., ":7450").
	// Ignored if Listener is provided.
	ListenAddr string

	// NewHandler returns the handler for signals arriving on a newly
	// accepted connection. The peer lets the handler answer over the same
	// connection. Required.
	NewHandler func(peer *Peer) pairing.Relay

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// TCP accepts connections and serves one Peer per connection.
type TCP struct {
	listener      net.Listener
	newHandler    func(peer *Peer) pairing.Relay
	loggerFactory logging.LoggerFactory
	log           logging.LeveledLogger
	closeCh       chan struct{}
	wg            sync.WaitGroup

	peersMu sync.Mutex
	peers   map[*Peer]struct{}

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewTCP creates a new TCP transport with the given configuration.
func NewTCP(config TCPConfig) (*TCP, error) {
	if config.NewHandler == nil {
		return nil, ErrNoHandler
	}

	t := &TCP{
		listener:      config.Listener,
		newHandler:    config.NewHandler,
		loggerFactory: config.LoggerFactory,
		closeCh:       make(chan struct{}),
		peers:         make(map[*Peer]struct{}),
	}

	if config.LoggerFactory != nil {
		t.log = config.LoggerFactory.NewLogger("transport-tcp")
	}

	if t.listener == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = ":0" // Use ephemeral port
		}
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		t.listener = listener
	}

	return t, nil
}

// Start begins accepting connections.
func (t *TCP) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if t.started {
		return ErrAlreadyStarted
	}
	t.started = true

	if t.log != nil {
		t.log.Infof("listening on %s", t.listener.Addr())
	}

	t.wg.Add(1)
	go t.acceptLoop()
	return nil
}

// Stop closes the listener and every connection.
func (t *TCP) Stop() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.closed = true
	t.mu.Unlock()

	if t.log != nil {
		t.log.Info("stopping TCP transport")
	}

	close(t.closeCh)
	t.listener.Close()

	t.peersMu.Lock()
	peers := make([]*Peer, 0, len(t.peers))
	for p := range t.peers {
		peers = append(peers, p)
	}
	t.peersMu.Unlock()
	for _, p := range peers {
		p.Close()
	}

	t.wg.Wait()
	return nil
}

// LocalAddr returns the local address the transport is listening on.
func (t *TCP) LocalAddr() net.Addr {
	return t.listener.Addr()
}

func (t *TCP) acceptLoop() {
	defer t.wg.Done()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.closeCh:
				return
			default:
				continue
			}
		}

		t.wg.Add(1)
		go t.serve(conn)
	}
}

func (t *TCP) serve(conn net.Conn) {
	defer t.wg.Done()

	peer := newPeer(conn, PeerConfig{LoggerFactory: t.loggerFactory})
	peer.handler = t.newHandler(peer)
	peer.start()

	t.peersMu.Lock()
	t.peers[peer] = struct{}{}
	t.peersMu.Unlock()

	if t.log != nil {
		t.log.Debugf("accepted %s", conn.RemoteAddr())
	}

	select {
	case <-peer.Done():
	case <-t.closeCh:
	}
	peer.Close()

	t.peersMu.Lock()
	delete(t.peers, peer)
	t.peersMu.Unlock()
}

// Dial connects to a TCP transport and returns the Peer for the
// connection.
func Dial(ctx context.Context, addr string, config PeerConfig) (*Peer, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewPeer(conn, config), nil
}
