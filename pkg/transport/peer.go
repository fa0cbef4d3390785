package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/backkem/dkpair/pkg/pairing"
	"github.com/pion/logging"
)

// PeerConfig configures a Peer.
type PeerConfig struct {
	// Handler receives inbound signals. Its acknowledgement or error is
	// returned to the sender. If nil, inbound signals are answered with
	// ErrNoHandler.
	Handler pairing.Relay

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Peer exchanges signals with the remote end of one connection.
// Deliver may be called concurrently.
type Peer struct {
	conn    net.Conn
	reader  *StreamReader
	writer  *StreamWriter
	writeMu sync.Mutex
	handler pairing.Relay
	log     logging.LeveledLogger

	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[uint64]chan envelope
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewPeer wraps conn and starts reading from it.
func NewPeer(conn net.Conn, config PeerConfig) *Peer {
	p := newPeer(conn, config)
	p.start()
	return p
}

func newPeer(conn net.Conn, config PeerConfig) *Peer {
	p := &Peer{
		conn:    conn,
		reader:  NewStreamReader(conn),
		writer:  NewStreamWriter(conn),
		handler: config.Handler,
		pending: make(map[uint64]chan envelope),
		done:    make(chan struct{}),
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	if config.LoggerFactory != nil {
		p.log = config.LoggerFactory.NewLogger("transport")
	}
	return p
}

func (p *Peer) start() {
	p.wg.Add(1)
	go p.readLoop()
}

// Deliver sends sig to the remote peer and waits for its acknowledgement.
// An error reported by the remote handler is returned as *RemoteError.
func (p *Peer) Deliver(ctx context.Context, sig pairing.Signal) (string, error) {
	id := p.nextID.Add(1)
	ch := make(chan envelope, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return "", ErrClosed
	}
	p.pending[id] = ch
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	if err := p.write(signalEnvelope(id, sig)); err != nil {
		return "", err
	}

	select {
	case ack := <-ch:
		if ack.Error != "" {
			return "", &RemoteError{Message: ack.Error}
		}
		return ack.Ack, nil
	case <-ctx.Done():
		return "", ctx.Err()
	case <-p.done:
		return "", ErrClosed
	}
}

// Done is closed when the connection is gone.
func (p *Peer) Done() <-chan struct{} {
	return p.done
}

// RemoteAddr returns the address of the remote end.
func (p *Peer) RemoteAddr() net.Addr {
	return p.conn.RemoteAddr()
}

// Close closes the connection and waits for in-flight handlers.
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	err := p.conn.Close()
	p.wg.Wait()
	return err
}

func (p *Peer) write(e envelope) error {
	data, err := encodeEnvelope(e)
	if err != nil {
		return err
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.writer.WriteFrame(data)
}

func (p *Peer) readLoop() {
	defer p.wg.Done()
	defer close(p.done)
	defer p.cancel()

	for {
		data, err := p.reader.ReadFrame()
		if err != nil {
			if p.log != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				p.log.Debugf("read from %s: %v", p.conn.RemoteAddr(), err)
			}
			return
		}

		e, err := decodeEnvelope(data)
		if err != nil {
			if p.log != nil {
				p.log.Warnf("dropping invalid envelope: %v", err)
			}
			continue
		}

		switch e.Type {
		case envelopeSignal:
			p.wg.Add(1)
			go p.handle(e)
		case envelopeAck:
			p.mu.Lock()
			ch, ok := p.pending[e.ID]
			p.mu.Unlock()
			if !ok {
				// Acknowledgement of a duplicate or abandoned signal.
				continue
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}

func (p *Peer) handle(e envelope) {
	defer p.wg.Done()

	sig := e.signal()
	ack := envelope{Type: envelopeAck, ID: e.ID}

	if err := sig.Validate(); err != nil {
		ack.Error = err.Error()
	} else if p.handler == nil {
		ack.Error = ErrNoHandler.Error()
	} else if text, err := p.handler.Deliver(p.ctx, sig); err != nil {
		ack.Error = err.Error()
	} else {
		ack.Ack = text
	}

	if err := p.write(ack); err != nil && p.log != nil {
		p.log.Debugf("ack %s for session %s: %v", sig.Kind, sig.SessionID, err)
	}
}

// Verify Peer implements pairing.Relay.
var _ pairing.Relay = (*Peer)(nil)
