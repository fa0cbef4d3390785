package transport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/backkem/dkpair/pkg/message"
	"github.com/backkem/dkpair/pkg/pairing"
	"github.com/pion/transport/v3/test"
)

type recordingHandler struct {
	mu      sync.Mutex
	signals []pairing.Signal
	err     error
}

func (h *recordingHandler) Deliver(_ context.Context, sig pairing.Signal) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.signals = append(h.signals, sig)
	if h.err != nil {
		return "", h.err
	}
	return "ack " + sig.Payload, nil
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.signals)
}

func testSignal() pairing.Signal {
	return pairing.Signal{SessionID: "s", VIN: "V", Kind: message.KindSelectCommand, Payload: "00A4"}
}

func newPeerPair(t *testing.T, h0, h1 pairing.Relay) (*Pipe, *Peer, *Peer) {
	t.Helper()
	pipe := NewPipe()
	p0 := NewPeer(pipe.Conn0(), PeerConfig{Handler: h0})
	p1 := NewPeer(pipe.Conn1(), PeerConfig{Handler: h1})
	t.Cleanup(func() {
		p0.Close()
		p1.Close()
		pipe.Close()
	})
	return pipe, p0, p1
}

func TestPeer_Deliver(t *testing.T) {
	lim := test.TimeOut(5 * time.Second)
	defer lim.Stop()

	h0, h1 := &recordingHandler{}, &recordingHandler{}
	_, p0, p1 := newPeerPair(t, h0, h1)
	ctx := context.Background()

	sig := pairing.Signal{SessionID: "s", VIN: "V", Kind: message.KindSelectCommand, Payload: "00A4"}
	ack, err := p0.Deliver(ctx, sig)
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if ack != "ack 00A4" {
		t.Errorf("ack = %q", ack)
	}
	if h1.count() != 1 || h1.signals[0] != sig {
		t.Errorf("received = %+v", h1.signals)
	}

	// Both directions share the connection.
	if _, err := p1.Deliver(ctx, pairing.Signal{SessionID: "s", VIN: "V", Kind: message.KindSelectResponse, Payload: "9000"}); err != nil {
		t.Fatalf("reverse Deliver() error = %v", err)
	}
	if h0.count() != 1 {
		t.Errorf("reverse received = %d", h0.count())
	}
	if p0.RemoteAddr().String() != "pipe:1" {
		t.Errorf("RemoteAddr() = %s", p0.RemoteAddr())
	}
}

func TestPeer_RemoteError(t *testing.T) {
	_, p0, _ := newPeerPair(t, nil, &recordingHandler{err: errors.New("session not found")})

	_, err := p0.Deliver(context.Background(), testSignal())
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Message != "session not found" {
		t.Fatalf("Deliver() error = %v, want *RemoteError", err)
	}
}

func TestPeer_NoHandler(t *testing.T) {
	_, p0, _ := newPeerPair(t, nil, nil)

	_, err := p0.Deliver(context.Background(), testSignal())
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Message != ErrNoHandler.Error() {
		t.Fatalf("Deliver() error = %v", err)
	}
}

func TestPeer_InvalidSignal(t *testing.T) {
	h1 := &recordingHandler{}
	_, p0, _ := newPeerPair(t, nil, h1)

	_, err := p0.Deliver(context.Background(), pairing.Signal{SessionID: "s", Payload: "00A4"})
	var remote *RemoteError
	if !errors.As(err, &remote) || remote.Message != pairing.ErrMissingVIN.Error() {
		t.Fatalf("Deliver() error = %v", err)
	}
	if h1.count() != 0 {
		t.Error("invalid signal reached the handler")
	}
}

func TestPeer_DuplicatedFrames(t *testing.T) {
	h1 := &recordingHandler{}
	pipe, p0, _ := newPeerPair(t, nil, h1)
	pipe.SetCondition(NetworkCondition{DuplicateRate: 1})

	if _, err := p0.Deliver(context.Background(), testSignal()); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for h1.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h1.count() != 2 {
		t.Errorf("handler calls = %d, want 2", h1.count())
	}
}

func TestPeer_DroppedFrame(t *testing.T) {
	pipe, p0, _ := newPeerPair(t, nil, &recordingHandler{})
	pipe.SetCondition(NetworkCondition{DropRate: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p0.Deliver(ctx, testSignal()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Deliver() error = %v, want DeadlineExceeded", err)
	}
}

func TestPeer_Closed(t *testing.T) {
	pipe := NewPipe()
	defer pipe.Close()

	p0 := NewPeer(pipe.Conn0(), PeerConfig{})
	p1 := NewPeer(pipe.Conn1(), PeerConfig{})
	defer p1.Close()

	p0.Close()
	if err := p0.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := p0.Deliver(context.Background(), pairing.Signal{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Deliver() after Close error = %v", err)
	}
	select {
	case <-p0.Done():
	default:
		t.Error("Done() not closed")
	}
}

func TestPipe_Condition(t *testing.T) {
	pipe := NewPipe()
	defer pipe.Close()

	cond := NetworkCondition{DelayMin: time.Millisecond, DelayMax: 2 * time.Millisecond}
	pipe.SetCondition(cond)
	if pipe.Condition() != cond {
		t.Errorf("Condition() = %+v", pipe.Condition())
	}
	if pipe.Conn0().LocalAddr().String() != "pipe:0" || pipe.Conn0().RemoteAddr().Network() != "pipe" {
		t.Errorf("addresses = %s, %s", pipe.Conn0().LocalAddr(), pipe.Conn0().RemoteAddr())
	}
}
