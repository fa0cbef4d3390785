package pairing

import (
	"context"
	"sync"
)

// Mailbox is an unbounded FIFO of signals for one session. Push never
// blocks, so a relay can deliver while the flow is busy.
type Mailbox struct {
	mu     sync.Mutex
	queue  []Signal
	notify chan struct{}
	closed bool
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{notify: make(chan struct{}, 1)}
}

// Push appends a signal.
func (m *Mailbox) Push(sig Signal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrMailboxClosed
	}
	m.queue = append(m.queue, sig)
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return nil
}

// Next removes and returns the oldest signal, waiting until one arrives,
// the mailbox is closed or ctx is done.
func (m *Mailbox) Next(ctx context.Context) (Signal, error) {
	for {
		m.mu.Lock()
		if len(m.queue) > 0 {
			sig := m.queue[0]
			m.queue[0] = Signal{}
			m.queue = m.queue[1:]
			m.mu.Unlock()
			return sig, nil
		}
		if m.closed {
			m.mu.Unlock()
			return Signal{}, ErrMailboxClosed
		}
		m.mu.Unlock()

		select {
		case <-m.notify:
		case <-ctx.Done():
			return Signal{}, ctx.Err()
		}
	}
}

// Len returns the number of queued signals.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Close wakes any waiter and rejects further pushes. Queued signals can
// still be drained.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	close(m.notify)
}

var _ Inbox = (*Mailbox)(nil)
