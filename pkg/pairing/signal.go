package pairing

import (
	"context"
	"strings"

	"github.com/backkem/dkpair/pkg/message"
)

// Signal is a message addressed to one pairing session. The sender sets
// Kind explicitly; receivers never infer it from the payload.
type Signal struct {
	SessionID string
	VIN       string
	Kind      message.Kind
	Payload   string
}

// Validate checks the fields a peer must always supply.
func (s Signal) Validate() error {
	if strings.TrimSpace(s.VIN) == "" {
		return ErrMissingVIN
	}
	if strings.TrimSpace(s.Payload) == "" {
		return ErrEmptyPayload
	}
	return nil
}

// Inbox yields the signals delivered to one session in arrival order.
type Inbox interface {
	Next(ctx context.Context) (Signal, error)
}

// Relay carries a signal to the peer side and returns its acknowledgement.
type Relay interface {
	Deliver(ctx context.Context, sig Signal) (string, error)
}

// RelayFunc adapts a function to the Relay interface.
type RelayFunc func(ctx context.Context, sig Signal) (string, error)

// Deliver calls f.
func (f RelayFunc) Deliver(ctx context.Context, sig Signal) (string, error) {
	return f(ctx, sig)
}
