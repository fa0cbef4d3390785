package pairing

import (
	"errors"
	"fmt"

	"github.com/backkem/dkpair/pkg/crypto/spake2p"
	"github.com/backkem/dkpair/pkg/message"
)

var (
	ErrInvalidState      = errors.New("pairing: invalid state for this operation")
	ErrNotInPairingMode  = errors.New("pairing: device is not in pairing mode")
	ErrUnexpectedMessage = errors.New("pairing: unexpected message kind")
	ErrSessionMismatch   = errors.New("pairing: signal addressed to another session")
	ErrMailboxClosed     = errors.New("pairing: mailbox closed")
	ErrMissingPassword   = errors.New("pairing: password is required")
	ErrInvalidSalt       = errors.New("pairing: salt must be 16 bytes")
	ErrMissingVIN        = errors.New("pairing: VIN cannot be blank")
	ErrEmptyPayload      = errors.New("pairing: message cannot be blank")
)

// StepError records the flow step at which a pairing failed.
type StepError struct {
	Flow  string
	State string
	Kind  message.Kind
	Err   error
}

func (e *StepError) Error() string {
	if e.Kind == message.KindUnknown {
		return fmt.Sprintf("pairing: %s flow failed in %s: %v", e.Flow, e.State, e.Err)
	}
	return fmt.Sprintf("pairing: %s flow failed in %s handling %s: %v", e.Flow, e.State, e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// RelayError reports a message the relay could not deliver.
type RelayError struct {
	SessionID string
	Kind      message.Kind
	Err       error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("pairing: relay %s for session %s: %v", e.Kind, e.SessionID, e.Err)
}

func (e *RelayError) Unwrap() error { return e.Err }

// IsRejected reports whether err means the peer failed evidence
// verification, as opposed to a transport or encoding failure.
func IsRejected(err error) bool {
	return errors.Is(err, spake2p.ErrEvidenceMismatch)
}
