package transport

import (
	"errors"
	"fmt"
)

// Transport errors.
var (
	// ErrClosed is returned when an operation is attempted on a closed transport.
	ErrClosed = errors.New("transport: closed")

	// ErrNoHandler is returned when no handler is configured.
	ErrNoHandler = errors.New("transport: no handler configured")

	// ErrAlreadyStarted is returned when Start is called on an already running transport.
	ErrAlreadyStarted = errors.New("transport: already started")

	// ErrFrameTooLarge is returned for a frame above MaxFrameSize.
	ErrFrameTooLarge = errors.New("transport: frame too large")

	// ErrEmptyFrame is returned for a zero length prefix.
	ErrEmptyFrame = errors.New("transport: empty frame")

	// ErrStreamRead is returned when a frame cannot be read completely.
	ErrStreamRead = errors.New("transport: stream read failed")

	// ErrInvalidEnvelope is returned for an envelope of unknown type.
	ErrInvalidEnvelope = errors.New("transport: invalid envelope")
)

// RemoteError is an error reported by the receiving peer.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("transport: remote: %s", e.Message)
}
