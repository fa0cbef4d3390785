package message

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField       = errors.New("message: missing mandatory field")
	ErrInvalidLength      = errors.New("message: invalid field length")
	ErrInvalidPointPrefix = errors.New("message: curve point is not uncompressed")
	ErrInvalidPairingMode = errors.New("message: invalid pairing mode")
	ErrZeroScryptParam    = errors.New("message: scrypt parameter is zero")
)

// DecodeError reports a message that could not be decoded. Field is the
// offending element, or "frame" for APDU framing problems.
type DecodeError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("message: decode %s: %s: %v", e.Kind, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a message that could not be encoded.
type EncodeError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("message: encode %s: %s: %v", e.Kind, e.Field, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
