package bertlv

import "errors"

var (
	// ErrUnexpectedEOF is returned when the input ends inside a tag, length or value.
	ErrUnexpectedEOF = errors.New("bertlv: unexpected end of input")

	// ErrInvalidTag is returned for an empty, zero or over-long tag.
	ErrInvalidTag = errors.New("bertlv: invalid tag")

	// ErrIndefiniteLength is returned for the BER indefinite length form (0x80).
	ErrIndefiniteLength = errors.New("bertlv: indefinite length not supported")

	// ErrLengthTooLarge is returned when a length needs more than three octets.
	ErrLengthTooLarge = errors.New("bertlv: length too large")

	// ErrNotConstructed is returned when opening a container with a primitive tag.
	ErrNotConstructed = errors.New("bertlv: tag is not constructed")

	// ErrPrimitiveTag is returned when writing a constructed tag as a primitive value.
	ErrPrimitiveTag = errors.New("bertlv: tag is constructed")

	// ErrNotInContainer is returned when closing a container that was never opened.
	ErrNotInContainer = errors.New("bertlv: not in container")

	// ErrContainerNotClosed is returned when Bytes is called with open containers.
	ErrContainerNotClosed = errors.New("bertlv: container not closed")

	// ErrNoElement is returned when accessing an element before calling Next().
	ErrNoElement = errors.New("bertlv: no current element")
)
