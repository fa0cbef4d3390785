// Package apdu frames ISO 7816-4 short command and response APDUs and
// converts them to and from the uppercase hex strings exchanged with peers.
//
// A command is laid out as
//
//	CLA INS P1 P2 Lc <data> Le
//
// where Lc is the one-octet data length and Le is always present. A
// response is the payload followed by the two status word octets SW1 SW2.
package apdu

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// HeaderSize is CLA INS P1 P2 Lc.
	HeaderSize = 5

	// MaxDataSize is the largest payload a short APDU can carry.
	MaxDataSize = 255

	// StatusSize is the length of the SW1 SW2 trailer.
	StatusSize = 2

	// DefaultLe requests the maximum response length.
	DefaultLe = 0x00
)

// StatusOK is the ISO 7816 "normal processing" status word.
const StatusOK uint16 = 0x9000

var (
	ErrFrameTooShort    = errors.New("apdu: frame too short")
	ErrLengthMismatch   = errors.New("apdu: Lc does not match data length")
	ErrDataTooLong      = errors.New("apdu: data exceeds short APDU limit")
	ErrEmptyData        = errors.New("apdu: command data is empty")
	ErrUnexpectedLe     = errors.New("apdu: unexpected Le")
	ErrHeaderMismatch   = errors.New("apdu: unexpected command header")
	ErrStatusNotSuccess = errors.New("apdu: status word is not 9000")
	ErrInvalidHex       = errors.New("apdu: invalid hex")
)

// Header identifies a command: CLA, INS, P1 and P2.
type Header struct {
	CLA byte
	INS byte
	P1  byte
	P2  byte
}

// String returns the header as uppercase hex.
func (h Header) String() string {
	return fmt.Sprintf("%02X%02X%02X%02X", h.CLA, h.INS, h.P1, h.P2)
}

// Command is a case 4 short command APDU.
type Command struct {
	Header
	Data []byte
	Le   byte
}

// Bytes encodes the command.
func (c *Command) Bytes() ([]byte, error) {
	if len(c.Data) == 0 {
		return nil, ErrEmptyData
	}
	if len(c.Data) > MaxDataSize {
		return nil, ErrDataTooLong
	}
	out := make([]byte, 0, HeaderSize+len(c.Data)+1)
	out = append(out, c.CLA, c.INS, c.P1, c.P2, byte(len(c.Data)))
	out = append(out, c.Data...)
	out = append(out, c.Le)
	return out, nil
}

// Hex encodes the command as uppercase hex.
func (c *Command) Hex() (string, error) {
	b, err := c.Bytes()
	if err != nil {
		return "", err
	}
	return EncodeHex(b), nil
}

// ParseCommand decodes a command frame. Lc must equal the number of data
// octets between the header and the trailing Le, and Le must be 00.
func ParseCommand(frame []byte) (*Command, error) {
	if len(frame) < HeaderSize+2 {
		return nil, ErrFrameTooShort
	}
	lc := int(frame[4])
	if lc != len(frame)-HeaderSize-1 {
		return nil, fmt.Errorf("%w: Lc=%d, data=%d", ErrLengthMismatch, lc, len(frame)-HeaderSize-1)
	}
	le := frame[len(frame)-1]
	if le != DefaultLe {
		return nil, fmt.Errorf("%w: %02X", ErrUnexpectedLe, le)
	}
	data := make([]byte, lc)
	copy(data, frame[HeaderSize:HeaderSize+lc])
	return &Command{
		Header: Header{CLA: frame[0], INS: frame[1], P1: frame[2], P2: frame[3]},
		Data:   data,
		Le:     le,
	}, nil
}

// ParseCommandHex decodes a hex command and checks its header.
func ParseCommandHex(s string, want Header) (*Command, error) {
	frame, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	cmd, err := ParseCommand(frame)
	if err != nil {
		return nil, err
	}
	if cmd.Header != want {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrHeaderMismatch, cmd.Header, want)
	}
	return cmd, nil
}

// Response is a response APDU.
type Response struct {
	Data []byte
	SW   uint16
}

// Bytes encodes the response.
func (r *Response) Bytes() []byte {
	out := make([]byte, 0, len(r.Data)+StatusSize)
	out = append(out, r.Data...)
	return append(out, byte(r.SW>>8), byte(r.SW))
}

// Hex encodes the response as uppercase hex.
func (r *Response) Hex() string {
	return EncodeHex(r.Bytes())
}

// ParseResponse splits a response frame into payload and status word.
func ParseResponse(frame []byte) (*Response, error) {
	if len(frame) < StatusSize {
		return nil, ErrFrameTooShort
	}
	n := len(frame) - StatusSize
	data := make([]byte, n)
	copy(data, frame[:n])
	return &Response{
		Data: data,
		SW:   uint16(frame[n])<<8 | uint16(frame[n+1]),
	}, nil
}

// ParseResponseHex decodes a hex response and requires status 9000.
func ParseResponseHex(s string) (*Response, error) {
	frame, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	resp, err := ParseResponse(frame)
	if err != nil {
		return nil, err
	}
	if resp.SW != StatusOK {
		return nil, fmt.Errorf("%w: %04X", ErrStatusNotSuccess, resp.SW)
	}
	return resp, nil
}

// EncodeHex returns b as uppercase hex without separators.
func EncodeHex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// DecodeHex parses hex of either case.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return b, nil
}
