package message

import (
	"github.com/backkem/dkpair/pkg/bertlv"
)

// SelectCommand selects the digital key applet on the device.
type SelectCommand struct {
	AID []byte
}

// NewSelectCommand returns a SELECT command for the default AID.
func NewSelectCommand() *SelectCommand {
	return &SelectCommand{AID: clone(DefaultAID)}
}

var fieldAID = fieldSpec{0, "aid", AIDSize}

// Encode serializes the command. The AID is the raw data field.
func (m *SelectCommand) Encode() (string, error) {
	if err := check(KindSelectCommand, fieldAID, m.AID); err != nil {
		return "", err
	}
	return encodeCommand(KindSelectCommand, HeaderSelect, m.AID)
}

// DecodeSelectCommand parses a SELECT command.
func DecodeSelectCommand(s string) (*SelectCommand, error) {
	cmd, err := parseCommand(KindSelectCommand, HeaderSelect, s)
	if err != nil {
		return nil, err
	}
	if len(cmd) != AIDSize {
		return nil, &DecodeError{Kind: KindSelectCommand, Field: fieldAID.name, Err: ErrInvalidLength}
	}
	return &SelectCommand{AID: cmd}, nil
}

// SelectResponse reports the device applet versions and pairing mode.
type SelectResponse struct {
	FrameworkVersion []byte
	ProtocolVersion  []byte
	PairingMode      PairingMode
}

// Encode serializes the response.
func (m *SelectResponse) Encode() (string, error) {
	const kind = KindSelectResponse
	if err := check(kind, fieldFrameworkVersion, m.FrameworkVersion); err != nil {
		return "", err
	}
	if err := check(kind, fieldProtocolVersion, m.ProtocolVersion); err != nil {
		return "", err
	}
	if !m.PairingMode.Valid() {
		return "", &EncodeError{Kind: kind, Field: fieldPairingMode.name, Err: ErrInvalidPairingMode}
	}

	w := bertlv.NewWriter()
	if err := put(kind, w, fieldFrameworkVersion, m.FrameworkVersion); err != nil {
		return "", err
	}
	if err := put(kind, w, fieldProtocolVersion, m.ProtocolVersion); err != nil {
		return "", err
	}
	if err := put(kind, w, fieldPairingMode, []byte{byte(m.PairingMode)}); err != nil {
		return "", err
	}
	data, err := finish(kind, w)
	if err != nil {
		return "", err
	}
	return encodeResponse(data), nil
}

// DecodeSelectResponse parses a SELECT response.
func DecodeSelectResponse(s string) (*SelectResponse, error) {
	const kind = KindSelectResponse
	elems, err := decodeResponse(kind, s)
	if err != nil {
		return nil, err
	}

	m := &SelectResponse{}
	if m.FrameworkVersion, err = require(kind, elems, fieldFrameworkVersion); err != nil {
		return nil, err
	}
	if m.ProtocolVersion, err = require(kind, elems, fieldProtocolVersion); err != nil {
		return nil, err
	}
	mode, err := require(kind, elems, fieldPairingMode)
	if err != nil {
		return nil, err
	}
	m.PairingMode = PairingMode(mode[0])
	if !m.PairingMode.Valid() {
		return nil, &DecodeError{Kind: kind, Field: fieldPairingMode.name, Err: ErrInvalidPairingMode}
	}
	return m, nil
}
