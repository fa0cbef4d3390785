package message

import "github.com/backkem/dkpair/pkg/bertlv"

// Spake2PlusVerifyCommand carries the vehicle public share Y and the
// vehicle evidence.
type Spake2PlusVerifyCommand struct {
	CurvePointY     []byte
	VehicleEvidence []byte
}

// Encode serializes the command.
func (m *Spake2PlusVerifyCommand) Encode() (string, error) {
	const kind = KindSpake2PlusVerifyCommand
	if err := checkPoint(kind, fieldCurvePointY, m.CurvePointY); err != nil {
		return "", err
	}
	if err := check(kind, fieldVehicleEvidence, m.VehicleEvidence); err != nil {
		return "", err
	}

	w := bertlv.NewWriter()
	if err := put(kind, w, fieldCurvePointY, m.CurvePointY); err != nil {
		return "", err
	}
	if err := put(kind, w, fieldVehicleEvidence, m.VehicleEvidence); err != nil {
		return "", err
	}
	data, err := finish(kind, w)
	if err != nil {
		return "", err
	}
	return encodeCommand(kind, HeaderSpake2PVerify, data)
}

// DecodeSpake2PlusVerifyCommand parses a SPAKE2+ VERIFY command.
func DecodeSpake2PlusVerifyCommand(s string) (*Spake2PlusVerifyCommand, error) {
	const kind = KindSpake2PlusVerifyCommand
	elems, err := decodeCommand(kind, HeaderSpake2PVerify, s)
	if err != nil {
		return nil, err
	}

	m := &Spake2PlusVerifyCommand{}
	if m.CurvePointY, err = requirePoint(kind, elems, fieldCurvePointY); err != nil {
		return nil, err
	}
	if m.VehicleEvidence, err = require(kind, elems, fieldVehicleEvidence); err != nil {
		return nil, err
	}
	return m, nil
}

// Spake2PlusVerifyResponse carries the device evidence.
type Spake2PlusVerifyResponse struct {
	DeviceEvidence []byte
}

// Encode serializes the response.
func (m *Spake2PlusVerifyResponse) Encode() (string, error) {
	const kind = KindSpake2PlusVerifyResponse
	if err := check(kind, fieldDeviceEvidence, m.DeviceEvidence); err != nil {
		return "", err
	}

	w := bertlv.NewWriter()
	if err := put(kind, w, fieldDeviceEvidence, m.DeviceEvidence); err != nil {
		return "", err
	}
	data, err := finish(kind, w)
	if err != nil {
		return "", err
	}
	return encodeResponse(data), nil
}

// DecodeSpake2PlusVerifyResponse parses a SPAKE2+ VERIFY response.
func DecodeSpake2PlusVerifyResponse(s string) (*Spake2PlusVerifyResponse, error) {
	const kind = KindSpake2PlusVerifyResponse
	elems, err := decodeResponse(kind, s)
	if err != nil {
		return nil, err
	}

	m := &Spake2PlusVerifyResponse{}
	if m.DeviceEvidence, err = require(kind, elems, fieldDeviceEvidence); err != nil {
		return nil, err
	}
	return m, nil
}
