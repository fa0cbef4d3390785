package message

import (
	"github.com/backkem/dkpair/pkg/apdu"
	"github.com/backkem/dkpair/pkg/bertlv"
)

const fieldFrame = "frame"

// encodeCommand wraps a TLV payload in a command APDU.
func encodeCommand(kind Kind, h apdu.Header, data []byte) (string, error) {
	cmd := &apdu.Command{Header: h, Data: data, Le: apdu.DefaultLe}
	s, err := cmd.Hex()
	if err != nil {
		return "", &EncodeError{Kind: kind, Field: fieldFrame, Err: err}
	}
	return s, nil
}

// encodeResponse appends the success status word to a TLV payload.
func encodeResponse(data []byte) string {
	r := &apdu.Response{Data: data, SW: apdu.StatusOK}
	return r.Hex()
}

// parseCommand parses a command APDU and returns its raw data field.
func parseCommand(kind Kind, h apdu.Header, s string) ([]byte, error) {
	cmd, err := apdu.ParseCommandHex(s, h)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Field: fieldFrame, Err: err}
	}
	return cmd.Data, nil
}

// decodeCommand parses a command APDU and returns its TLV elements.
func decodeCommand(kind Kind, h apdu.Header, s string) ([]bertlv.Element, error) {
	data, err := parseCommand(kind, h, s)
	if err != nil {
		return nil, err
	}
	elems, err := bertlv.Parse(data)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Field: fieldFrame, Err: err}
	}
	return elems, nil
}

// decodeResponse parses a response APDU and returns its TLV elements.
func decodeResponse(kind Kind, s string) ([]bertlv.Element, error) {
	resp, err := apdu.ParseResponseHex(s)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Field: fieldFrame, Err: err}
	}
	elems, err := bertlv.Parse(resp.Data)
	if err != nil {
		return nil, &DecodeError{Kind: kind, Field: fieldFrame, Err: err}
	}
	return elems, nil
}

// fieldSpec names a fixed-size element.
type fieldSpec struct {
	tag  bertlv.Tag
	name string
	size int
}

var (
	fieldFrameworkVersion = fieldSpec{tagFrameworkVersion, "framework-version", VersionSize}
	fieldProtocolVersion  = fieldSpec{tagProtocolVersion, "protocol-version", VersionSize}
	fieldPairingMode      = fieldSpec{tagPairingMode, "pairing-mode", 1}
	fieldFirmwareVersions = fieldSpec{tagFirmwareVersions, "vod-fw-versions", VersionSize}
	fieldDKVersions       = fieldSpec{tagProtocolVersion, "dk-protocol-versions", VersionSize}
	fieldBTVersions       = fieldSpec{tagBTVersions, "bt-versions", VersionSize}
	fieldScryptConfig     = fieldSpec{tagScryptConfig, "scrypt-config", 0}
	fieldScryptSalt       = fieldSpec{tagScryptSalt, "scrypt-salt", SaltSize}
	fieldScryptCost       = fieldSpec{tagScryptCost, "scrypt-cost", 4}
	fieldScryptBlockSize  = fieldSpec{tagScryptBlockSize, "scrypt-block-size", 2}
	fieldScryptParallel   = fieldSpec{tagScryptParallel, "scrypt-parallelization", 2}
	fieldVehicleBrand     = fieldSpec{tagVehicleBrand, "vehicle-brand", VehicleBrandSize}
	fieldCurvePointX      = fieldSpec{tagCurvePointX, "curve-point-x", PointSize}
	fieldSelectedVersion  = fieldSpec{tagSelectedVersion, "selected-fw-version", VersionSize}
	fieldCurvePointY      = fieldSpec{tagCurvePointY, "curve-point-y", PointSize}
	fieldVehicleEvidence  = fieldSpec{tagVehicleEvidence, "vehicle-evidence", EvidenceSize}
	fieldDeviceEvidence   = fieldSpec{tagDeviceEvidence, "device-evidence", EvidenceSize}
)

// require returns the value of a mandatory element, checking its size.
func require(kind Kind, elems []bertlv.Element, f fieldSpec) ([]byte, error) {
	e, ok := bertlv.Find(elems, f.tag)
	if !ok {
		return nil, &DecodeError{Kind: kind, Field: f.name, Err: ErrMissingField}
	}
	if f.size > 0 && len(e.Value) != f.size {
		return nil, &DecodeError{Kind: kind, Field: f.name, Err: ErrInvalidLength}
	}
	return e.Value, nil
}

// optional returns the value of an optional element, if present.
func optional(kind Kind, elems []bertlv.Element, f fieldSpec) ([]byte, bool, error) {
	e, ok := bertlv.Find(elems, f.tag)
	if !ok {
		return nil, false, nil
	}
	if len(e.Value) != f.size {
		return nil, false, &DecodeError{Kind: kind, Field: f.name, Err: ErrInvalidLength}
	}
	return e.Value, true, nil
}

// requirePoint returns a mandatory uncompressed curve point.
func requirePoint(kind Kind, elems []bertlv.Element, f fieldSpec) ([]byte, error) {
	v, err := require(kind, elems, f)
	if err != nil {
		return nil, err
	}
	if v[0] != uncompressedPrefix {
		return nil, &DecodeError{Kind: kind, Field: f.name, Err: ErrInvalidPointPrefix}
	}
	return v, nil
}

// check validates a field before encoding.
func check(kind Kind, f fieldSpec, v []byte) error {
	if v == nil {
		return &EncodeError{Kind: kind, Field: f.name, Err: ErrMissingField}
	}
	if len(v) != f.size {
		return &EncodeError{Kind: kind, Field: f.name, Err: ErrInvalidLength}
	}
	return nil
}

// checkPoint validates a curve point before encoding.
func checkPoint(kind Kind, f fieldSpec, v []byte) error {
	if err := check(kind, f, v); err != nil {
		return err
	}
	if v[0] != uncompressedPrefix {
		return &EncodeError{Kind: kind, Field: f.name, Err: ErrInvalidPointPrefix}
	}
	return nil
}

// put writes a primitive element, converting writer failures.
func put(kind Kind, w *bertlv.Writer, f fieldSpec, v []byte) error {
	if err := w.PutBytes(f.tag, v); err != nil {
		return &EncodeError{Kind: kind, Field: f.name, Err: err}
	}
	return nil
}

func finish(kind Kind, w *bertlv.Writer) ([]byte, error) {
	b, err := w.Bytes()
	if err != nil {
		return nil, &EncodeError{Kind: kind, Field: fieldFrame, Err: err}
	}
	return b, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
