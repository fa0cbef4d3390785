package message

import (
	"encoding/binary"

	"github.com/backkem/dkpair/pkg/bertlv"
)

// ScryptConfig carries the password-stretching parameters sent by the vehicle.
type ScryptConfig struct {
	Salt            []byte
	Cost            uint32
	BlockSize       uint16
	Parallelization uint16
}

// Bytes flattens the parameters to salt ‖ cost ‖ blockSize ‖ parallelization,
// big-endian.
func (c *ScryptConfig) Bytes() []byte {
	out := make([]byte, 0, ScryptConfigSize)
	out = append(out, c.Salt...)
	out = binary.BigEndian.AppendUint32(out, c.Cost)
	out = binary.BigEndian.AppendUint16(out, c.BlockSize)
	out = binary.BigEndian.AppendUint16(out, c.Parallelization)
	return out
}

func (c *ScryptConfig) validate(kind Kind, encoding bool) error {
	fail := func(f fieldSpec, err error) error {
		if encoding {
			return &EncodeError{Kind: kind, Field: f.name, Err: err}
		}
		return &DecodeError{Kind: kind, Field: f.name, Err: err}
	}
	switch {
	case c.Salt == nil:
		return fail(fieldScryptSalt, ErrMissingField)
	case len(c.Salt) != SaltSize:
		return fail(fieldScryptSalt, ErrInvalidLength)
	case c.Cost == 0:
		return fail(fieldScryptCost, ErrZeroScryptParam)
	case c.BlockSize == 0:
		return fail(fieldScryptBlockSize, ErrZeroScryptParam)
	case c.Parallelization == 0:
		return fail(fieldScryptParallel, ErrZeroScryptParam)
	}
	return nil
}

// Spake2PlusRequestCommand starts the SPAKE2+ exchange.
type Spake2PlusRequestCommand struct {
	// FirmwareVersions lists the owner device framework versions the
	// vehicle supports.
	FirmwareVersions []byte
	// ProtocolVersions lists the supported digital key protocol versions.
	ProtocolVersions []byte

	HasBTVersions bool
	BTVersions    []byte

	Scrypt       *ScryptConfig
	VehicleBrand []byte
}

// Encode serializes the command.
func (m *Spake2PlusRequestCommand) Encode() (string, error) {
	const kind = KindSpake2PlusRequestCommand
	if err := check(kind, fieldFirmwareVersions, m.FirmwareVersions); err != nil {
		return "", err
	}
	if err := check(kind, fieldDKVersions, m.ProtocolVersions); err != nil {
		return "", err
	}
	if m.HasBTVersions {
		if err := check(kind, fieldBTVersions, m.BTVersions); err != nil {
			return "", err
		}
	}
	if m.Scrypt == nil {
		return "", &EncodeError{Kind: kind, Field: fieldScryptConfig.name, Err: ErrMissingField}
	}
	if err := m.Scrypt.validate(kind, true); err != nil {
		return "", err
	}
	if err := check(kind, fieldVehicleBrand, m.VehicleBrand); err != nil {
		return "", err
	}

	w := bertlv.NewWriter()
	if err := put(kind, w, fieldFirmwareVersions, m.FirmwareVersions); err != nil {
		return "", err
	}
	if err := put(kind, w, fieldDKVersions, m.ProtocolVersions); err != nil {
		return "", err
	}
	if m.HasBTVersions {
		if err := put(kind, w, fieldBTVersions, m.BTVersions); err != nil {
			return "", err
		}
	}
	if err := w.StartConstructed(tagScryptConfig); err != nil {
		return "", &EncodeError{Kind: kind, Field: fieldScryptConfig.name, Err: err}
	}
	if err := put(kind, w, fieldScryptSalt, m.Scrypt.Salt); err != nil {
		return "", err
	}
	if err := w.PutUint32(tagScryptCost, m.Scrypt.Cost); err != nil {
		return "", &EncodeError{Kind: kind, Field: fieldScryptCost.name, Err: err}
	}
	if err := w.PutUint16(tagScryptBlockSize, m.Scrypt.BlockSize); err != nil {
		return "", &EncodeError{Kind: kind, Field: fieldScryptBlockSize.name, Err: err}
	}
	if err := w.PutUint16(tagScryptParallel, m.Scrypt.Parallelization); err != nil {
		return "", &EncodeError{Kind: kind, Field: fieldScryptParallel.name, Err: err}
	}
	if err := w.EndConstructed(); err != nil {
		return "", &EncodeError{Kind: kind, Field: fieldScryptConfig.name, Err: err}
	}
	if err := put(kind, w, fieldVehicleBrand, m.VehicleBrand); err != nil {
		return "", err
	}

	data, err := finish(kind, w)
	if err != nil {
		return "", err
	}
	return encodeCommand(kind, HeaderSpake2PRequest, data)
}

// DecodeSpake2PlusRequestCommand parses a SPAKE2+ REQUEST command.
func DecodeSpake2PlusRequestCommand(s string) (*Spake2PlusRequestCommand, error) {
	const kind = KindSpake2PlusRequestCommand
	elems, err := decodeCommand(kind, HeaderSpake2PRequest, s)
	if err != nil {
		return nil, err
	}

	m := &Spake2PlusRequestCommand{}
	if m.FirmwareVersions, err = require(kind, elems, fieldFirmwareVersions); err != nil {
		return nil, err
	}
	if m.ProtocolVersions, err = require(kind, elems, fieldDKVersions); err != nil {
		return nil, err
	}
	if m.BTVersions, m.HasBTVersions, err = optional(kind, elems, fieldBTVersions); err != nil {
		return nil, err
	}
	if m.Scrypt, err = decodeScryptConfig(kind, elems); err != nil {
		return nil, err
	}
	if m.VehicleBrand, err = require(kind, elems, fieldVehicleBrand); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeScryptConfig(kind Kind, elems []bertlv.Element) (*ScryptConfig, error) {
	container, ok := bertlv.Find(elems, tagScryptConfig)
	if !ok {
		return nil, &DecodeError{Kind: kind, Field: fieldScryptConfig.name, Err: ErrMissingField}
	}
	children := container.Children

	salt, err := require(kind, children, fieldScryptSalt)
	if err != nil {
		return nil, err
	}
	cost, err := require(kind, children, fieldScryptCost)
	if err != nil {
		return nil, err
	}
	blockSize, err := require(kind, children, fieldScryptBlockSize)
	if err != nil {
		return nil, err
	}
	parallel, err := require(kind, children, fieldScryptParallel)
	if err != nil {
		return nil, err
	}

	c := &ScryptConfig{
		Salt:            salt,
		Cost:            binary.BigEndian.Uint32(cost),
		BlockSize:       binary.BigEndian.Uint16(blockSize),
		Parallelization: binary.BigEndian.Uint16(parallel),
	}
	if err := c.validate(kind, false); err != nil {
		return nil, err
	}
	return c, nil
}

// Spake2PlusRequestResponse returns the device public share X.
type Spake2PlusRequestResponse struct {
	CurvePointX []byte

	HasSelectedVersion bool
	SelectedVersion    []byte
}

// Encode serializes the response.
func (m *Spake2PlusRequestResponse) Encode() (string, error) {
	const kind = KindSpake2PlusRequestResponse
	if err := checkPoint(kind, fieldCurvePointX, m.CurvePointX); err != nil {
		return "", err
	}
	if m.HasSelectedVersion {
		if err := check(kind, fieldSelectedVersion, m.SelectedVersion); err != nil {
			return "", err
		}
	}

	w := bertlv.NewWriter()
	if err := put(kind, w, fieldCurvePointX, m.CurvePointX); err != nil {
		return "", err
	}
	if m.HasSelectedVersion {
		if err := put(kind, w, fieldSelectedVersion, m.SelectedVersion); err != nil {
			return "", err
		}
	}
	data, err := finish(kind, w)
	if err != nil {
		return "", err
	}
	return encodeResponse(data), nil
}

// DecodeSpake2PlusRequestResponse parses a SPAKE2+ REQUEST response.
func DecodeSpake2PlusRequestResponse(s string) (*Spake2PlusRequestResponse, error) {
	const kind = KindSpake2PlusRequestResponse
	elems, err := decodeResponse(kind, s)
	if err != nil {
		return nil, err
	}

	m := &Spake2PlusRequestResponse{}
	if m.CurvePointX, err = requirePoint(kind, elems, fieldCurvePointX); err != nil {
		return nil, err
	}
	if m.SelectedVersion, m.HasSelectedVersion, err = optional(kind, elems, fieldSelectedVersion); err != nil {
		return nil, err
	}
	return m, nil
}
