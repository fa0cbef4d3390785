package spake2p

import (
	"crypto/rand"
	"crypto/subtle"
	"io"
	"math/big"

	"github.com/backkem/dkpair/pkg/crypto"
)

type state int

const (
	stateInit state = iota
	stateShareGenerated
	stateConfirmed
	stateWiped
)

// Options configures a role.
type Options struct {
	// ExtendedKeys derives the BLE intro and OOB master keys as well.
	ExtendedKeys bool
}

// Device is the owner device side of the exchange.
type Device struct {
	opts  Options
	state state
	rand  io.Reader

	w0, w1, x *big.Int
	X         []byte

	keys *SystemKeys
}

// NewDevice derives w0 and w1 from password.
func NewDevice(password []byte, params crypto.ScryptParams, opts Options) (*Device, error) {
	w0, w1, err := DeriveW0W1(password, params)
	if err != nil {
		return nil, err
	}
	return &Device{opts: opts, rand: rand.Reader, w0: w0, w1: w1}, nil
}

// PublicShare generates x and returns X = x*G + w0*M.
func (d *Device) PublicShare() ([]byte, error) {
	if d.state != stateInit {
		return nil, d.stateErr()
	}
	x, X, err := DeviceCreatePublicShare(d.rand, d.w0)
	if err != nil {
		return nil, err
	}
	d.x, d.X = x, X
	d.state = stateShareGenerated
	return copyBytes(X), nil
}

// ProcessVerify authenticates the vehicle evidence over Y and returns the
// device evidence. It returns ErrEvidenceMismatch when the vehicle evidence
// is wrong.
func (d *Device) ProcessVerify(Y, vehicleEvidence []byte) ([]byte, error) {
	if d.state != stateShareGenerated {
		return nil, d.stateErr()
	}

	Z, V, err := DeviceSharedSecrets(d.x, d.w0, d.w1, Y)
	if err != nil {
		return nil, err
	}
	defer clear(Z)
	defer clear(V)

	k := TranscriptKey(d.X, Y, Z, V, d.w0)
	defer clear(k[:])
	ck, sk := SplitTranscriptKey(k)
	defer clear(ck)
	defer clear(sk)

	k1, k2, err := DeriveEvidenceKeys(ck)
	if err != nil {
		return nil, err
	}
	defer clear(k1)
	defer clear(k2)

	expected, err := VehicleEvidence(k1, Y)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(expected, vehicleEvidence) != 1 {
		return nil, ErrEvidenceMismatch
	}

	evidence, err := DeviceEvidence(k2, d.X)
	if err != nil {
		return nil, err
	}
	keys, err := DeriveSystemKeys(sk, d.opts.ExtendedKeys)
	if err != nil {
		return nil, err
	}
	d.keys = keys
	d.state = stateConfirmed
	return evidence, nil
}

// SystemKeys returns the keys established by ProcessVerify.
func (d *Device) SystemKeys() (*SystemKeys, error) {
	if d.state != stateConfirmed {
		return nil, d.stateErr()
	}
	return d.keys, nil
}

// Wipe zeroes w0, w1, x and the system keys.
func (d *Device) Wipe() {
	wipeInts(d.w0, d.w1, d.x)
	d.keys.Wipe()
	d.w0, d.w1, d.x, d.keys = nil, nil, nil, nil
	d.state = stateWiped
}

// SetRandom sets the random source for testing purposes.
func (d *Device) SetRandom(r io.Reader) {
	d.rand = r
}

func (d *Device) stateErr() error {
	if d.state == stateWiped {
		return ErrWiped
	}
	return ErrInvalidState
}

// VehicleShare is what the vehicle sends and retains after processing X.
type VehicleShare struct {
	Y               []byte
	VehicleEvidence []byte
}

// Vehicle is the vehicle side of the exchange. It keeps only w0 and w1
// between steps; y exists only inside ProcessShare.
type Vehicle struct {
	opts  Options
	state state
	rand  io.Reader

	w0, w1 *big.Int

	expectedDeviceEvidence []byte
	keys                   *SystemKeys
}

// NewVehicle derives w0 and w1 from password.
func NewVehicle(password []byte, params crypto.ScryptParams, opts Options) (*Vehicle, error) {
	w0, w1, err := DeriveW0W1(password, params)
	if err != nil {
		return nil, err
	}
	return &Vehicle{opts: opts, rand: rand.Reader, w0: w0, w1: w1}, nil
}

// ProcessShare consumes the device share X and returns Y with the vehicle
// evidence CMAC(K1, Y).
func (v *Vehicle) ProcessShare(X []byte) (*VehicleShare, error) {
	if v.state != stateInit {
		return nil, v.stateErr()
	}

	y, Y, err := VehicleCreatePublicShare(v.rand, v.w0)
	if err != nil {
		return nil, err
	}
	defer wipeInts(y)

	Z, V, err := VehicleSharedSecrets(y, v.w0, v.w1, X)
	if err != nil {
		return nil, err
	}
	defer clear(Z)
	defer clear(V)

	k := TranscriptKey(X, Y, Z, V, v.w0)
	defer clear(k[:])
	ck, sk := SplitTranscriptKey(k)
	defer clear(ck)
	defer clear(sk)

	k1, k2, err := DeriveEvidenceKeys(ck)
	if err != nil {
		return nil, err
	}
	defer clear(k1)
	defer clear(k2)

	evidence, err := VehicleEvidence(k1, Y)
	if err != nil {
		return nil, err
	}
	expected, err := DeviceEvidence(k2, X)
	if err != nil {
		return nil, err
	}
	keys, err := DeriveSystemKeys(sk, v.opts.ExtendedKeys)
	if err != nil {
		return nil, err
	}

	v.expectedDeviceEvidence = expected
	v.keys = keys
	v.state = stateShareGenerated
	return &VehicleShare{Y: Y, VehicleEvidence: evidence}, nil
}

// VerifyDeviceEvidence checks the device evidence CMAC(K2, X).
func (v *Vehicle) VerifyDeviceEvidence(evidence []byte) error {
	if v.state != stateShareGenerated {
		return v.stateErr()
	}
	if subtle.ConstantTimeCompare(v.expectedDeviceEvidence, evidence) != 1 {
		return ErrEvidenceMismatch
	}
	v.state = stateConfirmed
	return nil
}

// SystemKeys returns the keys once the device evidence has been verified.
func (v *Vehicle) SystemKeys() (*SystemKeys, error) {
	if v.state != stateConfirmed {
		return nil, v.stateErr()
	}
	return v.keys, nil
}

// Wipe zeroes w0, w1 and every derived key.
func (v *Vehicle) Wipe() {
	wipeInts(v.w0, v.w1)
	clear(v.expectedDeviceEvidence)
	v.keys.Wipe()
	v.w0, v.w1, v.keys, v.expectedDeviceEvidence = nil, nil, nil, nil
	v.state = stateWiped
}

// SetRandom sets the random source for testing purposes.
func (v *Vehicle) SetRandom(r io.Reader) {
	v.rand = r
}

func (v *Vehicle) stateErr() error {
	if v.state == stateWiped {
		return ErrWiped
	}
	return ErrInvalidState
}

func wipeInts(ints ...*big.Int) {
	for _, i := range ints {
		if i != nil {
			i.SetInt64(0)
		}
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
