// Package spake2p implements the SPAKE2+ exchange used for digital key
// owner pairing on P-256.
//
// The owner device plays the prover and the vehicle the verifier. Both
// sides derive w0 and w1 from the pairing password with scrypt; the shared
// transcript key is split into a confirmation key, from which the CMAC
// evidence keys are derived, and a secret from which the system keys are
// derived.
//
// Protocol flow:
//
//	Device                                  Vehicle
//	------                                  -------
//	NewDevice(password, params)             NewVehicle(password, params)
//	X = PublicShare()        ----X---->     ProcessShare(X) -> Y, evidence
//	                         <--Y, eV--
//	ProcessVerify(Y, eV) -> eD
//	                         ----eD--->     VerifyDeviceEvidence(eD)
//	SystemKeys()                            SystemKeys()
package spake2p

import (
	"crypto/elliptic"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"filippo.io/nistec"
)

const (
	// ScalarSizeBytes is the size of a P-256 scalar.
	ScalarSizeBytes = 32

	// PointSizeBytes is the size of an uncompressed P-256 point.
	PointSizeBytes = 65

	// wsSizeBytes is the size of each scrypt output half (32 + 8 for bias reduction).
	wsSizeBytes = 40
)

// Hex encodings of the fixed SPAKE2+ points M and N for P-256.
const (
	pointMHex = "04886E2F97ACE46E55BA9DD7242579F2993B64E16EF3DCAB95AFD497333D8FA12F" +
		"5FF355163E43CE224E0B0E65FF02AC8E5C7BE09419C785E0CA547D55A12E2D20"
	pointNHex = "04D8BBD6C639C62937B04D997F38C3770719C629D7014D49A24B4F98BAA1292B49" +
		"07D60AA6BFADE45008A636337F5168C64D9BD36034808CD564490B1E656EDBE7"
)

var (
	// pointM is used by the device: X = x*G + w0*M
	pointM = mustLoadPoint("M", pointMHex)

	// pointN is used by the vehicle: Y = y*G + w0*N
	pointN = mustLoadPoint("N", pointNHex)

	// order is the P-256 group order n.
	order = elliptic.P256().Params().N
)

var (
	ErrInvalidPointSize    = errors.New("spake2p: point must be 65 bytes (uncompressed)")
	ErrInvalidPointOnCurve = errors.New("spake2p: point is not on the curve")
	ErrInvalidState        = errors.New("spake2p: invalid protocol state for this operation")
	ErrEvidenceMismatch    = errors.New("spake2p: evidence verification failed")
	ErrWiped               = errors.New("spake2p: secrets have been wiped")
)

// CryptoError wraps a failed key derivation or point operation.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("spake2p: %s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error { return e.Err }

// LoadPoint decodes and validates a hex-encoded uncompressed point.
func LoadPoint(name, s string) (*nistec.P256Point, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, &CryptoError{Op: "load " + name, Err: err}
	}
	p, err := decodePoint(b)
	if err != nil {
		return nil, &CryptoError{Op: "load " + name, Err: err}
	}
	return p, nil
}

func mustLoadPoint(name, s string) *nistec.P256Point {
	p, err := LoadPoint(name, s)
	if err != nil {
		panic(err)
	}
	return p
}

// Point operations

func decodePoint(data []byte) (*nistec.P256Point, error) {
	if len(data) != PointSizeBytes {
		return nil, ErrInvalidPointSize
	}
	if data[0] != 0x04 {
		return nil, ErrInvalidPointOnCurve
	}
	p, err := nistec.NewP256Point().SetBytes(data)
	if err != nil {
		return nil, ErrInvalidPointOnCurve
	}
	return p, nil
}

// scalarBytes returns k mod n as a 32-byte big-endian scalar.
func scalarBytes(k *big.Int) []byte {
	r := new(big.Int).Mod(k, order)
	return r.FillBytes(make([]byte, ScalarSizeBytes))
}

func scalarMult(p *nistec.P256Point, k *big.Int) *nistec.P256Point {
	q, err := nistec.NewP256Point().ScalarMult(p, scalarBytes(k))
	if err != nil {
		// Unreachable: scalarBytes always returns 32 bytes.
		panic(err)
	}
	return q
}

func scalarBaseMult(k *big.Int) *nistec.P256Point {
	q, err := nistec.NewP256Point().ScalarBaseMult(scalarBytes(k))
	if err != nil {
		panic(err)
	}
	return q
}

// pointSubMult returns p - k*q, computed as p + (n-k)*q.
func pointSubMult(p, q *nistec.P256Point, k *big.Int) *nistec.P256Point {
	neg := new(big.Int).Sub(order, new(big.Int).Mod(k, order))
	return nistec.NewP256Point().Add(p, scalarMult(q, neg))
}

// computeShare computes share = random*G + w0*generator.
func computeShare(random, w0 *big.Int, generator *nistec.P256Point) *nistec.P256Point {
	return nistec.NewP256Point().Add(scalarBaseMult(random), scalarMult(generator, w0))
}
