package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/scrypt"
)

// ErrInvalidScryptParams is returned for parameters scrypt cannot run with.
var ErrInvalidScryptParams = errors.New("crypto: invalid scrypt parameters")

// HKDFSHA256 derives key material using HKDF-SHA256 (RFC 5869).
//
// Parameters:
//   - inputKey: Input keying material (IKM)
//   - salt: Optional salt value (nil means HashLen zero bytes)
//   - info: Optional context/application-specific info
//   - length: Number of bytes to derive
func HKDFSHA256(inputKey, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputKey, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// HKDFExtractSHA256 performs only the HKDF-Extract step and returns a
// 32-byte pseudorandom key.
func HKDFExtractSHA256(inputKey, salt []byte) []byte {
	return hkdf.Extract(sha256.New, inputKey, salt)
}

// HKDFExpandSHA256 performs only the HKDF-Expand step.
func HKDFExpandSHA256(prk, info []byte, length int) ([]byte, error) {
	reader := hkdf.Expand(sha256.New, prk, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// ScryptParams are the scrypt cost parameters (RFC 7914).
type ScryptParams struct {
	Salt            []byte
	Cost            uint32 // N, a power of two greater than 1
	BlockSize       uint16 // r
	Parallelization uint16 // p
}

// Validate checks the parameters before running the KDF.
func (p ScryptParams) Validate() error {
	switch {
	case p.Cost < 2 || p.Cost&(p.Cost-1) != 0:
		return fmt.Errorf("%w: cost %d is not a power of two", ErrInvalidScryptParams, p.Cost)
	case p.BlockSize == 0:
		return fmt.Errorf("%w: block size is zero", ErrInvalidScryptParams)
	case p.Parallelization == 0:
		return fmt.Errorf("%w: parallelization is zero", ErrInvalidScryptParams)
	}
	return nil
}

// Scrypt derives keyLen bytes from password.
func Scrypt(password []byte, p ScryptParams, keyLen int) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	key, err := scrypt.Key(password, p.Salt, int(p.Cost), int(p.BlockSize), int(p.Parallelization), keyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScryptParams, err)
	}
	return key, nil
}
