// AES-CMAC as defined in NIST 800-38B and RFC 4493, restricted to
// AES-128 keys and full 16-byte tags.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"github.com/aead/cmac"
)

const (
	// CMACKeySize is the AES-128 key size in bytes.
	CMACKeySize = 16

	// CMACTagSize is the CMAC output size in bytes.
	CMACTagSize = 16
)

var ErrCMACInvalidKeySize = errors.New("cmac: invalid key size, must be 16 bytes")

// CMAC computes AES-CMAC tags with a fixed key.
type CMAC struct {
	block cipher.Block
}

// NewCMAC creates a CMAC keyed with an AES-128 key.
func NewCMAC(key []byte) (*CMAC, error) {
	if len(key) != CMACKeySize {
		return nil, ErrCMACInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &CMAC{block: block}, nil
}

// Sum returns the 16-byte tag of message.
func (c *CMAC) Sum(message []byte) []byte {
	// Sum only fails for tag sizes outside 1..BlockSize.
	tag, _ := cmac.Sum(message, c.block, CMACTagSize)
	return tag
}

// Verify reports whether tag is the CMAC of message, in constant time.
func (c *CMAC) Verify(message, tag []byte) bool {
	return cmac.Verify(tag, message, c.block, CMACTagSize)
}

// AESCMAC computes AES-128-CMAC(key, message).
func AESCMAC(key, message []byte) ([]byte, error) {
	c, err := NewCMAC(key)
	if err != nil {
		return nil, err
	}
	return cmac.Sum(message, c.block, CMACTagSize)
}
