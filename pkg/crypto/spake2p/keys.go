package spake2p

import (
	"crypto/subtle"
	"encoding/binary"
	"math/big"

	"github.com/backkem/dkpair/pkg/crypto"
)

const (
	// TranscriptKeySize is the size of K = SHA-256(TT).
	TranscriptKeySize = 32

	// EvidenceKeySize is the size of K1 and K2.
	EvidenceKeySize = 16

	// EvidenceSize is the size of a CMAC evidence value.
	EvidenceSize = crypto.CMACTagSize

	systemKeySize = 16
)

var (
	confirmationKeysInfo = append([]byte("ConfirmationKeys"), 0x5B, 0x01, 0x00, 0x5C, 0x01, 0x01)
	systemKeysInfo       = []byte("SystemKeys")
)

// TranscriptKey hashes the length-prefixed transcript X ‖ Y ‖ Z ‖ V ‖ w0.
// w0 is encoded as a minimal signed big-endian integer, so a value with
// the top bit set carries a leading zero octet.
func TranscriptKey(X, Y, Z, V []byte, w0 *big.Int) [TranscriptKeySize]byte {
	w0Bytes := signedBytes(w0)
	defer clear(w0Bytes)

	h := crypto.NewSHA256()
	for _, part := range [][]byte{X, Y, Z, V, w0Bytes} {
		var lenBuf [8]byte
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(part)))
		h.Write(lenBuf[:])
		h.Write(part)
	}

	var k [TranscriptKeySize]byte
	h.Sum(k[:0])
	return k
}

// SplitTranscriptKey returns CK = K[0:16] and SK = K[16:32].
func SplitTranscriptKey(k [TranscriptKeySize]byte) (ck, sk []byte) {
	ck = make([]byte, TranscriptKeySize/2)
	sk = make([]byte, TranscriptKeySize/2)
	copy(ck, k[:TranscriptKeySize/2])
	copy(sk, k[TranscriptKeySize/2:])
	return ck, sk
}

// DeriveEvidenceKeys expands CK into K1 (vehicle evidence) and K2 (device
// evidence).
func DeriveEvidenceKeys(ck []byte) (k1, k2 []byte, err error) {
	prk := crypto.HKDFExtractSHA256(ck, nil)
	defer clear(prk)
	okm, err := crypto.HKDFExpandSHA256(prk, confirmationKeysInfo, 2*EvidenceKeySize)
	if err != nil {
		return nil, nil, &CryptoError{Op: "derive evidence keys", Err: err}
	}
	return okm[:EvidenceKeySize], okm[EvidenceKeySize:], nil
}

// VehicleEvidence returns CMAC(K1, Y).
func VehicleEvidence(k1, Y []byte) ([]byte, error) {
	tag, err := crypto.AESCMAC(k1, Y)
	if err != nil {
		return nil, &CryptoError{Op: "vehicle evidence", Err: err}
	}
	return tag, nil
}

// DeviceEvidence returns CMAC(K2, X).
func DeviceEvidence(k2, X []byte) ([]byte, error) {
	tag, err := crypto.AESCMAC(k2, X)
	if err != nil {
		return nil, &CryptoError{Op: "device evidence", Err: err}
	}
	return tag, nil
}

// SystemKeys are the long-term keys established by a successful pairing.
type SystemKeys struct {
	Kenc                 []byte
	Kmac                 []byte
	Krmac                []byte
	LongTermSharedSecret []byte

	// Present only when derived with extended keys.
	KBleIntro     []byte
	KBleOOBMaster []byte
}

// Extended reports whether the BLE keys are present.
func (k *SystemKeys) Extended() bool {
	return k.KBleIntro != nil
}

// Wipe zeroes every key.
func (k *SystemKeys) Wipe() {
	if k == nil {
		return
	}
	for _, b := range k.list() {
		clear(b)
	}
}

// Equal reports whether k and o hold the same keys. Key material is
// compared in constant time.
func (k *SystemKeys) Equal(o *SystemKeys) bool {
	if k == nil || o == nil {
		return k == o
	}
	if k.Extended() != o.Extended() {
		return false
	}
	eq := 1
	for i, a := range k.list() {
		eq &= subtle.ConstantTimeCompare(a, o.list()[i])
	}
	return eq == 1
}

func (k *SystemKeys) list() [][]byte {
	return [][]byte{k.Kenc, k.Kmac, k.Krmac, k.LongTermSharedSecret, k.KBleIntro, k.KBleOOBMaster}
}

// DeriveSystemKeys expands SK into the system keys. The extended form
// adds the BLE intro and OOB master keys.
func DeriveSystemKeys(sk []byte, extended bool) (*SystemKeys, error) {
	n := 4
	if extended {
		n = 6
	}
	okm, err := crypto.HKDFSHA256(sk, nil, systemKeysInfo, n*systemKeySize)
	if err != nil {
		return nil, &CryptoError{Op: "derive system keys", Err: err}
	}

	part := func(i int) []byte { return okm[i*systemKeySize : (i+1)*systemKeySize : (i+1)*systemKeySize] }
	keys := &SystemKeys{
		Kenc:                 part(0),
		Kmac:                 part(1),
		Krmac:                part(2),
		LongTermSharedSecret: part(3),
	}
	if extended {
		keys.KBleIntro = part(4)
		keys.KBleOOBMaster = part(5)
	}
	return keys, nil
}

// signedBytes returns the minimal two's complement big-endian encoding of
// a non-negative integer.
func signedBytes(v *big.Int) []byte {
	b := v.Bytes()
	if len(b) == 0 {
		return []byte{0x00}
	}
	if b[0]&0x80 != 0 {
		return append([]byte{0x00}, b...)
	}
	return b
}
