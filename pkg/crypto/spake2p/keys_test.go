package spake2p

import (
	"bytes"
	"math/big"
	"testing"
)

func TestSignedBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want []byte
	}{
		{0, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x00, 0x80}},
		{0x0100, []byte{0x01, 0x00}},
		{0xFF00, []byte{0x00, 0xFF, 0x00}},
	}
	for _, tt := range tests {
		if got := signedBytes(big.NewInt(tt.in)); !bytes.Equal(got, tt.want) {
			t.Errorf("signedBytes(%#x) = %x, want %x", tt.in, got, tt.want)
		}
	}
}

func TestTranscriptKey_BindsEveryPart(t *testing.T) {
	X := bytes.Repeat([]byte{1}, 65)
	Y := bytes.Repeat([]byte{2}, 65)
	Z := bytes.Repeat([]byte{3}, 65)
	V := bytes.Repeat([]byte{4}, 65)
	w0 := big.NewInt(0x1234)

	base := TranscriptKey(X, Y, Z, V, w0)
	if base != TranscriptKey(X, Y, Z, V, w0) {
		t.Fatal("TranscriptKey() is not deterministic")
	}
	if base == TranscriptKey(Y, X, Z, V, w0) {
		t.Error("swapping X and Y did not change K")
	}
	if base == TranscriptKey(X, Y, Z, V, big.NewInt(0x1235)) {
		t.Error("changing w0 did not change K")
	}
	// Length prefixes keep boundaries unambiguous.
	if base == TranscriptKey(X[:64], append([]byte{1}, Y...), Z, V, w0) {
		t.Error("moving a byte across a boundary did not change K")
	}
}

func TestDeriveEvidenceKeys(t *testing.T) {
	ck := bytes.Repeat([]byte{0xAA}, 16)
	k1, k2, err := DeriveEvidenceKeys(ck)
	if err != nil {
		t.Fatal(err)
	}
	if len(k1) != EvidenceKeySize || len(k2) != EvidenceKeySize {
		t.Fatalf("key sizes %d/%d", len(k1), len(k2))
	}
	if bytes.Equal(k1, k2) {
		t.Error("K1 == K2")
	}
}

func TestDeriveSystemKeys(t *testing.T) {
	sk := bytes.Repeat([]byte{0x55}, 16)
	short, err := DeriveSystemKeys(sk, false)
	if err != nil {
		t.Fatal(err)
	}
	long, err := DeriveSystemKeys(sk, true)
	if err != nil {
		t.Fatal(err)
	}
	if short.Extended() || !long.Extended() {
		t.Error("Extended() mismatch")
	}
	// HKDF output is a prefix-stable stream.
	if !bytes.Equal(short.Kenc, long.Kenc) || !bytes.Equal(short.LongTermSharedSecret, long.LongTermSharedSecret) {
		t.Error("base keys differ between 64 and 96 byte derivations")
	}

	again, _ := DeriveSystemKeys(sk, false)
	if !short.Equal(again) {
		t.Error("Equal() = false for identical derivations")
	}
	if short.Equal(long) {
		t.Error("Equal() = true across extended and base keys")
	}
	other, _ := DeriveSystemKeys(bytes.Repeat([]byte{0x56}, 16), false)
	if short.Equal(other) {
		t.Error("Equal() = true for different SK")
	}

	long.Wipe()
	if !bytes.Equal(long.KBleIntro, make([]byte, 16)) {
		t.Error("Wipe() left key material")
	}
}
