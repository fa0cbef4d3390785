package bertlv

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

// scryptContainer is the 7F50 block of a pairing request with salt 01..10,
// cost 4096, block size 8 and parallelization 1.
const scryptContainer = "7F5020C0100102030405060708090A0B0C0D0E0F10C10400001000C2020008C3020001"

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestParse_Constructed(t *testing.T) {
	elems, err := Parse(mustHex(t, "5B020100"+scryptContainer+"D6020003"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(elems) != 3 {
		t.Fatalf("Parse() returned %d elements, want 3", len(elems))
	}

	cfg, ok := Find(elems, 0x7F50)
	if !ok {
		t.Fatal("7F50 not found")
	}
	if len(cfg.Children) != 4 {
		t.Fatalf("7F50 has %d children, want 4", len(cfg.Children))
	}
	cost, ok := Find(cfg.Children, 0xC1)
	if !ok {
		t.Fatal("C1 not found")
	}
	if !bytes.Equal(cost.Value, []byte{0x00, 0x00, 0x10, 0x00}) {
		t.Errorf("C1 = %X", cost.Value)
	}

	brand, _ := Find(elems, 0xD6)
	if !bytes.Equal(brand.Value, []byte{0x00, 0x03}) {
		t.Errorf("D6 = %X", brand.Value)
	}
}

func TestParse_FirstDuplicateWins(t *testing.T) {
	elems, err := Parse(mustHex(t, "5A0201005A020200"))
	if err != nil {
		t.Fatal(err)
	}
	e, _ := Find(elems, 0x5A)
	if !bytes.Equal(e.Value, []byte{0x01, 0x00}) {
		t.Errorf("Find() = %X, want 0100", e.Value)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"value truncated", "5A0301", ErrUnexpectedEOF},
		{"length missing", "5A", ErrUnexpectedEOF},
		{"tag truncated", "7F", ErrUnexpectedEOF},
		{"indefinite", "7F5080", ErrIndefiniteLength},
		{"child truncated", "7F5003C00501", ErrUnexpectedEOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(mustHex(t, tt.in)); !errors.Is(err, tt.err) {
				t.Errorf("Parse() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	elems, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(elems) != 0 {
		t.Errorf("Parse(nil) returned %d elements", len(elems))
	}
}

func TestElement_EncodeMatchesInput(t *testing.T) {
	in := mustHex(t, scryptContainer)
	elems, err := Parse(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := elems[0].Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, in) {
		t.Errorf("Encode() = %X, want %X", out, in)
	}
}
