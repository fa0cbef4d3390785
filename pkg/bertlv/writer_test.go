package bertlv

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriter_ScryptContainer(t *testing.T) {
	w := NewWriter()
	if err := w.StartConstructed(0x7F50); err != nil {
		t.Fatal(err)
	}
	salt := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if err := w.PutBytes(0xC0, salt); err != nil {
		t.Fatal(err)
	}
	if err := w.PutUint32(0xC1, 4096); err != nil {
		t.Fatal(err)
	}
	if err := w.PutUint16(0xC2, 8); err != nil {
		t.Fatal(err)
	}
	if err := w.PutUint16(0xC3, 1); err != nil {
		t.Fatal(err)
	}
	if err := w.EndConstructed(); err != nil {
		t.Fatal(err)
	}

	got, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, scryptContainer); !bytes.Equal(got, want) {
		t.Errorf("Bytes() = %X, want %X", got, want)
	}
}

func TestWriter_LongForm(t *testing.T) {
	w := NewWriter()
	value := make([]byte, 200)
	if err := w.PutBytes(0x50, value); err != nil {
		t.Fatal(err)
	}
	got, _ := w.Bytes()
	if !bytes.Equal(got[:3], []byte{0x50, 0x81, 0xC8}) {
		t.Errorf("header = %X, want 5081C8", got[:3])
	}
	if len(got) != 203 {
		t.Errorf("len = %d, want 203", len(got))
	}
}

func TestWriter_Errors(t *testing.T) {
	w := NewWriter()
	if err := w.EndConstructed(); !errors.Is(err, ErrNotInContainer) {
		t.Errorf("EndConstructed() error = %v, want %v", err, ErrNotInContainer)
	}
	if err := w.StartConstructed(0x5A); !errors.Is(err, ErrNotConstructed) {
		t.Errorf("StartConstructed(5A) error = %v, want %v", err, ErrNotConstructed)
	}
	if err := w.PutBytes(0x7F50, nil); !errors.Is(err, ErrPrimitiveTag) {
		t.Errorf("PutBytes(7F50) error = %v, want %v", err, ErrPrimitiveTag)
	}
	if err := w.PutBytes(0x1F, nil); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("PutBytes(1F) error = %v, want %v", err, ErrInvalidTag)
	}
	if err := w.StartConstructed(0x7F50); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Bytes(); !errors.Is(err, ErrContainerNotClosed) {
		t.Errorf("Bytes() error = %v, want %v", err, ErrContainerNotClosed)
	}
}

func TestWriter_SelectedVersionTag(t *testing.T) {
	w := NewWriter()
	if err := w.PutBytes(0x50, []byte{0x04}); err != nil {
		t.Fatal(err)
	}
	if err := w.PutBytes(0x5F, []byte{0x01, 0x00}); err != nil {
		t.Fatalf("PutBytes(5F) error = %v", err)
	}
	got, err := w.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if want := mustHex(t, "5001045F020100"); !bytes.Equal(got, want) {
		t.Fatalf("Bytes() = %X, want %X", got, want)
	}

	elems, err := Parse(got)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	e, ok := Find(elems, 0x5F)
	if !ok {
		t.Fatal("Find(5F) = not found")
	}
	if !bytes.Equal(e.Value, []byte{0x01, 0x00}) {
		t.Errorf("5F value = %X, want 0100", e.Value)
	}
}
