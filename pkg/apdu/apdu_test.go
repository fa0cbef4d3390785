package apdu

import (
	"bytes"
	"errors"
	"testing"
)

var selectHeader = Header{CLA: 0x00, INS: 0xA4, P1: 0x04, P2: 0x00}

func TestCommand_Hex(t *testing.T) {
	cmd := &Command{
		Header: selectHeader,
		Data:   []byte{0xA0, 0x00, 0x00, 0x08, 0x09, 0x43, 0x43, 0x43, 0x4B, 0x46, 0x76, 0x31},
	}
	got, err := cmd.Hex()
	if err != nil {
		t.Fatal(err)
	}
	if want := "00A404000CA0000008094343434B46763100"; got != want {
		t.Errorf("Hex() = %s, want %s", got, want)
	}
}

func TestCommand_Errors(t *testing.T) {
	if _, err := (&Command{Header: selectHeader}).Bytes(); !errors.Is(err, ErrEmptyData) {
		t.Errorf("empty data error = %v", err)
	}
	big := &Command{Header: selectHeader, Data: make([]byte, 256)}
	if _, err := big.Bytes(); !errors.Is(err, ErrDataTooLong) {
		t.Errorf("oversized data error = %v", err)
	}
}

func TestParseCommandHex(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"valid", "00A4040003A0000100", nil},
		{"lowercase", "00a4040003a0000100", nil},
		{"Lc too large", "00A4040004A0000100", ErrLengthMismatch},
		{"Lc too small", "00A4040002A0000100", ErrLengthMismatch},
		{"short", "00A40400", ErrFrameTooShort},
		{"bad Le", "00A4040001A001", ErrUnexpectedLe},
		{"wrong header", "80300000010100", ErrHeaderMismatch},
		{"odd hex", "00A", ErrInvalidHex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommandHex(tt.in, selectHeader)
			if !errors.Is(err, tt.err) {
				t.Fatalf("ParseCommandHex() error = %v, want %v", err, tt.err)
			}
			if err == nil && !bytes.Equal(cmd.Data, []byte{0xA0, 0x00, 0x01}) {
				t.Errorf("Data = %X", cmd.Data)
			}
		})
	}
}

func TestResponse_RoundTrip(t *testing.T) {
	r := &Response{Data: []byte{0x58, 0x01, 0xAA}, SW: StatusOK}
	if got, want := r.Hex(), "5801AA9000"; got != want {
		t.Errorf("Hex() = %s, want %s", got, want)
	}
	parsed, err := ParseResponseHex(r.Hex())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(parsed.Data, r.Data) || parsed.SW != StatusOK {
		t.Errorf("ParseResponseHex() = %X %04X", parsed.Data, parsed.SW)
	}
}

func TestParseResponseHex_Errors(t *testing.T) {
	if _, err := ParseResponseHex("5801AA6A82"); !errors.Is(err, ErrStatusNotSuccess) {
		t.Errorf("status error = %v", err)
	}
	if _, err := ParseResponseHex("90"); !errors.Is(err, ErrFrameTooShort) {
		t.Errorf("short error = %v", err)
	}
	if _, err := ParseResponseHex("ZZ9000"); !errors.Is(err, ErrInvalidHex) {
		t.Errorf("hex error = %v", err)
	}
}
