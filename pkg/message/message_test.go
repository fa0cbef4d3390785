package message

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/backkem/dkpair/pkg/apdu"
)

// sampleRequestCommand is a SPAKE2+ REQUEST captured from a vehicle using
// the default scrypt parameters and salt 01..10.
const sampleRequestCommand = "803000002F5B0201005C0201007F5020C0100102030405060708090A0B0C0D0E0F10C10400001000C2020008C3020001D602000300"

func sampleSalt() []byte {
	return []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
}

func samplePoint(fill byte) []byte {
	p := bytes.Repeat([]byte{fill}, PointSize)
	p[0] = 0x04
	return p
}

func sampleRequest() *Spake2PlusRequestCommand {
	return &Spake2PlusRequestCommand{
		FirmwareVersions: []byte{0x01, 0x00},
		ProtocolVersions: []byte{0x01, 0x00},
		Scrypt: &ScryptConfig{
			Salt:            sampleSalt(),
			Cost:            4096,
			BlockSize:       8,
			Parallelization: 1,
		},
		VehicleBrand: []byte{0x00, 0x03},
	}
}

func TestSpake2PlusRequestCommand_Vector(t *testing.T) {
	got, err := sampleRequest().Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if got != sampleRequestCommand {
		t.Errorf("Encode() =\n%s\nwant\n%s", got, sampleRequestCommand)
	}

	decoded, err := DecodeSpake2PlusRequestCommand(sampleRequestCommand)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !reflect.DeepEqual(decoded, sampleRequest()) {
		t.Errorf("Decode() = %+v", decoded)
	}
	if decoded.HasBTVersions {
		t.Error("HasBTVersions = true for a request without 5E")
	}
}

func TestScryptConfig_Bytes(t *testing.T) {
	got := sampleRequest().Scrypt.Bytes()
	want := append(sampleSalt(), 0x00, 0x00, 0x10, 0x00, 0x00, 0x08, 0x00, 0x01)
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes() = %X, want %X", got, want)
	}
	if len(got) != ScryptConfigSize {
		t.Errorf("len = %d, want %d", len(got), ScryptConfigSize)
	}
}

func TestRoundTrip(t *testing.T) {
	withBT := sampleRequest()
	withBT.HasBTVersions = true
	withBT.BTVersions = []byte{0x05, 0x00}

	tests := []struct {
		name   string
		msg    interface{ Encode() (string, error) }
		decode func(string) (interface{}, error)
	}{
		{
			"select command",
			NewSelectCommand(),
			func(s string) (interface{}, error) { return DecodeSelectCommand(s) },
		},
		{
			"select response",
			&SelectResponse{FrameworkVersion: []byte{1, 0}, ProtocolVersion: []byte{1, 0}, PairingMode: PairingModeInPairing},
			func(s string) (interface{}, error) { return DecodeSelectResponse(s) },
		},
		{
			"select response not in pairing",
			&SelectResponse{FrameworkVersion: []byte{1, 0}, ProtocolVersion: []byte{2, 0}, PairingMode: PairingModeNotInPairing},
			func(s string) (interface{}, error) { return DecodeSelectResponse(s) },
		},
		{
			"request command",
			sampleRequest(),
			func(s string) (interface{}, error) { return DecodeSpake2PlusRequestCommand(s) },
		},
		{
			"request command with bt versions",
			withBT,
			func(s string) (interface{}, error) { return DecodeSpake2PlusRequestCommand(s) },
		},
		{
			"request response",
			&Spake2PlusRequestResponse{CurvePointX: samplePoint(0xAB)},
			func(s string) (interface{}, error) { return DecodeSpake2PlusRequestResponse(s) },
		},
		{
			"request response with selected version",
			&Spake2PlusRequestResponse{CurvePointX: samplePoint(0xAB), HasSelectedVersion: true, SelectedVersion: []byte{1, 0}},
			func(s string) (interface{}, error) { return DecodeSpake2PlusRequestResponse(s) },
		},
		{
			"verify command",
			&Spake2PlusVerifyCommand{CurvePointY: samplePoint(0xCD), VehicleEvidence: bytes.Repeat([]byte{0x11}, EvidenceSize)},
			func(s string) (interface{}, error) { return DecodeSpake2PlusVerifyCommand(s) },
		},
		{
			"verify response",
			&Spake2PlusVerifyResponse{DeviceEvidence: bytes.Repeat([]byte{0x22}, EvidenceSize)},
			func(s string) (interface{}, error) { return DecodeSpake2PlusVerifyResponse(s) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.msg.Encode()
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if s != strings.ToUpper(s) {
				t.Errorf("Encode() is not uppercase: %s", s)
			}
			got, err := tt.decode(s)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.msg) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, tt.msg)
			}
		})
	}
}

func TestSelectResponse_DeviceVector(t *testing.T) {
	m := &SelectResponse{FrameworkVersion: []byte{1, 0}, ProtocolVersion: []byte{1, 0}, PairingMode: PairingModeInPairing}
	got, err := m.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if want := "5A0201005C020100D401029000"; got != want {
		t.Errorf("Encode() = %s, want %s", got, want)
	}
}

func TestEncode_MissingMandatory(t *testing.T) {
	noScrypt := sampleRequest()
	noScrypt.Scrypt = nil
	noBrand := sampleRequest()
	noBrand.VehicleBrand = nil
	zeroCost := sampleRequest()
	zeroCost.Scrypt.Cost = 0

	tests := []struct {
		name  string
		msg   interface{ Encode() (string, error) }
		field string
		err   error
	}{
		{"select aid", &SelectCommand{}, "aid", ErrMissingField},
		{"select framework", &SelectResponse{ProtocolVersion: []byte{1, 0}}, "framework-version", ErrMissingField},
		{"select pairing mode", &SelectResponse{FrameworkVersion: []byte{1, 0}, ProtocolVersion: []byte{1, 0}, PairingMode: 1}, "pairing-mode", ErrInvalidPairingMode},
		{"request scrypt", noScrypt, "scrypt-config", ErrMissingField},
		{"request brand", noBrand, "vehicle-brand", ErrMissingField},
		{"request zero cost", zeroCost, "scrypt-cost", ErrZeroScryptParam},
		{"request response x", &Spake2PlusRequestResponse{}, "curve-point-x", ErrMissingField},
		{"request response short x", &Spake2PlusRequestResponse{CurvePointX: samplePoint(1)[:64]}, "curve-point-x", ErrInvalidLength},
		{"verify y prefix", &Spake2PlusVerifyCommand{CurvePointY: bytes.Repeat([]byte{2}, PointSize), VehicleEvidence: make([]byte, 16)}, "curve-point-y", ErrInvalidPointPrefix},
		{"verify evidence", &Spake2PlusVerifyCommand{CurvePointY: samplePoint(1)}, "vehicle-evidence", ErrMissingField},
		{"verify response", &Spake2PlusVerifyResponse{DeviceEvidence: make([]byte, 15)}, "device-evidence", ErrInvalidLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.msg.Encode()
			var encErr *EncodeError
			if !errors.As(err, &encErr) {
				t.Fatalf("Encode() error = %v, want *EncodeError", err)
			}
			if encErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", encErr.Field, tt.field)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestDecode_Rejects(t *testing.T) {
	validY := "52" + "41" + strings.Repeat("04", 1) + strings.Repeat("CD", 64)
	evidence := "5710" + strings.Repeat("11", 16)

	tests := []struct {
		name   string
		decode func(string) error
		in     string
		err    error
	}{
		{
			"select 3-byte AID with matching Lc",
			func(s string) error { _, err := DecodeSelectCommand(s); return err },
			"00A4040003A0000100",
			ErrInvalidLength,
		},
		{
			"select Lc above data length",
			func(s string) error { _, err := DecodeSelectCommand(s); return err },
			"00A4040005A0000100",
			apdu.ErrLengthMismatch,
		},
		{
			"select Lc of full AID with 3 data bytes",
			func(s string) error { _, err := DecodeSelectCommand(s); return err },
			"00A404000CA0000100",
			apdu.ErrLengthMismatch,
		},
		{
			"select response bad pairing mode",
			func(s string) error { _, err := DecodeSelectResponse(s); return err },
			"5A0201005C020100D401019000",
			ErrInvalidPairingMode,
		},
		{
			"select response missing trailer",
			func(s string) error { _, err := DecodeSelectResponse(s); return err },
			"5A0201005C020100D40102",
			nil,
		},
		{
			"select response short version",
			func(s string) error { _, err := DecodeSelectResponse(s); return err },
			"5A01015C020100D401029000",
			ErrInvalidLength,
		},
		{
			"request response short point",
			func(s string) error { _, err := DecodeSpake2PlusRequestResponse(s); return err },
			"5040" + "04" + strings.Repeat("AB", 63) + "9000",
			ErrInvalidLength,
		},
		{
			"request response compressed point",
			func(s string) error { _, err := DecodeSpake2PlusRequestResponse(s); return err },
			"5041" + "02" + strings.Repeat("AB", 64) + "9000",
			ErrInvalidPointPrefix,
		},
		{
			"verify missing evidence",
			func(s string) error { _, err := DecodeSpake2PlusVerifyCommand(s); return err },
			"8032000043" + validY + "00",
			ErrMissingField,
		},
		{
			"verify wrong header",
			func(s string) error { _, err := DecodeSpake2PlusVerifyCommand(s); return err },
			"8030000055" + validY + evidence + "00",
			nil,
		},
		{
			"request missing scrypt",
			func(s string) error { _, err := DecodeSpake2PlusRequestCommand(s); return err },
			"803000000C5B0201005C020100D602000300",
			ErrMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decode(tt.in)
			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("error = %v, want *DecodeError", err)
			}
			if tt.err != nil && !errors.Is(err, tt.err) {
				t.Errorf("error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestDecode_IgnoresUnknownTags(t *testing.T) {
	in := "5A0201005C020100DF0101FFD401029000"
	m, err := DecodeSelectResponse(in)
	if err != nil {
		t.Fatal(err)
	}
	if m.PairingMode != PairingModeInPairing {
		t.Errorf("PairingMode = %v", m.PairingMode)
	}
}

func TestKind(t *testing.T) {
	if KindSelectCommand.Response() != KindSelectResponse {
		t.Error("select command response kind")
	}
	if KindSpake2PlusVerifyCommand.Response() != KindSpake2PlusVerifyResponse {
		t.Error("verify command response kind")
	}
	if !KindSpake2PlusRequestCommand.IsCommand() || KindSpake2PlusRequestCommand.IsResponse() {
		t.Error("request command direction")
	}
	if KindSpake2PlusVerifyResponse.String() != "SPAKE2+ VERIFY Response" {
		t.Errorf("String() = %q", KindSpake2PlusVerifyResponse.String())
	}
}
