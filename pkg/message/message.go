// Package message implements the six APDU messages of digital key owner
// pairing: SELECT, SPAKE2+ REQUEST and SPAKE2+ VERIFY, each as a command
// sent by the vehicle and a response returned by the device.
//
// Commands are short APDUs whose data field carries BER-TLV elements
// (SELECT carries the raw application identifier). Responses are BER-TLV
// elements followed by status word 9000. All encodings are uppercase hex.
package message

import "github.com/backkem/dkpair/pkg/apdu"

// Kind identifies one of the six pairing messages.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindSelectCommand
	KindSelectResponse
	KindSpake2PlusRequestCommand
	KindSpake2PlusRequestResponse
	KindSpake2PlusVerifyCommand
	KindSpake2PlusVerifyResponse
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSelectCommand:
		return "SELECT Command"
	case KindSelectResponse:
		return "SELECT Response"
	case KindSpake2PlusRequestCommand:
		return "SPAKE2+ REQUEST Command"
	case KindSpake2PlusRequestResponse:
		return "SPAKE2+ REQUEST Response"
	case KindSpake2PlusVerifyCommand:
		return "SPAKE2+ VERIFY Command"
	case KindSpake2PlusVerifyResponse:
		return "SPAKE2+ VERIFY Response"
	default:
		return "Unknown"
	}
}

// IsCommand reports whether the kind travels from vehicle to device.
func (k Kind) IsCommand() bool {
	return k == KindSelectCommand || k == KindSpake2PlusRequestCommand || k == KindSpake2PlusVerifyCommand
}

// IsResponse reports whether the kind travels from device to vehicle.
func (k Kind) IsResponse() bool {
	return k == KindSelectResponse || k == KindSpake2PlusRequestResponse || k == KindSpake2PlusVerifyResponse
}

// Response returns the response kind answering a command kind.
func (k Kind) Response() Kind {
	switch k {
	case KindSelectCommand:
		return KindSelectResponse
	case KindSpake2PlusRequestCommand:
		return KindSpake2PlusRequestResponse
	case KindSpake2PlusVerifyCommand:
		return KindSpake2PlusVerifyResponse
	default:
		return KindUnknown
	}
}

// Command headers.
var (
	HeaderSelect         = apdu.Header{CLA: 0x00, INS: 0xA4, P1: 0x04, P2: 0x00}
	HeaderSpake2PRequest = apdu.Header{CLA: 0x80, INS: 0x30, P1: 0x00, P2: 0x00}
	HeaderSpake2PVerify  = apdu.Header{CLA: 0x80, INS: 0x32, P1: 0x00, P2: 0x00}
)

// BER-TLV tags.
const (
	tagFrameworkVersion = 0x5A
	tagProtocolVersion  = 0x5C
	tagPairingMode      = 0xD4
	tagFirmwareVersions = 0x5B
	tagBTVersions       = 0x5E
	tagScryptConfig     = 0x7F50
	tagScryptSalt       = 0xC0
	tagScryptCost       = 0xC1
	tagScryptBlockSize  = 0xC2
	tagScryptParallel   = 0xC3
	tagVehicleBrand     = 0xD6
	tagCurvePointX      = 0x50
	tagSelectedVersion  = 0x5F
	tagCurvePointY      = 0x52
	tagVehicleEvidence  = 0x57
	tagDeviceEvidence   = 0x58
)

// Field sizes.
const (
	AIDSize          = 12
	VersionSize      = 2
	VehicleBrandSize = 2
	SaltSize         = 16
	PointSize        = 65
	EvidenceSize     = 16

	// ScryptConfigSize is salt ‖ cost(4) ‖ blockSize(2) ‖ parallelization(2).
	ScryptConfigSize = SaltSize + 4 + 2 + 2

	uncompressedPrefix = 0x04
)

// DefaultAID is the Digital Key framework application identifier.
var DefaultAID = []byte{0xA0, 0x00, 0x00, 0x08, 0x09, 0x43, 0x43, 0x43, 0x4B, 0x46, 0x76, 0x31}

// PairingMode is the device state reported in the SELECT response.
type PairingMode uint8

const (
	PairingModeNotInPairing PairingMode = 0x00
	PairingModeInPairing    PairingMode = 0x02
)

// Valid reports whether m is a defined pairing mode.
func (m PairingMode) Valid() bool {
	return m == PairingModeNotInPairing || m == PairingModeInPairing
}

// String returns the string representation of the pairing mode.
func (m PairingMode) String() string {
	switch m {
	case PairingModeNotInPairing:
		return "NotInPairing"
	case PairingModeInPairing:
		return "InPairing"
	default:
		return "Invalid"
	}
}
