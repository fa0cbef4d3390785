// Package pairing implements digital key owner pairing between a vehicle
// and an owner device on top of the SPAKE2+ exchange.
//
// # Sessions
//
// DeviceSession and VehicleSession are the per-side protocol state
// machines. They consume and produce hex-encoded APDUs and hold the
// session secrets, which are wiped when the session completes or fails.
//
//	Vehicle                                   Device
//	-------                                   ------
//	CreateSelectCommand()     --SELECT-->     HandleSelectCommand()
//	HandleSelectResponse()    <--------
//	CreateRequestCommand()    --REQUEST->     HandleRequestCommand()
//	HandleRequestResponse()   <---X-----
//	                          --VERIFY-->     HandleVerifyCommand()
//	HandleVerifyResponse()    <--eD-----
//
// # Flows
//
// DeviceFlow and VehicleFlow drive one session each inside a durable
// executor: they suspend on an Inbox for the peer's next message and send
// their own messages through a Relay. RunFullCycle drives both sessions in
// one call, passing every message through its wire encoding.
package pairing

import "github.com/backkem/dkpair/pkg/message"

// DeviceState is the state of a device session.
type DeviceState int

const (
	DeviceAwaitSelect DeviceState = iota
	DeviceHaveSelect
	DeviceAwaitRequest
	DeviceHaveRequest
	DeviceAwaitVerify
	DeviceHaveVerify
	DeviceDone
	DeviceFailed
)

// String returns the state name.
func (s DeviceState) String() string {
	switch s {
	case DeviceAwaitSelect:
		return "AwaitSelect"
	case DeviceHaveSelect:
		return "HaveSelect"
	case DeviceAwaitRequest:
		return "AwaitRequest"
	case DeviceHaveRequest:
		return "HaveRequest"
	case DeviceAwaitVerify:
		return "AwaitVerify"
	case DeviceHaveVerify:
		return "HaveVerify"
	case DeviceDone:
		return "Done"
	case DeviceFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Expects returns the message kind a waiting state consumes.
func (s DeviceState) Expects() message.Kind {
	switch s {
	case DeviceAwaitSelect:
		return message.KindSelectCommand
	case DeviceAwaitRequest:
		return message.KindSpake2PlusRequestCommand
	case DeviceAwaitVerify:
		return message.KindSpake2PlusVerifyCommand
	default:
		return message.KindUnknown
	}
}

// Terminal reports whether no further transitions are possible.
func (s DeviceState) Terminal() bool {
	return s == DeviceDone || s == DeviceFailed
}

// VehicleState is the state of a vehicle session.
type VehicleState int

const (
	VehicleCreateSelect VehicleState = iota
	VehicleAwaitSelectResponse
	VehicleCreateRequest
	VehicleAwaitRequestResponse
	VehicleCreateVerify
	VehicleAwaitVerifyResponse
	VehicleDone
	VehicleFailed
)

// String returns the state name.
func (s VehicleState) String() string {
	switch s {
	case VehicleCreateSelect:
		return "CreateSelect"
	case VehicleAwaitSelectResponse:
		return "AwaitSelectResponse"
	case VehicleCreateRequest:
		return "CreateRequest"
	case VehicleAwaitRequestResponse:
		return "AwaitRequestResponse"
	case VehicleCreateVerify:
		return "CreateVerify"
	case VehicleAwaitVerifyResponse:
		return "AwaitVerifyResponse"
	case VehicleDone:
		return "Done"
	case VehicleFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Expects returns the message kind a waiting state consumes.
func (s VehicleState) Expects() message.Kind {
	switch s {
	case VehicleAwaitSelectResponse:
		return message.KindSelectResponse
	case VehicleAwaitRequestResponse:
		return message.KindSpake2PlusRequestResponse
	case VehicleAwaitVerifyResponse:
		return message.KindSpake2PlusVerifyResponse
	default:
		return message.KindUnknown
	}
}

// Terminal reports whether no further transitions are possible.
func (s VehicleState) Terminal() bool {
	return s == VehicleDone || s == VehicleFailed
}
