package eventlog

import "time"

// Event is a single protocol log record.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID correlates all events of one pairing attempt.
	SessionID string `cbor:"2,keyasint"`

	// VIN of the vehicle being paired, when known.
	VIN string `cbor:"3,keyasint,omitempty"`

	Role     Role     `cbor:"4,keyasint"`
	Category Category `cbor:"5,keyasint"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"6,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"7,keyasint,omitempty"`
	Error       *ErrorEvent       `cbor:"8,keyasint,omitempty"`
}

// Role is the pairing side that recorded the event.
type Role uint8

const (
	RoleDevice  Role = 0
	RoleVehicle Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleDevice:
		return "DEVICE"
	case RoleVehicle:
		return "VEHICLE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	CategoryMessage Category = 0
	CategoryState   Category = 1
	CategoryError   Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Direction indicates message flow relative to the recording side.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures an APDU frame.
type MessageEvent struct {
	Direction Direction `cbor:"1,keyasint"`

	// Kind is the message kind name, e.g. "SPAKE2+ VERIFY Command".
	Kind string `cbor:"2,keyasint"`

	// Frame is the raw APDU.
	Frame []byte `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures a session state transition.
type StateChangeEvent struct {
	OldState string `cbor:"1,keyasint,omitempty"`
	NewState string `cbor:"2,keyasint"`
}

// ErrorEvent captures a failure.
type ErrorEvent struct {
	Message string `cbor:"1,keyasint"`

	// State the session was in when it failed.
	State string `cbor:"2,keyasint,omitempty"`

	// Rejected is set when the peer failed evidence verification.
	Rejected bool `cbor:"3,keyasint,omitempty"`
}
