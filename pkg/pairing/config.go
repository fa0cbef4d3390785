package pairing

import (
	"io"

	"github.com/backkem/dkpair/pkg/eventlog"
	"github.com/backkem/dkpair/pkg/message"
	"github.com/pion/logging"
)

// Defaults used when a config field is left zero.
var (
	DefaultVersion      = []byte{0x01, 0x00}
	DefaultBTVersion    = []byte{0x05, 0x00}
	DefaultVehicleBrand = []byte{0x00, 0x03}
)

const (
	DefaultScryptCost            = 4096
	DefaultScryptBlockSize       = 8
	DefaultScryptParallelization = 1

	SaltSize = message.SaltSize
)

// DeviceConfig configures the owner device side.
type DeviceConfig struct {
	// Password is the pairing password shared with the vehicle.
	Password []byte

	FrameworkVersion []byte
	ProtocolVersion  []byte

	// NotInPairing makes the SELECT response report pairing mode 00.
	NotInPairing bool

	// SelectedVersion is returned in the SPAKE2+ REQUEST response.
	// Set OmitSelectedVersion to leave it out.
	SelectedVersion     []byte
	OmitSelectedVersion bool

	// ExtendedKeys derives the BLE intro and OOB master keys.
	ExtendedKeys bool

	// Rand overrides the random source for tests.
	Rand io.Reader

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory

	// EventLog receives protocol events. If nil, events are discarded.
	EventLog eventlog.Logger

	// OnStateChanged is called after every state transition.
	OnStateChanged func(from, to DeviceState)
}

// Validate checks the configuration.
func (c *DeviceConfig) Validate() error {
	if len(c.Password) == 0 {
		return ErrMissingPassword
	}
	return nil
}

func (c *DeviceConfig) applyDefaults() {
	if c.FrameworkVersion == nil {
		c.FrameworkVersion = DefaultVersion
	}
	if c.ProtocolVersion == nil {
		c.ProtocolVersion = DefaultVersion
	}
	if c.SelectedVersion == nil && !c.OmitSelectedVersion {
		c.SelectedVersion = DefaultVersion
	}
	if c.EventLog == nil {
		c.EventLog = eventlog.NoopLogger{}
	}
}

// VehicleConfig configures the vehicle side.
type VehicleConfig struct {
	// Scrypt cost parameters sent to the device.
	ScryptCost            uint32
	ScryptBlockSize       uint16
	ScryptParallelization uint16

	AID              []byte
	FirmwareVersions []byte
	ProtocolVersions []byte
	VehicleBrand     []byte

	// SendBTVersions adds the optional BT versions element, using
	// BTVersions or DefaultBTVersion.
	SendBTVersions bool
	BTVersions     []byte

	// AllowNotInPairing accepts a device whose SELECT response reports
	// pairing mode 00.
	AllowNotInPairing bool

	ExtendedKeys bool

	Rand          io.Reader
	LoggerFactory logging.LoggerFactory
	EventLog      eventlog.Logger

	// OnStateChanged is called after every state transition.
	OnStateChanged func(from, to VehicleState)
}

func (c *VehicleConfig) applyDefaults() {
	if c.ScryptCost == 0 {
		c.ScryptCost = DefaultScryptCost
	}
	if c.ScryptBlockSize == 0 {
		c.ScryptBlockSize = DefaultScryptBlockSize
	}
	if c.ScryptParallelization == 0 {
		c.ScryptParallelization = DefaultScryptParallelization
	}
	if c.AID == nil {
		c.AID = message.DefaultAID
	}
	if c.FirmwareVersions == nil {
		c.FirmwareVersions = DefaultVersion
	}
	if c.ProtocolVersions == nil {
		c.ProtocolVersions = DefaultVersion
	}
	if c.VehicleBrand == nil {
		c.VehicleBrand = DefaultVehicleBrand
	}
	if c.SendBTVersions && c.BTVersions == nil {
		c.BTVersions = DefaultBTVersion
	}
	if c.EventLog == nil {
		c.EventLog = eventlog.NoopLogger{}
	}
}

func (c *DeviceConfig) pairingMode() message.PairingMode {
	if c.NotInPairing {
		return message.PairingModeNotInPairing
	}
	return message.PairingModeInPairing
}
