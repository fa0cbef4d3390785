// Package relay routes pairing signals to the executor that owns the
// addressed session.
//
// Commands travel from a vehicle to a device and responses travel back.
// A Router delivers commands into its device executor, starting a device
// session when a SELECT names an unknown session, and delivers responses
// into its vehicle executor. A Router with both executors is an
// in-process loopback between a vehicle and a device.
package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/backkem/dkpair/pkg/executor"
	"github.com/backkem/dkpair/pkg/message"
	"github.com/backkem/dkpair/pkg/pairing"
	"github.com/pion/logging"
)

var (
	ErrUnknownKind = errors.New("relay: unknown message kind")
	ErrNoDevice    = errors.New("relay: no device executor for command")
	ErrNoVehicle   = errors.New("relay: no vehicle executor for response")
	ErrNoExecutor  = errors.New("relay: at least one executor is required")
)

// Config configures a Router.
type Config struct {
	// Vehicle receives responses. If nil, responses are rejected.
	Vehicle *executor.Executor

	// Device receives commands. If nil, commands are rejected.
	Device *executor.Executor

	// DeviceConfig configures the device sessions started on SELECT.
	DeviceConfig pairing.DeviceConfig

	// DeviceRelay carries device responses back to the vehicle. If nil,
	// the Router itself is used.
	DeviceRelay pairing.Relay

	// LoggerFactory is the factory for creating loggers.
	// If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// Router implements pairing.Relay by signalling local executors.
type Router struct {
	config Config
	log    logging.LeveledLogger
}

// New creates a Router.
func New(config Config) (*Router, error) {
	if config.Vehicle == nil && config.Device == nil {
		return nil, ErrNoExecutor
	}
	r := &Router{config: config}
	if r.config.DeviceRelay == nil {
		r.config.DeviceRelay = r
	}
	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("relay")
	}
	return r, nil
}

// NewLoopback connects a vehicle executor and a device executor in one
// process.
func NewLoopback(vehicle, device *executor.Executor, deviceConfig pairing.DeviceConfig, loggerFactory logging.LoggerFactory) (*Router, error) {
	if vehicle == nil || device == nil {
		return nil, ErrNoExecutor
	}
	return New(Config{
		Vehicle:       vehicle,
		Device:        device,
		DeviceConfig:  deviceConfig,
		LoggerFactory: loggerFactory,
	})
}

// Deliver routes sig by its kind and returns an acknowledgement.
func (r *Router) Deliver(ctx context.Context, sig pairing.Signal) (string, error) {
	if r.log != nil {
		r.log.Debugf("deliver %s for session %s", sig.Kind, sig.SessionID)
	}

	var err error
	switch {
	case sig.Kind.IsCommand():
		err = r.toDevice(ctx, sig)
	case sig.Kind.IsResponse():
		err = r.toVehicle(sig)
	default:
		err = ErrUnknownKind
	}
	if err != nil {
		if r.log != nil {
			r.log.Warnf("deliver %s for session %s: %v", sig.Kind, sig.SessionID, err)
		}
		return "", err
	}
	return fmt.Sprintf("Received %s for vehicle %s", sig.Kind, sig.VIN), nil
}

func (r *Router) toDevice(ctx context.Context, sig pairing.Signal) error {
	dev := r.config.Device
	if dev == nil {
		return ErrNoDevice
	}

	if sig.Kind == message.KindSelectCommand && !dev.Has(sig.SessionID) {
		err := dev.Start(ctx, sig.SessionID, executor.FlowDevice, r.deviceFactory(sig.SessionID, sig.VIN))
		if err != nil && !errors.Is(err, executor.ErrSessionExists) {
			return fmt.Errorf("relay: start device session: %w", err)
		}
	}
	return idempotent(dev.Signal(sig.SessionID, sig))
}

func (r *Router) toVehicle(sig pairing.Signal) error {
	veh := r.config.Vehicle
	if veh == nil {
		return ErrNoVehicle
	}
	return idempotent(veh.Signal(sig.SessionID, sig))
}

func (r *Router) deviceFactory(sessionID, vin string) executor.Factory {
	return func(inbox pairing.Inbox) (executor.Flow, error) {
		return pairing.NewDeviceFlow(sessionID, vin, inbox, r.config.DeviceRelay, r.config.DeviceConfig)
	}
}

// idempotent accepts a redelivery to a session that already finished.
func idempotent(err error) error {
	if errors.Is(err, executor.ErrSessionDone) {
		return nil
	}
	return err
}

// Verify Router implements pairing.Relay.
var _ pairing.Relay = (*Router)(nil)
