package pairing

import (
	"context"

	"github.com/backkem/dkpair/pkg/message"
)

// FullCycleConfig configures RunFullCycle. The device password is taken
// from the password argument.
type FullCycleConfig struct {
	SessionID string
	Device    DeviceConfig
	Vehicle   VehicleConfig
}

// FullCycleResult carries both sides' view of a completed pairing.
type FullCycleResult struct {
	Message string
	Vehicle *Result
	Device  *Result
}

// RunFullCycle runs both roles in lock step in the calling goroutine.
// Every message crosses between the roles in its hex wire encoding.
func RunFullCycle(ctx context.Context, vin string, password, salt []byte, cfg FullCycleConfig) (*FullCycleResult, error) {
	devCfg := cfg.Device
	devCfg.Password = password

	device, err := NewDeviceSession(cfg.SessionID, vin, devCfg)
	if err != nil {
		return nil, err
	}
	vehicle, err := NewVehicleSession(cfg.SessionID, vin, password, salt, cfg.Vehicle)
	if err != nil {
		device.Abort(err)
		return nil, err
	}

	abort := func(kind message.Kind, state string, err error) error {
		device.Abort(err)
		vehicle.Abort(err)
		return &StepError{Flow: FlowFullCycle, State: state, Kind: kind, Err: err}
	}

	type step struct {
		kind message.Kind
		run  func() error
	}
	var cmd, resp string
	steps := []step{
		{message.KindSelectCommand, func() (err error) {
			cmd, err = vehicle.CreateSelectCommand()
			return err
		}},
		{message.KindSelectCommand, func() (err error) {
			resp, err = device.HandleSelectCommand(cmd)
			return err
		}},
		{message.KindSelectResponse, func() error {
			return vehicle.HandleSelectResponse(resp)
		}},
		{message.KindSpake2PlusRequestCommand, func() (err error) {
			cmd, err = vehicle.CreateRequestCommand()
			return err
		}},
		{message.KindSpake2PlusRequestCommand, func() (err error) {
			resp, err = device.HandleRequestCommand(cmd)
			return err
		}},
		{message.KindSpake2PlusRequestResponse, func() (err error) {
			cmd, err = vehicle.HandleRequestResponse(resp)
			return err
		}},
		{message.KindSpake2PlusVerifyCommand, func() (err error) {
			resp, err = device.HandleVerifyCommand(cmd)
			return err
		}},
		{message.KindSpake2PlusVerifyResponse, func() error {
			return vehicle.HandleVerifyResponse(resp)
		}},
	}

	for _, s := range steps {
		state := vehicle.State().String()
		if err := ctx.Err(); err != nil {
			return nil, abort(s.kind, state, err)
		}
		if err := s.run(); err != nil {
			return nil, abort(s.kind, state, err)
		}
	}

	vehicleKeys, err := vehicle.SystemKeys()
	if err != nil {
		return nil, abort(message.KindUnknown, vehicle.State().String(), err)
	}
	deviceKeys, err := device.SystemKeys()
	if err != nil {
		return nil, abort(message.KindUnknown, device.State().String(), err)
	}

	msg := fullCycleSuccess(vin)
	return &FullCycleResult{
		Message: msg,
		Vehicle: &Result{SessionID: cfg.SessionID, VIN: vin, Message: msg, Keys: vehicleKeys},
		Device:  &Result{SessionID: cfg.SessionID, VIN: vin, Message: msg, Keys: deviceKeys},
	}, nil
}
