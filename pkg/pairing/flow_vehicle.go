package pairing

import (
	"context"

	"github.com/backkem/dkpair/pkg/message"
	"github.com/pion/logging"
)

// VehicleFlow drives a VehicleSession. It sends each command through the
// relay and takes the next inbox signal as the reply, since only one
// request is outstanding at a time.
type VehicleFlow struct {
	sessionID string
	vin       string
	inbox     Inbox
	relay     Relay
	session   *VehicleSession
	log       logging.LeveledLogger
}

// NewVehicleFlow creates a vehicle flow for one session.
func NewVehicleFlow(sessionID, vin string, password, salt []byte, inbox Inbox, relay Relay, cfg VehicleConfig) (*VehicleFlow, error) {
	session, err := NewVehicleSession(sessionID, vin, password, salt, cfg)
	if err != nil {
		return nil, err
	}
	f := &VehicleFlow{
		sessionID: sessionID,
		vin:       vin,
		inbox:     inbox,
		relay:     relay,
		session:   session,
	}
	if cfg.LoggerFactory != nil {
		f.log = cfg.LoggerFactory.NewLogger("pairing-vehicle")
	}
	return f, nil
}

// State returns the session state.
func (f *VehicleFlow) State() string {
	return f.session.State().String()
}

// Session returns the underlying session.
func (f *VehicleFlow) Session() *VehicleSession {
	return f.session
}

// Run performs the full exchange from SELECT to VERIFY.
func (f *VehicleFlow) Run(ctx context.Context) (*Result, error) {
	var cmd, resp string
	var err error

	steps := []struct {
		kind message.Kind
		run  func() error
	}{
		{message.KindSelectCommand, func() (err error) {
			cmd, err = f.session.CreateSelectCommand()
			return err
		}},
		{message.KindSelectCommand, func() (err error) {
			resp, err = f.exchange(ctx, message.KindSelectCommand, cmd)
			return err
		}},
		{message.KindSelectResponse, func() error {
			return f.session.HandleSelectResponse(resp)
		}},
		{message.KindSpake2PlusRequestCommand, func() (err error) {
			cmd, err = f.session.CreateRequestCommand()
			return err
		}},
		{message.KindSpake2PlusRequestCommand, func() (err error) {
			resp, err = f.exchange(ctx, message.KindSpake2PlusRequestCommand, cmd)
			return err
		}},
		{message.KindSpake2PlusRequestResponse, func() (err error) {
			cmd, err = f.session.HandleRequestResponse(resp)
			return err
		}},
		{message.KindSpake2PlusVerifyCommand, func() (err error) {
			resp, err = f.exchange(ctx, message.KindSpake2PlusVerifyCommand, cmd)
			return err
		}},
		{message.KindSpake2PlusVerifyResponse, func() error {
			return f.session.HandleVerifyResponse(resp)
		}},
	}

	for _, step := range steps {
		state := f.session.State()
		if err = step.run(); err != nil {
			return nil, f.stepErr(state, step.kind, err)
		}
	}

	keys, err := f.session.SystemKeys()
	if err != nil {
		return nil, f.stepErr(f.session.State(), message.KindUnknown, err)
	}
	if f.log != nil {
		f.log.Infof("session %s paired vehicle %s", f.sessionID, f.vin)
	}
	return &Result{
		SessionID: f.sessionID,
		VIN:       f.vin,
		Message:   vehicleSuccess(f.vin),
		Keys:      keys,
	}, nil
}

// exchange delivers cmd and waits for the reply payload. A reply of any
// other kind than the response to cmd fails the session.
func (f *VehicleFlow) exchange(ctx context.Context, kind message.Kind, cmd string) (string, error) {
	if err := deliver(ctx, f.relay, f.sessionID, f.vin, kind, cmd); err != nil {
		f.session.Abort(err)
		return "", err
	}

	want := kind.Response()
	sig, err := f.inbox.Next(ctx)
	if err != nil {
		f.session.Abort(err)
		return "", err
	}
	if sig.Kind != want {
		if f.log != nil {
			f.log.Warnf("session %s expected %s, got %s", f.sessionID, want, sig.Kind)
		}
		f.session.Abort(ErrUnexpectedMessage)
		return "", ErrUnexpectedMessage
	}
	return sig.Payload, nil
}

func (f *VehicleFlow) stepErr(state VehicleState, kind message.Kind, err error) error {
	return &StepError{Flow: FlowVehicle, State: state.String(), Kind: kind, Err: err}
}
