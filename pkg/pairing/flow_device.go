package pairing

import (
	"context"

	"github.com/backkem/dkpair/pkg/message"
	"github.com/pion/logging"
)

// DeviceFlow drives a DeviceSession from signals. It waits for each
// command on its inbox and delivers every response through the relay.
type DeviceFlow struct {
	sessionID string
	vin       string
	inbox     Inbox
	relay     Relay
	session   *DeviceSession
	log       logging.LeveledLogger
}

// NewDeviceFlow creates a device flow for one session.
func NewDeviceFlow(sessionID, vin string, inbox Inbox, relay Relay, cfg DeviceConfig) (*DeviceFlow, error) {
	session, err := NewDeviceSession(sessionID, vin, cfg)
	if err != nil {
		return nil, err
	}
	f := &DeviceFlow{
		sessionID: sessionID,
		vin:       vin,
		inbox:     inbox,
		relay:     relay,
		session:   session,
	}
	if cfg.LoggerFactory != nil {
		f.log = cfg.LoggerFactory.NewLogger("pairing-device")
	}
	return f, nil
}

// State returns the session state.
func (f *DeviceFlow) State() string {
	return f.session.State().String()
}

// Session returns the underlying session.
func (f *DeviceFlow) Session() *DeviceSession {
	return f.session
}

// Run processes SELECT, REQUEST and VERIFY in order. Signals for another
// session or of another kind are dropped, which absorbs redelivered
// messages. Cancelling ctx fails the session and wipes its secrets.
func (f *DeviceFlow) Run(ctx context.Context) (*Result, error) {
	steps := []func(string) (string, error){
		f.session.HandleSelectCommand,
		f.session.HandleRequestCommand,
		f.session.HandleVerifyCommand,
	}

	for _, handle := range steps {
		state := f.session.State()
		kind := state.Expects()

		sig, err := f.await(ctx, kind)
		if err != nil {
			f.session.Abort(err)
			return nil, f.stepErr(state, kind, err)
		}

		resp, err := handle(sig.Payload)
		if err != nil {
			return nil, f.stepErr(state, kind, err)
		}

		if err := deliver(ctx, f.relay, f.sessionID, f.vin, kind.Response(), resp); err != nil {
			f.session.Abort(err)
			return nil, f.stepErr(state, kind, err)
		}
	}

	keys, err := f.session.SystemKeys()
	if err != nil {
		return nil, f.stepErr(f.session.State(), message.KindUnknown, err)
	}
	if f.log != nil {
		f.log.Infof("session %s paired with vehicle %s", f.sessionID, f.vin)
	}
	return &Result{
		SessionID: f.sessionID,
		VIN:       f.vin,
		Message:   deviceSuccess(f.vin),
		Keys:      keys,
	}, nil
}

func (f *DeviceFlow) await(ctx context.Context, kind message.Kind) (Signal, error) {
	for {
		sig, err := f.inbox.Next(ctx)
		if err != nil {
			return Signal{}, err
		}
		switch {
		case sig.SessionID != f.sessionID:
			f.drop(sig, ErrSessionMismatch)
		case sig.Kind != kind:
			f.drop(sig, ErrUnexpectedMessage)
		default:
			return sig, nil
		}
	}
}

func (f *DeviceFlow) drop(sig Signal, reason error) {
	if f.log != nil {
		f.log.Debugf("session %s dropped %s: %v", f.sessionID, sig.Kind, reason)
	}
}

func (f *DeviceFlow) stepErr(state DeviceState, kind message.Kind, err error) error {
	return &StepError{Flow: FlowDevice, State: state.String(), Kind: kind, Err: err}
}
