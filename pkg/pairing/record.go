package pairing

import (
	"encoding/hex"
	"time"

	"github.com/backkem/dkpair/pkg/eventlog"
	"github.com/backkem/dkpair/pkg/message"
	"github.com/pion/logging"
)

// recorder writes the operational log and the protocol event log for one
// session.
type recorder struct {
	sessionID string
	vin       string
	role      eventlog.Role
	log       logging.LeveledLogger
	events    eventlog.Logger
}

func newRecorder(sessionID, vin string, role eventlog.Role, factory logging.LoggerFactory, events eventlog.Logger) *recorder {
	r := &recorder{
		sessionID: sessionID,
		vin:       vin,
		role:      role,
		events:    events,
	}
	if factory != nil {
		if role == eventlog.RoleDevice {
			r.log = factory.NewLogger("pairing-device")
		} else {
			r.log = factory.NewLogger("pairing-vehicle")
		}
	}
	return r
}

func (r *recorder) event(cat eventlog.Category) eventlog.Event {
	return eventlog.Event{
		Timestamp: time.Now(),
		SessionID: r.sessionID,
		VIN:       r.vin,
		Role:      r.role,
		Category:  cat,
	}
}

func (r *recorder) frame(dir eventlog.Direction, kind message.Kind, payload string) {
	if r.log != nil {
		r.log.Tracef("session %s %s %s: %s", r.sessionID, dir, kind, payload)
	}
	frame, err := hex.DecodeString(payload)
	if err != nil {
		frame = nil
	}
	e := r.event(eventlog.CategoryMessage)
	e.Message = &eventlog.MessageEvent{Direction: dir, Kind: kind.String(), Frame: frame}
	r.events.Log(e)
}

func (r *recorder) transition(from, to string) {
	if r.log != nil {
		r.log.Debugf("session %s: %s -> %s", r.sessionID, from, to)
	}
	e := r.event(eventlog.CategoryState)
	e.StateChange = &eventlog.StateChangeEvent{OldState: from, NewState: to}
	r.events.Log(e)
}

func (r *recorder) failure(state string, err error) {
	rejected := IsRejected(err)
	if r.log != nil {
		if rejected {
			r.log.Warnf("session %s rejected in %s: %v", r.sessionID, state, err)
		} else {
			r.log.Errorf("session %s failed in %s: %v", r.sessionID, state, err)
		}
	}
	e := r.event(eventlog.CategoryError)
	e.Error = &eventlog.ErrorEvent{Message: err.Error(), State: state, Rejected: rejected}
	r.events.Log(e)
}
