package pairing

import (
	"crypto/rand"
	"strings"
	"sync"

	"github.com/backkem/dkpair/pkg/crypto"
	"github.com/backkem/dkpair/pkg/crypto/spake2p"
	"github.com/backkem/dkpair/pkg/eventlog"
	"github.com/backkem/dkpair/pkg/message"
)

// DeviceSession is the owner device side of one pairing.
//
// Usage:
//
//	s, _ := pairing.NewDeviceSession(sessionID, vin, cfg)
//	resp, _ := s.HandleSelectCommand(selectCmd)
//	resp, _ = s.HandleRequestCommand(requestCmd)
//	resp, _ = s.HandleVerifyCommand(verifyCmd)
//	keys := s.SystemKeys()
type DeviceSession struct {
	cfg   DeviceConfig
	rec   *recorder
	state DeviceState

	password []byte
	spake    *spake2p.Device
	keys     *spake2p.SystemKeys

	mu sync.Mutex
}

// NewDeviceSession creates a device session waiting for SELECT.
func NewDeviceSession(sessionID, vin string, cfg DeviceConfig) (*DeviceSession, error) {
	if strings.TrimSpace(vin) == "" {
		return nil, ErrMissingVIN
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}

	password := make([]byte, len(cfg.Password))
	copy(password, cfg.Password)
	cfg.Password = nil

	return &DeviceSession{
		cfg:      cfg,
		rec:      newRecorder(sessionID, vin, eventlog.RoleDevice, cfg.LoggerFactory, cfg.EventLog),
		state:    DeviceAwaitSelect,
		password: password,
	}, nil
}

// State returns the current state.
func (s *DeviceSession) State() DeviceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HandleSelectCommand answers a SELECT with the applet versions and
// pairing mode.
func (s *DeviceSession) HandleSelectCommand(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(DeviceAwaitSelect); err != nil {
		return "", err
	}
	s.rec.frame(eventlog.DirectionIn, message.KindSelectCommand, cmd)

	if _, err := message.DecodeSelectCommand(cmd); err != nil {
		return "", s.fail(err)
	}
	s.setState(DeviceHaveSelect)

	resp := &message.SelectResponse{
		FrameworkVersion: s.cfg.FrameworkVersion,
		ProtocolVersion:  s.cfg.ProtocolVersion,
		PairingMode:      s.cfg.pairingMode(),
	}
	out, err := resp.Encode()
	if err != nil {
		return "", s.fail(err)
	}

	s.rec.frame(eventlog.DirectionOut, message.KindSelectResponse, out)
	s.setState(DeviceAwaitRequest)
	return out, nil
}

// HandleRequestCommand derives w0 and w1 from the received scrypt
// parameters and answers with the public share X.
func (s *DeviceSession) HandleRequestCommand(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(DeviceAwaitRequest); err != nil {
		return "", err
	}
	s.rec.frame(eventlog.DirectionIn, message.KindSpake2PlusRequestCommand, cmd)

	req, err := message.DecodeSpake2PlusRequestCommand(cmd)
	if err != nil {
		return "", s.fail(err)
	}
	s.setState(DeviceHaveRequest)

	params := crypto.ScryptParams{
		Salt:            req.Scrypt.Salt,
		Cost:            req.Scrypt.Cost,
		BlockSize:       req.Scrypt.BlockSize,
		Parallelization: req.Scrypt.Parallelization,
	}
	dev, err := spake2p.NewDevice(s.password, params, spake2p.Options{ExtendedKeys: s.cfg.ExtendedKeys})
	if err != nil {
		return "", s.fail(err)
	}
	dev.SetRandom(s.cfg.Rand)
	s.spake = dev

	X, err := dev.PublicShare()
	if err != nil {
		return "", s.fail(err)
	}

	resp := &message.Spake2PlusRequestResponse{
		CurvePointX:        X,
		HasSelectedVersion: !s.cfg.OmitSelectedVersion,
		SelectedVersion:    s.cfg.SelectedVersion,
	}
	out, err := resp.Encode()
	if err != nil {
		return "", s.fail(err)
	}

	s.rec.frame(eventlog.DirectionOut, message.KindSpake2PlusRequestResponse, out)
	s.setState(DeviceAwaitVerify)
	return out, nil
}

// HandleVerifyCommand checks the vehicle evidence and answers with the
// device evidence. A wrong vehicle evidence fails the session with an
// error for which IsRejected reports true.
func (s *DeviceSession) HandleVerifyCommand(cmd string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(DeviceAwaitVerify); err != nil {
		return "", err
	}
	s.rec.frame(eventlog.DirectionIn, message.KindSpake2PlusVerifyCommand, cmd)

	req, err := message.DecodeSpake2PlusVerifyCommand(cmd)
	if err != nil {
		return "", s.fail(err)
	}
	s.setState(DeviceHaveVerify)

	evidence, err := s.spake.ProcessVerify(req.CurvePointY, req.VehicleEvidence)
	if err != nil {
		return "", s.fail(err)
	}
	keys, err := s.spake.SystemKeys()
	if err != nil {
		return "", s.fail(err)
	}

	resp := &message.Spake2PlusVerifyResponse{DeviceEvidence: evidence}
	out, err := resp.Encode()
	if err != nil {
		return "", s.fail(err)
	}

	s.keys = cloneKeys(keys)
	s.rec.frame(eventlog.DirectionOut, message.KindSpake2PlusVerifyResponse, out)
	s.wipe()
	s.setState(DeviceDone)
	return out, nil
}

// SystemKeys returns the established keys once the session is Done.
func (s *DeviceSession) SystemKeys() (*spake2p.SystemKeys, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != DeviceDone {
		return nil, ErrInvalidState
	}
	return s.keys, nil
}

// Abort fails the session and wipes its secrets. It is a no-op once the
// session is terminal.
func (s *DeviceSession) Abort(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return
	}
	s.fail(err)
}

func (s *DeviceSession) expect(state DeviceState) error {
	if s.state != state {
		return ErrInvalidState
	}
	return nil
}

func (s *DeviceSession) setState(to DeviceState) {
	from := s.state
	s.state = to
	s.rec.transition(from.String(), to.String())
	if s.cfg.OnStateChanged != nil {
		s.cfg.OnStateChanged(from, to)
	}
}

// fail records err, wipes the secrets and moves to Failed.
func (s *DeviceSession) fail(err error) error {
	s.rec.failure(s.state.String(), err)
	s.wipe()
	s.keys.Wipe()
	s.keys = nil
	s.setState(DeviceFailed)
	return err
}

func (s *DeviceSession) wipe() {
	clear(s.password)
	s.password = nil
	if s.spake != nil {
		s.spake.Wipe()
		s.spake = nil
	}
}

func cloneKeys(k *spake2p.SystemKeys) *spake2p.SystemKeys {
	return &spake2p.SystemKeys{
		Kenc:                 copyBytes(k.Kenc),
		Kmac:                 copyBytes(k.Kmac),
		Krmac:                copyBytes(k.Krmac),
		LongTermSharedSecret: copyBytes(k.LongTermSharedSecret),
		KBleIntro:            copyBytes(k.KBleIntro),
		KBleOOBMaster:        copyBytes(k.KBleOOBMaster),
	}
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
