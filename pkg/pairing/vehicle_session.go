package pairing

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/backkem/dkpair/pkg/crypto"
	"github.com/backkem/dkpair/pkg/crypto/spake2p"
	"github.com/backkem/dkpair/pkg/eventlog"
	"github.com/backkem/dkpair/pkg/message"
)

// VehicleSession is the vehicle side of one pairing. The vehicle knows the
// password and chooses the salt and scrypt parameters.
type VehicleSession struct {
	cfg   VehicleConfig
	rec   *recorder
	state VehicleState

	password []byte
	salt     []byte
	spake    *spake2p.Vehicle
	keys     *spake2p.SystemKeys

	mu sync.Mutex
}

// NewVehicleSession creates a vehicle session. A nil salt is replaced by
// SaltSize random bytes.
func NewVehicleSession(sessionID, vin string, password, salt []byte, cfg VehicleConfig) (*VehicleSession, error) {
	if strings.TrimSpace(vin) == "" {
		return nil, ErrMissingVIN
	}
	if len(password) == 0 {
		return nil, ErrMissingPassword
	}
	cfg.applyDefaults()
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}

	if salt == nil {
		salt = make([]byte, SaltSize)
		if _, err := io.ReadFull(cfg.Rand, salt); err != nil {
			return nil, fmt.Errorf("pairing: generate salt: %w", err)
		}
	} else {
		if len(salt) != SaltSize {
			return nil, ErrInvalidSalt
		}
		salt = copyBytes(salt)
	}

	return &VehicleSession{
		cfg:      cfg,
		rec:      newRecorder(sessionID, vin, eventlog.RoleVehicle, cfg.LoggerFactory, cfg.EventLog),
		state:    VehicleCreateSelect,
		password: copyBytes(password),
		salt:     salt,
	}, nil
}

// State returns the current state.
func (s *VehicleSession) State() VehicleState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CreateSelectCommand returns the SELECT command for the configured AID.
func (s *VehicleSession) CreateSelectCommand() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(VehicleCreateSelect); err != nil {
		return "", err
	}
	out, err := (&message.SelectCommand{AID: s.cfg.AID}).Encode()
	if err != nil {
		return "", s.fail(err)
	}
	s.rec.frame(eventlog.DirectionOut, message.KindSelectCommand, out)
	s.setState(VehicleAwaitSelectResponse)
	return out, nil
}

// HandleSelectResponse checks the device is ready to pair.
func (s *VehicleSession) HandleSelectResponse(resp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(VehicleAwaitSelectResponse); err != nil {
		return err
	}
	s.rec.frame(eventlog.DirectionIn, message.KindSelectResponse, resp)

	sel, err := message.DecodeSelectResponse(resp)
	if err != nil {
		return s.fail(err)
	}
	if sel.PairingMode != message.PairingModeInPairing && !s.cfg.AllowNotInPairing {
		return s.fail(ErrNotInPairingMode)
	}
	s.setState(VehicleCreateRequest)
	return nil
}

// CreateRequestCommand derives w0 and w1 and returns the SPAKE2+ REQUEST
// command carrying the salt and scrypt parameters.
func (s *VehicleSession) CreateRequestCommand() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(VehicleCreateRequest); err != nil {
		return "", err
	}

	params := crypto.ScryptParams{
		Salt:            s.salt,
		Cost:            s.cfg.ScryptCost,
		BlockSize:       s.cfg.ScryptBlockSize,
		Parallelization: s.cfg.ScryptParallelization,
	}
	v, err := spake2p.NewVehicle(s.password, params, spake2p.Options{ExtendedKeys: s.cfg.ExtendedKeys})
	if err != nil {
		return "", s.fail(err)
	}
	v.SetRandom(s.cfg.Rand)
	s.spake = v
	clear(s.password)
	s.password = nil

	req := &message.Spake2PlusRequestCommand{
		FirmwareVersions: s.cfg.FirmwareVersions,
		ProtocolVersions: s.cfg.ProtocolVersions,
		HasBTVersions:    s.cfg.SendBTVersions,
		BTVersions:       s.cfg.BTVersions,
		Scrypt: &message.ScryptConfig{
			Salt:            s.salt,
			Cost:            s.cfg.ScryptCost,
			BlockSize:       s.cfg.ScryptBlockSize,
			Parallelization: s.cfg.ScryptParallelization,
		},
		VehicleBrand: s.cfg.VehicleBrand,
	}
	out, err := req.Encode()
	if err != nil {
		return "", s.fail(err)
	}
	s.rec.frame(eventlog.DirectionOut, message.KindSpake2PlusRequestCommand, out)
	s.setState(VehicleAwaitRequestResponse)
	return out, nil
}

// HandleRequestResponse consumes the device share X and returns the
// SPAKE2+ VERIFY command with Y and the vehicle evidence.
func (s *VehicleSession) HandleRequestResponse(resp string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(VehicleAwaitRequestResponse); err != nil {
		return "", err
	}
	s.rec.frame(eventlog.DirectionIn, message.KindSpake2PlusRequestResponse, resp)

	r, err := message.DecodeSpake2PlusRequestResponse(resp)
	if err != nil {
		return "", s.fail(err)
	}
	s.setState(VehicleCreateVerify)

	share, err := s.spake.ProcessShare(r.CurvePointX)
	if err != nil {
		return "", s.fail(err)
	}
	out, err := (&message.Spake2PlusVerifyCommand{
		CurvePointY:     share.Y,
		VehicleEvidence: share.VehicleEvidence,
	}).Encode()
	if err != nil {
		return "", s.fail(err)
	}
	s.rec.frame(eventlog.DirectionOut, message.KindSpake2PlusVerifyCommand, out)
	s.setState(VehicleAwaitVerifyResponse)
	return out, nil
}

// HandleVerifyResponse authenticates the device evidence and completes the
// session.
func (s *VehicleSession) HandleVerifyResponse(resp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expect(VehicleAwaitVerifyResponse); err != nil {
		return err
	}
	s.rec.frame(eventlog.DirectionIn, message.KindSpake2PlusVerifyResponse, resp)

	r, err := message.DecodeSpake2PlusVerifyResponse(resp)
	if err != nil {
		return s.fail(err)
	}
	if err := s.spake.VerifyDeviceEvidence(r.DeviceEvidence); err != nil {
		return s.fail(err)
	}
	keys, err := s.spake.SystemKeys()
	if err != nil {
		return s.fail(err)
	}
	s.keys = cloneKeys(keys)
	s.wipe()
	s.setState(VehicleDone)
	return nil
}

// SystemKeys returns the established keys once the session is Done.
func (s *VehicleSession) SystemKeys() (*spake2p.SystemKeys, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != VehicleDone {
		return nil, ErrInvalidState
	}
	return s.keys, nil
}

// Abort fails the session and wipes its secrets.
func (s *VehicleSession) Abort(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		return
	}
	s.fail(err)
}

func (s *VehicleSession) expect(state VehicleState) error {
	if s.state != state {
		return ErrInvalidState
	}
	return nil
}

func (s *VehicleSession) setState(to VehicleState) {
	from := s.state
	s.state = to
	s.rec.transition(from.String(), to.String())
	if s.cfg.OnStateChanged != nil {
		s.cfg.OnStateChanged(from, to)
	}
}

func (s *VehicleSession) fail(err error) error {
	s.rec.failure(s.state.String(), err)
	s.wipe()
	s.keys.Wipe()
	s.keys = nil
	s.setState(VehicleFailed)
	return err
}

func (s *VehicleSession) wipe() {
	clear(s.password)
	s.password = nil
	if s.spake != nil {
		s.spake.Wipe()
		s.spake = nil
	}
}
