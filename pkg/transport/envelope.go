package transport

import (
	"github.com/backkem/dkpair/pkg/message"
	"github.com/backkem/dkpair/pkg/pairing"
	"github.com/fxamacker/cbor/v2"
)

type envelopeType uint8

const (
	envelopeSignal envelopeType = 1
	envelopeAck    envelopeType = 2
)

// envelope is the wire form of a signal or its acknowledgement.
type envelope struct {
	Type      envelopeType `cbor:"1,keyasint"`
	ID        uint64       `cbor:"2,keyasint"`
	SessionID string       `cbor:"3,keyasint,omitempty"`
	VIN       string       `cbor:"4,keyasint,omitempty"`
	Kind      uint8        `cbor:"5,keyasint,omitempty"`
	Payload   string       `cbor:"6,keyasint,omitempty"`
	Ack       string       `cbor:"7,keyasint,omitempty"`
	Error     string       `cbor:"8,keyasint,omitempty"`
}

func signalEnvelope(id uint64, sig pairing.Signal) envelope {
	return envelope{
		Type:      envelopeSignal,
		ID:        id,
		SessionID: sig.SessionID,
		VIN:       sig.VIN,
		Kind:      uint8(sig.Kind),
		Payload:   sig.Payload,
	}
}

func (e *envelope) signal() pairing.Signal {
	return pairing.Signal{
		SessionID: e.SessionID,
		VIN:       e.VIN,
		Kind:      message.Kind(e.Kind),
		Payload:   e.Payload,
	}
}

var (
	envelopeEncMode cbor.EncMode
	envelopeDecMode cbor.DecMode
)

func init() {
	var err error
	envelopeEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	envelopeDecMode, err = cbor.DecOptions{MaxMapPairs: 16}.DecMode()
	if err != nil {
		panic(err)
	}
}

func encodeEnvelope(e envelope) ([]byte, error) {
	return envelopeEncMode.Marshal(e)
}

func decodeEnvelope(data []byte) (envelope, error) {
	var e envelope
	if err := envelopeDecMode.Unmarshal(data, &e); err != nil {
		return envelope{}, err
	}
	if e.Type != envelopeSignal && e.Type != envelopeAck {
		return envelope{}, ErrInvalidEnvelope
	}
	return e, nil
}
