package pairing

import (
	"context"
	"fmt"

	"github.com/backkem/dkpair/pkg/crypto/spake2p"
	"github.com/backkem/dkpair/pkg/message"
)

// Flow names used in StepError and executor checkpoints.
const (
	FlowDevice    = "device"
	FlowVehicle   = "vehicle"
	FlowFullCycle = "full-cycle"
)

// Result is the outcome of a completed flow.
type Result struct {
	SessionID string
	VIN       string
	Message   string
	Keys      *spake2p.SystemKeys
}

// deliver sends payload to the peer as a signal of the given kind.
func deliver(ctx context.Context, relay Relay, sessionID, vin string, kind message.Kind, payload string) error {
	_, err := relay.Deliver(ctx, Signal{
		SessionID: sessionID,
		VIN:       vin,
		Kind:      kind,
		Payload:   payload,
	})
	if err != nil {
		return &RelayError{SessionID: sessionID, Kind: kind, Err: err}
	}
	return nil
}

func vehicleSuccess(vin string) string {
	return fmt.Sprintf("Full Process for vehicle %s executed successfully!", vin)
}

func deviceSuccess(vin string) string {
	return fmt.Sprintf("Pairing with vehicle %s completed on device", vin)
}

func fullCycleSuccess(vin string) string {
	return fmt.Sprintf("SPAKE2+ for vehicle %s executed successfully!", vin)
}
