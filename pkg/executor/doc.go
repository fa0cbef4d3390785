// Package executor runs pairing flows as independent sessions.
//
// Each session owns a FIFO mailbox. Signals for the session are pushed
// into the mailbox and consumed by the flow one at a time, so a signal
// that arrives while the flow is busy is never lost. Runs are bounded by
// a timeout, which the flows treat like cancellation.
//
// Progress is persisted as Checkpoints in a Storage. Checkpoints carry the
// flow state and outcome only, never key material.
//
// Example:
//
//	exec, _ := executor.New(executor.Config{})
//	defer exec.Close()
//
//	exec.Start(ctx, sessionID, executor.FlowDevice, func(inbox pairing.Inbox) (executor.Flow, error) {
//	    return pairing.NewDeviceFlow(sessionID, vin, inbox, relay, cfg)
//	})
//	exec.Signal(sessionID, sig)
//	outcome, err := exec.Wait(ctx, sessionID)
package executor
