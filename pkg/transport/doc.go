// Package transport carries pairing signals between a vehicle process and
// a device process over a byte stream.
//
// Each signal travels as a CBOR envelope behind a 4-byte length prefix and
// is answered by an acknowledgement envelope carrying the receiver's
// acknowledgement text or error. A Peer wraps one net.Conn and implements
// pairing.Relay for outbound signals while dispatching inbound signals to
// its handler.
//
// TCP provides a listener that creates a Peer per accepted connection;
// Dial connects to it. Pipe provides an in-memory connection pair for
// tests, with optional network condition simulation.
package transport
