// Package device implements the shared core of every bench instrument driver:
// a handle that owns one communication transport and arbitrates it between
// synchronous foreground exchanges and a recurring background housekeeping
// monitor, under either internal or external worker ownership.
package device

import "time"

// Transport is the duplex byte channel to one physical instrument, such as a
// serial port, a virtual pty, or a recording double in tests. All operations
// are fallible; the handle never assumes success.
type Transport interface {
	// Open attaches the underlying channel.
	Open() error

	// Send writes one complete request to the instrument.
	Send(p []byte) error

	// Receive reads one complete response. If timeout > 0, it must return
	// after timeout even if no terminated response arrived.
	Receive(timeout time.Duration) ([]byte, error)

	// Close closes the channel and releases underlying resources.
	Close() error
}

// DialFunc constructs and opens the Transport a handle attaches on Connect.
type DialFunc func() (Transport, error)

// Exchanger is the request/response surface drivers build their read/set
// operations on. Handle implements it with the communication lock taken per
// call; monitor sequences receive an implementation that runs with the lock
// already held for the whole cycle.
type Exchanger interface {
	// Exchange sends one request and reads one response.
	Exchange(req []byte) ([]byte, error)

	// Receive reads one response without sending anything first, for
	// instruments that emit telemetry lines on their own.
	Receive() ([]byte, error)
}
