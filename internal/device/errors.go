package device

import "fmt"

// ConnectError reports that the transport could not be opened or attached.
type ConnectError struct {
	Device string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("device %s: connect failed: %v", e.Device, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// CommError reports a failed or timed-out exchange on an otherwise open
// transport. Facade operations surface it to the caller instead of retrying;
// retry policy belongs to the layer above.
type CommError struct {
	Device string
	Op     string
	Err    error
}

func (e *CommError) Error() string {
	return fmt.Sprintf("device %s: %s failed: %v", e.Device, e.Op, e.Err)
}

func (e *CommError) Unwrap() error { return e.Err }

// StateError reports an operation attempted in an invalid lifecycle state,
// such as an exchange before Connect.
type StateError struct {
	Device string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("device %s: %s", e.Device, e.Reason)
}
