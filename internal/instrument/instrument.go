// Package instrument contains the concrete bench drivers: chiller, syringe
// pump, Arduino locker readers and the Pfeiffer vacuum devices. Each driver
// wraps a device.Handle, supplies its housekeeping monitor sequence and
// exposes typed read/set operations over the shared exchange primitive.
package instrument

import "LabBench/internal/device"

// Instrument is the common surface the bench orchestrator drives.
type Instrument interface {
	// Handle returns the underlying device handle.
	Handle() *device.Handle

	// Kind names the driver type, matching the config vocabulary.
	Kind() string
}
