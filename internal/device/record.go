package device

import "time"

// Reading is one decoded measurement inside a monitor record.
type Reading struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// Record is the immutable snapshot produced by one monitor cycle. It is
// handed to the sink and not retained by the handle; history is a consumer
// concern.
type Record struct {
	DeviceID string    `json:"device_id"`
	Port     string    `json:"port"`
	Time     time.Time `json:"time"`
	Readings []Reading `json:"readings"`
}

// Sink consumes monitor records. A failing sink never aborts a cycle.
type Sink interface {
	Emit(rec Record) error
}

// MonitorFunc runs one instrument-specific status sequence over x and returns
// the readings for the record. The communication lock is held for the whole
// call, so the sequence must not use the handle's own facade operations.
type MonitorFunc func(x Exchanger) ([]Reading, error)
