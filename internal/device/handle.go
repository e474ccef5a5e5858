package device

import (
	"errors"
	"sync"
	"time"

	"LabBench/internal/util"
)

// Mode selects who owns the housekeeping worker. It is fixed at construction;
// there is no supported transition afterwards.
type Mode int

const (
	// ModeInternal lets the handle spawn and join its own worker goroutine.
	ModeInternal Mode = iota
	// ModeExternal leaves the worker to the caller, who drives
	// DoHousekeepingCycle and polls ShouldContinueHousekeeping itself.
	ModeExternal
)

func (m Mode) String() string {
	if m == ModeExternal {
		return "external"
	}
	return "internal"
}

// Default housekeeping interval and per-exchange receive timeout.
const (
	DefaultInterval = 30 * time.Second
	DefaultTimeout  = time.Second
)

// Options configures a Handle.
type Options struct {
	DeviceID  string
	Port      string        // transport target, recorded in monitor records
	Mode      Mode          // worker ownership
	BusLock   sync.Locker   // optional caller-supplied communication lock, shared across handles on one physical bus
	Dial      DialFunc      // attaches the transport on Connect
	Timeout   time.Duration // receive timeout per exchange
	Interval  time.Duration // default housekeeping interval
	LogToFile bool          // emit records to the sink during cycles
	Monitor   MonitorFunc   // instrument-specific status sequence
	Sink      Sink          // logging collaborator, may be nil
}

// Handle owns at most one live transport and serializes every exchange on it
// through the communication lock. Housekeeping state transitions use a
// separate coordination mutex so that enabling or disabling the monitor never
// waits on an in-flight exchange.
type Handle struct {
	opts Options
	comm sync.Locker // communication lock; caller-supplied when multiplexing a bus

	stateMu sync.Mutex // guards tr attachment only
	tr      Transport

	hkMu     sync.Mutex // housekeeping coordination lock
	hkOn     bool
	interval time.Duration
	logFile  bool
	worker   *worker // set only in internal mode while enabled
}

// New constructs a handle. The ownership mode and any caller-supplied bus
// lock are fixed for the lifetime of the handle; the mode is logged for
// diagnostics only.
func New(opts Options) *Handle {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}

	var comm sync.Locker = &sync.Mutex{}
	if opts.BusLock != nil {
		comm = opts.BusLock
	}

	h := &Handle{
		opts:     opts,
		comm:     comm,
		interval: opts.Interval,
		logFile:  opts.LogToFile,
	}
	util.Info("device %s: handle created (mode=%s, shared_lock=%v)",
		opts.DeviceID, opts.Mode, opts.BusLock != nil)
	return h
}

// DeviceID returns the identity label of the handle.
func (h *Handle) DeviceID() string { return h.opts.DeviceID }

// Mode returns the worker ownership mode chosen at construction.
func (h *Handle) Mode() Mode { return h.opts.Mode }

// Connect attaches the transport. A handle owns at most one live transport at
// a time.
func (h *Handle) Connect() error {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if h.tr != nil {
		return &StateError{Device: h.opts.DeviceID, Reason: "already connected"}
	}
	if h.opts.Dial == nil {
		return &ConnectError{Device: h.opts.DeviceID, Err: errors.New("no dialer configured")}
	}

	tr, err := h.opts.Dial()
	if err != nil {
		return &ConnectError{Device: h.opts.DeviceID, Err: err}
	}
	h.tr = tr
	util.Info("device %s: connected on %s", h.opts.DeviceID, h.opts.Port)
	return nil
}

// Disconnect force-stops housekeeping, then detaches and closes the
// transport. Stopping first guarantees no monitor cycle touches the port
// while it is torn down.
func (h *Handle) Disconnect() error {
	h.StopHousekeeping()

	// Wait for any in-flight foreground exchange before detaching.
	h.comm.Lock()
	h.stateMu.Lock()
	tr := h.tr
	h.tr = nil
	h.stateMu.Unlock()
	h.comm.Unlock()

	// A StartHousekeeping racing the teardown can enable between the stop
	// above and the detach. The transport is gone now, so any worker it
	// spawned only sees state errors; stop it again.
	h.StopHousekeeping()

	if tr == nil {
		return &StateError{Device: h.opts.DeviceID, Reason: "not connected"}
	}
	if err := tr.Close(); err != nil {
		return &CommError{Device: h.opts.DeviceID, Op: "close", Err: err}
	}
	util.Info("device %s: disconnected", h.opts.DeviceID)
	return nil
}

// IsConnected reports whether a transport is attached. It does not touch the
// communication lock and never blocks on an in-flight exchange.
func (h *Handle) IsConnected() bool {
	return h.transport() != nil
}

func (h *Handle) transport() Transport {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	return h.tr
}

// Exchange performs one request/response under the communication lock. It is
// the primitive facade read/set operations are built on; monitor sequences
// already hold the lock and must use the Exchanger passed to them instead.
func (h *Handle) Exchange(req []byte) ([]byte, error) {
	h.comm.Lock()
	defer h.comm.Unlock()
	return h.exchangeLocked(req)
}

// Receive reads one spontaneous response under the communication lock, for
// instruments that emit telemetry without being asked.
func (h *Handle) Receive() ([]byte, error) {
	h.comm.Lock()
	defer h.comm.Unlock()
	return h.receiveLocked()
}

func (h *Handle) exchangeLocked(req []byte) ([]byte, error) {
	tr := h.transport()
	if tr == nil {
		return nil, &StateError{Device: h.opts.DeviceID, Reason: "not connected, call Connect first"}
	}
	if err := tr.Send(req); err != nil {
		return nil, &CommError{Device: h.opts.DeviceID, Op: "send", Err: err}
	}
	resp, err := tr.Receive(h.opts.Timeout)
	if err != nil {
		return nil, &CommError{Device: h.opts.DeviceID, Op: "receive", Err: err}
	}
	return resp, nil
}

func (h *Handle) receiveLocked() ([]byte, error) {
	tr := h.transport()
	if tr == nil {
		return nil, &StateError{Device: h.opts.DeviceID, Reason: "not connected, call Connect first"}
	}
	resp, err := tr.Receive(h.opts.Timeout)
	if err != nil {
		return nil, &CommError{Device: h.opts.DeviceID, Op: "receive", Err: err}
	}
	return resp, nil
}

// Status is a diagnostic snapshot of the handle.
type Status struct {
	DeviceID  string        `json:"device_id"`
	Port      string        `json:"port"`
	Mode      string        `json:"mode"`
	Connected bool          `json:"connected"`
	HkEnabled bool          `json:"hk_enabled"`
	Interval  time.Duration `json:"hk_interval"`
}

// Status reports connection and housekeeping state for dashboards and logs.
func (h *Handle) Status() Status {
	h.hkMu.Lock()
	on, iv := h.hkOn, h.interval
	h.hkMu.Unlock()

	return Status{
		DeviceID:  h.opts.DeviceID,
		Port:      h.opts.Port,
		Mode:      h.opts.Mode.String(),
		Connected: h.IsConnected(),
		HkEnabled: on,
		Interval:  iv,
	}
}
