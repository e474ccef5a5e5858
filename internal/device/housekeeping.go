package device

import (
	"time"

	"LabBench/internal/util"
)

// worker is the internally-owned housekeeping goroutine. stop is closed to
// interrupt its sleep; done is closed by the worker on exit so the stopper
// can join it.
type worker struct {
	stop chan struct{}
	done chan struct{}
}

// StartHousekeeping enables the monitor. In internal mode it spawns the owned
// worker, which sleeps up to the interval and then runs one cycle until
// disabled. In external mode it only flips the flag and records the interval;
// the caller's own loop is the only thing that will ever run a cycle.
//
// Calling it again while enabled is idempotent: the interval is updated, no
// second worker is spawned. The call never blocks waiting for a cycle.
func (h *Handle) StartHousekeeping(interval time.Duration, logToFile bool) error {
	h.hkMu.Lock()
	defer h.hkMu.Unlock()

	// Checked under the coordination lock so a concurrent Disconnect cannot
	// detach the transport between the check and the spawn.
	if h.transport() == nil {
		return &StateError{Device: h.opts.DeviceID, Reason: "cannot start housekeeping: not connected"}
	}

	if interval > 0 {
		h.interval = interval
	}
	h.logFile = logToFile

	if h.hkOn {
		util.Info("device %s: housekeeping already enabled, interval now %s",
			h.opts.DeviceID, h.interval)
		return nil
	}
	h.hkOn = true

	if h.opts.Mode == ModeExternal {
		util.Info("device %s: housekeeping enabled (external mode, interval %s)",
			h.opts.DeviceID, h.interval)
		return nil
	}

	w := &worker{stop: make(chan struct{}), done: make(chan struct{})}
	h.worker = w
	go h.run(w)
	util.Info("device %s: housekeeping started (internal mode, interval %s)",
		h.opts.DeviceID, h.interval)
	return nil
}

// StopHousekeeping disables the monitor. In internal mode it interrupts the
// worker's sleep and waits until the worker has fully exited, so no monitor
// cycle is in flight once it returns. In external mode only the flag changes;
// the caller observes it through ShouldContinueHousekeeping and exits its own
// loop, since the handle cannot join a worker it does not own.
func (h *Handle) StopHousekeeping() {
	h.hkMu.Lock()
	if !h.hkOn {
		h.hkMu.Unlock()
		return
	}
	h.hkOn = false
	w := h.worker
	h.worker = nil
	if w != nil {
		close(w.stop)
	}
	h.hkMu.Unlock()

	// Join outside the coordination lock: a worker mid-cycle runs to
	// completion without contending for it.
	if w != nil {
		<-w.done
		util.Info("device %s: housekeeping stopped (internal mode)", h.opts.DeviceID)
		return
	}
	util.Info("device %s: housekeeping stopped (%s mode)", h.opts.DeviceID, h.opts.Mode)
}

// ShouldContinueHousekeeping reports whether monitoring is still wanted.
// External-mode loops poll it at the top of each iteration and again after
// sleeping.
func (h *Handle) ShouldContinueHousekeeping() bool {
	h.hkMu.Lock()
	defer h.hkMu.Unlock()
	return h.hkOn
}

// Interval returns the currently configured housekeeping interval.
func (h *Handle) Interval() time.Duration {
	h.hkMu.Lock()
	defer h.hkMu.Unlock()
	return h.interval
}

// run is the internal-mode worker loop. The interval is re-read every
// iteration so StartHousekeeping updates take effect on the next sleep.
func (h *Handle) run(w *worker) {
	defer close(w.done)
	util.Info("device %s: housekeeping worker started", h.opts.DeviceID)

	for {
		h.hkMu.Lock()
		d := h.interval
		h.hkMu.Unlock()

		select {
		case <-w.stop:
			util.Info("device %s: housekeeping worker exiting", h.opts.DeviceID)
			return
		case <-time.After(d):
		}

		// The timer and a concurrent stop can both be ready; disable wins.
		select {
		case <-w.stop:
			util.Info("device %s: housekeeping worker exiting", h.opts.DeviceID)
			return
		default:
		}

		if err := h.DoHousekeepingCycle(); err != nil {
			// A failed cycle does not terminate the worker; the next
			// scheduled cycle still runs.
			util.Error("device %s: housekeeping cycle failed: %v", h.opts.DeviceID, err)
		}
	}
}

// DoHousekeepingCycle performs exactly one monitor cycle regardless of the
// enabled flag: take the communication lock, run the instrument's status
// sequence, release the lock, emit the record. Cadence is the caller's
// concern in external mode; this call never sleeps. The lock is released on
// every exit path.
func (h *Handle) DoHousekeepingCycle() error {
	if h.opts.Monitor == nil {
		return &StateError{Device: h.opts.DeviceID, Reason: "no monitor sequence configured"}
	}

	h.hkMu.Lock()
	emit := h.logFile
	h.hkMu.Unlock()

	readings, err := h.monitorExchange()
	if err != nil {
		return err
	}

	rec := Record{
		DeviceID: h.opts.DeviceID,
		Port:     h.opts.Port,
		Time:     time.Now(),
		Readings: readings,
	}
	if emit && h.opts.Sink != nil {
		if err := h.opts.Sink.Emit(rec); err != nil {
			// Failure to log is non-fatal to the cycle.
			util.Warn("device %s: sink emit failed: %v", h.opts.DeviceID, err)
		}
	}
	return nil
}

// monitorExchange holds the communication lock for the whole status sequence
// so facade calls cannot interleave bytes with the cycle.
func (h *Handle) monitorExchange() ([]Reading, error) {
	h.comm.Lock()
	defer h.comm.Unlock()
	return h.opts.Monitor(&session{h: h})
}

// session exposes exchange primitives to a monitor sequence while the
// communication lock is already held.
type session struct{ h *Handle }

func (s *session) Exchange(req []byte) ([]byte, error) { return s.h.exchangeLocked(req) }
func (s *session) Receive() ([]byte, error)            { return s.h.receiveLocked() }
