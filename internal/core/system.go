// Package core contains the bench runtime: it loads the YAML configuration,
// constructs the instrument drivers with their ownership mode and sinks, and
// manages their lifecycle. Instruments on a shared serial bus are built in
// external mode around one shared communication lock and driven by a per-bus
// loop owned by the system.
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"LabBench/internal/app"
	"LabBench/internal/device"
	"LabBench/internal/hklog"
	"LabBench/internal/instrument"
	"LabBench/internal/model"
	"LabBench/internal/util"
)

// System manages the lifecycle of all configured instruments and the live
// monitor feed.
type System struct {
	cfg         *model.Config
	Instruments []instrument.Instrument
	Feed        *app.Monitor // nil when the live feed is disabled

	buses []*busGroup
	files []*hklog.FileSink

	started   bool
	startLock sync.Mutex
}

// busGroup drives the external-mode instruments that multiplex one physical
// bus through a single shared communication lock.
type busGroup struct {
	name     string
	lock     *sync.Mutex
	handles  []*device.Handle
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// NewSystem reads the YAML configuration at cfgPath and constructs the
// instrument drivers accordingly.
func NewSystem(cfgPath string) (*System, error) {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	var cfg model.Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}

	s := &System{cfg: &cfg}

	if cfg.Global.MonitorAddr != "" {
		if err := os.MkdirAll("tmp", 0o755); err != nil {
			return nil, fmt.Errorf("create tmp/: %w", err)
		}
		feed, err := app.NewMonitor(filepath.Join("tmp", "monitor.db"))
		if err != nil {
			return nil, err
		}
		s.Feed = feed
	}

	busLocks := map[string]*busGroup{}
	for _, dc := range cfg.Devices {
		var group *busGroup
		if dc.Bus != "" {
			group = busLocks[dc.Bus]
			if group == nil {
				group = &busGroup{
					name: dc.Bus,
					lock: &sync.Mutex{},
					stop: make(chan struct{}),
					done: make(chan struct{}),
				}
				busLocks[dc.Bus] = group
				s.buses = append(s.buses, group)
			}
		}

		inst, err := s.buildInstrument(dc, group)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", dc.ID, err)
		}
		s.Instruments = append(s.Instruments, inst)

		if group != nil {
			h := inst.Handle()
			group.handles = append(group.handles, h)
			iv := dc.Interval(cfg.Global)
			if iv <= 0 {
				iv = device.DefaultInterval
			}
			if group.interval == 0 || iv < group.interval {
				group.interval = iv
			}
		}
	}
	return s, nil
}

// buildInstrument constructs one driver from its config entry. Devices in a
// bus group run in external mode with the group's shared lock; everything
// else owns an internal worker.
func (s *System) buildInstrument(dc model.DeviceConfig, group *busGroup) (instrument.Instrument, error) {
	opts := device.Options{
		Interval:  dc.Interval(s.cfg.Global),
		LogToFile: dc.LogToFile,
	}
	if group != nil {
		opts.Mode = device.ModeExternal
		opts.BusLock = group.lock
	}

	sink, err := s.buildSink(dc)
	if err != nil {
		return nil, err
	}
	opts.Sink = sink

	switch dc.Kind {
	case "chiller":
		return instrument.NewChiller(dc.ID, dc.Port, dc.Baud, opts), nil
	case "syringe_pump":
		return instrument.NewSyringePump(dc.ID, dc.Port, dc.Baud, dc.Channel, dc.Mode, opts), nil
	case "arduino":
		return instrument.NewArduino(dc.ID, dc.Port, dc.Baud, dc.Parser, opts), nil
	case "tpg366":
		return instrument.NewTPG366(dc.ID, dc.Port, dc.Baud, dc.Address, opts), nil
	case "hiscroll12":
		return instrument.NewHiScroll12(dc.ID, dc.Port, dc.Baud, dc.Address, opts), nil
	case "hipace":
		return instrument.NewHiPace(dc.ID, dc.Port, dc.Baud, dc.Address, dc.PumpAddr, dc.GaugeAddr, opts), nil
	}
	return nil, fmt.Errorf("unknown instrument kind %q", dc.Kind)
}

// buildSink assembles the logging collaborators for one device: the file
// sink when requested, the live feed when enabled, the console otherwise.
func (s *System) buildSink(dc model.DeviceConfig) (device.Sink, error) {
	var sinks hklog.MultiSink
	if dc.LogToFile {
		fs, err := hklog.NewFileSink(s.cfg.Global.LogDir, dc.ID)
		if err != nil {
			return nil, err
		}
		s.files = append(s.files, fs)
		sinks = append(sinks, fs)
	}
	if s.Feed != nil {
		sinks = append(sinks, s.Feed)
	}
	if len(sinks) == 0 {
		sinks = append(sinks, hklog.ConsoleSink{})
	}
	return sinks, nil
}

// StartAll connects every instrument, enables housekeeping and starts the
// bus loops and the live feed.
func (s *System) StartAll() error {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if s.started {
		return nil
	}

	for i, inst := range s.Instruments {
		dc := s.cfg.Devices[i]
		h := inst.Handle()
		if err := h.Connect(); err != nil {
			s.rollback(i)
			return err
		}
		if err := h.StartHousekeeping(dc.Interval(s.cfg.Global), dc.LogToFile); err != nil {
			s.rollback(i + 1)
			return err
		}
	}

	for _, g := range s.buses {
		go g.run()
		util.Info("[system] bus %s loop started (%d devices, interval %s)",
			g.name, len(g.handles), g.interval)
	}

	if s.Feed != nil {
		go func() {
			if err := s.Feed.Start(s.cfg.Global.MonitorAddr); err != nil {
				util.Error("[system] live feed failed: %v", err)
			}
		}()
	}

	s.started = true
	return nil
}

// rollback stops and disconnects the first n instruments after a partial
// start, so a failed StartAll leaves no worker or open transport behind.
func (s *System) rollback(n int) {
	for _, inst := range s.Instruments[:n] {
		h := inst.Handle()
		h.StopHousekeeping()
		if err := h.Disconnect(); err != nil {
			util.Warn("[system] rollback disconnect %s: %v", h.DeviceID(), err)
		}
	}
}

// StopAll stops the bus loops, disables housekeeping, disconnects every
// instrument and closes the sinks, in reverse start order.
func (s *System) StopAll() {
	s.startLock.Lock()
	defer s.startLock.Unlock()
	if !s.started {
		return
	}

	for _, g := range s.buses {
		close(g.stop)
		<-g.done
		util.Info("[system] bus %s loop stopped", g.name)
	}

	for _, inst := range s.Instruments {
		h := inst.Handle()
		h.StopHousekeeping()
		if err := h.Disconnect(); err != nil {
			util.Warn("[system] disconnect %s: %v", h.DeviceID(), err)
		}
	}

	for _, f := range s.files {
		if err := f.Close(); err != nil {
			util.Warn("[system] close log file: %v", err)
		}
	}

	if s.Feed != nil {
		s.Feed.Stop()
	}
	s.started = false
}

// run is the caller-owned loop for one shared bus: it sleeps, re-checks each
// handle's flag and performs one cycle per still-enabled device. Cycles on a
// shared bus are naturally serialized by the shared lock.
func (g *busGroup) run() {
	defer close(g.done)
	for {
		select {
		case <-g.stop:
			return
		case <-time.After(g.interval):
		}

		for _, h := range g.handles {
			if !h.ShouldContinueHousekeeping() {
				continue
			}
			if err := h.DoHousekeepingCycle(); err != nil {
				util.Error("[system] bus %s: cycle for %s failed: %v", g.name, h.DeviceID(), err)
			}
		}
	}
}
