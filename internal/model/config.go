// Package model defines the shared bench configuration structures used to
// initialize the instrument drivers.
package model

import "time"

// Config represents the root structure loaded from configs/bench.yml.
// It contains global settings and the device inventory.
type Config struct {
	Global  GlobalConfig   `yaml:"global"`
	Devices []DeviceConfig `yaml:"devices"`
}

// GlobalConfig defines shared defaults across the bench.
type GlobalConfig struct {
	LogDir      string  `yaml:"log_dir"`      // housekeeping log directory (default "logs")
	MonitorAddr string  `yaml:"monitor_addr"` // live monitor address (e.g. ":9100"), empty disables
	IntervalS   float64 `yaml:"interval_s"`   // default housekeeping interval in seconds
}

// DeviceConfig defines one bench instrument.
type DeviceConfig struct {
	ID        string  `yaml:"id"`
	Kind      string  `yaml:"kind"` // chiller, syringe_pump, arduino, tpg366, hiscroll12, hipace
	Port      string  `yaml:"port"`
	Baud      int     `yaml:"baud"`
	Address   int     `yaml:"address"`       // telegram bus address (pfeiffer devices)
	PumpAddr  int     `yaml:"pump_address"`  // TC400 drive address (hipace)
	GaugeAddr int     `yaml:"gauge_address"` // gauge head address, 0 when absent (hipace)
	Channel   int     `yaml:"channel"`       // pump axis (syringe pump)
	Mode      int     `yaml:"mode"`          // pump operation mode (syringe pump)
	Parser    string  `yaml:"parser"`        // locker line format (arduino)
	IntervalS float64 `yaml:"interval_s"`    // housekeeping interval override
	LogToFile bool    `yaml:"log_to_file"`   // emit records to the file sink
	Bus       string  `yaml:"bus"`           // devices naming the same bus share one comm lock
}

// Interval returns the housekeeping interval for the device, falling back to
// the global default.
func (d DeviceConfig) Interval(global GlobalConfig) time.Duration {
	s := d.IntervalS
	if s <= 0 {
		s = global.IntervalS
	}
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
