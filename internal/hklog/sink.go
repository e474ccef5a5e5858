// Package hklog provides the logging collaborators that consume housekeeping
// records: a per-device file sink in the bench log line format, a console
// sink and a fan-out.
package hklog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"LabBench/internal/device"
	"LabBench/internal/util"
)

// FileSink appends housekeeping lines to a per-device log file:
//
//	2026-08-29T10:00:00Z  chiller_01  /dev/ttyUSB0  Bath_Temp  21.53//degC
type FileSink struct {
	mu sync.Mutex
	f  *os.File
}

// NewFileSink creates the log directory if needed and opens a timestamped
// log file for the device.
func NewFileSink(dir, deviceID string) (*FileSink, error) {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}

	name := fmt.Sprintf("%s_%s.log", deviceID, time.Now().Format("20060102_150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", name, err)
	}
	return &FileSink{f: f}, nil
}

// Emit writes one line per reading.
func (s *FileSink) Emit(rec device.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := rec.Time.Format(time.RFC3339)
	var b strings.Builder
	for _, r := range rec.Readings {
		fmt.Fprintf(&b, "%s  %s  %s  %s  %s//%s\n", ts, rec.DeviceID, rec.Port, r.Name, r.Value, r.Unit)
	}
	_, err := s.f.WriteString(b.String())
	return err
}

// Close closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.f.Close()
}

// ConsoleSink logs records through the util logger.
type ConsoleSink struct{}

// Emit logs one line per reading.
func (ConsoleSink) Emit(rec device.Record) error {
	for _, r := range rec.Readings {
		util.Info("hk %s %s %s %s//%s", rec.DeviceID, rec.Port, r.Name, r.Value, r.Unit)
	}
	return nil
}

// MultiSink fans a record out to several sinks. Every sink is attempted; the
// first error is returned.
type MultiSink []device.Sink

// Emit delivers the record to each sink in order.
func (m MultiSink) Emit(rec device.Record) error {
	var first error
	for _, s := range m {
		if err := s.Emit(rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}
