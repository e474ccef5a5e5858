package instrument

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"LabBench/internal/device"
)

// Locker line formats, e.g.
// "Temperature: 23.44 °C | Fan_PWR: 60 % | Waterflow: 15.2 L/min".
var (
	pumpLockerRe  = regexp.MustCompile(`Temperature:\s*([\d.]+)\s*°C\s*\|\s*Fan_PWR:\s*(\d+)\s*%\s*\|\s*Waterflow:\s*([\d.]+)\s*L/min`)
	trafoLockerRe = regexp.MustCompile(`Temperature:\s*([\d.]+)\s*°C\s*\|\s*Fan_PWR:\s*(\d+)\s*%`)
)

// LockerData is one parsed telemetry line from a locker Arduino. Waterflow
// is only present for the pump locker.
type LockerData struct {
	Temperature float64
	FanPower    int
	Waterflow   float64
	Raw         string
}

// Arduino reads newline-terminated telemetry from the locker monitoring
// Arduinos. The boards transmit on their own; reading a line is the whole
// exchange.
type Arduino struct {
	h      *device.Handle
	parser string
}

// NewArduino wires an Arduino reader. parser selects the line format:
// "pump_locker" (temperature, fan, waterflow) or "trafo_locker"
// (temperature, fan).
func NewArduino(id, port string, baud int, parser string, opts device.Options) *Arduino {
	if baud <= 0 {
		baud = 9600
	}
	if parser == "" {
		parser = "pump_locker"
	}
	a := &Arduino{parser: parser}
	opts.DeviceID = id
	opts.Port = port
	opts.Monitor = a.monitor
	if opts.Dial == nil {
		opts.Dial = device.SerialDial(port, baud, '\n')
	}
	a.h = device.New(opts)
	return a
}

// Handle returns the underlying device handle.
func (a *Arduino) Handle() *device.Handle { return a.h }

// Kind names the driver type.
func (a *Arduino) Kind() string { return "arduino" }

// Connect attaches the serial transport.
func (a *Arduino) Connect() error { return a.h.Connect() }

// Disconnect stops housekeeping and closes the transport.
func (a *Arduino) Disconnect() error { return a.h.Disconnect() }

// Readout reads and parses one telemetry line.
func (a *Arduino) Readout() (LockerData, error) {
	raw, err := a.h.Receive()
	if err != nil {
		return LockerData{}, err
	}
	return a.parse(strings.TrimSpace(string(raw)))
}

func (a *Arduino) parse(line string) (LockerData, error) {
	switch a.parser {
	case "trafo_locker":
		m := trafoLockerRe.FindStringSubmatch(line)
		if m == nil {
			return LockerData{}, fmt.Errorf("unparseable trafo locker line %q", line)
		}
		temp, _ := strconv.ParseFloat(m[1], 64)
		fan, _ := strconv.Atoi(m[2])
		return LockerData{Temperature: temp, FanPower: fan, Raw: line}, nil
	default:
		m := pumpLockerRe.FindStringSubmatch(line)
		if m == nil {
			return LockerData{}, fmt.Errorf("unparseable pump locker line %q", line)
		}
		temp, _ := strconv.ParseFloat(m[1], 64)
		fan, _ := strconv.Atoi(m[2])
		flow, _ := strconv.ParseFloat(m[3], 64)
		return LockerData{Temperature: temp, FanPower: fan, Waterflow: flow, Raw: line}, nil
	}
}

// monitor is the housekeeping sequence: read one telemetry line and record
// its fields.
func (a *Arduino) monitor(x device.Exchanger) ([]device.Reading, error) {
	raw, err := x.Receive()
	if err != nil {
		return nil, err
	}
	d, err := a.parse(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, err
	}

	readings := []device.Reading{
		{Name: "Temperature", Value: fmt.Sprintf("%.2f", d.Temperature), Unit: "degC"},
		{Name: "Fan_PWR", Value: strconv.Itoa(d.FanPower), Unit: "%"},
	}
	if a.parser != "trafo_locker" {
		readings = append(readings, device.Reading{
			Name: "Waterflow", Value: fmt.Sprintf("%.1f", d.Waterflow), Unit: "L/min",
		})
	}
	return readings, nil
}
