package instrument

import (
	"fmt"

	"LabBench/internal/convert"
	"LabBench/internal/device"
)

// Pressure reading parameter shared by all gauge channels.
const tpgParamPressure = 740

// TPG366 drives a Pfeiffer TPG366 six channel pressure measurement unit on
// the telegram bus. Channel n answers at bus address base+n.
type TPG366 struct {
	h    *device.Handle
	addr int
}

// NewTPG366 wires a TPG366 driver at the given base bus address.
func NewTPG366(id, port string, baud, addr int, opts device.Options) *TPG366 {
	if baud <= 0 {
		baud = 9600
	}
	if addr <= 0 {
		addr = 1
	}
	t := &TPG366{addr: addr}
	opts.DeviceID = id
	opts.Port = port
	opts.Monitor = t.monitor
	if opts.Dial == nil {
		opts.Dial = device.SerialDial(port, baud, '\r')
	}
	t.h = device.New(opts)
	return t
}

// Handle returns the underlying device handle.
func (t *TPG366) Handle() *device.Handle { return t.h }

// Kind names the driver type.
func (t *TPG366) Kind() string { return "tpg366" }

// Connect attaches the serial transport.
func (t *TPG366) Connect() error { return t.h.Connect() }

// Disconnect stops housekeeping and closes the transport.
func (t *TPG366) Disconnect() error { return t.h.Disconnect() }

// Pressure reads the pressure of one sensor channel in mbar.
func (t *TPG366) Pressure(channel int) (float64, error) {
	return t.pressure(t.h, channel)
}

func (t *TPG366) pressure(x device.Exchanger, channel int) (float64, error) {
	if channel < 1 || channel > 6 {
		return 0, fmt.Errorf("channel must be between 1 and 6, got %d", channel)
	}
	data, err := pfQuery(x, t.addr+channel, tpgParamPressure)
	if err != nil {
		return 0, err
	}
	return convert.ParseExpo(data)
}

// monitor is the housekeeping sequence: all six channel pressures in one
// locked cycle.
func (t *TPG366) monitor(x device.Exchanger) ([]device.Reading, error) {
	readings := make([]device.Reading, 0, 6)
	for ch := 1; ch <= 6; ch++ {
		p, err := t.pressure(x, ch)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		readings = append(readings, device.Reading{
			Name:  fmt.Sprintf("Pressure_CH%d", ch),
			Value: fmt.Sprintf("%.3e", p),
			Unit:  "mbar",
		})
	}
	return readings, nil
}
