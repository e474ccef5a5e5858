package instrument

import (
	"fmt"
	"strconv"
	"strings"

	"LabBench/internal/device"
)

// Chiller drives a recirculating chiller speaking a line protocol: one
// command per exchange, carriage-return terminated, single line replies.
type Chiller struct {
	h *device.Handle
}

// NewChiller wires a chiller driver. opts carries the ownership mode, bus
// lock, sink and interval; the serial dialer is filled in unless the caller
// injected its own transport (tests do).
func NewChiller(id, port string, baud int, opts device.Options) *Chiller {
	if baud <= 0 {
		baud = 9600
	}
	c := &Chiller{}
	opts.DeviceID = id
	opts.Port = port
	opts.Monitor = c.monitor
	if opts.Dial == nil {
		opts.Dial = device.SerialDial(port, baud, '\r')
	}
	c.h = device.New(opts)
	return c
}

// Handle returns the underlying device handle.
func (c *Chiller) Handle() *device.Handle { return c.h }

// Kind names the driver type.
func (c *Chiller) Kind() string { return "chiller" }

// Connect attaches the serial transport.
func (c *Chiller) Connect() error { return c.h.Connect() }

// Disconnect stops housekeeping and closes the transport.
func (c *Chiller) Disconnect() error { return c.h.Disconnect() }

func (c *Chiller) command(x device.Exchanger, cmd string) (string, error) {
	resp, err := x.Exchange([]byte(cmd + "\r"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(resp)), nil
}

func (c *Chiller) readFloat(x device.Exchanger, cmd string) (float64, error) {
	s, err := c.command(x, cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("chiller answered %q to %q: %w", s, cmd, err)
	}
	return v, nil
}

func (c *Chiller) expectOK(x device.Exchanger, cmd string) error {
	s, err := c.command(x, cmd)
	if err != nil {
		return err
	}
	if s != "OK" {
		return fmt.Errorf("chiller rejected %q: %s", cmd, s)
	}
	return nil
}

// BathTemperature reads the current bath temperature in degC.
func (c *Chiller) BathTemperature() (float64, error) {
	return c.readFloat(c.h, "GET TEMP")
}

// TargetTemperature reads the configured setpoint in degC.
func (c *Chiller) TargetTemperature() (float64, error) {
	return c.readFloat(c.h, "GET SP")
}

// SetTargetTemperature writes the setpoint in degC.
func (c *Chiller) SetTargetTemperature(v float64) error {
	return c.expectOK(c.h, fmt.Sprintf("SET SP %.2f", v))
}

// SetCooling switches the compressor on or off.
func (c *Chiller) SetCooling(on bool) error {
	if on {
		return c.expectOK(c.h, "COOL ON")
	}
	return c.expectOK(c.h, "COOL OFF")
}

// State reads the run state reported by the chiller (COOLING, IDLE, FAULT).
func (c *Chiller) State() (string, error) {
	return c.command(c.h, "STATUS")
}

// monitor is the housekeeping sequence: bath temperature, setpoint and run
// state in one locked cycle.
func (c *Chiller) monitor(x device.Exchanger) ([]device.Reading, error) {
	temp, err := c.readFloat(x, "GET TEMP")
	if err != nil {
		return nil, err
	}
	sp, err := c.readFloat(x, "GET SP")
	if err != nil {
		return nil, err
	}
	state, err := c.command(x, "STATUS")
	if err != nil {
		return nil, err
	}
	return []device.Reading{
		{Name: "Bath_Temp", Value: fmt.Sprintf("%.2f", temp), Unit: "degC"},
		{Name: "Setpoint", Value: fmt.Sprintf("%.2f", sp), Unit: "degC"},
		{Name: "State", Value: state},
	}, nil
}
