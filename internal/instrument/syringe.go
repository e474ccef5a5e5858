package instrument

import (
	"fmt"
	"strings"

	"LabBench/internal/device"
)

// FlowUnits maps human readable flow rate units to the pump's unit codes.
var FlowUnits = map[string]string{
	"mL/min": "0",
	"mL/hr":  "1",
	"uL/min": "2",
	"uL/hr":  "3",
}

// SyringePump drives a syringe pump over its carriage-return terminated
// command vocabulary. channel selects the pump axis (0 means no prefix) and
// mode appends the operation mode to start commands (0 means no suffix).
type SyringePump struct {
	h       *device.Handle
	channel int
	mode    int
}

// NewSyringePump wires a syringe pump driver.
func NewSyringePump(id, port string, baud, channel, mode int, opts device.Options) *SyringePump {
	if baud <= 0 {
		baud = 9600
	}
	p := &SyringePump{channel: channel, mode: mode}
	opts.DeviceID = id
	opts.Port = port
	opts.Monitor = p.monitor
	if opts.Dial == nil {
		opts.Dial = device.SerialDial(port, baud, '\r')
	}
	p.h = device.New(opts)
	return p
}

// Handle returns the underlying device handle.
func (p *SyringePump) Handle() *device.Handle { return p.h }

// Kind names the driver type.
func (p *SyringePump) Kind() string { return "syringe_pump" }

// Connect attaches the serial transport.
func (p *SyringePump) Connect() error { return p.h.Connect() }

// Disconnect stops housekeeping and closes the transport.
func (p *SyringePump) Disconnect() error { return p.h.Disconnect() }

// withChannel prepends the pump axis to a command when one is configured.
func (p *SyringePump) withChannel(cmd string) string {
	if p.channel == 0 {
		return cmd
	}
	return fmt.Sprintf("%d %s", p.channel, cmd)
}

// withMode appends the operation mode to a command when one is configured.
// Mode 1 is encoded as 0 on the wire.
func (p *SyringePump) withMode(cmd string) string {
	if p.mode == 0 {
		return cmd
	}
	return fmt.Sprintf("%s %d", cmd, p.mode-1)
}

func (p *SyringePump) do(x device.Exchanger, cmd string) (string, error) {
	resp, err := x.Exchange([]byte(cmd + "\r"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(resp)), nil
}

// Start starts the pump on the configured channel and mode.
func (p *SyringePump) Start() (string, error) {
	return p.do(p.h, p.withMode(p.withChannel("start")))
}

// Stop stops the pump.
func (p *SyringePump) Stop() (string, error) {
	return p.do(p.h, p.withChannel("stop"))
}

// Pause pauses the pump.
func (p *SyringePump) Pause() (string, error) {
	return p.do(p.h, p.withChannel("pause"))
}

// Restart restarts the pump.
func (p *SyringePump) Restart() (string, error) {
	return p.do(p.h, "restart")
}

// SetUnits sets the flow rate units, one of the FlowUnits keys.
func (p *SyringePump) SetUnits(units string) (string, error) {
	code, ok := FlowUnits[units]
	if !ok {
		return "", fmt.Errorf("invalid flow units %q", units)
	}
	return p.do(p.h, "set units "+code)
}

// SetDiameter sets the syringe diameter in mm.
func (p *SyringePump) SetDiameter(mm float64) (string, error) {
	return p.do(p.h, fmt.Sprintf("set diameter %g", mm))
}

// SetRate sets the flow rate; several values program a multi-step ramp.
func (p *SyringePump) SetRate(rates ...float64) (string, error) {
	return p.do(p.h, "set rate "+joinFloats(rates))
}

// SetVolume sets the target volume; several values program a multi-step ramp.
func (p *SyringePump) SetVolume(volumes ...float64) (string, error) {
	return p.do(p.h, "set volume "+joinFloats(volumes))
}

// SetDelay sets the delay between steps.
func (p *SyringePump) SetDelay(delays ...float64) (string, error) {
	return p.do(p.h, "set delay "+joinFloats(delays))
}

// SetTime sets the pump timer.
func (p *SyringePump) SetTime(timer float64) (string, error) {
	return p.do(p.h, fmt.Sprintf("set time %g", timer))
}

// ParameterLimits reads the pump's parameter limits.
func (p *SyringePump) ParameterLimits() (string, error) {
	return p.do(p.h, "read limit parameter")
}

// Parameters reads the current pump parameters.
func (p *SyringePump) Parameters() (string, error) {
	return p.do(p.h, "view parameter")
}

// DispensedVolume reads the volume dispensed so far.
func (p *SyringePump) DispensedVolume() (string, error) {
	return p.do(p.h, "dispensed volume")
}

// ElapsedTime reads the elapsed pumping time.
func (p *SyringePump) ElapsedTime() (string, error) {
	return p.do(p.h, "elapsed time")
}

// PumpStatus reads the pump run status.
func (p *SyringePump) PumpStatus() (string, error) {
	return p.do(p.h, "pump status")
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return strings.Join(parts, ",")
}

// monitor is the housekeeping sequence: run status, dispensed volume and
// elapsed time in one locked cycle.
func (p *SyringePump) monitor(x device.Exchanger) ([]device.Reading, error) {
	status, err := p.do(x, "pump status")
	if err != nil {
		return nil, err
	}
	vol, err := p.do(x, "dispensed volume")
	if err != nil {
		return nil, err
	}
	elapsed, err := p.do(x, "elapsed time")
	if err != nil {
		return nil, err
	}
	return []device.Reading{
		{Name: "Pump_Status", Value: status},
		{Name: "Dispensed_Volume", Value: vol},
		{Name: "Elapsed_Time", Value: elapsed},
	}, nil
}
