package instrument

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"LabBench/internal/convert"
	"LabBench/internal/device"
	"LabBench/internal/telegram"
)

// hipaceSim answers telegram traffic for a pump station: the OmniControl,
// the TC400 drive and a gauge head each hold their own parameter table.
type hipaceSim struct {
	units map[int]map[int]string
}

func newHipaceSim() *hipaceSim {
	return &hipaceSim{units: map[int]map[int]string{
		1: { // OmniControl
			hpParamError:    convert.FormatString("E000"),
			hpParamFirmware: convert.FormatString("010204"),
		},
		2: { // TC400
			hpParamStandby:        convert.FormatBool(false),
			hpParamPumpStation:    convert.FormatBool(true),
			hpParamMotorPump:      convert.FormatBool(true),
			hpParamVentEnable:     convert.FormatBool(false),
			hpParamGasMode:        "000",
			hpParamVentMode:       "000",
			hpParamSpeedReached:   convert.FormatBool(true),
			hpParamAccelerating:   convert.FormatBool(false),
			hpParamSpeedSetHz:     "001000",
			hpParamSpeedHz:        "001000",
			hpParamSpeedRPM:       "060000",
			hpParamDriveCurrent:   convert.FormatUReal(1.82),
			hpParamDriveVoltage:   convert.FormatUReal(48.1),
			hpParamDrivePower:     "000087",
			hpParamRunHours:       "004215",
			hpParamError:          convert.FormatString("E000"),
			hpParamFirmware:       convert.FormatString("010800"),
			hpParamTempElec:       "000041",
			hpParamTempBearing:    "000039",
			hpParamTempMotor:      "000047",
			hpParamRampUpTime:     "000008",
			hpParamSpeedSetpoint:  convert.FormatUReal(100),
			hpParamPowerSetpoint:  "100",
			hpParamNominalSpeedHz: "001000",
		},
		3: { // gauge head
			hpParamPressure: convert.FormatExpo(5.2e-8),
		},
	}}
}

func (s *hipaceSim) respond(req string) ([]byte, error) {
	r, err := telegram.Parse([]byte(req))
	if err != nil {
		return nil, err
	}
	params := s.units[r.Addr]
	if params == nil {
		return telegram.BuildControl(r.Addr, r.Param, "NO_DEF"), nil
	}
	if r.RW == 1 {
		params[r.Param] = r.Data
		return telegram.BuildControl(r.Addr, r.Param, r.Data), nil
	}
	data, ok := params[r.Param]
	if !ok {
		return telegram.BuildControl(r.Addr, r.Param, "NO_DEF"), nil
	}
	return telegram.BuildControl(r.Addr, r.Param, data), nil
}

func newTestHiPace(t *testing.T, sim *hipaceSim, gaugeAddr int, opts device.Options) *HiPace {
	t.Helper()
	opts.Dial = dialFake(&fakePort{respond: sim.respond})
	p := NewHiPace("hipace1", "/dev/ttyUSB4", 0, 1, 2, gaugeAddr, opts)
	require.NoError(t, p.Connect())
	t.Cleanup(func() { p.Disconnect() })
	return p
}

func TestHiPaceReadsAcrossAddresses(t *testing.T) {
	p := newTestHiPace(t, newHipaceSim(), 3, device.Options{})

	// OmniControl and TC400 answer the same parameter on their own address.
	omniFw, err := p.OmniFirmware()
	require.NoError(t, err)
	require.Equal(t, "010204", omniFw)

	fw, err := p.Firmware()
	require.NoError(t, err)
	require.Equal(t, "010800", fw)

	status, err := p.OmniErrorStatus()
	require.NoError(t, err)
	require.Equal(t, "E000", status)

	hz, err := p.ActualSpeedHz()
	require.NoError(t, err)
	require.Equal(t, 1000, hz)

	rpm, err := p.ActualSpeedRPM()
	require.NoError(t, err)
	require.Equal(t, 60000, rpm)

	cur, err := p.DriveCurrent()
	require.NoError(t, err)
	require.InDelta(t, 1.82, cur, 1e-9)

	hours, err := p.OperatingHours()
	require.NoError(t, err)
	require.Equal(t, 4215, hours)

	reached, err := p.TargetSpeedReached()
	require.NoError(t, err)
	require.True(t, reached)

	mode, err := p.GasMode()
	require.NoError(t, err)
	require.Equal(t, 0, mode)
}

func TestHiPaceGaugePressure(t *testing.T) {
	p := newTestHiPace(t, newHipaceSim(), 3, device.Options{})

	pr, err := p.GaugePressure()
	require.NoError(t, err)
	require.InDelta(t, 5.2e-8, pr, 1e-11)
}

func TestHiPaceNoGaugeConfigured(t *testing.T) {
	p := newTestHiPace(t, newHipaceSim(), 0, device.Options{})

	_, err := p.GaugePressure()
	require.ErrorContains(t, err, "no gauge head")
}

func TestHiPaceWrites(t *testing.T) {
	sim := newHipaceSim()
	p := newTestHiPace(t, sim, 3, device.Options{})

	require.NoError(t, p.SetPumpStation(false))
	enabled, err := p.PumpStationEnabled()
	require.NoError(t, err)
	require.False(t, enabled)

	require.NoError(t, p.SetStandby(true))
	standby, err := p.Standby()
	require.NoError(t, err)
	require.True(t, standby)

	require.NoError(t, p.SetGasMode(2))
	mode, err := p.GasMode()
	require.NoError(t, err)
	require.Equal(t, 2, mode)

	require.NoError(t, p.SetVentMode(1))
	vm, err := p.VentMode()
	require.NoError(t, err)
	require.Equal(t, 1, vm)

	require.NoError(t, p.SetRampUpTime(15))
	ramp, err := p.RampUpTime()
	require.NoError(t, err)
	require.Equal(t, 15, ramp)

	require.NoError(t, p.SetSpeedSetpoint(66.5))
	sp, err := p.SpeedSetpoint()
	require.NoError(t, err)
	require.InDelta(t, 66.5, sp, 1e-9)

	require.NoError(t, p.SetPowerSetpoint(80))
	pw, err := p.PowerSetpoint()
	require.NoError(t, err)
	require.Equal(t, 80, pw)

	require.NoError(t, p.AcknowledgeError())
	require.Equal(t, convert.FormatBool(true), sim.units[2][hpParamAckError])
}

func TestHiPaceSetpointValidation(t *testing.T) {
	p := newTestHiPace(t, newHipaceSim(), 0, device.Options{})

	require.Error(t, p.SetGasMode(3))
	require.Error(t, p.SetVentMode(-1))
	require.Error(t, p.SetRampUpTime(0))
	require.Error(t, p.SetRampUpTime(121))
	require.Error(t, p.SetSpeedSetpoint(19.9))
	require.Error(t, p.SetPowerSetpoint(5))
}

func TestHiPaceMonitorCycle(t *testing.T) {
	sink := &memorySink{}
	p := newTestHiPace(t, newHipaceSim(), 3, device.Options{
		Mode: device.ModeExternal,
		Sink: sink,
	})

	h := p.Handle()
	require.NoError(t, h.StartHousekeeping(time.Hour, true))
	require.NoError(t, h.DoHousekeepingCycle())

	require.Len(t, sink.recs, 1)
	readings := sink.recs[0].Readings
	require.Len(t, readings, 11)
	require.Equal(t, device.Reading{Name: "Pump_Station_Enabled", Value: "true"}, readings[0])
	require.Equal(t, device.Reading{Name: "Speed_Hz", Value: "1000", Unit: "Hz"}, readings[3])
	require.Equal(t, device.Reading{Name: "Drive_Current", Value: "1.82", Unit: "A"}, readings[5])
	require.Equal(t, device.Reading{Name: "Gauge_Pressure", Value: "5.200e-08", Unit: "mbar"}, readings[10])
}

func TestHiPaceMonitorWithoutGauge(t *testing.T) {
	sink := &memorySink{}
	p := newTestHiPace(t, newHipaceSim(), 0, device.Options{
		Mode: device.ModeExternal,
		Sink: sink,
	})

	h := p.Handle()
	require.NoError(t, h.StartHousekeeping(time.Hour, true))
	require.NoError(t, h.DoHousekeepingCycle())

	require.Len(t, sink.recs, 1)
	require.Len(t, sink.recs[0].Readings, 10)
}
