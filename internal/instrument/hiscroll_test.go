package instrument

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"LabBench/internal/convert"
	"LabBench/internal/device"
	"LabBench/internal/telegram"
)

// hiscrollSim answers telegram traffic for one pump from a parameter table.
// Control frames store and echo the payload.
type hiscrollSim struct {
	addr   int
	params map[int]string
}

func newHiscrollSim(addr int) *hiscrollSim {
	return &hiscrollSim{addr: addr, params: map[int]string{
		hsParamStandby:         convert.FormatBool(false),
		hsParamPumpEnable:      convert.FormatBool(true),
		hsParamError:           convert.FormatString("E000"),
		hsParamFirmware:        convert.FormatString("010300"),
		hsParamSpeedHz:         "000025",
		hsParamSpeedRPM:        "001500",
		hsParamDriveCurrent:    convert.FormatUReal(2.35),
		hsParamDrivePower:      "000120",
		hsParamTempMotor:       "000042",
		hsParamTempElectronics: "000038",
		hsParamSpeedSetpoint:   convert.FormatUReal(100),
	}}
}

func (s *hiscrollSim) respond(req string) ([]byte, error) {
	r, err := telegram.Parse([]byte(req))
	if err != nil {
		return nil, err
	}
	if r.RW == 1 {
		s.params[r.Param] = r.Data
		return telegram.BuildControl(r.Addr, r.Param, r.Data), nil
	}
	data, ok := s.params[r.Param]
	if !ok {
		return telegram.BuildControl(r.Addr, r.Param, "NO_DEF"), nil
	}
	return telegram.BuildControl(r.Addr, r.Param, data), nil
}

func newTestHiScroll(t *testing.T, sim *hiscrollSim, opts device.Options) *HiScroll12 {
	t.Helper()
	opts.Dial = dialFake(&fakePort{respond: sim.respond})
	s := NewHiScroll12("hiscroll1", "/dev/ttyUSB2", 0, sim.addr, opts)
	require.NoError(t, s.Connect())
	t.Cleanup(func() { s.Disconnect() })
	return s
}

func TestHiScrollReads(t *testing.T) {
	s := newTestHiScroll(t, newHiscrollSim(2), device.Options{})

	rpm, err := s.ActualSpeedRPM()
	require.NoError(t, err)
	require.Equal(t, 1500, rpm)

	hz, err := s.ActualSpeedHz()
	require.NoError(t, err)
	require.Equal(t, 25, hz)

	cur, err := s.DriveCurrent()
	require.NoError(t, err)
	require.InDelta(t, 2.35, cur, 1e-9)

	status, err := s.ErrorStatus()
	require.NoError(t, err)
	require.Equal(t, "E000", status)

	fw, err := s.Firmware()
	require.NoError(t, err)
	require.Equal(t, "010300", fw)

	enabled, err := s.PumpEnabled()
	require.NoError(t, err)
	require.True(t, enabled)
}

func TestHiScrollWrites(t *testing.T) {
	sim := newHiscrollSim(2)
	s := newTestHiScroll(t, sim, device.Options{})

	require.NoError(t, s.SetPumpEnabled(false))
	enabled, err := s.PumpEnabled()
	require.NoError(t, err)
	require.False(t, enabled)

	require.NoError(t, s.SetStandby(true))
	standby, err := s.Standby()
	require.NoError(t, err)
	require.True(t, standby)

	require.NoError(t, s.SetSpeedSetpoint(85.5))
	sp, err := s.SpeedSetpoint()
	require.NoError(t, err)
	require.InDelta(t, 85.5, sp, 1e-9)

	require.NoError(t, s.AcknowledgeError())
	require.Equal(t, convert.FormatBool(true), sim.params[hsParamAckError])
}

func TestHiScrollUndefinedParameter(t *testing.T) {
	s := newTestHiScroll(t, newHiscrollSim(2), device.Options{})

	_, err := s.OperatingHours()
	require.ErrorIs(t, err, telegram.ErrNoDef)
}

func TestHiScrollMonitorCycle(t *testing.T) {
	sink := &memorySink{}
	s := newTestHiScroll(t, newHiscrollSim(2), device.Options{
		Mode: device.ModeExternal,
		Sink: sink,
	})

	h := s.Handle()
	require.NoError(t, h.StartHousekeeping(time.Hour, true))
	require.NoError(t, h.DoHousekeepingCycle())

	require.Len(t, sink.recs, 1)
	readings := sink.recs[0].Readings
	require.Len(t, readings, 8)
	require.Equal(t, device.Reading{Name: "Pump_Enabled", Value: "true"}, readings[0])
	require.Equal(t, device.Reading{Name: "Speed_RPM", Value: "1500", Unit: "RPM"}, readings[2])
	require.Equal(t, device.Reading{Name: "Drive_Current", Value: "2.35", Unit: "A"}, readings[6])
}
