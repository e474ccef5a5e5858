package instrument

import (
	"fmt"
	"strconv"

	"LabBench/internal/convert"
	"LabBench/internal/device"
)

// HiPace parameter numbers. Control and status parameters live on the TC400
// drive electronics; identification parameters exist on both the OmniControl
// and the TC400.
const (
	hpParamHeating        = 1
	hpParamStandby        = 2
	hpParamAckError       = 9
	hpParamPumpStation    = 10
	hpParamVentEnable     = 12
	hpParamMotorPump      = 23
	hpParamGasMode        = 27
	hpParamVentMode       = 30
	hpParamSpeedReached   = 306
	hpParamAccelerating   = 307
	hpParamSpeedSetHz     = 308
	hpParamSpeedHz        = 309
	hpParamDriveCurrent   = 310
	hpParamRunHours       = 311
	hpParamFirmware       = 312
	hpParamDriveVoltage   = 313
	hpParamNominalSpeedHz = 315
	hpParamDrivePower     = 316
	hpParamTempElec       = 326
	hpParamTempBottom     = 330
	hpParamTempBearing    = 342
	hpParamTempMotor      = 346
	hpParamError          = 303
	hpParamSpeedRPM       = 398
	hpParamRampUpTime     = 700
	hpParamSpeedSetpoint  = 707
	hpParamPowerSetpoint  = 708
	hpParamPressure       = 740
)

// HiPace drives a Pfeiffer HiPace turbo molecular pump station on the
// telegram bus. The station answers on two bus addresses: the OmniControl
// display unit and the TC400 drive electronics; an optional gauge head on a
// third address provides a pressure reading.
type HiPace struct {
	h     *device.Handle
	omni  int
	tc400 int
	gauge int // 0 when no gauge head is fitted
}

// NewHiPace wires a HiPace driver with the OmniControl, TC400 and optional
// gauge bus addresses.
func NewHiPace(id, port string, baud, omniAddr, pumpAddr, gaugeAddr int, opts device.Options) *HiPace {
	if baud <= 0 {
		baud = 9600
	}
	if omniAddr <= 0 {
		omniAddr = 1
	}
	if pumpAddr <= 0 {
		pumpAddr = 2
	}
	p := &HiPace{omni: omniAddr, tc400: pumpAddr, gauge: gaugeAddr}
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
func (p *HiPace) Handle() *device.Handle { return p.h }

// Kind names the driver type.
func (p *HiPace) Kind() string { return "hipace" }

// Connect attaches the serial transport.
func (p *HiPace) Connect() error { return p.h.Connect() }

// Disconnect stops housekeeping and closes the transport.
func (p *HiPace) Disconnect() error { return p.h.Disconnect() }

func (p *HiPace) queryInt(x device.Exchanger, addr, param int) (int, error) {
	data, err := pfQuery(x, addr, param)
	if err != nil {
		return 0, err
	}
	return convert.ParseUint(data)
}

func (p *HiPace) queryReal(x device.Exchanger, addr, param int) (float64, error) {
	data, err := pfQuery(x, addr, param)
	if err != nil {
		return 0, err
	}
	return convert.ParseUReal(data)
}

func (p *HiPace) queryBool(x device.Exchanger, addr, param int) (bool, error) {
	data, err := pfQuery(x, addr, param)
	if err != nil {
		return false, err
	}
	return convert.ParseBool(data)
}

func (p *HiPace) queryShort(x device.Exchanger, addr, param int) (int, error) {
	data, err := pfQuery(x, addr, param)
	if err != nil {
		return 0, err
	}
	return convert.ParseShort(data)
}

// OmniErrorStatus reads the error code string of the OmniControl unit.
func (p *HiPace) OmniErrorStatus() (string, error) {
	data, err := pfQuery(p.h, p.omni, hpParamError)
	if err != nil {
		return "", err
	}
	return convert.ParseString(data), nil
}

// OmniFirmware reads the OmniControl software version.
func (p *HiPace) OmniFirmware() (string, error) {
	data, err := pfQuery(p.h, p.omni, hpParamFirmware)
	if err != nil {
		return "", err
	}
	return convert.ParseString(data), nil
}

// ErrorStatus reads the error code string of the TC400 drive.
func (p *HiPace) ErrorStatus() (string, error) {
	data, err := pfQuery(p.h, p.tc400, hpParamError)
	if err != nil {
		return "", err
	}
	return convert.ParseString(data), nil
}

// Firmware reads the TC400 software version.
func (p *HiPace) Firmware() (string, error) {
	data, err := pfQuery(p.h, p.tc400, hpParamFirmware)
	if err != nil {
		return "", err
	}
	return convert.ParseString(data), nil
}

// GaugePressure reads the pressure of the attached gauge head in mbar.
func (p *HiPace) GaugePressure() (float64, error) {
	if p.gauge <= 0 {
		return 0, fmt.Errorf("no gauge head configured on %s", p.h.DeviceID())
	}
	data, err := pfQuery(p.h, p.gauge, hpParamPressure)
	if err != nil {
		return 0, err
	}
	return convert.ParseExpo(data)
}

// SetHeating switches pump heating on or off.
func (p *HiPace) SetHeating(on bool) error {
	return pfWrite(p.h, p.tc400, hpParamHeating, convert.FormatBool(on))
}

// Standby reads the standby mode flag.
func (p *HiPace) Standby() (bool, error) { return p.queryBool(p.h, p.tc400, hpParamStandby) }

// SetStandby switches standby mode.
func (p *HiPace) SetStandby(on bool) error {
	return pfWrite(p.h, p.tc400, hpParamStandby, convert.FormatBool(on))
}

// AcknowledgeError clears a latched error condition on the drive.
func (p *HiPace) AcknowledgeError() error {
	return pfWrite(p.h, p.tc400, hpParamAckError, convert.FormatBool(true))
}

// PumpStationEnabled reads the pump station enable flag.
func (p *HiPace) PumpStationEnabled() (bool, error) {
	return p.queryBool(p.h, p.tc400, hpParamPumpStation)
}

// SetPumpStation starts or stops the pump station.
func (p *HiPace) SetPumpStation(on bool) error {
	return pfWrite(p.h, p.tc400, hpParamPumpStation, convert.FormatBool(on))
}

// VentingEnabled reads the venting enable flag.
func (p *HiPace) VentingEnabled() (bool, error) {
	return p.queryBool(p.h, p.tc400, hpParamVentEnable)
}

// SetVenting enables or disables venting.
func (p *HiPace) SetVenting(on bool) error {
	return pfWrite(p.h, p.tc400, hpParamVentEnable, convert.FormatBool(on))
}

// MotorPumpEnabled reads the motor pump enable flag.
func (p *HiPace) MotorPumpEnabled() (bool, error) {
	return p.queryBool(p.h, p.tc400, hpParamMotorPump)
}

// SetMotorPump switches the pump motor on or off.
func (p *HiPace) SetMotorPump(on bool) error {
	return pfWrite(p.h, p.tc400, hpParamMotorPump, convert.FormatBool(on))
}

// GasMode reads the gas mode: 0 heavy gases, 1 light gases, 2 helium.
func (p *HiPace) GasMode() (int, error) { return p.queryShort(p.h, p.tc400, hpParamGasMode) }

// SetGasMode writes the gas mode: 0 heavy gases, 1 light gases, 2 helium.
func (p *HiPace) SetGasMode(mode int) error {
	if mode < 0 || mode > 2 {
		return fmt.Errorf("gas mode must be 0, 1 or 2, got %d", mode)
	}
	data, err := convert.FormatShort(mode)
	if err != nil {
		return err
	}
	return pfWrite(p.h, p.tc400, hpParamGasMode, data)
}

// VentMode reads the venting mode: 0 delayed, 1 no venting, 2 direct.
func (p *HiPace) VentMode() (int, error) { return p.queryShort(p.h, p.tc400, hpParamVentMode) }

// SetVentMode writes the venting mode: 0 delayed, 1 no venting, 2 direct.
func (p *HiPace) SetVentMode(mode int) error {
	if mode < 0 || mode > 2 {
		return fmt.Errorf("vent mode must be 0, 1 or 2, got %d", mode)
	}
	data, err := convert.FormatShort(mode)
	if err != nil {
		return err
	}
	return pfWrite(p.h, p.tc400, hpParamVentMode, data)
}

// TargetSpeedReached reports whether the pump runs at its target speed.
func (p *HiPace) TargetSpeedReached() (bool, error) {
	return p.queryBool(p.h, p.tc400, hpParamSpeedReached)
}

// Accelerating reports whether the pump is ramping up.
func (p *HiPace) Accelerating() (bool, error) {
	return p.queryBool(p.h, p.tc400, hpParamAccelerating)
}

// SetSpeedHz reads the commanded rotation speed in Hz.
func (p *HiPace) SetSpeedHz() (int, error) { return p.queryInt(p.h, p.tc400, hpParamSpeedSetHz) }

// ActualSpeedHz reads the actual rotation speed in Hz.
func (p *HiPace) ActualSpeedHz() (int, error) { return p.queryInt(p.h, p.tc400, hpParamSpeedHz) }

// NominalSpeedHz reads the nominal rotation speed in Hz.
func (p *HiPace) NominalSpeedHz() (int, error) {
	return p.queryInt(p.h, p.tc400, hpParamNominalSpeedHz)
}

// ActualSpeedRPM reads the actual rotation speed in RPM.
func (p *HiPace) ActualSpeedRPM() (int, error) { return p.queryInt(p.h, p.tc400, hpParamSpeedRPM) }

// DriveCurrent reads the drive current in A.
func (p *HiPace) DriveCurrent() (float64, error) {
	return p.queryReal(p.h, p.tc400, hpParamDriveCurrent)
}

// DriveVoltage reads the drive voltage in V.
func (p *HiPace) DriveVoltage() (float64, error) {
	return p.queryReal(p.h, p.tc400, hpParamDriveVoltage)
}

// DrivePower reads the drive power in W.
func (p *HiPace) DrivePower() (int, error) { return p.queryInt(p.h, p.tc400, hpParamDrivePower) }

// OperatingHours reads the pump operating time in hours.
func (p *HiPace) OperatingHours() (int, error) { return p.queryInt(p.h, p.tc400, hpParamRunHours) }

// ElectronicsTemperature reads the drive electronics temperature in degC.
func (p *HiPace) ElectronicsTemperature() (int, error) {
	return p.queryInt(p.h, p.tc400, hpParamTempElec)
}

// BottomTemperature reads the pump bottom temperature in degC.
func (p *HiPace) BottomTemperature() (int, error) {
	return p.queryInt(p.h, p.tc400, hpParamTempBottom)
}

// BearingTemperature reads the bearing temperature in degC.
func (p *HiPace) BearingTemperature() (int, error) {
	return p.queryInt(p.h, p.tc400, hpParamTempBearing)
}

// MotorTemperature reads the motor temperature in degC.
func (p *HiPace) MotorTemperature() (int, error) {
	return p.queryInt(p.h, p.tc400, hpParamTempMotor)
}

// RampUpTime reads the ramp-up time setpoint in minutes.
func (p *HiPace) RampUpTime() (int, error) { return p.queryInt(p.h, p.tc400, hpParamRampUpTime) }

// SetRampUpTime writes the ramp-up time setpoint in minutes (1-120).
func (p *HiPace) SetRampUpTime(minutes int) error {
	if minutes < 1 || minutes > 120 {
		return fmt.Errorf("ramp-up time must be between 1 and 120 minutes, got %d", minutes)
	}
	data, err := convert.FormatUint(minutes)
	if err != nil {
		return err
	}
	return pfWrite(p.h, p.tc400, hpParamRampUpTime, data)
}

// SpeedSetpoint reads the speed setpoint in percent.
func (p *HiPace) SpeedSetpoint() (float64, error) {
	return p.queryReal(p.h, p.tc400, hpParamSpeedSetpoint)
}

// SetSpeedSetpoint writes the speed setpoint in percent (20-100).
func (p *HiPace) SetSpeedSetpoint(v float64) error {
	if v < 20 || v > 100 {
		return fmt.Errorf("speed setpoint must be between 20 and 100 percent, got %g", v)
	}
	return pfWrite(p.h, p.tc400, hpParamSpeedSetpoint, convert.FormatUReal(v))
}

// PowerSetpoint reads the power consumption setpoint in percent.
func (p *HiPace) PowerSetpoint() (int, error) {
	return p.queryShort(p.h, p.tc400, hpParamPowerSetpoint)
}

// SetPowerSetpoint writes the power consumption setpoint in percent (10-100).
func (p *HiPace) SetPowerSetpoint(percent int) error {
	if percent < 10 || percent > 100 {
		return fmt.Errorf("power setpoint must be between 10 and 100 percent, got %d", percent)
	}
	data, err := convert.FormatShort(percent)
	if err != nil {
		return err
	}
	return pfWrite(p.h, p.tc400, hpParamPowerSetpoint, data)
}

// monitor is the housekeeping sequence: the critical pump station parameters
// in one locked cycle, plus the gauge pressure when a gauge head is fitted.
func (p *HiPace) monitor(x device.Exchanger) ([]device.Reading, error) {
	enabled, err := p.queryBool(x, p.tc400, hpParamPumpStation)
	if err != nil {
		return nil, err
	}
	standby, err := p.queryBool(x, p.tc400, hpParamStandby)
	if err != nil {
		return nil, err
	}
	reached, err := p.queryBool(x, p.tc400, hpParamSpeedReached)
	if err != nil {
		return nil, err
	}
	hz, err := p.queryInt(x, p.tc400, hpParamSpeedHz)
	if err != nil {
		return nil, err
	}
	rpm, err := p.queryInt(x, p.tc400, hpParamSpeedRPM)
	if err != nil {
		return nil, err
	}
	current, err := p.queryReal(x, p.tc400, hpParamDriveCurrent)
	if err != nil {
		return nil, err
	}
	power, err := p.queryInt(x, p.tc400, hpParamDrivePower)
	if err != nil {
		return nil, err
	}
	tElec, err := p.queryInt(x, p.tc400, hpParamTempElec)
	if err != nil {
		return nil, err
	}
	tBearing, err := p.queryInt(x, p.tc400, hpParamTempBearing)
	if err != nil {
		return nil, err
	}
	tMotor, err := p.queryInt(x, p.tc400, hpParamTempMotor)
	if err != nil {
		return nil, err
	}

	readings := []device.Reading{
		{Name: "Pump_Station_Enabled", Value: strconv.FormatBool(enabled)},
		{Name: "Standby_Mode", Value: strconv.FormatBool(standby)},
		{Name: "Target_Speed_Reached", Value: strconv.FormatBool(reached)},
		{Name: "Speed_Hz", Value: strconv.Itoa(hz), Unit: "Hz"},
		{Name: "Speed_RPM", Value: strconv.Itoa(rpm), Unit: "RPM"},
		{Name: "Drive_Current", Value: fmt.Sprintf("%.2f", current), Unit: "A"},
		{Name: "Drive_Power", Value: strconv.Itoa(power), Unit: "W"},
		{Name: "Temp_Electronics", Value: strconv.Itoa(tElec), Unit: "degC"},
		{Name: "Temp_Bearing", Value: strconv.Itoa(tBearing), Unit: "degC"},
		{Name: "Temp_Motor", Value: strconv.Itoa(tMotor), Unit: "degC"},
	}

	if p.gauge > 0 {
		data, err := pfQuery(x, p.gauge, hpParamPressure)
		if err != nil {
			return nil, err
		}
		pressure, err := convert.ParseExpo(data)
		if err != nil {
			return nil, err
		}
		readings = append(readings, device.Reading{
			Name: "Gauge_Pressure", Value: fmt.Sprintf("%.3e", pressure), Unit: "mbar",
		})
	}
	return readings, nil
}
