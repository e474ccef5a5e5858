package instrument

import (
	"fmt"
	"strconv"

	"LabBench/internal/convert"
	"LabBench/internal/device"
)

// HiScroll12 parameter numbers.
const (
	hsParamStandby         = 2
	hsParamAckError        = 9
	hsParamPumpEnable      = 10
	hsParamError           = 303
	hsParamSpeedSetHz      = 308
	hsParamSpeedHz         = 309
	hsParamDriveCurrent    = 310
	hsParamRunHours        = 311
	hsParamFirmware        = 312
	hsParamDriveVoltage    = 313
	hsParamDrivePower      = 316
	hsParamTempPowerStage  = 324
	hsParamTempElectronics = 326
	hsParamTempMotor       = 346
	hsParamSpeedRPM        = 398
	hsParamSpeedSetpoint   = 707
	hsParamStandbySetpoint = 717
)

// HiScroll12 drives a Pfeiffer HiScroll 12 dry scroll pump on the telegram
// bus.
type HiScroll12 struct {
	h    *device.Handle
	addr int
}

// NewHiScroll12 wires a HiScroll 12 driver at the given bus address.
func NewHiScroll12(id, port string, baud, addr int, opts device.Options) *HiScroll12 {
	if baud <= 0 {
		baud = 9600
	}
	if addr <= 0 {
		addr = 1
	}
	s := &HiScroll12{addr: addr}
	opts.DeviceID = id
	opts.Port = port
	opts.Monitor = s.monitor
	if opts.Dial == nil {
		opts.Dial = device.SerialDial(port, baud, '\r')
	}
	s.h = device.New(opts)
	return s
}

// Handle returns the underlying device handle.
func (s *HiScroll12) Handle() *device.Handle { return s.h }

// Kind names the driver type.
func (s *HiScroll12) Kind() string { return "hiscroll12" }

// Connect attaches the serial transport.
func (s *HiScroll12) Connect() error { return s.h.Connect() }

// Disconnect stops housekeeping and closes the transport.
func (s *HiScroll12) Disconnect() error { return s.h.Disconnect() }

func (s *HiScroll12) queryInt(x device.Exchanger, param int) (int, error) {
	data, err := pfQuery(x, s.addr, param)
	if err != nil {
		return 0, err
	}
	return convert.ParseUint(data)
}

func (s *HiScroll12) queryReal(x device.Exchanger, param int) (float64, error) {
	data, err := pfQuery(x, s.addr, param)
	if err != nil {
		return 0, err
	}
	return convert.ParseUReal(data)
}

func (s *HiScroll12) queryBool(x device.Exchanger, param int) (bool, error) {
	data, err := pfQuery(x, s.addr, param)
	if err != nil {
		return false, err
	}
	return convert.ParseBool(data)
}

// ErrorStatus reads the pump's error code string.
func (s *HiScroll12) ErrorStatus() (string, error) {
	data, err := pfQuery(s.h, s.addr, hsParamError)
	if err != nil {
		return "", err
	}
	return convert.ParseString(data), nil
}

// Firmware reads the electronics software version.
func (s *HiScroll12) Firmware() (string, error) {
	data, err := pfQuery(s.h, s.addr, hsParamFirmware)
	if err != nil {
		return "", err
	}
	return convert.ParseString(data), nil
}

// SetSpeedHz reads the commanded rotation speed in Hz.
func (s *HiScroll12) SetSpeedHz() (int, error) { return s.queryInt(s.h, hsParamSpeedSetHz) }

// ActualSpeedHz reads the actual rotation speed in Hz.
func (s *HiScroll12) ActualSpeedHz() (int, error) { return s.queryInt(s.h, hsParamSpeedHz) }

// ActualSpeedRPM reads the actual rotation speed in RPM.
func (s *HiScroll12) ActualSpeedRPM() (int, error) { return s.queryInt(s.h, hsParamSpeedRPM) }

// DriveCurrent reads the drive current in A.
func (s *HiScroll12) DriveCurrent() (float64, error) { return s.queryReal(s.h, hsParamDriveCurrent) }

// DriveVoltage reads the drive voltage in V.
func (s *HiScroll12) DriveVoltage() (float64, error) { return s.queryReal(s.h, hsParamDriveVoltage) }

// DrivePower reads the drive power in W.
func (s *HiScroll12) DrivePower() (int, error) { return s.queryInt(s.h, hsParamDrivePower) }

// OperatingHours reads the pump operating time in hours.
func (s *HiScroll12) OperatingHours() (int, error) { return s.queryInt(s.h, hsParamRunHours) }

// MotorTemperature reads the motor temperature in degC.
func (s *HiScroll12) MotorTemperature() (int, error) { return s.queryInt(s.h, hsParamTempMotor) }

// ElectronicsTemperature reads the electronics temperature in degC.
func (s *HiScroll12) ElectronicsTemperature() (int, error) {
	return s.queryInt(s.h, hsParamTempElectronics)
}

// PowerStageTemperature reads the power stage temperature in degC.
func (s *HiScroll12) PowerStageTemperature() (int, error) {
	return s.queryInt(s.h, hsParamTempPowerStage)
}

// Standby reads the standby mode flag.
func (s *HiScroll12) Standby() (bool, error) { return s.queryBool(s.h, hsParamStandby) }

// SetStandby switches standby mode.
func (s *HiScroll12) SetStandby(on bool) error {
	return pfWrite(s.h, s.addr, hsParamStandby, convert.FormatBool(on))
}

// PumpEnabled reads the pump enable flag.
func (s *HiScroll12) PumpEnabled() (bool, error) { return s.queryBool(s.h, hsParamPumpEnable) }

// SetPumpEnabled switches the pump on or off.
func (s *HiScroll12) SetPumpEnabled(on bool) error {
	return pfWrite(s.h, s.addr, hsParamPumpEnable, convert.FormatBool(on))
}

// AcknowledgeError clears a latched error condition.
func (s *HiScroll12) AcknowledgeError() error {
	return pfWrite(s.h, s.addr, hsParamAckError, convert.FormatBool(true))
}

// SpeedSetpoint reads the speed setpoint in percent.
func (s *HiScroll12) SpeedSetpoint() (float64, error) {
	return s.queryReal(s.h, hsParamSpeedSetpoint)
}

// SetSpeedSetpoint writes the speed setpoint in percent.
func (s *HiScroll12) SetSpeedSetpoint(v float64) error {
	return pfWrite(s.h, s.addr, hsParamSpeedSetpoint, convert.FormatUReal(v))
}

// StandbySetpoint reads the standby speed setpoint in percent.
func (s *HiScroll12) StandbySetpoint() (float64, error) {
	return s.queryReal(s.h, hsParamStandbySetpoint)
}

// SetStandbySetpoint writes the standby speed setpoint in percent.
func (s *HiScroll12) SetStandbySetpoint(v float64) error {
	return pfWrite(s.h, s.addr, hsParamStandbySetpoint, convert.FormatUReal(v))
}

// monitor is the housekeeping sequence: the critical pump parameters in one
// locked cycle.
func (s *HiScroll12) monitor(x device.Exchanger) ([]device.Reading, error) {
	enabled, err := s.queryBool(x, hsParamPumpEnable)
	if err != nil {
		return nil, err
	}
	standby, err := s.queryBool(x, hsParamStandby)
	if err != nil {
		return nil, err
	}
	rpm, err := s.queryInt(x, hsParamSpeedRPM)
	if err != nil {
		return nil, err
	}
	hz, err := s.queryInt(x, hsParamSpeedHz)
	if err != nil {
		return nil, err
	}
	tMotor, err := s.queryInt(x, hsParamTempMotor)
	if err != nil {
		return nil, err
	}
	tElec, err := s.queryInt(x, hsParamTempElectronics)
	if err != nil {
		return nil, err
	}
	current, err := s.queryReal(x, hsParamDriveCurrent)
	if err != nil {
		return nil, err
	}
	power, err := s.queryInt(x, hsParamDrivePower)
	if err != nil {
		return nil, err
	}

	return []device.Reading{
		{Name: "Pump_Enabled", Value: strconv.FormatBool(enabled)},
		{Name: "Standby_Mode", Value: strconv.FormatBool(standby)},
		{Name: "Speed_RPM", Value: strconv.Itoa(rpm), Unit: "RPM"},
		{Name: "Speed_Hz", Value: strconv.Itoa(hz), Unit: "Hz"},
		{Name: "Temp_Motor", Value: strconv.Itoa(tMotor), Unit: "degC"},
		{Name: "Temp_Electronics", Value: strconv.Itoa(tElec), Unit: "degC"},
		{Name: "Drive_Current", Value: fmt.Sprintf("%.2f", current), Unit: "A"},
		{Name: "Drive_Power", Value: strconv.Itoa(power), Unit: "W"},
	}, nil
}
