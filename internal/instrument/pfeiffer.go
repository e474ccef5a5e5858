package instrument

import (
	"fmt"

	"LabBench/internal/device"
	"LabBench/internal/telegram"
)

// pfQuery performs one telegram data request over x and returns the payload.
// The reply must come from the queried address and parameter.
func pfQuery(x device.Exchanger, addr, param int) (string, error) {
	resp, err := x.Exchange(telegram.BuildQuery(addr, param))
	if err != nil {
		return "", err
	}
	r, err := telegram.Parse(resp)
	if err != nil {
		return "", err
	}
	if r.Addr != addr || r.RW != 1 || r.Param != param {
		return "", fmt.Errorf("mismatched telegram reply (addr %d, param %d)", r.Addr, r.Param)
	}
	return r.Data, nil
}

// pfWrite performs one telegram control command over x and verifies the
// device echoed the written payload back.
func pfWrite(x device.Exchanger, addr, param int, data string) error {
	resp, err := x.Exchange(telegram.BuildControl(addr, param, data))
	if err != nil {
		return err
	}
	r, err := telegram.Parse(resp)
	if err != nil {
		return err
	}
	if r.Addr != addr || r.RW != 1 || r.Param != param {
		return fmt.Errorf("mismatched telegram reply (addr %d, param %d)", r.Addr, r.Param)
	}
	if r.Data != data {
		return fmt.Errorf("device did not acknowledge write to parameter %d", param)
	}
	return nil
}
