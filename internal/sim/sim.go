// Package sim implements bench instrument simulators that answer driver
// commands on a serial device, for local testing without real hardware.
// Pair them with virtual serial links (see util.SocatManager).
package sim

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"LabBench/internal/convert"
	"LabBench/internal/device"
	"LabBench/internal/telegram"
	"LabBench/internal/util"
)

// pollTimeout bounds each read so the stop channel is observed regularly.
const pollTimeout = 500 * time.Millisecond

// Chiller answers the chiller line protocol on dev until stop is closed.
func Chiller(dev string, baud int, stop <-chan struct{}) error {
	t := device.NewSerialTransport(dev, baud, '\r')
	if err := t.Open(); err != nil {
		return err
	}
	defer func() {
		if err := t.Close(); err != nil {
			util.Warn("[sim] failed to close chiller port: %v", err)
		}
	}()

	setpoint := 20.0
	cooling := false
	util.Info("[sim] chiller simulator started on %s (baud %d)", dev, baud)

	for {
		select {
		case <-stop:
			util.Info("[sim] chiller simulator stopped")
			return nil
		default:
		}

		req, err := t.Receive(pollTimeout)
		if err != nil {
			continue
		}
		cmd := strings.TrimSpace(string(req))

		var reply string
		switch {
		case cmd == "GET TEMP":
			reply = fmt.Sprintf("%.2f", setpoint+(rand.Float64()-0.5)*0.4)
		case cmd == "GET SP":
			reply = fmt.Sprintf("%.2f", setpoint)
		case strings.HasPrefix(cmd, "SET SP "):
			if _, err := fmt.Sscanf(cmd, "SET SP %f", &setpoint); err != nil {
				reply = "ERR"
				break
			}
			reply = "OK"
		case cmd == "COOL ON":
			cooling = true
			reply = "OK"
		case cmd == "COOL OFF":
			cooling = false
			reply = "OK"
		case cmd == "STATUS":
			if cooling {
				reply = "COOLING"
			} else {
				reply = "IDLE"
			}
		default:
			reply = "ERR"
		}

		if err := t.Send([]byte(reply + "\r")); err != nil {
			util.Warn("[sim] chiller write error: %v", err)
		}
	}
}

// SyringePump answers the pump command vocabulary on dev until stop is
// closed.
func SyringePump(dev string, baud int, stop <-chan struct{}) error {
	t := device.NewSerialTransport(dev, baud, '\r')
	if err := t.Open(); err != nil {
		return err
	}
	defer func() {
		if err := t.Close(); err != nil {
			util.Warn("[sim] failed to close pump port: %v", err)
		}
	}()

	running := false
	started := time.Now()
	util.Info("[sim] syringe pump simulator started on %s (baud %d)", dev, baud)

	for {
		select {
		case <-stop:
			util.Info("[sim] syringe pump simulator stopped")
			return nil
		default:
		}

		req, err := t.Receive(pollTimeout)
		if err != nil {
			continue
		}
		cmd := strings.TrimSpace(string(req))
		// Strip a leading pump axis, e.g. "2 start".
		if i := strings.IndexByte(cmd, ' '); i == 1 && cmd[0] >= '1' && cmd[0] <= '9' {
			cmd = cmd[i+1:]
		}

		var reply string
		switch {
		case strings.HasPrefix(cmd, "start"):
			running = true
			started = time.Now()
			reply = "pump started"
		case cmd == "stop":
			running = false
			reply = "pump stopped"
		case cmd == "pause":
			running = false
			reply = "pump paused"
		case cmd == "restart":
			running = true
			reply = "pump restarted"
		case strings.HasPrefix(cmd, "set "):
			reply = "ok"
		case cmd == "pump status":
			if running {
				reply = "running"
			} else {
				reply = "stopped"
			}
		case cmd == "dispensed volume":
			reply = fmt.Sprintf("%.3f mL", time.Since(started).Minutes()*1.5)
		case cmd == "elapsed time":
			reply = fmt.Sprintf("%.1f s", time.Since(started).Seconds())
		case cmd == "view parameter" || cmd == "read limit parameter":
			reply = "rate 1.5 mL/min, diameter 12.4 mm"
		default:
			reply = "unknown command"
		}

		if err := t.Send([]byte(reply + "\r")); err != nil {
			util.Warn("[sim] pump write error: %v", err)
		}
	}
}

// HiScroll12 answers telegram queries for a scroll pump at addr until stop
// is closed. Writes are acknowledged by echoing the payload.
func HiScroll12(dev string, baud, addr int, stop <-chan struct{}) error {
	t := device.NewSerialTransport(dev, baud, '\r')
	if err := t.Open(); err != nil {
		return err
	}
	defer func() {
		if err := t.Close(); err != nil {
			util.Warn("[sim] failed to close hiscroll port: %v", err)
		}
	}()

	state := map[int]string{
		2:  convert.FormatBool(false), // standby
		10: convert.FormatBool(true),  // pump enable
	}
	util.Info("[sim] hiscroll12 simulator started on %s (addr %d)", dev, addr)

	for {
		select {
		case <-stop:
			util.Info("[sim] hiscroll12 simulator stopped")
			return nil
		default:
		}

		req, err := t.Receive(pollTimeout)
		if err != nil {
			continue
		}
		r, err := telegram.Parse(req)
		if err != nil || r.Addr != addr {
			continue
		}

		if r.RW == 1 {
			// Control command: store and echo.
			state[r.Param] = r.Data
			if err := t.Send(telegram.BuildControl(addr, r.Param, r.Data)); err != nil {
				util.Warn("[sim] hiscroll write error: %v", err)
			}
			continue
		}

		data, ok := state[r.Param]
		if !ok {
			data = hiscrollReading(r.Param)
		}
		if err := t.Send(telegram.BuildControl(addr, r.Param, data)); err != nil {
			util.Warn("[sim] hiscroll write error: %v", err)
		}
	}
}

// hiscrollReading fabricates a plausible payload for a queried parameter.
func hiscrollReading(param int) string {
	switch param {
	case 303:
		return convert.FormatString("000000")
	case 309:
		v, _ := convert.FormatUint(25)
		return v
	case 310:
		return convert.FormatUReal(1.1 + rand.Float64()*0.2)
	case 316:
		v, _ := convert.FormatUint(180 + rand.Intn(20))
		return v
	case 326:
		v, _ := convert.FormatUint(38 + rand.Intn(3))
		return v
	case 346:
		v, _ := convert.FormatUint(52 + rand.Intn(4))
		return v
	case 398:
		v, _ := convert.FormatUint(1500 + rand.Intn(10))
		return v
	default:
		return "NO_DEF"
	}
}
