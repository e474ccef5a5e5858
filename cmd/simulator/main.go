// Instrument simulator: answers driver commands on a serial device.
// Use this for local bench testing when you don't have real hardware,
// typically on one end of a socat-created virtual serial pair.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"LabBench/internal/sim"
	"LabBench/internal/util"
)

func main() {
	util.SetupLogger()

	dev := flag.String("dev", "/dev/ttyV1", "serial device to answer commands on")
	baud := flag.Int("baud", 9600, "baud rate")
	kind := flag.String("kind", "chiller", "instrument to simulate: chiller, syringe_pump, hiscroll12")
	addr := flag.Int("addr", 1, "telegram bus address (hiscroll12)")
	pair := flag.String("pair", "", "create a socat pty pair DRIVER:SIM and answer on SIM, e.g. /dev/ttyV0:/dev/ttyV1")
	flag.Parse()

	if *pair != "" {
		left, right, ok := splitPair(*pair)
		if !ok {
			log.Fatalf("invalid -pair %q, want DRIVER:SIM", *pair)
		}
		mgr := util.NewSocatManager()
		if err := mgr.CreatePair(left, right); err != nil {
			log.Fatalf("create virtual serial pair: %v", err)
		}
		defer mgr.Cleanup()
		*dev = right
	}

	stop := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		close(stop)
	}()

	var err error
	switch *kind {
	case "chiller":
		err = sim.Chiller(*dev, *baud, stop)
	case "syringe_pump":
		err = sim.SyringePump(*dev, *baud, stop)
	case "hiscroll12":
		err = sim.HiScroll12(*dev, *baud, *addr, stop)
	default:
		log.Fatalf("unknown instrument kind %q", *kind)
	}
	if err != nil {
		log.Fatalf("simulator failed: %v", err)
	}
}

func splitPair(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return s[:i], s[i+1:], i > 0 && i < len(s)-1
		}
	}
	return "", "", false
}
