// Package main is the entry point of the LabBench instrument runtime.
// It loads the bench configuration, constructs all instrument drivers and
// starts housekeeping, then waits for an interrupt to shut down cleanly.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"LabBench/internal/core"
	"LabBench/internal/util"
)

func main() {
	util.SetupLogger()

	cfgPath := flag.String("c", "configs/bench.yml", "path to bench configuration file")
	flag.Parse()

	log.Printf("[Main] Using config: %s", *cfgPath)

	sys, err := core.NewSystem(*cfgPath)
	if err != nil {
		log.Fatalf("failed to create system: %v", err)
	}

	if err := sys.StartAll(); err != nil {
		sys.StopAll()
		log.Fatalf("failed to start system: %v", err)
	}

	// wait for Ctrl+C or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("[Main] Shutting down bench...")
	sys.StopAll()
	log.Println("[Main] Bench stopped cleanly.")
}
