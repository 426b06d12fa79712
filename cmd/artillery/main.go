package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCAP2/artillery/internal/config"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	AppName string = "artillery"
)

func main() {
	opts := options{}
	flag.StringVar(&opts.configDir, "config", ".", "directory containing "+config.FileName)
	flag.StringVar(&opts.scenario, "scenario", "", "file of commands to run, one ':CMD: arg,arg' per line")
	flag.IntVar(&opts.ticks, "ticks", -1, "ticks to simulate after the scenario; -1 uses sim.ticks")
	flag.BoolVar(&opts.upload, "upload", false, "upload the exported recording to api.serverUrl")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("%s %s (built %s)\n", AppName, CurrentExtensionVersion, BuildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
