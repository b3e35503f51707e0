// cmd/co2monitor/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/co2-monitor/internal/config"
	"github.com/tamzrod/co2-monitor/internal/logging"
	"github.com/tamzrod/co2-monitor/internal/poller"
	"github.com/tamzrod/co2-monitor/internal/status"
	"github.com/tamzrod/co2-monitor/internal/transport"
	"github.com/tamzrod/co2-monitor/internal/writer"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: co2monitor <config.yaml> | co2monitor list")
		os.Exit(2)
	}

	if os.Args[1] == "list" {
		os.Exit(listPorts())
	}

	os.Exit(run(os.Args[1]))
}

func listPorts() int {
	ports, err := transport.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "port listing failed: %v\n", err)
		return 1
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return 0
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return 0
}

func run(cfgPath string) int {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		return 1
	}
	config.Normalize(cfg)

	log, closeLog, err := logging.New(cfg.Logging, version)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	log = log.With().Str("sensor", cfg.Sensor.ID).Logger()

	// --------------------
	// Build pipeline
	// --------------------

	sinks, err := writer.Build(*cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("writer build failed")
		return 1
	}
	defer func() {
		if err := sinks.Close(); err != nil {
			log.Warn().Err(err).Msg("writer close failed")
		}
	}()

	runner, err := poller.Build(*cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("poller build failed")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := make(chan poller.Event)
	runErr := make(chan error, 1)

	// poller producer
	go func() { runErr <- runner.Run(ctx, out) }()

	log.Info().Str("device", cfg.Sensor.DevicePath).Msg("monitor started")

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	err = orchestrate(log, out, runErr, secTicker.C, sinks)
	if err != nil {
		// The cause was already delivered as an event.
		log.Info().Str("kind", string(poller.KindOf(err))).Msg("monitor halted")
		return 1
	}

	log.Info().Msg("monitor stopped")
	return 0
}

// orchestrate owns the status tracker and delivers every event.
// tick drives seconds_in_error and is expected at 1 Hz.
// It returns when the runner exits, with the runner's error.
func orchestrate(
	log zerolog.Logger,
	out <-chan poller.Event,
	runErr <-chan error,
	tick <-chan time.Time,
	sinks writer.Sinks,
) error {
	tracker := status.NewTracker()

	writeStatus := func(reason string) {
		if sinks.Status == nil {
			return
		}
		if err := sinks.Status.WriteStatus(tracker.Snapshot()); err != nil {
			log.Warn().Err(err).Str("reason", reason).Msg("status write failed")
		}
	}

	// Full status write on start (identity re-assert).
	writeStatus("start")

	for {
		select {
		case ev := <-out:
			// --- data delivery ---
			if err := sinks.Writer.Write(ev); err != nil {
				log.Warn().Err(err).Msg("writer error")
			}

			// --- status update ---
			if tracker.Apply(ev) {
				writeStatus("event")
			}

		case <-tick:
			// 1 Hz while not OK.
			if tracker.Tick() {
				writeStatus("tick")
			}

		case err := <-runErr:
			if err == nil && tracker.MarkStopped() {
				writeStatus("shutdown")
			}
			return err
		}
	}
}
