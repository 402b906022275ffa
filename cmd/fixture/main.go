// cmd/fixture/main.go
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamzrod/swd-fixture/internal/config"
	"github.com/tamzrod/swd-fixture/internal/hw"
	"github.com/tamzrod/swd-fixture/internal/resultlog"
	"github.com/tamzrod/swd-fixture/internal/sequencer"
	"github.com/tamzrod/swd-fixture/internal/station"
	"github.com/tamzrod/swd-fixture/internal/store"
	"github.com/tamzrod/swd-fixture/internal/swd"
	"github.com/tamzrod/swd-fixture/internal/writer"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func main() {
	cfgPath := flag.String("config", "fixture.yaml", "path to fixture config")
	flag.Parse()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		log.Fatalf("log level: %v", err)
	}
	// stdout carries the result log only
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Counters + result log
	// --------------------

	counters, err := store.Open(cfg.Storage.CountersPath)
	if err != nil {
		logger.Warn("counter store unavailable, counting in memory",
			slog.String("path", cfg.Storage.CountersPath),
			slog.Any("err", err),
		)
		counters = store.Memory()
	}

	results := resultlog.New(os.Stdout, cfg.Fixture.FirmwareVersion, nil)
	if cfg.Log.CSVPath != "" {
		if err := results.AppendCSV(cfg.Log.CSVPath); err != nil {
			log.Fatalf("csv log failed: %v", err)
		}
	}
	defer results.Close()

	// --------------------
	// Fixture I/O + probe port
	// --------------------

	var (
		fio  hw.FixtureIO
		port swd.Port
		sim  *hw.Sim
		half = time.Duration(cfg.SWD.HalfPeriodUs) * time.Microsecond
	)

	switch cfg.Fixture.Mode {
	case config.ModeSimulation:
		sim = hw.NewSim(cfg.SWD.ExpectedIDCode, nil)
		fio, port = sim, sim.Target
		// the simulated target has no bandwidth limit
		half = 0

	default:
		if err := hw.Init(); err != nil {
			log.Fatalf("gpio host init failed: %v", err)
		}

		port, err = hw.OpenProbe(cfg.Fixture.Pins, cfg.SWD.Wiring)
		if err != nil {
			log.Fatalf("probe pins failed: %v", err)
		}

		if cfg.Fixture.IOBackend == config.BackendModbus {
			mio, closeIO, err := hw.OpenModbusIO(cfg, logger.With("component", "modbus-io"))
			if err != nil {
				log.Fatalf("modbus io failed: %v", err)
			}
			defer closeIO()
			fio = mio
		} else {
			gf, err := hw.OpenGPIOFixture(cfg.Fixture.Pins)
			if err != nil {
				log.Fatalf("fixture pins failed: %v", err)
			}
			fio = gf
		}
	}

	eng := swd.New(port,
		swd.WithHalfPeriod(half),
		swd.WithLineResetClocks(cfg.SWD.LineResetClocks),
		swd.WithIdleCycles(cfg.SWD.IdleCycles),
		swd.WithWaitPolicy(cfg.SWD.WaitRetries, ms(cfg.SWD.WaitTimeoutMs)),
		swd.WithPowerUpTimeout(ms(cfg.SWD.PowerUpTimeoutMs)),
		swd.WithVerifyPolicy(cfg.SWD.VerifyAttempts, ms(cfg.SWD.RetryDelayMs)),
		swd.WithExpectedIDCode(cfg.SWD.ExpectedIDCode),
		swd.WithLogger(logger.With("component", "swd")),
	)

	// --------------------
	// Status block (optional)
	// --------------------

	var statusWriter writer.StatusWriter

	plan, err := writer.BuildPlan(cfg)
	if err != nil {
		log.Fatalf("writer plan failed: %v", err)
	}
	if plan.Status != nil {
		cli, err := writer.BuildEndpointClient(plan.Status.Endpoint, cfg.Status.TimeoutMs)
		if err != nil {
			log.Fatalf("status client failed: %v", err)
		}
		defer cli.Close()

		if sw, enabled := writer.NewDeviceStatusWriter(plan, cli); enabled {
			statusWriter = sw
		}
	}

	// --------------------
	// Station
	// --------------------

	st, err := station.New(station.Config{
		IntegrityIterations: cfg.SWD.IntegrityIterations,
		Sequencer: sequencer.Config{
			Settle:       ms(cfg.Test.SettleMs),
			PollInterval: ms(cfg.Test.PollMs),
			Deadline:     ms(cfg.Test.DeadlineMs),
			ProbeAddress: cfg.Test.ProbeAddress,
		},
		Logger: logger,
	}, fio, eng, counters, results, statusWriter)
	if err != nil {
		log.Fatalf("station build failed: %v", err)
	}

	logger.Info("fixture starting",
		slog.String("name", cfg.Fixture.Name),
		slog.String("firmware", cfg.Fixture.FirmwareVersion),
		slog.String("mode", cfg.Fixture.Mode),
		slog.String("io", cfg.Fixture.IOBackend),
		slog.String("wiring", cfg.SWD.Wiring),
	)

	if sim != nil && station.Interactive(os.Stdin) {
		go station.Console(ctx, os.Stdin, os.Stderr, sim, stop, logger.With("component", "bench"))
	}

	if err := st.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("station stopped: %v", err)
	}
}
