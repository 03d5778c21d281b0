// Command dmxled-host drives the LED driver from a terminal. In sim mode the
// control core runs locally against a software tick source, optionally fed
// by Art-Net; in link mode the same console drives a device over USB serial.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"dmxled/config"
	"dmxled/core"
	"dmxled/dmx"
	"dmxled/host/link"
	"dmxled/host/serial"
	"dmxled/output"
)

var (
	mode       = flag.String("mode", "sim", "sim: run the core locally, link: drive a device")
	configPath = flag.String("config", "", "YAML config file")
	device     = flag.String("device", "", "serial device, \"auto\" to search (overrides config)")
	baud       = flag.Int("baud", 0, "baud rate, ignored by USB CDC (overrides config)")
	list       = flag.Bool("list", false, "list serial ports and exit")
	artnet     = flag.String("artnet", "", "sim: receive Art-Net on this address, e.g. :6454")
	universe   = flag.Uint("universe", 0, "sim: Art-Net universe")
	verbose    = flag.Bool("verbose", false, "debug logging")
)

func main() {
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("exiting", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		cfg.Level.SetLevel(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud != 0 {
		cfg.Serial.Baud = *baud
	}
	return cfg, nil
}

func run(logger *zap.Logger) error {
	if *list {
		return listPorts()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	core.SetDebugWriter(func(s string) { logger.Debug(s) })
	core.SetDebugEnabled(cfg.Debug || *verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *mode {
	case "sim":
		return runSim(ctx, cfg, logger)
	case "link":
		return runLink(ctx, cfg, logger)
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
}

func listPorts() error {
	ports, err := serial.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
	}
	for _, p := range ports {
		fmt.Println(p)
	}
	return nil
}

// interact runs the console until it quits or ctx is done. The console
// blocks on stdin, so it is not part of the errgroup.
func interact(ctx context.Context, c *console) {
	done := make(chan error, 1)
	go func() { done <- c.run(ctx, os.Stdin) }()
	select {
	case <-ctx.Done():
	case <-done:
	}
}

func simDriver(cfg *config.Config, logger *zap.Logger) (core.LEDDriver, func(), error) {
	drivers := output.Multi{output.NewLogDriver(logger.Named("leds"))}
	cleanup := func() {}

	switch cfg.Output.Backend {
	case config.BackendLog:
	case config.BackendStream:
		f, err := os.OpenFile(cfg.Output.Stream, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open stream: %w", err)
		}
		id, _ := core.ResponseID("led_state")
		stream := output.NewStreamDriver(f, id)
		stream.OnlyChanges = true
		drivers = append(drivers, stream)
		cleanup = func() { f.Close() }
	default:
		logger.Warn("hardware backend not available on the host, logging only",
			zap.String("backend", cfg.Output.Backend))
	}
	return drivers, cleanup, nil
}

func runSim(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	leds := cfg.DMX.LEDs
	live := dmx.NewBuffer(cfg.DMX.Address, leds)

	// registers led_state before the stream driver asks for its ID
	core.InitLinkCommands(nil, nil)
	driver, cleanup, err := simDriver(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	if err := driver.Configure(leds); err != nil {
		return err
	}

	sim := newSimulator(live, leds, cfg.Timing.TickPeriod, driver, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sim.run(gctx) })

	if *artnet != "" {
		recv, err := dmx.ListenArtNet(*artnet, uint16(*universe), live)
		if err != nil {
			cancel()
			return errors.Join(err, g.Wait())
		}
		logger.Info("receiving art-net",
			zap.Stringer("addr", recv.Addr()),
			zap.Uint("universe", *universe),
			zap.Uint16("address", live.Address()),
		)
		g.Go(func() error { return recv.Run(gctx) })
	}

	logger.Info("simulator running",
		zap.Int("leds", leds),
		zap.Duration("tick", cfg.Timing.TickPeriod),
		zap.String("backend", cfg.Output.Backend),
	)
	interact(gctx, newConsole(sim, leds, os.Stdout))
	cancel()
	return g.Wait()
}

func runLink(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	scfg := serial.DefaultConfig(cfg.Serial.Device)
	scfg.Baud = cfg.Serial.Baud
	scfg.ReadTimeout = cfg.Serial.ReadTimeout

	if scfg.Device == "auto" {
		ports, err := serial.ListPorts()
		if err != nil {
			return err
		}
		p, err := serial.FindDevice(ports)
		if err != nil {
			return err
		}
		scfg.Device = p.Name
	}

	dev, err := link.Connect(scfg, logger.Named("link"))
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.RetrieveDictionary(ctx); err != nil {
		return err
	}

	leds := deviceLEDCount(dev, cfg.DMX.LEDs, logger)
	interact(ctx, newConsole(dev, leds, os.Stdout))
	return nil
}

type constantSource interface {
	Constant(name string) (string, bool)
}

// deviceLEDCount returns the LED_COUNT the firmware reports, or fallback
// when it is missing or not a positive number
func deviceLEDCount(dev constantSource, fallback int, logger *zap.Logger) int {
	v, ok := dev.Constant(core.ConstLEDCount)
	if !ok {
		return fallback
	}
	leds, err := strconv.Atoi(v)
	if err != nil || leds <= 0 {
		logger.Warn("bad LED_COUNT from device, using config",
			zap.String("value", v),
			zap.Int("leds", fallback),
			zap.Error(err),
		)
		return fallback
	}
	return leds
}
