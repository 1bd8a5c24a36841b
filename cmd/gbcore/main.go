// Command gbcore is the reference host harness: it loads a cartridge,
// wires a rendering/input backend, an optional serial transport, and
// drives the scheduler until a clean shutdown.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli"

	"github.com/haldis/gbcore/internal/backend"
	"github.com/haldis/gbcore/internal/backend/headless"
	"github.com/haldis/gbcore/internal/backend/sdl2"
	"github.com/haldis/gbcore/internal/backend/terminal"
	"github.com/haldis/gbcore/internal/gbcore"
	"github.com/haldis/gbcore/internal/input"
	"github.com/haldis/gbcore/internal/input/action"
	"github.com/haldis/gbcore/internal/memory"
	"github.com/haldis/gbcore/internal/serial"
	"github.com/haldis/gbcore/internal/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "gbcore"
	app.Usage = "gbcore [rom] [options]"
	app.Description = "a cycle-stepped DMG emulation core"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "fifo-input", Usage: "FIFO path to read incoming serial bytes from"},
		cli.StringFlag{Name: "fifo-output", Usage: "FIFO path to write outgoing serial bytes to"},
		cli.StringFlag{Name: "record-input", Usage: "record every input event to this file"},
		cli.StringFlag{Name: "replay-input", Usage: "replay input events previously captured with --record-input"},
		cli.StringFlag{Name: "state-file", Usage: "path for state snapshot save/load"},
		cli.BoolFlag{Name: "load-state", Usage: "load --state-file at startup instead of starting fresh"},
		cli.BoolFlag{Name: "keyboard", Usage: "run with interactive keyboard input (sdl2 window if built with -tags sdl2, terminal otherwise)"},
		cli.Float64Flag{Name: "speed", Usage: "emulation speed multiplier", Value: 1.0},
		cli.BoolFlag{Name: "skip-bootrom", Usage: "skip the DMG boot ROM and start at the cartridge entry point"},
		cli.BoolFlag{Name: "headless", Usage: "run without a display backend"},
		cli.StringFlag{Name: "listen", Usage: "accept a single serial peer connection on this address"},
		cli.StringFlag{Name: "connect", Usage: "dial a serial peer at this address"},
		cli.BoolFlag{Name: "no-response", Usage: "send outgoing serial bytes without waiting for a reply"},
		cli.BoolFlag{Name: "restart-on-stop", Usage: "keep running instead of exiting when the backend reports an error (the machine is not reset)"},
		cli.StringFlag{Name: "verbosity", Usage: "log level: debug, info, warn, error", Value: "info"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		slog.Error("gbcore exited with an error", "error", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	configureLogging(c.String("verbosity"))

	romPath := c.Args().Get(0)
	if romPath == "" {
		return runTestPattern(c)
	}

	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("read rom: %w", err)
	}
	cart, err := memory.NewCartridge(rom)
	if err != nil {
		return fmt.Errorf("load cartridge: %w", err)
	}
	slog.Info("loaded rom", "path", romPath, "title", cart.Title(), "cgb", cart.CGB(), "ram_size", cart.RAMSize())

	machine := gbcore.NewMachine(cart)
	maybeLoadBootROM(c, machine, romPath)
	maybeLoadKeymap(romPath)

	savePath := saveFilePath(romPath)
	if cart.HasBattery() {
		if data, err := os.ReadFile(savePath); err == nil {
			machine.Bus().LoadExternalRAM(data)
			slog.Info("loaded save file", "path", savePath)
		}
	} else {
		savePath = ""
	}

	peer, err := buildSerialTransport(c)
	if err != nil {
		return fmt.Errorf("serial transport: %w", err)
	}
	machine.Bus().AttachSerialPort(peer)

	be, cfg, err := buildBackend(c, machine, romPath)
	if err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	if err := be.Init(cfg); err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	defer be.Cleanup()

	schedCfg := gbcore.SchedulerConfig{
		SavePath:      savePath,
		StatePath:     c.String("state-file"),
		RestartOnStop: c.Bool("restart-on-stop"),
	}

	if recordPath := c.String("record-input"); recordPath != "" {
		rec, err := gbcore.NewRecorder(recordPath)
		if err != nil {
			return fmt.Errorf("open --record-input file: %w", err)
		}
		defer rec.Close()
		schedCfg.Recorder = rec
	}

	if replayPath := c.String("replay-input"); replayPath != "" {
		player, err := gbcore.NewPlayer(replayPath)
		if err != nil {
			return fmt.Errorf("open --replay-input file: %w", err)
		}
		schedCfg.Player = player
	}

	limiter := chooseLimiter(c)
	sched := gbcore.NewScheduler(machine, be, limiter, schedCfg)

	if c.Bool("load-state") {
		statePath := c.String("state-file")
		if statePath == "" {
			return errors.New("--load-state requires --state-file")
		}
		if err := sched.LoadState(statePath); err != nil {
			return err
		}
		slog.Info("loaded state snapshot", "path", statePath)
	}

	installSignalHandler(sched)

	return sched.Run()
}

func configureLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}

// maybeLoadBootROM loads a DMG boot ROM from a conventional path alongside
// the cartridge (dmg_boot.bin) unless --skip-bootrom is set. The CLI
// surface has no flag to name a boot ROM file explicitly, so its absence
// at that path is not an error: the machine simply starts at the
// cartridge's entry point, exactly as --skip-bootrom would request.
func maybeLoadBootROM(c *cli.Context, machine *gbcore.Machine, romPath string) {
	if c.Bool("skip-bootrom") {
		return
	}
	bootPath := filepath.Join(filepath.Dir(romPath), "dmg_boot.bin")
	data, err := os.ReadFile(bootPath)
	if err != nil {
		slog.Debug("no boot rom found, starting at cartridge entry point", "tried", bootPath)
		return
	}
	machine.LoadBootROM(data)
	slog.Info("loaded boot rom", "path", bootPath)
}

// maybeLoadKeymap loads key binding overrides from a conventional
// keymap.yaml file alongside the cartridge, the same autodetect-by-
// convention approach as the boot ROM: the CLI's flag surface has no
// --config/--keymap flag, so there's no path to name one explicitly.
// Its absence is silent. A file that cannot be read or parsed logs a
// warning and the default bindings stay in place; a file naming unknown
// actions logs a warning after its recognized bindings have been applied.
func maybeLoadKeymap(romPath string) {
	keymapPath := filepath.Join(filepath.Dir(romPath), "keymap.yaml")
	if _, err := os.Stat(keymapPath); err != nil {
		return
	}
	if err := input.LoadKeymapOverrides(keymapPath); err != nil {
		slog.Warn("keymap file not fully applied", "path", keymapPath, "error", err)
		return
	}
	slog.Info("loaded keymap overrides", "path", keymapPath)
}

func saveFilePath(romPath string) string {
	ext := filepath.Ext(romPath)
	return strings.TrimSuffix(romPath, ext) + ".sav"
}

func buildSerialTransport(c *cli.Context) (memory.SerialPort, error) {
	noResponse := c.Bool("no-response")

	switch {
	case c.String("listen") != "":
		return serial.Listen(c.String("listen"), noResponse)
	case c.String("connect") != "":
		return serial.Dial(c.String("connect"), noResponse)
	case c.String("fifo-input") != "" && c.String("fifo-output") != "":
		return serial.NewFileTransport(c.String("fifo-input"), c.String("fifo-output"))
	default:
		return serial.NewLogSink(), nil
	}
}

// buildBackend selects and configures a Backend. --headless always wins;
// otherwise --keyboard tries the sdl2 backend first (a real window when
// built with -tags sdl2) and falls back to the terminal backend when sdl2
// isn't available, since both satisfy "interactive keyboard input" and
// only one of them is ever actually compiled in.
func buildBackend(c *cli.Context, machine *gbcore.Machine, romPath string) (backend.Backend, backend.Config, error) {
	cfg := backend.Config{
		Title:         filepath.Base(romPath),
		APU:           machine.APU(),
		DebugProvider: machine,
		ShowDebug:     slog.Default().Enabled(nil, slog.LevelDebug),
		SnapshotDir:   filepath.Dir(romPath),
	}

	if c.Bool("headless") {
		return headless.New(math.MaxInt32, headless.SnapshotConfig{}), cfg, nil
	}

	if c.Bool("keyboard") {
		sdlBackend := sdl2.New()
		if err := sdlBackend.Init(cfg); err == nil {
			return sdlBackend, cfg, nil
		}
		slog.Info("sdl2 backend unavailable, falling back to terminal")
	}

	return terminal.New(), cfg, nil
}

func chooseLimiter(c *cli.Context) timing.Limiter {
	if c.Bool("headless") {
		return timing.NewNoOpLimiter()
	}
	return timing.NewAdaptiveLimiterAtSpeed(c.Float64("speed"))
}

// runTestPattern runs without a cartridge, for the "no ROM given" case:
// an interactive backend animates a test pattern with no Machine behind
// it at all. This loop acts only on EmulatorQuit; pattern cycling happens
// only where a backend handles it inside its own Update (the terminal
// backend does, the sdl2 backend does not).
func runTestPattern(c *cli.Context) error {
	cfg := backend.Config{Title: "gbcore (test pattern)", TestPattern: true}

	var be backend.Backend
	if c.Bool("keyboard") {
		sdlBackend := sdl2.New()
		if err := sdlBackend.Init(cfg); err == nil {
			be = sdlBackend
		}
	}
	if be == nil {
		be = terminal.New()
		if err := be.Init(cfg); err != nil {
			return fmt.Errorf("init test pattern backend: %w", err)
		}
	}
	defer be.Cleanup()

	limiter := timing.NewAdaptiveLimiterAtSpeed(c.Float64("speed"))
	for {
		events, err := be.Update(nil)
		if err != nil {
			return err
		}
		for _, evt := range events {
			if evt.Action == action.EmulatorQuit {
				return nil
			}
		}
		limiter.WaitForNextFrame()
	}
}

func installSignalHandler(sched *gbcore.Scheduler) {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		slog.Info("shutdown signal received")
		sched.RequestQuit()
	}()
}
