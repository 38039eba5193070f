package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/valerio/go-dmgcore/dmg"
	"github.com/valerio/go-dmgcore/dmg/audio"
	"github.com/valerio/go-dmgcore/dmg/backend"
	"github.com/valerio/go-dmgcore/dmg/backend/headless"
	"github.com/valerio/go-dmgcore/dmg/backend/sound"
	"github.com/valerio/go-dmgcore/dmg/backend/terminal"
	"github.com/valerio/go-dmgcore/dmg/backend/window"
	"github.com/valerio/go-dmgcore/dmg/input"
	"github.com/valerio/go-dmgcore/dmg/savestate"
	"github.com/valerio/go-dmgcore/dmg/timing"
)

func main() {
	app := cli.NewApp()
	app.Name = "dmgcore"
	app.Description = "A cycle stepped Game Boy emulator"
	app.Usage = "dmgcore [options] <ROM file>"
	app.Version = "1.0.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "rom", Usage: "Path to the ROM file"},
		cli.BoolFlag{Name: "headless", Usage: "Run without a frontend for a fixed number of frames"},
		cli.IntFlag{Name: "frames", Usage: "Number of frames to run in headless mode (required for headless)"},
		cli.IntFlag{Name: "snapshot-interval", Usage: "Save a PNG every N frames in headless mode (0 = disabled)"},
		cli.StringFlag{Name: "snapshot-dir", Usage: "Directory for PNG snapshots (default: temp directory)"},
		cli.StringFlag{Name: "record-wav", Usage: "Record the audio output to a WAV file"},
		cli.BoolFlag{Name: "audio", Usage: "Play audio on the default output device"},
		cli.BoolFlag{Name: "window", Usage: "Use the window frontend instead of the terminal (needs -tags ebiten)"},
		cli.IntFlag{Name: "scale", Usage: "Window scale factor", Value: 3},
		cli.BoolFlag{Name: "debug", Usage: "Show the CPU panel in the terminal frontend"},
		cli.BoolFlag{Name: "paused", Usage: "Start paused"},
		cli.StringSliceFlag{Name: "break", Usage: "Stop before executing the instruction at this address (hex, repeatable)"},
		cli.StringSliceFlag{Name: "break-op", Usage: "Stop after executing this opcode, CBxx for prefixed ones (hex, repeatable)"},
		cli.StringSliceFlag{Name: "watch-read", Usage: "Stop before an instruction reading this address (hex, repeatable)"},
		cli.StringSliceFlag{Name: "watch-write", Usage: "Stop before an instruction writing this address (hex, repeatable)"},
		cli.StringFlag{Name: "load-state", Usage: "Restore a save state before running"},
		cli.StringFlag{Name: "save-state", Usage: "Save state file, written on F5 or at the end of a headless run"},
		cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", Value: "info"},
	}
	app.Action = runEmulator

	if err := app.Run(os.Args); err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

type frontend int

const (
	frontendTerminal frontend = iota
	frontendWindow
	frontendHeadless
)

func runEmulator(c *cli.Context) error {
	romPath := c.String("rom")
	if romPath == "" {
		if c.NArg() == 0 {
			cli.ShowAppHelp(c)
			return errors.New("no ROM path provided")
		}
		romPath = c.Args().Get(0)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}

	points, err := parseDebugPoints(c.StringSlice("break"), c.StringSlice("break-op"),
		c.StringSlice("watch-read"), c.StringSlice("watch-write"))
	if err != nil {
		return err
	}

	mode := frontendTerminal
	switch {
	case c.Bool("headless"):
		mode = frontendHeadless
	case c.Bool("window"):
		if !window.Available {
			return errors.New("--window needs a build with -tags ebiten")
		}
		mode = frontendWindow
	case !term.IsTerminal(int(os.Stdout.Fd())):
		return errors.New("stdout is not a terminal, use --headless or --window")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	var opts []dmg.Option
	var tui *terminal.Backend
	var runner *headless.Runner
	var session *backend.Session
	manager := input.NewManager()

	switch mode {
	case frontendHeadless:
		// debug level on stderr, so every cartridge and serial event shows
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		cfg, err := headless.NewConfig(c.Int("frames"), c.Int("snapshot-interval"), c.String("snapshot-dir"), romPath)
		if err != nil {
			return err
		}
		runner = headless.New(cfg)
		opts = append(opts, dmg.WithFrameSink(runner.Present))
	case frontendTerminal:
		tui = terminal.New()
		slog.SetDefault(slog.New(tui.LogHandler(level)))
	case frontendWindow:
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}
	if mode != frontendHeadless {
		session = backend.NewSession(timing.NewSleepPacer(), manager,
			backend.WithStatePath(c.String("save-state")),
			backend.WithScreenshotDir(c.String("snapshot-dir")))
		opts = append(opts, dmg.WithFrameSink(session.Present), dmg.WithInput(manager))
	}

	if path := c.String("record-wav"); path != "" {
		rec, err := sound.CreateWAV(path)
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				slog.Error("wav recording failed", "error", err)
			} else {
				slog.Info("wav recording saved", "path", path, "pairs", rec.Pairs())
			}
		}()
		opts = append(opts, dmg.WithSampleSink(rec.Sink()))
	}

	if c.Bool("audio") {
		if mode == frontendHeadless {
			slog.Warn("--audio is ignored in headless mode")
		} else {
			queue := audio.NewSampleQueue(audio.SampleRate / 10)
			player, err := sound.NewPlayer(queue)
			if err != nil {
				return err
			}
			player.Start()
			defer queue.Close()
			defer player.Close()
			opts = append(opts, dmg.WithSampleSink(queue.Sink()))
		}
	}

	emu, err := dmg.NewWithFile(romPath, opts...)
	if err != nil {
		return err
	}
	if path := c.String("load-state"); path != "" {
		st, err := savestate.LoadFile(path)
		if err != nil {
			return err
		}
		if err := emu.Restore(st); err != nil {
			return err
		}
		slog.Info("state loaded", "path", path)
	}
	if err := points.apply(emu.Debugger()); err != nil {
		return err
	}

	cfg := backend.Config{
		Title:     emu.Cartridge().Title,
		Scale:     c.Int("scale"),
		ShowDebug: c.Bool("debug") || c.Bool("paused"),
		Input:     manager,
	}
	switch mode {
	case frontendHeadless:
		if err := runner.Run(ctx, emu); err != nil {
			return err
		}
		return saveFinalState(emu, c.String("save-state"))
	case frontendWindow:
		session.Attach(emu)
		return window.Run(session, cfg, c.Bool("paused"))
	default:
		session.Attach(emu)
		return backend.Run(ctx, tui, session, cfg, c.Bool("paused"))
	}
}

func saveFinalState(emu *dmg.DMG, path string) error {
	if path == "" {
		return nil
	}
	st, err := emu.Snapshot()
	if err != nil {
		return err
	}
	if err := savestate.SaveFile(path, st); err != nil {
		return err
	}
	slog.Info("state saved", "path", path)
	return nil
}
