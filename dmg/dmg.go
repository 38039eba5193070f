package dmg

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/audio"
	"github.com/valerio/go-dmgcore/dmg/bus"
	"github.com/valerio/go-dmgcore/dmg/cpu"
	"github.com/valerio/go-dmgcore/dmg/debug"
	"github.com/valerio/go-dmgcore/dmg/input"
	"github.com/valerio/go-dmgcore/dmg/memory"
	"github.com/valerio/go-dmgcore/dmg/serial"
	"github.com/valerio/go-dmgcore/dmg/timing"
	"github.com/valerio/go-dmgcore/dmg/video"
)

// FrameSink receives every completed frame on the emulation goroutine. The
// buffer is reused for the next frame; sinks that keep it must Copy it.
type FrameSink func(*video.FrameBuffer)

// DMG owns every component of one loaded cartridge. The CPU drives the rest
// of the system through Tick, once per machine cycle.
type DMG struct {
	bus      *bus.Bus
	ints     *cpu.Interrupts
	cpu      *cpu.CPU
	ppu      *video.PPU
	apu      *audio.APU
	timer    *memory.Timer
	joypad   *memory.Joypad
	ram      *memory.RAM
	cart     *memory.Cartridge
	serial   *serial.Port
	debugger *debug.Debugger

	input      input.Source
	frameSinks []FrameSink
	logger     *slog.Logger
}

// New builds a system around the ROM image.
func New(rom []byte, opts ...Option) (*DMG, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	cartOpts := []memory.Option{memory.WithLogger(cfg.logger.With("component", "cartridge"))}
	if cfg.clock != nil {
		cartOpts = append(cartOpts, memory.WithClock(cfg.clock))
	}
	cart, err := memory.NewCartridge(rom, cartOpts...)
	if err != nil {
		return nil, fmt.Errorf("load cartridge: %w", err)
	}

	d := &DMG{
		bus:        bus.New(),
		ints:       &cpu.Interrupts{},
		ram:        memory.NewRAM(),
		cart:       cart,
		apu:        audio.New(),
		input:      cfg.input,
		frameSinks: cfg.frameSinks,
		logger:     cfg.logger,
	}
	d.ppu = video.NewPPU(d.ints.Request)
	d.ppu.FrameHandler = d.frameDone
	d.timer = memory.NewTimer(func() { d.ints.Request(addr.TimerInterrupt) })
	d.joypad = memory.NewJoypad(func() { d.ints.Request(addr.JoypadInterrupt) })
	d.serial = serial.New(d.ints.Request, serial.WithLogger(cfg.logger.With("component", "serial")))
	for _, s := range cfg.sampleSinks {
		d.apu.AddSink(s)
	}

	// handlers are tried in registration order within a region
	d.cart.Attach(d.bus)
	d.ram.Attach(d.bus)
	d.joypad.Attach(d.bus)
	d.serial.Attach(d.bus)
	d.timer.Attach(d.bus)
	d.ints.Attach(d.bus)
	d.apu.Attach(d.bus)
	d.ppu.Attach(d.bus)

	d.cpu = cpu.New(d.bus, d, d.ints)
	d.debugger = debug.New(d.cpu)
	for _, l := range cfg.listeners {
		d.debugger.AddListener(l)
	}

	d.logger.Info("cartridge loaded",
		"title", cart.Title,
		"controller", cart.Controller,
		"rom_banks", cart.ROMBanks(),
		"ram_banks", cart.RAMBanks())
	return d, nil
}

// NewWithFile reads a ROM image from path and builds a system around it.
func NewWithFile(path string, opts ...Option) (*DMG, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rom: %w", err)
	}
	return New(data, opts...)
}

// Tick advances every component by one machine cycle. The order is fixed:
// OAM-DMA, PPU, APU, timer, joypad, serial.
func (d *DMG) Tick() {
	d.ppu.TickDMA()
	d.ppu.Tick()
	d.apu.Tick()
	d.timer.Tick()
	d.joypad.Tick()
	d.serial.Tick()
}

func (d *DMG) frameDone(fb *video.FrameBuffer) {
	if d.input != nil {
		d.joypad.SetPressed(d.input.Pressed())
	}
	for _, s := range d.frameSinks {
		s(fb)
	}
}

// Step executes one instruction on the calling goroutine.
func (d *DMG) Step() error {
	return d.cpu.StepOver()
}

// RunFrame executes instructions on the calling goroutine until the PPU
// completes a frame, or for one frame's worth of cycles while the LCD is off.
func (d *DMG) RunFrame() error {
	start := d.ppu.Frames()
	budget := d.cpu.Cycles() + timing.CyclesPerFrame
	for d.ppu.Frames() == start && d.cpu.Cycles() < budget {
		if err := d.cpu.StepOver(); err != nil {
			return err
		}
	}
	return nil
}

// RunFrames calls RunFrame n times, stopping at the first error.
func (d *DMG) RunFrames(n int) error {
	for i := range n {
		if err := d.RunFrame(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// Start runs the system on its own goroutine under the debugger, so
// breakpoints and watchpoints apply. Frame sinks are called from that
// goroutine and may block to pace it.
func (d *DMG) Start() error {
	return d.debugger.Run()
}

// Stop ends a run started with Start and returns the error that ended it.
func (d *DMG) Stop() error {
	return d.debugger.Stop()
}

// Wait blocks until a run started with Start ends on its own.
func (d *DMG) Wait() error {
	return d.debugger.Wait()
}

// Running reports whether the execution goroutine is active.
func (d *DMG) Running() bool {
	return d.cpu.Running()
}

// SetPressed replaces the held keys. Safe to call from any goroutine.
func (d *DMG) SetPressed(keys input.KeySet) {
	d.joypad.SetPressed(keys)
}

// Frame returns the PPU framebuffer. Its content is only stable while the
// system is not running.
func (d *DMG) Frame() *video.FrameBuffer { return d.ppu.FrameBuffer() }

// Frames returns the number of frames completed.
func (d *DMG) Frames() uint64 { return d.ppu.Frames() }

func (d *DMG) CPU() *cpu.CPU                { return d.cpu }
func (d *DMG) PPU() *video.PPU              { return d.ppu }
func (d *DMG) APU() *audio.APU              { return d.apu }
func (d *DMG) Cartridge() *memory.Cartridge { return d.cart }
func (d *DMG) Serial() *serial.Port         { return d.serial }
func (d *DMG) Debugger() *debug.Debugger    { return d.debugger }

// Peek reads the bus without advancing time and without OAM-DMA
// contention, for host side inspection.
func (d *DMG) Peek(address uint16) uint8 { return d.bus.Peek(address) }
