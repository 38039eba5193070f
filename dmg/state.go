package dmg

import (
	"fmt"

	"github.com/valerio/go-dmgcore/dmg/audio"
	"github.com/valerio/go-dmgcore/dmg/cpu"
	"github.com/valerio/go-dmgcore/dmg/memory"
	"github.com/valerio/go-dmgcore/dmg/serial"
	"github.com/valerio/go-dmgcore/dmg/video"
)

// State is everything needed to resume emulation of the same cartridge.
type State struct {
	Title     string
	CPU       cpu.State
	PPU       video.State
	APU       audio.State
	Timer     memory.TimerState
	Cartridge memory.CartridgeState
	RAM       memory.RAMState
	Joypad    memory.JoypadState
	Serial    serial.State
}

// Snapshot captures the state of every component. The system must not be
// running.
func (d *DMG) Snapshot() (State, error) {
	if d.Running() {
		return State{}, &cpu.LogicError{Op: "Snapshot", Reason: "execution loop is running"}
	}
	return State{
		Title:     d.cart.Title,
		CPU:       d.cpu.State(),
		PPU:       d.ppu.State(),
		APU:       d.apu.State(),
		Timer:     d.timer.State(),
		Cartridge: d.cart.State(),
		RAM:       d.ram.State(),
		Joypad:    d.joypad.State(),
		Serial:    d.serial.State(),
	}, nil
}

// Restore loads a state taken from a system running the same cartridge.
// Nothing is modified if the state does not fit the cartridge.
func (d *DMG) Restore(s State) error {
	if d.Running() {
		return &cpu.LogicError{Op: "Restore", Reason: "execution loop is running"}
	}
	if s.Title != d.cart.Title {
		return fmt.Errorf("restore: state is for %q, loaded cartridge is %q", s.Title, d.cart.Title)
	}
	if err := d.cart.SetState(s.Cartridge); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if err := d.cpu.SetState(s.CPU); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	d.ppu.SetState(s.PPU)
	d.apu.SetState(s.APU)
	d.timer.SetState(s.Timer)
	d.ram.SetState(s.RAM)
	d.joypad.SetState(s.Joypad)
	d.serial.SetState(s.Serial)
	d.logger.Debug("state restored", "pc", fmt.Sprintf("%04X", s.CPU.PC), "frames", s.PPU.Frames)
	return nil
}
