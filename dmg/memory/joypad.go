package memory

import (
	"sync/atomic"

	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bus"
	"github.com/valerio/go-dmgcore/dmg/input"
)

// Joypad exposes the pressed keys through P1. The host writes the key set
// from its own goroutine; the emulation loop only reads it.
type Joypad struct {
	pressed atomic.Uint32

	selection uint8 // P1 bits 4-5 as last written, 0 selects the row
	lines     uint8 // last visible low nibble, active low

	JoypadInterruptHandler func()
}

// NewJoypad returns a joypad with no key pressed and no row selected.
func NewJoypad(irq func()) *Joypad {
	return &Joypad{selection: 0x30, lines: 0x0F, JoypadInterruptHandler: irq}
}

// SetPressed replaces the set of held keys. Safe to call from any goroutine.
func (j *Joypad) SetPressed(keys input.KeySet) {
	j.pressed.Store(uint32(keys))
}

// Pressed returns the keys currently held.
func (j *Joypad) Pressed() input.KeySet {
	return input.KeySet(j.pressed.Load())
}

// Tick samples the key set and requests the joypad interrupt when a selected
// line goes from high to low.
func (j *Joypad) Tick() {
	lines := j.visible()
	if j.lines&^lines != 0 && j.JoypadInterruptHandler != nil {
		j.JoypadInterruptHandler()
	}
	j.lines = lines
}

func (j *Joypad) visible() uint8 {
	keys := j.Pressed()
	var held uint8
	if j.selection&0x10 == 0 {
		held |= keys.Directions()
	}
	if j.selection&0x20 == 0 {
		held |= keys.Buttons()
	}
	return ^held & 0x0F
}

func (j *Joypad) Read(uint16) uint8 {
	return 0xC0 | j.selection | j.visible()
}

func (j *Joypad) Write(_ uint16, value uint8) {
	j.selection = value & 0x30
}

// Attach maps P1.
func (j *Joypad) Attach(b *bus.Bus) {
	b.Map(addr.IO, bus.Range(addr.P1, addr.P1, j.Read, j.Write))
}
