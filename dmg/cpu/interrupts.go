package cpu

import (
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bus"
)

// Interrupts holds the IE and IF registers. Devices request interrupts through
// Request; the CPU services them in bit order, VBlank first.
type Interrupts struct {
	enable  uint8
	request uint8
}

// Request sets the IF bit of i.
func (in *Interrupts) Request(i addr.Interrupt) {
	in.request |= uint8(i) & 0x1F
}

// Pending returns the interrupts both enabled and requested.
func (in *Interrupts) Pending() uint8 {
	return in.enable & in.request & 0x1F
}

// Enabled returns IE.
func (in *Interrupts) Enabled() uint8 { return in.enable }

// Requested returns IF without the unused upper bits.
func (in *Interrupts) Requested() uint8 { return in.request }

// highest returns the lowest numbered pending interrupt, or 0 if none.
func (in *Interrupts) highest() addr.Interrupt {
	p := in.Pending()
	return addr.Interrupt(p & -p)
}

func (in *Interrupts) acknowledge(i addr.Interrupt) {
	in.request &^= uint8(i)
}

// Attach maps IF and IE. The unused upper bits of IF read as 1.
func (in *Interrupts) Attach(b *bus.Bus) {
	b.Map(addr.IO, bus.Range(addr.IF, addr.IF,
		func(uint16) uint8 { return in.request | 0xE0 },
		func(_ uint16, v uint8) { in.request = v & 0x1F }))
	b.Map(addr.InterruptEnable, bus.Range(addr.IE, addr.IE,
		func(uint16) uint8 { return in.enable },
		func(_ uint16, v uint8) { in.enable = v }))
}
