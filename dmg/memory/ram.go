package memory

import (
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bus"
)

// RAM is the console's internal work RAM, its echo mirror, and high RAM.
type RAM struct {
	work [0x2000]uint8
	high [0x7F]uint8
}

// NewRAM returns zeroed work and high RAM.
func NewRAM() *RAM {
	return &RAM{}
}

// Attach maps work RAM on 0xC000-0xDFFF, its mirror on 0xE000-0xFDFF and
// high RAM on 0xFF80-0xFFFE.
func (r *RAM) Attach(b *bus.Bus) {
	b.Map(addr.WRAM, bus.Range(0xC000, 0xDFFF,
		func(a uint16) uint8 { return r.work[a-0xC000] },
		func(a uint16, v uint8) { r.work[a-0xC000] = v }))
	b.Map(addr.Echo, bus.Range(0xE000, 0xFDFF,
		func(a uint16) uint8 { return r.work[a-0xE000] },
		func(a uint16, v uint8) { r.work[a-0xE000] = v }))
	b.Map(addr.HRAM, bus.Range(0xFF80, 0xFFFE,
		func(a uint16) uint8 { return r.high[a-0xFF80] },
		func(a uint16, v uint8) { r.high[a-0xFF80] = v }))
}
