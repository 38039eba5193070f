package bus

import (
	"github.com/valerio/go-dmgcore/dmg/addr"
)

// OpenBus is returned for reads nobody claims and for reads blocked by OAM-DMA.
const OpenBus uint8 = 0xFF

// Handler serves part of a region. Both methods report whether the address
// belongs to the handler. Reads stop at the first handler that claims the
// address, in registration order; writes reach every handler.
type Handler interface {
	Read(address uint16) (uint8, bool)
	Write(address uint16, value uint8) bool
}

// Funcs adapts a pair of functions to a Handler. A nil function never claims.
type Funcs struct {
	ReadFunc  func(address uint16) (uint8, bool)
	WriteFunc func(address uint16, value uint8) bool
}

func (f Funcs) Read(address uint16) (uint8, bool) {
	if f.ReadFunc == nil {
		return 0, false
	}
	return f.ReadFunc(address)
}

func (f Funcs) Write(address uint16, value uint8) bool {
	if f.WriteFunc == nil {
		return false
	}
	return f.WriteFunc(address, value)
}

// Range returns a Handler that claims [start, end] and forwards to read and write.
func Range(start, end uint16, read func(uint16) uint8, write func(uint16, uint8)) Handler {
	in := func(a uint16) bool { return a >= start && a <= end }
	return Funcs{
		ReadFunc: func(a uint16) (uint8, bool) {
			if !in(a) || read == nil {
				return 0, false
			}
			return read(a), true
		},
		WriteFunc: func(a uint16, v uint8) bool {
			if !in(a) || write == nil {
				return false
			}
			write(a, v)
			return true
		},
	}
}

// Bus routes memory accesses to the handlers registered for each region.
// It holds no device state besides the DMA contention flag and a fault latch.
type Bus struct {
	handlers  [addr.RegionCount][]Handler
	dmaActive bool
	fault     error
}

// New returns a bus with no handlers; every read returns OpenBus.
func New() *Bus {
	return &Bus{}
}

// Map registers h for region r.
func (b *Bus) Map(r addr.Region, h Handler) {
	b.handlers[r] = append(b.handlers[r], h)
}

// Read performs a CPU read. While OAM-DMA owns the bus, VRAM and OAM read as OpenBus.
func (b *Bus) Read(address uint16) uint8 {
	r, _ := addr.Decode(address)
	if b.dmaActive && (r == addr.VRAM || r == addr.OAM) {
		return OpenBus
	}
	return b.read(r, address)
}

// Peek reads without applying DMA contention. The DMA engine reads through it.
func (b *Bus) Peek(address uint16) uint8 {
	r, _ := addr.Decode(address)
	return b.read(r, address)
}

func (b *Bus) read(r addr.Region, address uint16) uint8 {
	for _, h := range b.handlers[r] {
		if v, ok := h.Read(address); ok {
			return v
		}
	}
	return OpenBus
}

// Write hands value to every handler of the region; each one decides
// whether address belongs to it.
func (b *Bus) Write(address uint16, value uint8) {
	r, _ := addr.Decode(address)
	for _, h := range b.handlers[r] {
		h.Write(address, value)
	}
}

// SetDMAActive raises or clears the OAM-DMA contention flag.
func (b *Bus) SetDMAActive(active bool) {
	b.dmaActive = active
}

// DMAActive reports whether OAM-DMA currently owns the bus.
func (b *Bus) DMAActive() bool {
	return b.dmaActive
}

// Fail latches a fatal device error. Only the first one is kept until taken.
func (b *Bus) Fail(err error) {
	if b.fault == nil {
		b.fault = err
	}
}

// TakeFault returns the latched error, if any, and clears it.
func (b *Bus) TakeFault() error {
	err := b.fault
	b.fault = nil
	return err
}
