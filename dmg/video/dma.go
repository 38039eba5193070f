package video

// DMAState is the OAM-DMA sub-state.
type DMAState uint8

const (
	DMAInactive DMAState = iota
	DMAStartup
	DMAActive
	DMATeardown
)

// dmaLength is the number of bytes copied, one per machine cycle.
const dmaLength = 0xA0

// dma copies 160 bytes from (register << 8) into OAM over 162 machine cycles:
// one startup cycle, 160 copy cycles while the bus is contended, and one
// teardown cycle.
type dma struct {
	state    DMAState
	register uint8
	source   uint16
	index    uint16
	bus      DMABus
}

func (d *dma) start(value uint8) {
	d.register = value
	d.source = uint16(value) << 8
	d.index = 0
	d.state = DMAStartup
}

// TickDMA advances the OAM-DMA engine by one machine cycle. It runs whether
// or not the LCD is on.
func (p *PPU) TickDMA() {
	d := &p.dma
	switch d.state {
	case DMAStartup:
		d.state = DMAActive
		if d.bus != nil {
			d.bus.SetDMAActive(true)
		}
	case DMAActive:
		var v uint8 = 0xFF
		if d.bus != nil {
			v = d.bus.Peek(d.source + d.index)
		}
		p.oam[d.index] = v
		p.updateSprite(d.index)
		d.index++
		if d.index == dmaLength {
			d.state = DMATeardown
		}
	case DMATeardown:
		d.state = DMAInactive
		if d.bus != nil {
			d.bus.SetDMAActive(false)
		}
	}
}

// DMAState returns the OAM-DMA sub-state.
func (p *PPU) DMAState() DMAState { return p.dma.state }
