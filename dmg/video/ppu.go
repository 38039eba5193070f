package video

import (
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
	"github.com/valerio/go-dmgcore/dmg/bus"
)

// Mode is the LCD mode reported in STAT bits 0-1.
type Mode uint8

const (
	ModeHBlank Mode = iota
	ModeVBlank
	ModeOAM
	ModeVRAM
)

// Phase is the PPU timing state. The low 2 bits are always the reported
// mode; the Entered phases last one dot and fire the mode's interrupt once.
type Phase uint8

const (
	HBlank Phase = 0x00
	VBlank Phase = 0x01
	OAM    Phase = 0x02
	VRAM   Phase = 0x03

	HBlankEntered Phase = 0x04
	VBlankEntered Phase = 0x05
	OAMEntered    Phase = 0x06
	VRAMEntered   Phase = 0x07

	// VBlankLine153 reports LY=153 for the first 4 dots of the last line.
	VBlankLine153 Phase = 0x09
	// VBlankLine0 reports LY=0 for the rest of the last line.
	VBlankLine0 Phase = 0x0D
)

// Mode returns the STAT mode of the phase.
func (s Phase) Mode() Mode { return Mode(s & 0x03) }

const (
	lineDots   = 456
	oamDots    = 80
	vramDots   = 172
	frameLines = 154
	// DotsPerCycle is the number of dots elapsed per machine cycle.
	DotsPerCycle = 4
)

// LCDC bits
const (
	lcdcBGEnable     uint8 = 0
	lcdcSpriteEnable uint8 = 1
	lcdcSpriteSize   uint8 = 2
	lcdcBGMap        uint8 = 3
	lcdcTileData     uint8 = 4
	lcdcWindowEnable uint8 = 5
	lcdcWindowMap    uint8 = 6
	lcdcDisplay      uint8 = 7
)

// STAT bits
const (
	statCoincidence uint8 = 2
	statHBlankIRQ   uint8 = 3
	statVBlankIRQ   uint8 = 4
	statOAMIRQ      uint8 = 5
	statLYCIRQ      uint8 = 6
)

// DMABus is what the OAM-DMA engine needs from the memory bus.
type DMABus interface {
	Peek(address uint16) uint8
	SetDMAActive(active bool)
}

// PPU is the pixel processing unit. It advances DotsPerCycle dots per Tick,
// renders each visible line when VRAM access ends and hands the finished
// frame to the frame handler on VBlank entry.
type PPU struct {
	state    Phase
	ly       uint8
	lineDots int // dots elapsed in the current line
	drawDots int // length of the VRAM state on this line

	lcdc, stat uint8
	scy, scx   uint8
	lyc        uint8
	bgp        uint8
	obp0, obp1 uint8
	wy, wx     uint8
	windowLine int

	vram    [0x2000]uint8
	oam     [0xA0]uint8
	tiles   [TileCount]Tile
	sprites [spriteCount]Sprite

	framebuffer *FrameBuffer
	// bgColor holds the color numbers of the background on the current line;
	// color 0 is transparent for the BehindBG sprite rule.
	bgColor     [FramebufferWidth]uint8
	lineSprites [maxSpritesPerLine]Sprite
	frames      uint64

	dma dma

	// InterruptHandler requests VBlank and LCD STAT interrupts.
	InterruptHandler func(addr.Interrupt)
	// FrameHandler receives the framebuffer once per frame, on VBlank entry.
	// The buffer is reused for the next frame.
	FrameHandler func(*FrameBuffer)
}

// NewPPU returns a PPU at the start of line 0 with the LCD on.
func NewPPU(irq func(addr.Interrupt)) *PPU {
	p := &PPU{
		InterruptHandler: irq,
		framebuffer:      NewFrameBuffer(),
	}
	p.Reset()
	return p
}

// Reset puts the PPU at line 0, state OAM, with the post boot register values.
func (p *PPU) Reset() {
	p.state = OAM
	p.ly = 0
	p.lineDots = 0
	p.drawDots = vramDots
	p.lcdc = 0x91
	p.stat = 0
	p.scy, p.scx, p.lyc = 0, 0, 0
	p.bgp = 0xFC
	p.obp0, p.obp1 = 0xFF, 0xFF
	p.wy, p.wx = 0, 0
	p.windowLine = 0
	p.dma = dma{}
	p.compareLY()
}

// Tick advances the PPU by one machine cycle.
func (p *PPU) Tick() {
	if !p.Enabled() {
		return
	}
	for range DotsPerCycle {
		p.dot()
	}
}

func (p *PPU) dot() {
	p.lineDots++

	switch p.state {
	case OAMEntered:
		p.statInterrupt(statOAMIRQ)
		p.state = OAM
	case OAM:
		if p.lineDots == oamDots {
			p.drawDots = vramDots + int(p.scx&0x07)
			p.state = VRAMEntered
		}
	case VRAMEntered:
		p.state = VRAM
	case VRAM:
		if p.lineDots == oamDots+p.drawDots {
			p.renderLine()
			p.state = HBlankEntered
		}
	case HBlankEntered:
		p.statInterrupt(statHBlankIRQ)
		p.state = HBlank
	case HBlank:
		if p.lineDots == lineDots {
			p.nextLine()
		}
	case VBlankEntered:
		p.enterVBlank()
		p.state = VBlank
	case VBlank:
		if p.lineDots == lineDots {
			p.nextLine()
		}
	case VBlankLine153:
		if p.lineDots == DotsPerCycle {
			p.ly = 0
			p.compareLY()
			p.state = VBlankLine0
		}
	case VBlankLine0:
		if p.lineDots == lineDots {
			p.startFrame()
		}
	}
}

func (p *PPU) nextLine() {
	p.lineDots = 0
	p.ly++
	switch {
	case p.ly < FramebufferHeight:
		p.state = OAMEntered
	case p.ly == FramebufferHeight:
		p.state = VBlankEntered
	case p.ly == frameLines-1:
		p.state = VBlankLine153
	default:
		p.state = VBlank
	}
	p.compareLY()
}

func (p *PPU) startFrame() {
	p.lineDots = 0
	p.ly = 0
	p.windowLine = 0
	p.state = OAMEntered
	p.compareLY()
}

func (p *PPU) enterVBlank() {
	p.frames++
	p.request(addr.VBlankInterrupt)
	p.statInterrupt(statVBlankIRQ)
	if p.FrameHandler != nil {
		p.FrameHandler(p.framebuffer)
	}
}

func (p *PPU) request(i addr.Interrupt) {
	if p.InterruptHandler != nil {
		p.InterruptHandler(i)
	}
}

func (p *PPU) statInterrupt(source uint8) {
	if bit.IsSet(source, p.stat) {
		p.request(addr.LCDSTATInterrupt)
	}
}

// compareLY updates the coincidence flag and requests the LYC interrupt when
// LY becomes equal to LYC.
func (p *PPU) compareLY() {
	equal := p.ly == p.lyc
	was := bit.IsSet(statCoincidence, p.stat)
	p.stat = bit.SetTo(statCoincidence, p.stat, equal)
	if equal && !was {
		p.statInterrupt(statLYCIRQ)
	}
}

// Enabled reports whether LCDC bit 7 is set.
func (p *PPU) Enabled() bool {
	return bit.IsSet(lcdcDisplay, p.lcdc)
}

func (p *PPU) setLCDC(value uint8) {
	was := p.Enabled()
	p.lcdc = value
	switch {
	case was && !p.Enabled():
		p.ly = 0
		p.lineDots = 0
		p.windowLine = 0
		p.state = HBlank
		p.framebuffer.Clear()
	case !was && p.Enabled():
		p.lineDots = 0
		p.state = OAM
		p.compareLY()
	}
}

// Phase returns the current timing state.
func (p *PPU) Phase() Phase { return p.state }

// Mode returns the STAT mode, 0 while the LCD is off.
func (p *PPU) Mode() Mode {
	if !p.Enabled() {
		return ModeHBlank
	}
	return p.state.Mode()
}

// LY returns the reported line.
func (p *PPU) LY() uint8 { return p.ly }

// LineDots returns the dots elapsed in the current line.
func (p *PPU) LineDots() int { return p.lineDots }

// Frames returns the number of VBlank entries since power on.
func (p *PPU) Frames() uint64 { return p.frames }

// FrameBuffer returns the framebuffer being drawn.
func (p *PPU) FrameBuffer() *FrameBuffer { return p.framebuffer }

// ReadRegister serves the LCD registers.
func (p *PPU) ReadRegister(address uint16) uint8 {
	switch address {
	case addr.LCDC:
		return p.lcdc
	case addr.STAT:
		return 0x80 | p.stat&0x7C | uint8(p.Mode())
	case addr.SCY:
		return p.scy
	case addr.SCX:
		return p.scx
	case addr.LY:
		return p.ly
	case addr.LYC:
		return p.lyc
	case addr.DMA:
		return p.dma.register
	case addr.BGP:
		return p.bgp
	case addr.OBP0:
		return p.obp0
	case addr.OBP1:
		return p.obp1
	case addr.WY:
		return p.wy
	case addr.WX:
		return p.wx
	}
	return bus.OpenBus
}

// WriteRegister serves the LCD registers. LY is read only.
func (p *PPU) WriteRegister(address uint16, value uint8) {
	switch address {
	case addr.LCDC:
		p.setLCDC(value)
	case addr.STAT:
		p.stat = p.stat&0x07 | value&0x78
	case addr.SCY:
		p.scy = value
	case addr.SCX:
		p.scx = value
	case addr.LYC:
		p.lyc = value
		if p.Enabled() {
			p.compareLY()
		}
	case addr.DMA:
		p.dma.start(value)
	case addr.BGP:
		p.bgp = value
	case addr.OBP0:
		p.obp0 = value
	case addr.OBP1:
		p.obp1 = value
	case addr.WY:
		p.wy = value
	case addr.WX:
		p.wx = value
	}
}

func (p *PPU) readVRAM(address uint16) uint8 {
	return p.vram[address-0x8000]
}

func (p *PPU) writeVRAM(address uint16, value uint8) {
	offset := address - 0x8000
	p.vram[offset] = value
	p.updateTile(offset)
}

func (p *PPU) readOAM(address uint16) uint8 {
	return p.oam[address-addr.OAMStart]
}

func (p *PPU) writeOAM(address uint16, value uint8) {
	offset := address - addr.OAMStart
	p.oam[offset] = value
	p.updateSprite(offset)
}

// Attach maps VRAM, OAM and the LCD registers, and gives the DMA engine
// access to the bus.
func (p *PPU) Attach(b *bus.Bus) {
	p.dma.bus = b
	b.Map(addr.VRAM, bus.Range(0x8000, 0x9FFF, p.readVRAM, p.writeVRAM))
	b.Map(addr.OAM, bus.Range(addr.OAMStart, addr.OAMEnd, p.readOAM, p.writeOAM))
	b.Map(addr.IO, bus.Range(addr.LCDC, addr.WX, p.ReadRegister, p.WriteRegister))
}
