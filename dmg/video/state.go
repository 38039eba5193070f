package video

// DMASnapshot is the OAM-DMA sub-state.
type DMASnapshot struct {
	State    DMAState
	Register uint8
	Index    uint16
}

// State is everything needed to restore the PPU.
type State struct {
	Phase      Phase
	LY         uint8
	LineDots   int
	DrawDots   int
	WindowLine int
	Frames     uint64

	LCDC, STAT uint8
	SCY, SCX   uint8
	LYC        uint8
	BGP        uint8
	OBP0, OBP1 uint8
	WY, WX     uint8

	VRAM    [0x2000]uint8
	OAM     [0xA0]uint8
	Frame   [FramebufferWidth * FramebufferHeight]uint8
	BGColor [FramebufferWidth]uint8
	DMA     DMASnapshot
}

// State returns the PPU state.
func (p *PPU) State() State {
	return State{
		Phase:      p.state,
		LY:         p.ly,
		LineDots:   p.lineDots,
		DrawDots:   p.drawDots,
		WindowLine: p.windowLine,
		Frames:     p.frames,
		LCDC:       p.lcdc,
		STAT:       p.stat,
		SCY:        p.scy,
		SCX:        p.scx,
		LYC:        p.lyc,
		BGP:        p.bgp,
		OBP0:       p.obp0,
		OBP1:       p.obp1,
		WY:         p.wy,
		WX:         p.wx,
		VRAM:       p.vram,
		OAM:        p.oam,
		Frame:      p.framebuffer.pixels,
		BGColor:    p.bgColor,
		DMA: DMASnapshot{
			State:    p.dma.state,
			Register: p.dma.register,
			Index:    p.dma.index,
		},
	}
}

// SetState loads s and rebuilds the tile and sprite caches from VRAM and OAM.
func (p *PPU) SetState(s State) {
	p.state = s.Phase
	p.ly = s.LY
	p.lineDots = s.LineDots
	p.drawDots = s.DrawDots
	p.windowLine = s.WindowLine
	p.frames = s.Frames
	p.lcdc, p.stat = s.LCDC, s.STAT
	p.scy, p.scx = s.SCY, s.SCX
	p.lyc = s.LYC
	p.bgp, p.obp0, p.obp1 = s.BGP, s.OBP0, s.OBP1
	p.wy, p.wx = s.WY, s.WX
	p.vram = s.VRAM
	p.oam = s.OAM
	p.framebuffer.pixels = s.Frame
	p.bgColor = s.BGColor

	p.dma.state = s.DMA.State
	p.dma.register = s.DMA.Register
	p.dma.source = uint16(s.DMA.Register) << 8
	p.dma.index = s.DMA.Index
	if p.dma.bus != nil {
		p.dma.bus.SetDMAActive(p.dma.state == DMAActive)
	}

	for offset := uint16(0); offset < TileCount*16; offset += 2 {
		p.updateTile(offset)
	}
	for i := uint16(0); i < spriteCount; i++ {
		p.updateSprite(i * 4)
	}
}
