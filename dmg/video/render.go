package video

import "github.com/valerio/go-dmgcore/dmg/bit"

// applyPalette maps a color number through a BGP/OBP style register.
func applyPalette(palette, color uint8) uint8 {
	return palette >> (color * 2) & 0x03
}

func (p *PPU) renderLine() {
	line := int(p.ly)
	if line >= FramebufferHeight {
		return
	}
	p.renderBackground(line)
	p.renderWindow(line)
	if bit.IsSet(lcdcSpriteEnable, p.lcdc) {
		p.renderSprites(line)
	}
}

// mapTile returns the tile at (col, row) of the tile map selected by LCDC bit.
func (p *PPU) mapTile(selectBit uint8, col, row int) *Tile {
	base := 0x1800
	if bit.IsSet(selectBit, p.lcdc) {
		base = 0x1C00
	}
	n := p.vram[base+row*32+col]
	return &p.tiles[p.tileIndex(n)]
}

func (p *PPU) renderBackground(line int) {
	if !bit.IsSet(lcdcBGEnable, p.lcdc) {
		clear(p.bgColor[:])
		for x := range FramebufferWidth {
			p.framebuffer.SetShade(x, line, 0)
		}
		return
	}

	y := (line + int(p.scy)) & 0xFF
	for x := range FramebufferWidth {
		sx := (x + int(p.scx)) & 0xFF
		color := p.mapTile(lcdcBGMap, sx/8, y/8).Pixel(sx%8, y%8)
		p.bgColor[x] = color
		p.framebuffer.SetShade(x, line, applyPalette(p.bgp, color))
	}
}

// renderWindow draws the window over the background. The window uses its own
// line counter, which only advances on lines where the window was drawn.
func (p *PPU) renderWindow(line int) {
	if !bit.IsSet(lcdcWindowEnable, p.lcdc) || !bit.IsSet(lcdcBGEnable, p.lcdc) {
		return
	}
	if line < int(p.wy) || p.wx > FramebufferWidth+6 {
		return
	}

	y := p.windowLine
	start := int(p.wx) - 7
	for x := max(start, 0); x < FramebufferWidth; x++ {
		wx := x - start
		color := p.mapTile(lcdcWindowMap, wx/8, y/8).Pixel(wx%8, y%8)
		p.bgColor[x] = color
		p.framebuffer.SetShade(x, line, applyPalette(p.bgp, color))
	}
	p.windowLine++
}

func (p *PPU) renderSprites(line int) {
	height := p.spriteHeight()

	for _, s := range p.spritesForLine(line) {
		row := line - (int(s.Y) - 16)
		if s.FlipY {
			row = height - 1 - row
		}
		index := s.TileIndex
		if height == 16 {
			index &^= 0x01
		}
		tile := &p.tiles[int(index)+row/8]
		tileRow := tile.Rows[row%8]

		palette := p.obp0
		if s.PaletteOBP1 {
			palette = p.obp1
		}

		for px := range 8 {
			x := int(s.X) - 8 + px
			if x < 0 || x >= FramebufferWidth {
				continue
			}
			var color uint8
			if s.FlipX {
				color = tileRow.PixelFlipped(px)
			} else {
				color = tileRow.Pixel(px)
			}
			if color == 0 {
				continue
			}
			if s.BehindBG && p.bgColor[x] != 0 {
				continue
			}
			p.framebuffer.SetShade(x, line, applyPalette(palette, color))
		}
	}
}
