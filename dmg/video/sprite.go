package video

import (
	"slices"

	"github.com/valerio/go-dmgcore/dmg/bit"
)

const (
	spriteCount       = 40
	maxSpritesPerLine = 10
)

// Sprite is one decoded OAM entry. Y and X keep the hardware offsets of 16
// and 8, so a sprite at Y=0 or X=0 is fully off screen.
type Sprite struct {
	Y         uint8
	X         uint8
	TileIndex uint8
	Flags     uint8
	OAMIndex  int

	PaletteOBP1 bool
	FlipX       bool
	FlipY       bool
	BehindBG    bool
}

func (s *Sprite) parseFlags() {
	s.PaletteOBP1 = bit.IsSet(4, s.Flags)
	s.FlipX = bit.IsSet(5, s.Flags)
	s.FlipY = bit.IsSet(6, s.Flags)
	s.BehindBG = bit.IsSet(7, s.Flags)
}

// updateSprite re-decodes the OAM entry containing offset.
func (p *PPU) updateSprite(offset uint16) {
	i := int(offset / 4)
	base := i * 4
	s := Sprite{
		Y:         p.oam[base],
		X:         p.oam[base+1],
		TileIndex: p.oam[base+2],
		Flags:     p.oam[base+3],
		OAMIndex:  i,
	}
	s.parseFlags()
	p.sprites[i] = s
}

// Sprite returns the decoded OAM entry i (0-39).
func (p *PPU) Sprite(i int) Sprite {
	return p.sprites[i]
}

func (p *PPU) spriteHeight() int {
	if bit.IsSet(lcdcSpriteSize, p.lcdc) {
		return 16
	}
	return 8
}

// spritesForLine selects the first 10 sprites in OAM order that intersect
// line, drops those fully off screen horizontally, and orders the rest by X
// descending then OAM index descending. Drawing in that order leaves the
// lowest X, lowest index sprite on top.
func (p *PPU) spritesForLine(line int) []Sprite {
	height := p.spriteHeight()
	selected := p.lineSprites[:0]

	for i := range spriteCount {
		s := p.sprites[i]
		top := int(s.Y) - 16
		if line < top || line >= top+height {
			continue
		}
		if len(selected) == maxSpritesPerLine {
			break
		}
		selected = append(selected, s)
	}

	visible := selected[:0]
	for _, s := range selected {
		if s.X == 0 || s.X >= FramebufferWidth+8 {
			continue
		}
		visible = append(visible, s)
	}

	slices.SortFunc(visible, func(a, b Sprite) int {
		if a.X != b.X {
			return int(b.X) - int(a.X)
		}
		return b.OAMIndex - a.OAMIndex
	})
	return visible
}
