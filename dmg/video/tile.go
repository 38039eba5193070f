package video

import "github.com/valerio/go-dmgcore/dmg/bit"

// TileCount is the number of tiles stored in VRAM (0x8000-0x97FF).
const TileCount = 384

// TileRow is one 8 pixel row of a tile in the 2bpp plane format:
// the low byte provides bit 0 of each color number, the high byte bit 1,
// and bit 7 is the leftmost pixel.
//
//	Low  (0x3C): 0 0 1 1 1 1 0 0
//	High (0x7E): 0 1 1 1 1 1 1 0
//	            -----------------
//	Colors:      0 2 3 3 3 3 2 0
type TileRow struct {
	Low  uint8
	High uint8
}

// Pixel returns the color number (0-3) of pixel x, 0 being the leftmost.
func (r TileRow) Pixel(x int) uint8 {
	i := uint8(7 - x)
	return bit.Value(i, r.Low) | bit.Value(i, r.High)<<1
}

// PixelFlipped is Pixel with the row mirrored horizontally.
func (r TileRow) PixelFlipped(x int) uint8 {
	i := uint8(x)
	return bit.Value(i, r.Low) | bit.Value(i, r.High)<<1
}

// Tile is a decoded 8x8 tile, 16 bytes in VRAM.
type Tile struct {
	Rows [8]TileRow
}

// Pixel returns the color number at (x, y), 0 outside the tile.
func (t *Tile) Pixel(x, y int) uint8 {
	if x < 0 || x >= 8 || y < 0 || y >= 8 {
		return 0
	}
	return t.Rows[y].Pixel(x)
}

// updateTile refreshes the cached row containing the VRAM byte at offset.
func (p *PPU) updateTile(offset uint16) {
	if offset >= TileCount*16 {
		return
	}
	row := offset &^ 1
	t := &p.tiles[offset/16]
	t.Rows[(offset%16)/2] = TileRow{Low: p.vram[row], High: p.vram[row+1]}
}

// Tile returns the cached tile with the given VRAM index (0-383).
func (p *PPU) Tile(index int) Tile {
	return p.tiles[index]
}

// tileIndex resolves a tile map entry to a cache index, honoring the
// addressing mode selected by LCDC bit 4.
func (p *PPU) tileIndex(n uint8) int {
	if bit.IsSet(lcdcTileData, p.lcdc) {
		return int(n)
	}
	// 0x9000 based, signed
	return 256 + int(int8(n))
}
