package video

import (
	"image"
	"image/color"
)

const (
	FramebufferWidth  = 160
	FramebufferHeight = 144
)

// GBColor is a 0xAARRGGBB display color.
type GBColor uint32

const (
	WhiteColor     GBColor = 0xFFFFFFFF
	LightGreyColor GBColor = 0xFF989898
	DarkGreyColor  GBColor = 0xFF4C4C4C
	BlackColor     GBColor = 0xFF000000
)

// Shades maps a 2-bit shade, as produced by a palette register, to its color.
var Shades = [4]GBColor{WhiteColor, LightGreyColor, DarkGreyColor, BlackColor}

// RGBA splits the color into its components.
func (c GBColor) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: uint8(c >> 24)}
}

// FrameBuffer holds one 160x144 frame as palette-mapped shades (0-3).
type FrameBuffer struct {
	pixels [FramebufferWidth * FramebufferHeight]uint8
}

// NewFrameBuffer returns a white frame.
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

// Shade returns the shade at (x, y).
func (fb *FrameBuffer) Shade(x, y int) uint8 {
	return fb.pixels[y*FramebufferWidth+x]
}

// SetShade sets the shade at (x, y); only the low 2 bits are kept.
func (fb *FrameBuffer) SetShade(x, y int, shade uint8) {
	fb.pixels[y*FramebufferWidth+x] = shade & 0x03
}

// Color returns the display color at (x, y).
func (fb *FrameBuffer) Color(x, y int) GBColor {
	return Shades[fb.Shade(x, y)]
}

// Clear fills the frame with shade 0.
func (fb *FrameBuffer) Clear() {
	clear(fb.pixels[:])
}

// Pixels returns the underlying shade slice, row major.
func (fb *FrameBuffer) Pixels() []uint8 {
	return fb.pixels[:]
}

// ToSlice returns the frame as 0xAARRGGBB colors, row major.
func (fb *FrameBuffer) ToSlice() []uint32 {
	out := make([]uint32, len(fb.pixels))
	for i, s := range fb.pixels {
		out[i] = uint32(Shades[s])
	}
	return out
}

// Image converts the frame to an RGBA image.
func (fb *FrameBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, FramebufferWidth, FramebufferHeight))
	for y := range FramebufferHeight {
		for x := range FramebufferWidth {
			img.SetRGBA(x, y, fb.Color(x, y).RGBA())
		}
	}
	return img
}

// Copy returns a snapshot of the frame, for sinks that keep frames around.
func (fb *FrameBuffer) Copy() *FrameBuffer {
	c := *fb
	return &c
}
