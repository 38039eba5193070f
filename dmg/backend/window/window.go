//go:build ebiten

// Package window is an ebiten frontend, built with the ebiten tag.
package window

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/valerio/go-dmgcore/dmg/backend"
	"github.com/valerio/go-dmgcore/dmg/input"
	"github.com/valerio/go-dmgcore/dmg/timing"
	"github.com/valerio/go-dmgcore/dmg/video"
)

// Available reports whether this build has window support.
const Available = true

var keyNames = map[ebiten.Key]string{
	ebiten.KeyZ:          "z",
	ebiten.KeyX:          "x",
	ebiten.KeyEnter:      "Enter",
	ebiten.KeyShiftLeft:  "Shift",
	ebiten.KeyShiftRight: "Shift",
	ebiten.KeyArrowUp:    "Up",
	ebiten.KeyArrowDown:  "Down",
	ebiten.KeyArrowLeft:  "Left",
	ebiten.KeyArrowRight: "Right",
	ebiten.KeyW:          "w",
	ebiten.KeyS:          "s",
	ebiten.KeyA:          "a",
	ebiten.KeyD:          "d",
	ebiten.KeySpace:      "Space",
	ebiten.KeyP:          "p",
	ebiten.KeyN:          "n",
	ebiten.KeyF5:         "F5",
	ebiten.KeyF9:         "F9",
	ebiten.KeyEscape:     "Escape",
	ebiten.KeyQ:          "q",
}

type game struct {
	session *backend.Session
	cfg     backend.Config
	image   *ebiten.Image
	err     error
}

// Run opens a window and drives the session from ebiten's update loop until
// the window is closed, the user quits or emulation fails. It must be called
// from the main goroutine.
func Run(s *backend.Session, cfg backend.Config, paused bool) error {
	scale := max(cfg.Scale, 1)
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(video.FramebufferWidth*scale, video.FramebufferHeight*scale)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(int(timing.FrameRate() + 0.5))

	if !paused {
		if err := s.Start(); err != nil {
			return err
		}
	}
	g := &game{
		session: s,
		cfg:     cfg,
		image:   ebiten.NewImage(video.FramebufferWidth, video.FramebufferHeight),
	}
	err := ebiten.RunGame(g)
	if cerr := s.Close(); cerr != nil && g.err == nil {
		g.err = cerr
	}
	if g.err != nil {
		return g.err
	}
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("window: %w", err)
	}
	return nil
}

func (g *game) Update() error {
	for key, name := range keyNames {
		act, ok := input.DefaultKeyMap[name]
		if !ok {
			continue
		}
		if inpututil.IsKeyJustPressed(key) {
			g.cfg.Input.Press(act)
		} else if inpututil.IsKeyJustReleased(key) {
			g.cfg.Input.Release(act)
		}
	}

	if err := g.session.Tick(); err != nil {
		if !errors.Is(err, backend.ErrQuit) {
			g.err = err
		}
		return ebiten.Termination
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.image.WritePixels(g.session.Frame().Image().Pix)
	screen.Fill(color.Black)

	sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
	scale := min(float64(sw)/video.FramebufferWidth, float64(sh)/video.FramebufferHeight)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate((float64(sw)-video.FramebufferWidth*scale)/2, (float64(sh)-video.FramebufferHeight*scale)/2)
	screen.DrawImage(g.image, op)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}
