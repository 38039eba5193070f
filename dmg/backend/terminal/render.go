package terminal

import (
	"fmt"
	"log/slog"

	"github.com/gdamore/tcell/v2"

	"github.com/valerio/go-dmgcore/dmg/backend"
	"github.com/valerio/go-dmgcore/dmg/debug"
	"github.com/valerio/go-dmgcore/dmg/video"
)

// shadeColors maps frame shades, lightest first, to terminal colors.
var shadeColors = [4]tcell.Color{
	tcell.ColorWhite,
	tcell.ColorSilver,
	tcell.ColorGray,
	tcell.ColorBlack,
}

var (
	borderStyle  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	titleStyle   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	panelStyle   = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	listStyle    = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	currentStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	levelStyles  = map[slog.Level]tcell.Style{
		slog.LevelDebug: tcell.StyleDefault.Foreground(tcell.ColorGray),
		slog.LevelInfo:  tcell.StyleDefault.Foreground(tcell.ColorBlue),
		slog.LevelWarn:  tcell.StyleDefault.Foreground(tcell.ColorYellow),
		slog.LevelError: tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true),
	}
)

// halfBlock draws two vertically stacked pixels in one cell: the upper half
// block in the top color over the bottom color.
func halfBlock(top, bottom uint8) (rune, tcell.Style) {
	return '▀', tcell.StyleDefault.Foreground(shadeColors[top]).Background(shadeColors[bottom])
}

func (t *Backend) render(frame *video.FrameBuffer, status backend.Status) {
	t.screen.Clear()
	w, h := t.screen.Size()
	if w < minTermWidth || h < minTermHeight {
		t.text(0, h/2, w, fmt.Sprintf("Terminal too small! Need at least %dx%d", minTermWidth, minTermHeight),
			tcell.StyleDefault.Foreground(tcell.ColorRed))
		return
	}

	t.mu.Lock()
	showDebug, level := t.showDebug, t.logLevel
	t.mu.Unlock()

	t.drawFrame(frame)
	for y := range h - 1 {
		t.screen.SetContent(dividerX, y, '│', nil, borderStyle)
	}
	t.text(1, 0, dividerX-1, " "+t.cfg.Title+" ", titleStyle)
	t.text(0, h-1, w, " SPACE=pause N=step F5=save state F9=screenshot F10=debug +/-=log filter ESC=quit ", borderStyle)

	x, y := dividerX+2, 0
	panelWidth := w - x
	if showDebug {
		y = t.drawStatus(x, y, panelWidth, status)
		y++
	}
	t.text(x, y, panelWidth, fmt.Sprintf(" Logs [%s] ", level), titleStyle)
	t.drawLogs(x, y+1, panelWidth, h-y-2, level)
}

func (t *Backend) drawFrame(frame *video.FrameBuffer) {
	for y := 0; y < height; y += 2 {
		for x := range width {
			r, style := halfBlock(frame.Shade(x, y), frame.Shade(x, y+1))
			t.screen.SetContent(x, y/2+1, r, nil, style)
		}
	}
}

// drawStatus writes the session state and, while paused, the registers and
// the upcoming instructions. It returns the next free row.
func (t *Backend) drawStatus(x, y, w int, st backend.Status) int {
	state := "RUNNING"
	if st.Paused {
		state = "PAUSED"
	}
	t.text(x, y, w, " CPU ", titleStyle)
	y++
	t.text(x, y, w, fmt.Sprintf("Status: %s  Frames: %d", state, st.Frames), panelStyle)
	y++
	if !st.Paused {
		return y
	}

	c := st.CPU
	if st.Hit.Kind != debug.HitNone {
		t.text(x, y, w, fmt.Sprintf("Stopped: %s at %04X", st.Hit.Kind, st.Hit.PC), currentStyle)
		y++
	}
	for _, line := range []string{
		fmt.Sprintf("AF: %04X  BC: %04X", c.AF, c.BC),
		fmt.Sprintf("DE: %04X  HL: %04X", c.DE, c.HL),
		fmt.Sprintf("SP: %04X  PC: %04X", c.SP, c.PC),
		fmt.Sprintf("Flags: %s  IME: %t", c.Flags, c.IME),
		fmt.Sprintf("Mode: %s  Cycles: %d", c.Mode, c.Cycles),
	} {
		t.text(x, y, w, line, panelStyle)
		y++
	}

	y++
	t.text(x, y, w, " Disassembly ", titleStyle)
	y++
	for _, l := range st.Listing {
		style, marker := listStyle, "  "
		if l.Address == c.PC {
			style, marker = currentStyle, "→ "
		}
		t.text(x, y, w, marker+l.String(), style)
		y++
	}
	return y
}

func (t *Backend) drawLogs(x, y, w, rows int, level slog.Level) {
	if rows <= 0 {
		return
	}
	for i, e := range t.logs.Recent(rows, level) {
		style, ok := levelStyles[e.Level]
		if !ok {
			style = panelStyle
		}
		t.text(x, y+i, w, e.String(), style)
	}
}

// text writes s from (x, y), cut to w cells.
func (t *Backend) text(x, y, w int, s string, style tcell.Style) {
	if w <= 0 {
		return
	}
	i := 0
	for _, r := range s {
		if i >= w {
			return
		}
		t.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}
