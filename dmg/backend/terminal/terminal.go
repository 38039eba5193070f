// Package terminal is a tcell frontend: the frame drawn with half blocks,
// a status and register panel, and the recent log.
package terminal

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/valerio/go-dmgcore/dmg/backend"
	"github.com/valerio/go-dmgcore/dmg/input"
	"github.com/valerio/go-dmgcore/dmg/video"
)

const (
	width  = video.FramebufferWidth
	height = video.FramebufferHeight

	// two frame rows per terminal row, plus the title and help rows
	minTermWidth  = width + 24
	minTermHeight = height/2 + 2
	dividerX      = width + 1
	logCapacity   = 200

	// keyTimeout releases a button when the terminal stops repeating it;
	// terminals report presses only.
	keyTimeout = 150 * time.Millisecond
)

// Backend renders to the controlling terminal.
type Backend struct {
	screen tcell.Screen
	cfg    backend.Config
	logs   *LogBuffer
	events errgroup.Group

	mu        sync.Mutex
	held      map[input.Action]time.Time
	showDebug bool
	logLevel  slog.Level
	now       func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithScreen draws on s instead of the terminal.
func WithScreen(s tcell.Screen) Option {
	return func(b *Backend) { b.screen = s }
}

func New(opts ...Option) *Backend {
	b := &Backend{
		logs:     NewLogBuffer(logCapacity),
		held:     make(map[input.Action]time.Time),
		logLevel: slog.LevelInfo,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// LogHandler returns a handler feeding the log panel. Install it before the
// system is built so component loggers pick it up.
func (t *Backend) LogHandler(level slog.Leveler) slog.Handler {
	return NewLogHandler(t.logs, level)
}

func (t *Backend) Init(cfg backend.Config) error {
	t.cfg = cfg
	t.showDebug = cfg.ShowDebug
	if t.screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		t.screen = s
	}
	if err := t.screen.Init(); err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	t.screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite))
	t.screen.Clear()

	t.events.Go(t.pollEvents)
	slog.Info("terminal backend initialized", "title", cfg.Title)
	return nil
}

// pollEvents runs until the screen is finalized.
func (t *Backend) pollEvents() error {
	for {
		switch ev := t.screen.PollEvent().(type) {
		case nil:
			return nil
		case *tcell.EventKey:
			t.processKey(ev)
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}

var specialKeys = map[tcell.Key]string{
	tcell.KeyEnter:      "Enter",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
	tcell.KeyEscape:     "Escape",
	tcell.KeyBackspace:  "Select",
	tcell.KeyBackspace2: "Select",
	tcell.KeyTab:        "Select",
	tcell.KeyF5:         "F5",
	tcell.KeyF9:         "F9",
}

func keyName(ev *tcell.EventKey) string {
	if ev.Key() == tcell.KeyRune {
		if ev.Rune() == ' ' {
			return "Space"
		}
		return string(ev.Rune())
	}
	return specialKeys[ev.Key()]
}

var directions = []input.Action{input.ActionUp, input.ActionDown, input.ActionLeft, input.ActionRight}

func (t *Backend) processKey(ev *tcell.EventKey) {
	if ev.Key() == tcell.KeyCtrlC {
		t.cfg.Input.Press(input.ActionQuit)
		return
	}
	if ev.Key() == tcell.KeyF10 {
		t.mu.Lock()
		t.showDebug = !t.showDebug
		t.mu.Unlock()
		return
	}

	name := keyName(ev)
	act, ok := input.DefaultKeyMap[name]
	if !ok {
		t.changeLogLevel(name)
		return
	}
	if _, button := act.Key(); !button {
		t.cfg.Input.Press(act)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if isDirection(act) {
		// one direction at a time, since repeats only come for the last key
		for _, d := range directions {
			if d != act {
				delete(t.held, d)
				t.cfg.Input.Release(d)
			}
		}
	}
	t.held[act] = t.now()
	t.cfg.Input.Press(act)
}

func isDirection(a input.Action) bool {
	for _, d := range directions {
		if a == d {
			return true
		}
	}
	return false
}

func (t *Backend) changeLogLevel(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch name {
	case "+", "=":
		if t.logLevel > slog.LevelDebug {
			t.logLevel -= 4
		}
	case "-", "_":
		if t.logLevel < slog.LevelError {
			t.logLevel += 4
		}
	}
}

// releaseExpired lets go of buttons the terminal stopped repeating.
func (t *Backend) releaseExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for act, pressed := range t.held {
		if now.Sub(pressed) >= keyTimeout {
			delete(t.held, act)
			t.cfg.Input.Release(act)
		}
	}
}

func (t *Backend) Update(frame *video.FrameBuffer, status backend.Status) error {
	t.releaseExpired()
	t.render(frame, status)
	t.screen.Show()
	return nil
}

func (t *Backend) Cleanup() error {
	if t.screen == nil {
		return nil
	}
	t.screen.Fini()
	return t.events.Wait()
}
