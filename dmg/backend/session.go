package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/valerio/go-dmgcore/dmg"
	"github.com/valerio/go-dmgcore/dmg/debug"
	"github.com/valerio/go-dmgcore/dmg/disasm"
	"github.com/valerio/go-dmgcore/dmg/input"
	"github.com/valerio/go-dmgcore/dmg/savestate"
	"github.com/valerio/go-dmgcore/dmg/timing"
	"github.com/valerio/go-dmgcore/dmg/video"
)

// ErrQuit is returned by Tick once the user asked to quit.
var ErrQuit = errors.New("quit requested")

type command int

const (
	cmdPause command = iota
	cmdStep
	cmdSaveState
	cmdScreenshot
	cmdQuit
)

var commandNames = [...]string{"pause", "step", "save-state", "screenshot", "quit"}

func (c command) String() string { return commandNames[c] }

// Status describes the session for display.
type Status struct {
	Paused bool
	Frames uint64
	Hit    debug.Hit
	// CPU and Listing are only filled in while paused.
	CPU     debug.Snapshot
	Listing []disasm.Line
}

// listingLines is how many instructions from PC a paused status lists.
const listingLines = 8

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithStatePath sets where the save-state action writes.
func WithStatePath(path string) SessionOption {
	return func(s *Session) { s.statePath = path }
}

// WithScreenshotDir sets where the screenshot action writes.
func WithScreenshotDir(dir string) SessionOption {
	return func(s *Session) { s.screenshotDir = dir }
}

func WithLogger(l *slog.Logger) SessionOption {
	return func(s *Session) { s.logger = l }
}

// Session owns the execution goroutine of a DMG on behalf of a host loop.
// Start, Tick and Close must all be called from that one loop; input
// handlers only queue commands for it.
type Session struct {
	dmg    *dmg.DMG
	pacer  timing.Pacer
	logger *slog.Logger

	statePath     string
	screenshotDir string

	commands chan command

	mu     sync.Mutex
	latest video.FrameBuffer
	frames atomic.Uint64

	// host loop only
	shown   video.FrameBuffer
	running bool
	status  Status
}

// NewSession returns a session paced by p. Emulator actions on in are bound
// to the session.
func NewSession(p timing.Pacer, in *input.Manager, opts ...SessionOption) *Session {
	s := &Session{
		pacer:         p,
		logger:        slog.Default().With("component", "session"),
		screenshotDir: ".",
		commands:      make(chan command, 8),
	}
	for _, opt := range opts {
		opt(s)
	}
	if in != nil {
		in.On(input.ActionPauseToggle, func() { s.send(cmdPause) })
		in.On(input.ActionStepInstruction, func() { s.send(cmdStep) })
		in.On(input.ActionSaveState, func() { s.send(cmdSaveState) })
		in.On(input.ActionSnapshot, func() { s.send(cmdScreenshot) })
		in.On(input.ActionQuit, func() { s.send(cmdQuit) })
	}
	return s
}

// Present is the session's frame sink. It runs on the execution goroutine
// and blocks on the pacer.
func (s *Session) Present(fb *video.FrameBuffer) {
	s.mu.Lock()
	s.latest = *fb
	s.mu.Unlock()
	s.frames.Add(1)
	s.pacer.Wait()
}

// Attach sets the system the session controls.
func (s *Session) Attach(d *dmg.DMG) {
	s.dmg = d
}

// Start begins execution.
func (s *Session) Start() error {
	if s.running {
		return nil
	}
	s.pacer.Reset()
	if err := s.dmg.Start(); err != nil {
		return err
	}
	s.running = true
	s.status.Paused = false
	s.status.Hit = debug.Hit{}
	return nil
}

// Quit asks the session to end at the next Tick.
func (s *Session) Quit() { s.send(cmdQuit) }

func (s *Session) send(c command) {
	select {
	case s.commands <- c:
	default:
		s.logger.Warn("command dropped", "command", c)
	}
}

// Tick applies queued commands and notices a run that ended on its own,
// on a debug hit or an execution error.
func (s *Session) Tick() error {
drain:
	for {
		select {
		case c := <-s.commands:
			if err := s.handle(c); err != nil {
				return err
			}
		default:
			break drain
		}
	}

	if s.running && !s.dmg.Running() {
		s.running = false
		if err := s.dmg.Wait(); err != nil {
			return fmt.Errorf("emulation stopped: %w", err)
		}
		s.paused()
		s.logger.Info("paused", "hit", s.status.Hit.Kind, "pc", fmt.Sprintf("%04X", s.status.Hit.PC))
	}
	return nil
}

func (s *Session) handle(c command) error {
	switch c {
	case cmdPause:
		if s.running {
			return s.pause()
		}
		return s.Start()
	case cmdStep:
		if s.running {
			return nil
		}
		if err := s.dmg.Step(); err != nil {
			return fmt.Errorf("step: %w", err)
		}
		s.paused()
	case cmdSaveState:
		return s.saveState()
	case cmdScreenshot:
		path, err := SavePNG(s.Frame(), s.screenshotDir, fmt.Sprintf("frame_%d", s.Frames()))
		if err != nil {
			s.logger.Error("screenshot failed", "error", err)
			return nil
		}
		s.logger.Info("screenshot saved", "path", path)
	case cmdQuit:
		return ErrQuit
	}
	return nil
}

func (s *Session) pause() error {
	s.running = false
	if err := s.dmg.Stop(); err != nil {
		return fmt.Errorf("emulation stopped: %w", err)
	}
	s.paused()
	return nil
}

func (s *Session) paused() {
	s.status.Paused = true
	s.status.Hit = s.dmg.Debugger().LastHit()
	s.status.CPU = s.dmg.Debugger().Snapshot()
	s.status.Listing = disasm.Range(s.dmg.Peek, s.status.CPU.PC, listingLines)
}

func (s *Session) saveState() error {
	if s.statePath == "" {
		s.logger.Warn("no save state path configured")
		return nil
	}
	resume := s.running
	if resume {
		if err := s.pause(); err != nil {
			return err
		}
	}
	st, err := s.dmg.Snapshot()
	if err == nil {
		err = savestate.SaveFile(s.statePath, st)
	}
	if err != nil {
		s.logger.Error("save state failed", "error", err)
	} else {
		s.logger.Info("state saved", "path", s.statePath)
	}
	if resume {
		return s.Start()
	}
	return nil
}

// Frame returns the last completed frame. The buffer is reused by the next
// call.
func (s *Session) Frame() *video.FrameBuffer {
	s.mu.Lock()
	s.shown = s.latest
	s.mu.Unlock()
	return &s.shown
}

// Frames returns the number of frames presented.
func (s *Session) Frames() uint64 { return s.frames.Load() }

// Status returns the session status for display.
func (s *Session) Status() Status {
	st := s.status
	st.Frames = s.Frames()
	return st
}

// Close stops execution.
func (s *Session) Close() error {
	if !s.running {
		return nil
	}
	s.running = false
	return s.dmg.Stop()
}

// Run drives b at the frame rate until ctx ends, the user quits or
// emulation fails. Execution starts paused when paused is set.
func Run(ctx context.Context, b Backend, s *Session, cfg Config, paused bool) (err error) {
	if err := b.Init(cfg); err != nil {
		return fmt.Errorf("init backend: %w", err)
	}
	defer func() {
		if cerr := b.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if paused {
		s.paused()
	} else if err := s.Start(); err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ticker := time.NewTicker(timing.FrameDuration())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := s.Tick(); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			return err
		}
		if err := b.Update(s.Frame(), s.Status()); err != nil {
			return err
		}
	}
}
