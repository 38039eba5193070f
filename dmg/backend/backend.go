// Package backend connects a running DMG to a host frontend.
package backend

import (
	"github.com/valerio/go-dmgcore/dmg/input"
	"github.com/valerio/go-dmgcore/dmg/video"
)

// Backend is an interactive frontend, driven from the host loop in Run.
// Backends are responsible for:
//   - rendering frames to their output
//   - translating platform input to actions on the input manager
//   - showing the session status
type Backend interface {
	// Init prepares the backend. It is called once, before any Update.
	Init(cfg Config) error

	// Update renders the latest frame and processes pending platform events.
	Update(frame *video.FrameBuffer, status Status) error

	// Cleanup releases the backend's resources.
	Cleanup() error
}

// Config holds what a backend needs to know about the session.
type Config struct {
	Title     string
	Scale     int
	ShowDebug bool
	Input     *input.Manager
}
