package dmg

import (
	"log/slog"

	"github.com/valerio/go-dmgcore/dmg/audio"
	"github.com/valerio/go-dmgcore/dmg/debug"
	"github.com/valerio/go-dmgcore/dmg/input"
	"github.com/valerio/go-dmgcore/dmg/memory"
)

type config struct {
	frameSinks  []FrameSink
	sampleSinks []audio.SampleSink
	listeners   []debug.Listener
	clock       memory.Clock
	input       input.Source
	logger      *slog.Logger
}

// Option configures a DMG at construction.
type Option func(*config)

// WithFrameSink adds a receiver for completed frames.
func WithFrameSink(s FrameSink) Option {
	return func(c *config) { c.frameSinks = append(c.frameSinks, s) }
}

// WithSampleSink adds a receiver for the mixed audio output.
func WithSampleSink(s audio.SampleSink) Option {
	return func(c *config) { c.sampleSinks = append(c.sampleSinks, s) }
}

// WithDebugListener adds a listener to the debugger.
func WithDebugListener(l debug.Listener) Option {
	return func(c *config) { c.listeners = append(c.listeners, l) }
}

// WithClock sets the time source of the cartridge real time clock.
func WithClock(clk memory.Clock) Option {
	return func(c *config) { c.clock = clk }
}

// WithInput sets the source polled for held keys once per frame.
func WithInput(src input.Source) Option {
	return func(c *config) { c.input = src }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}
