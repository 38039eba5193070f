// Package headless runs a DMG for a fixed number of frames without any
// frontend, for automated testing and batch processing.
package headless

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/valerio/go-dmgcore/dmg"
	"github.com/valerio/go-dmgcore/dmg/backend"
	"github.com/valerio/go-dmgcore/dmg/video"
)

const (
	// pngWorkers bounds concurrent PNG encodes; the emulation goroutine
	// blocks when all are busy.
	pngWorkers   = 4
	progressStep = 60
	pollInterval = time.Millisecond
)

// Config holds the run length and the snapshot settings.
type Config struct {
	Frames int
	// SnapshotInterval saves a PNG every N frames; 0 disables snapshots.
	SnapshotInterval int
	SnapshotDir      string
	ROMName          string
}

// NewConfig validates the CLI parameters and prepares the snapshot
// directory, creating a temporary one when dir is empty.
func NewConfig(frames, interval int, dir, romPath string) (Config, error) {
	if frames <= 0 {
		return Config{}, errors.New("headless mode requires a positive frame count")
	}
	cfg := Config{Frames: frames, SnapshotInterval: interval}
	if interval <= 0 {
		return cfg, nil
	}

	if dir == "" {
		tmp, err := os.MkdirTemp("", "dmgcore-snapshots-*")
		if err != nil {
			return cfg, fmt.Errorf("create snapshot directory: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return cfg, fmt.Errorf("create snapshot directory: %w", err)
	}
	cfg.SnapshotDir = dir
	cfg.ROMName = strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	return cfg, nil
}

// Runner counts frames and saves snapshots. Present must be installed as a
// frame sink of the system passed to Run.
type Runner struct {
	cfg    Config
	logger *slog.Logger
	frames atomic.Int64
	saved  atomic.Int64
	writes errgroup.Group
}

func New(cfg Config) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: slog.Default().With("component", "headless"),
	}
	r.writes.SetLimit(pngWorkers)
	return r
}

// Present is the runner's frame sink.
func (r *Runner) Present(fb *video.FrameBuffer) {
	n := int(r.frames.Add(1))
	if r.cfg.SnapshotInterval > 0 && n%r.cfg.SnapshotInterval == 0 {
		r.save(fb.Copy(), n)
	}
	if n%progressStep == 0 {
		r.logger.Info("frame progress", "completed", n, "total", r.cfg.Frames)
	}
}

func (r *Runner) save(fb *video.FrameBuffer, frame int) {
	name := fmt.Sprintf("%s_frame_%d", r.cfg.ROMName, frame)
	r.writes.Go(func() error {
		if _, err := backend.SavePNG(fb, r.cfg.SnapshotDir, name); err != nil {
			return err
		}
		r.saved.Add(1)
		return nil
	})
}

// Frames returns the number of frames completed.
func (r *Runner) Frames() int { return int(r.frames.Load()) }

// Run executes the configured number of frames. With breakpoints or
// watchpoints set, the run goes through the debugger and ends early on the
// first hit.
func (r *Runner) Run(ctx context.Context, d *dmg.DMG) error {
	r.logger.Info("running headless",
		"frames", r.cfg.Frames,
		"snapshot_interval", r.cfg.SnapshotInterval,
		"snapshot_dir", r.cfg.SnapshotDir)

	var err error
	if armed(d) {
		err = r.runDebug(ctx, d)
	} else {
		err = r.runFrames(ctx, d)
	}

	if r.cfg.SnapshotInterval > 0 && r.Frames()%r.cfg.SnapshotInterval != 0 {
		r.save(d.Frame().Copy(), r.Frames())
	}
	if werr := r.writes.Wait(); werr != nil && err == nil {
		err = werr
	}
	if err != nil {
		return err
	}

	if r.cfg.SnapshotInterval > 0 {
		r.logger.Info("headless execution completed", "frames", r.Frames(), "png_snapshots", r.saved.Load(), "dir", r.cfg.SnapshotDir)
	} else {
		r.logger.Info("headless execution completed", "frames", r.Frames())
	}
	return nil
}

// runFrames counts RunFrame calls rather than presented frames, so a
// program that keeps the LCD off still ends.
func (r *Runner) runFrames(ctx context.Context, d *dmg.DMG) error {
	for range r.cfg.Frames {
		if ctx.Err() != nil {
			return nil
		}
		if err := d.RunFrame(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runDebug(ctx context.Context, d *dmg.DMG) error {
	if err := d.Start(); err != nil {
		return err
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return d.Stop()
		case <-ticker.C:
		}
		if !d.Running() {
			if err := d.Wait(); err != nil {
				return err
			}
			r.logger.Info("debug hit", "hit", d.Debugger().LastHit().Kind, "cpu", d.Debugger().Snapshot())
			return nil
		}
		if r.Frames() >= r.cfg.Frames {
			return d.Stop()
		}
	}
}

func armed(d *dmg.DMG) bool {
	dbg := d.Debugger()
	return len(dbg.Breakpoints()) > 0 || len(dbg.InstructionBreakpoints()) > 0 || len(dbg.Watchpoints()) > 0
}
